package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkPacksParagraphs(t *testing.T) {
	text := "Senior engineer at Globex.\n\nLed payments migration.\n\n\n  Mentored four   engineers.  "
	assert.Equal(t, []string{"Senior engineer at Globex.\nLed payments migration.\nMentored four engineers."}, Chunk(text, 500))
	assert.Equal(t, []string{"Senior engineer at Globex.", "Led payments migration.", "Mentored four engineers."}, Chunk(text, 30))
}

func TestChunkSplitsLongParagraphOnWords(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("word ", 30))
	chunks := Chunk(long, 20)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 20)
	}
	assert.Equal(t, long, strings.Join(chunks, " "))
	assert.Empty(t, Chunk("   \n\n ", 20))
}
