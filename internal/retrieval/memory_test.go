package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/interviewcoach-backend/internal/config"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

func TestMemoryRetrieveRanksBySession(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()
	require.NoError(t, m.Index(ctx, "s1", []Document{
		{Source: SourceResume, Text: "Led the Kafka migration at Globex.\n\nBuilt a React design system."},
		{Source: SourceJobDescription, Text: "Experience operating Kafka clusters at scale."},
	}))
	require.NoError(t, m.Index(ctx, "s2", []Document{{Source: SourceResume, Text: "Kafka expert elsewhere."}}))

	out, err := m.Retrieve(ctx, "Tell me about your Kafka migration", "s1")
	require.NoError(t, err)
	assert.Equal(t, "## Relevant Candidate Experience\n1. Led the Kafka migration at Globex.\nBuilt a React design system.\n\n## Relevant Job Requirements\n1. Experience operating Kafka clusters at scale.", out)

	out, err = m.Retrieve(ctx, "Tell me about gardening", "s1")
	require.NoError(t, err)
	assert.Empty(t, out)

	require.NoError(t, m.Forget(ctx, "s1"))
	out, err = m.Retrieve(ctx, "Kafka", "s1")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFormatContextTruncates(t *testing.T) {
	out := formatContext([]Match{{Source: SourceResume, Text: "abcdefghijklmnopqrstuvwxyz"}}, 40)
	assert.Len(t, []rune(out), 40)
	assert.Empty(t, formatContext(nil, 40))
}

func TestNewDefaultsToTracedMemory(t *testing.T) {
	svc, err := New(context.Background(), logger.Nop(), config.RetrievalConfig{Provider: "none", MaxChars: 500}, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Index(context.Background(), "s1", []Document{{Source: SourceResume, Text: "Led the Kafka migration at Globex."}}))
	out, err := svc.Retrieve(context.Background(), "kafka migration", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "Kafka")
	require.NoError(t, svc.Forget(context.Background(), "s1"))
	out, _ = svc.Retrieve(context.Background(), "kafka migration", "s1")
	assert.Empty(t, out)
}
