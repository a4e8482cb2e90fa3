package retrieval

import "strings"

const (
	defaultChunkChars = 500
)

// Chunk splits text on blank lines, then packs paragraphs into chunks of at
// most size characters. A paragraph longer than size is split on word
// boundaries.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = defaultChunkChars
	}
	var out []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.Join(strings.Fields(para), " ")
		if para == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+1+len(para) > size {
			flush()
		}
		if len(para) <= size {
			if cur.Len() > 0 {
				cur.WriteString("\n")
			}
			cur.WriteString(para)
			continue
		}
		for _, w := range strings.Fields(para) {
			if cur.Len() > 0 && cur.Len()+1+len(w) > size {
				flush()
			}
			if cur.Len() > 0 {
				cur.WriteString(" ")
			}
			cur.WriteString(w)
		}
	}
	flush()
	return out
}
