package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/interviewcoach-backend/internal/config"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

type Source string

const (
	SourceResume         Source = "resume"
	SourceJobDescription Source = "job_description"
)

// Per-source result counts for one query.
var sourceTopK = map[Source]int{
	SourceResume:         3,
	SourceJobDescription: 2,
}

type Document struct {
	Source Source
	Text   string
}

type Match struct {
	Source Source
	Text   string
	Score  float64
}

// Retriever returns background text relevant to query for a session. An
// empty string means nothing relevant.
type Retriever interface {
	Retrieve(ctx context.Context, query string, sessionID string) (string, error)
}

// Indexer makes a session's documents available to Retrieve.
type Indexer interface {
	Index(ctx context.Context, sessionID string, docs []Document) error
	Forget(ctx context.Context, sessionID string) error
}

type Service interface {
	Retriever
	Indexer
}

// Noop retrieves nothing.
type Noop struct{}

func (Noop) Retrieve(context.Context, string, string) (string, error) { return "", nil }
func (Noop) Index(context.Context, string, []Document) error          { return nil }
func (Noop) Forget(context.Context, string) error                     { return nil }

// formatContext renders matches grouped by source, stopping at maxChars.
func formatContext(matches []Match, maxChars int) string {
	var b strings.Builder
	section := func(src Source, title string) {
		n := 0
		for _, m := range matches {
			if m.Source != src || strings.TrimSpace(m.Text) == "" {
				continue
			}
			if n == 0 {
				if b.Len() > 0 {
					b.WriteString("\n")
				}
				b.WriteString("## " + title + "\n")
			}
			n++
			fmt.Fprintf(&b, "%d. %s\n", n, strings.TrimSpace(m.Text))
		}
	}
	section(SourceResume, "Relevant Candidate Experience")
	section(SourceJobDescription, "Relevant Job Requirements")

	out := strings.TrimSpace(b.String())
	if maxChars > 0 {
		if r := []rune(out); len(r) > maxChars {
			out = strings.TrimSpace(string(r[:maxChars]))
		}
	}
	return out
}

// New picks the configured backend. Without a vector store, documents are
// kept in memory and ranked lexically.
func New(ctx context.Context, log *logger.Logger, cfg config.RetrievalConfig, embedder Embedder) (Service, error) {
	switch cfg.Provider {
	case "qdrant":
		q, err := NewQdrant(log, cfg, embedder, nil)
		if err != nil {
			return nil, err
		}
		if err := q.VerifyReady(ctx); err != nil {
			return nil, err
		}
		return withTracing(q, "qdrant"), nil
	default:
		return withTracing(NewMemory(cfg.MaxChars), "memory"), nil
	}
}
