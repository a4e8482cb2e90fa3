package retrieval

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"
)

type memChunk struct {
	source Source
	text   string
	terms  map[string]struct{}
}

// Memory ranks a session's chunks by term overlap with the query. It is used
// when no vector store is configured.
type Memory struct {
	maxChars int

	mu       sync.RWMutex
	sessions map[string][]memChunk
}

func NewMemory(maxChars int) *Memory {
	return &Memory{maxChars: maxChars, sessions: make(map[string][]memChunk)}
}

func (m *Memory) Index(ctx context.Context, sessionID string, docs []Document) error {
	var chunks []memChunk
	for _, d := range docs {
		for _, c := range Chunk(d.Text, defaultChunkChars) {
			chunks = append(chunks, memChunk{source: d.Source, text: c, terms: terms(c)})
		}
	}
	m.mu.Lock()
	m.sessions[sessionID] = append(m.sessions[sessionID], chunks...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Forget(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Retrieve(ctx context.Context, query string, sessionID string) (string, error) {
	m.mu.RLock()
	chunks := m.sessions[sessionID]
	m.mu.RUnlock()
	if len(chunks) == 0 {
		return "", nil
	}

	q := terms(query)
	var matches []Match
	for src, k := range sourceTopK {
		var ranked []Match
		for _, c := range chunks {
			if c.source != src {
				continue
			}
			score := overlap(q, c.terms)
			if score == 0 {
				continue
			}
			ranked = append(ranked, Match{Source: src, Text: c.text, Score: score})
		}
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
		if len(ranked) > k {
			ranked = ranked[:k]
		}
		matches = append(matches, ranked...)
	}
	return formatContext(matches, m.maxChars), nil
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "you": {}, "your": {}, "for": {}, "with": {}, "that": {},
	"this": {}, "what": {}, "about": {}, "tell": {}, "time": {}, "have": {}, "was": {},
	"are": {}, "how": {}, "did": {}, "can": {}, "would": {}, "me": {},
}

func terms(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(w) < 3 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(q, doc map[string]struct{}) float64 {
	if len(q) == 0 {
		return 0
	}
	n := 0
	for w := range q {
		if _, ok := doc[w]; ok {
			n++
		}
	}
	return float64(n) / float64(len(q))
}
