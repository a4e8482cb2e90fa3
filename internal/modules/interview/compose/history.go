package compose

import (
	"sync"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
)

// History is the append-only conversation log used to build prompts.
type History struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry
}

func NewHistory() *History { return &History{} }

func (h *History) Append(speaker domain.Speaker, text string) {
	h.mu.Lock()
	h.entries = append(h.entries, domain.HistoryEntry{Speaker: speaker, Text: text})
	h.mu.Unlock()
}

// Window returns a copy of the last n entries.
func (h *History) Window(n int) []domain.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	start := 0
	if n >= 0 && len(h.entries) > n {
		start = len(h.entries) - n
	}
	return append([]domain.HistoryEntry(nil), h.entries[start:]...)
}

// All returns a copy of every entry.
func (h *History) All() []domain.HistoryEntry {
	return h.Window(-1)
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
