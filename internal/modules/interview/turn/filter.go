package turn

import (
	"strings"

	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

var defaultFillers = []string{
	"um", "umm", "uh", "uhh", "uh-huh", "hmm", "hm", "mm", "mhm", "er", "erm", "ah", "eh", "oh",
}

// Filter drops transcript fragments that carry no content: empty text and
// standalone disfluencies.
type Filter struct {
	log     *logger.Logger
	fillers map[string]struct{}
}

func NewFilter(log *logger.Logger, extra ...string) *Filter {
	f := &Filter{
		log:     log.With("component", "UtteranceFilter"),
		fillers: make(map[string]struct{}, len(defaultFillers)+len(extra)),
	}
	for _, w := range append(append([]string{}, defaultFillers...), extra...) {
		if w = normalize(w); w != "" {
			f.fillers[w] = struct{}{}
		}
	}
	return f
}

// Accept returns the trimmed fragment and whether it should be processed.
func (f *Filter) Accept(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		f.log.Debug("dropping empty fragment")
		return "", false
	}
	norm := normalize(trimmed)
	if norm == "" {
		f.log.Debug("dropping punctuation-only fragment", "fragment", trimmed)
		return "", false
	}
	if _, isFiller := f.fillers[norm]; isFiller {
		f.log.Debug("dropping filler fragment", "fragment", trimmed)
		return "", false
	}
	return trimmed, true
}

// normalize lowercases and strips the punctuation STT engines attach to
// isolated fillers ("Um.", "uh...").
func normalize(s string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(s)), ".,!?;:… ")
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
