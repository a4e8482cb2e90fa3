package coach

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
)

// The first flat JSON object in a completion. Models often wrap it in prose.
var jsonObject = regexp.MustCompile(`\{[^}]+\}`)

var (
	errNoJSON     = errors.New("no JSON object in completion")
	errSkip       = errors.New("model skipped insight")
	errBadInsight = errors.New("invalid insight")
)

func extractJSON(raw string, out any) error {
	m := jsonObject.FindString(raw)
	if m == "" {
		return errNoJSON
	}
	if err := json.Unmarshal([]byte(m), out); err != nil {
		return fmt.Errorf("decode %q: %w", m, err)
	}
	return nil
}

func parseSTAR(raw string) (domain.STARProgress, error) {
	var p domain.STARProgress
	if err := extractJSON(raw, &p); err != nil {
		return domain.STARProgress{}, err
	}
	return p, nil
}

type insightDraft struct {
	Type     domain.InsightType
	Priority domain.InsightPriority
	Message  string
}

// parseInsight returns errSkip for an explicit skip. An unknown type or an
// empty message is a parse failure; an unknown priority falls back to medium.
func parseInsight(raw string, maxWords int) (insightDraft, error) {
	var wire struct {
		Skip     bool   `json:"skip"`
		Type     string `json:"type"`
		Priority string `json:"priority"`
		Message  string `json:"message"`
	}
	if err := extractJSON(raw, &wire); err != nil {
		return insightDraft{}, err
	}
	if wire.Skip {
		return insightDraft{}, errSkip
	}
	d := insightDraft{
		Type:     domain.InsightType(strings.ToLower(strings.TrimSpace(wire.Type))),
		Priority: domain.InsightPriority(strings.ToLower(strings.TrimSpace(wire.Priority))),
		Message:  limitWords(strings.TrimSpace(wire.Message), maxWords),
	}
	if !d.Type.Valid() {
		return insightDraft{}, fmt.Errorf("%w: type %q", errBadInsight, wire.Type)
	}
	if d.Message == "" {
		return insightDraft{}, fmt.Errorf("%w: empty message", errBadInsight)
	}
	if !d.Priority.Valid() {
		d.Priority = domain.PriorityMedium
	}
	return d, nil
}

func limitWords(s string, n int) string {
	words := strings.Fields(s)
	if n <= 0 || len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}
