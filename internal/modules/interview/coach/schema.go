package coach

import (
	"context"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
)

// StructuredClassifier is implemented by classifiers that can constrain a
// completion to a JSON schema. The coach prefers it for the STAR and insight
// prompts and falls back to Classify otherwise.
type StructuredClassifier interface {
	ClassifyJSON(ctx context.Context, prompt, name string, schema map[string]any) (string, error)
}

const (
	SchemaSTARProgress = "star_progress"
	SchemaInsight      = "coaching_insight"
)

var starSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"situation": map[string]any{"type": "boolean"},
		"task":      map[string]any{"type": "boolean"},
		"action":    map[string]any{"type": "boolean"},
		"result":    map[string]any{"type": "boolean"},
	},
	"required":             []string{"situation", "task", "action", "result"},
	"additionalProperties": false,
}

var insightSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"skip": map[string]any{"type": "boolean"},
		"type": map[string]any{"type": "string", "enum": []domain.InsightType{
			domain.InsightFramework, domain.InsightResumeHighlight, domain.InsightQuestionGuidance,
			domain.InsightRecovery, domain.InsightPositive,
		}},
		"priority": map[string]any{"type": "string", "enum": []domain.InsightPriority{domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh}},
		"message":  map[string]any{"type": "string"},
	},
	"additionalProperties": false,
}

func (e *Engine) ask(ctx context.Context, prompt, name string, schema map[string]any) (string, error) {
	if s, ok := e.llm.(StructuredClassifier); ok && schema != nil {
		return s.ClassifyJSON(ctx, prompt, name, schema)
	}
	return e.llm.Classify(ctx, prompt)
}
