package coach

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
)

// structuredLLM answers schema-constrained prompts by schema name and records
// which prompts went through each path.
type structuredLLM struct {
	scriptedLLM
	smu     sync.Mutex
	schemas []string
}

func (s *structuredLLM) ClassifyJSON(ctx context.Context, prompt, name string, schema map[string]any) (string, error) {
	s.smu.Lock()
	s.schemas = append(s.schemas, name)
	s.smu.Unlock()
	switch name {
	case SchemaSTARProgress:
		return `{"situation":true,"task":true,"action":true,"result":false}`, nil
	case SchemaInsight:
		return `{"type":"framework","priority":"high","message":"Close with the measurable result."}`, nil
	}
	return "", nil
}

func TestStructuredClassifierIsPreferredForJSONPrompts(t *testing.T) {
	llm := &structuredLLM{scriptedLLM: scriptedLLM{classify: []string{"behavioral"}}}
	f := newFixture(t, llm)

	f.engine.ProcessInterviewer("Tell me about a time you missed a deadline.")
	f.engine.ProcessCandidate("I owned the release and we cut scope to ship.")
	f.flush(t)

	st := f.engine.State()
	assert.Equal(t, domain.QuestionBehavioral, st.QuestionType)
	assert.Equal(t, domain.STARProgress{Situation: true, Task: true, Action: true}, st.STARProgress)
	require.Len(t, st.Insights, 1)
	assert.Equal(t, domain.PriorityHigh, st.Insights[0].Priority)

	llm.smu.Lock()
	defer llm.smu.Unlock()
	assert.Equal(t, []string{SchemaSTARProgress, SchemaInsight}, llm.schemas)
}

func TestSchemasRequireEverySTARComponent(t *testing.T) {
	assert.ElementsMatch(t, []string{"situation", "task", "action", "result"}, starSchema["required"])
	props := insightSchema["properties"].(map[string]any)
	assert.Contains(t, props, "skip")
	assert.Contains(t, props, "message")
}
