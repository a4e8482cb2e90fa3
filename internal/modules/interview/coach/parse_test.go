package coach

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
)

func TestParseSTARFindsEmbeddedObject(t *testing.T) {
	p, err := parseSTAR("Sure! Here you go:\n{\"situation\": true, \"task\": false, \"action\": true, \"result\": false}\nHope that helps.")
	require.NoError(t, err)
	assert.Equal(t, domain.STARProgress{Situation: true, Action: true}, p)

	_, err = parseSTAR("situation and action are present")
	assert.ErrorIs(t, err, errNoJSON)

	_, err = parseSTAR(`{"situation": yes}`)
	assert.Error(t, err)
}

func TestParseInsight(t *testing.T) {
	d, err := parseInsight(`{"type": "framework", "priority": "high", "message": "Now describe the specific actions you took"}`, 15)
	require.NoError(t, err)
	assert.Equal(t, domain.InsightFramework, d.Type)
	assert.Equal(t, domain.PriorityHigh, d.Priority)
	assert.Equal(t, "Now describe the specific actions you took", d.Message)
}

func TestParseInsightSkipAndFailures(t *testing.T) {
	_, err := parseInsight(`{"skip": true}`, 15)
	assert.ErrorIs(t, err, errSkip)

	_, err = parseInsight(`{"type": "vibes", "priority": "high", "message": "hi"}`, 15)
	assert.ErrorIs(t, err, errBadInsight)

	_, err = parseInsight(`{"type": "positive", "priority": "high", "message": "  "}`, 15)
	assert.ErrorIs(t, err, errBadInsight)

	_, err = parseInsight(`no json at all`, 15)
	assert.ErrorIs(t, err, errNoJSON)
}

func TestParseInsightNormalizesPriorityAndLength(t *testing.T) {
	long := strings.Repeat("word ", 20)
	d, err := parseInsight(`{"type": "Positive", "priority": "urgent", "message": "`+long+`"}`, 15)
	require.NoError(t, err)
	assert.Equal(t, domain.InsightPositive, d.Type)
	assert.Equal(t, domain.PriorityMedium, d.Priority)
	assert.Len(t, strings.Fields(d.Message), 15)
}

func TestInsightPromptIncludesStarLineOnlyForBehavioral(t *testing.T) {
	in := insightInput{
		QuestionType: domain.QuestionBehavioral,
		Question:     "Tell me about a time you failed.",
		Response:     "At my last job we missed a launch.",
		Progress:     domain.STARProgress{Situation: true},
		Resume:       strings.Repeat("r", 400),
	}
	prompt := insightPrompt(in, 15)
	assert.Contains(t, prompt, "STAR Progress: S:✓ T:○ A:○ R:○")
	assert.Contains(t, prompt, "- Relevant from resume: "+strings.Repeat("r", 300)+"\n")
	assert.Contains(t, prompt, "1. Max 15 words")
	assert.Contains(t, prompt, `{"skip": true}`)

	in.QuestionType = domain.QuestionTechnical
	in.Resume = ""
	prompt = insightPrompt(in, 15)
	assert.NotContains(t, prompt, "STAR Progress")
	assert.NotContains(t, prompt, "Relevant from resume")
}

func TestStarPromptShowsCurrentProgress(t *testing.T) {
	prompt := starPrompt("I led the migration.", domain.STARProgress{Situation: true, Task: true})
	assert.Contains(t, prompt, "- Situation: DONE\n- Task: DONE\n- Action: NOT YET\n- Result: NOT YET")
	assert.Contains(t, prompt, `Response: "I led the migration."`)
}
