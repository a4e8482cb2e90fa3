package compose

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
)

func testScenario() domain.Scenario {
	return domain.Scenario{
		ID:              domain.ScenarioBehavioral,
		Name:            "Behavioral Interview",
		Difficulty:      domain.DifficultyHard,
		DurationMinutes: 20,
		FocusAreas:      []string{"leadership", "conflict resolution"},
	}
}

func testPersona() domain.Persona {
	return domain.Persona{
		InterviewerName:  "Sarah",
		InterviewerTitle: "Engineering Manager",
		CompanyName:      "Acme",
		CandidateName:    "Alex",
		Demeanor:         domain.DemeanorChallenging,
		ProbingLevel:     domain.ProbingDeep,
		FeedbackStyle:    domain.FeedbackDirect,
	}
}

func TestPhaseAt(t *testing.T) {
	total := 20 * time.Minute
	assert.Equal(t, PhaseMain, PhaseAt(0, total))
	assert.Equal(t, PhaseMain, PhaseAt(16*time.Minute+59*time.Second, total))
	assert.Equal(t, PhaseCandidateQuestions, PhaseAt(17*time.Minute, total))
	assert.Equal(t, PhaseWrapUp, PhaseAt(19*time.Minute, total))
	assert.Equal(t, PhaseWrapUp, PhaseAt(40*time.Minute, total))
	assert.Equal(t, PhaseMain, PhaseAt(time.Hour, 0))
}

func TestBuildSystemPromptIncludesPersonaTablesAndContext(t *testing.T) {
	prompt := BuildSystemPrompt(PromptInput{
		Scenario: testScenario(),
		Persona:  testPersona(),
		Elapsed:  5 * time.Minute,
		Context:  "Led a team of 6 at Globex.",
	})
	for _, want := range []string{
		"You are Sarah, a Engineering Manager at Acme.",
		"Behavioral Interview interview with Alex",
		demeanorGuide[domain.DemeanorChallenging],
		probingGuide[domain.ProbingDeep],
		feedbackGuide[domain.FeedbackDirect],
		difficultyGuide[domain.DifficultyHard],
		"Focus Areas: leadership, conflict resolution",
		"Duration: 20 minutes",
		"Current phase: main",
		"Time remaining: about 15 minutes",
		"## Context from Alex's Background\nLed a team of 6 at Globex.",
		"2-3 sentences max",
	} {
		assert.Contains(t, prompt, want)
	}
}

func TestBuildSystemPromptOmitsEmptyContextAndTracksPhase(t *testing.T) {
	prompt := BuildSystemPrompt(PromptInput{Scenario: testScenario(), Persona: testPersona(), Elapsed: 19*time.Minute + 30*time.Second})
	assert.False(t, strings.Contains(prompt, "Background"))
	assert.Contains(t, prompt, "Current phase: wrap-up")
	assert.Contains(t, prompt, pacingGuide[PhaseWrapUp])
	assert.Contains(t, prompt, "Time remaining: about 1 minute\n")
}

func TestEveryEnumHasGuidance(t *testing.T) {
	for _, d := range []domain.Demeanor{domain.DemeanorWarm, domain.DemeanorProfessional, domain.DemeanorFormal, domain.DemeanorCasual, domain.DemeanorChallenging} {
		assert.NotEmpty(t, demeanorGuide[d], d)
	}
	for _, p := range []domain.ProbingLevel{domain.ProbingLight, domain.ProbingModerate, domain.ProbingDeep} {
		assert.NotEmpty(t, probingGuide[p], p)
	}
	for _, f := range []domain.FeedbackStyle{domain.FeedbackEncouraging, domain.FeedbackNeutral, domain.FeedbackDirect} {
		assert.NotEmpty(t, feedbackGuide[f], f)
	}
	for _, d := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard} {
		assert.NotEmpty(t, difficultyGuide[d], d)
	}
}
