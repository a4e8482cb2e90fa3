package compose

import (
	"fmt"
	"math"
	"strings"
	"time"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
)

// PhaseAt derives the interview phase from elapsed time against the planned
// duration. A non-positive total always yields PhaseMain.
func PhaseAt(elapsed, total time.Duration) Phase {
	if total <= 0 || elapsed <= 0 {
		return PhaseMain
	}
	ratio := float64(elapsed) / float64(total)
	switch {
	case ratio >= 0.95:
		return PhaseWrapUp
	case ratio >= 0.85:
		return PhaseCandidateQuestions
	default:
		return PhaseMain
	}
}

type PromptInput struct {
	Scenario domain.Scenario
	Persona  domain.Persona
	Elapsed  time.Duration
	Context  string
}

func (in PromptInput) total() time.Duration {
	return time.Duration(in.Scenario.DurationMinutes) * time.Minute
}

// BuildSystemPrompt renders the interviewer's instructions for one turn.
func BuildSystemPrompt(in PromptInput) string {
	p, s := in.Persona, in.Scenario
	total := in.total()
	phase := PhaseAt(in.Elapsed, total)

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a %s at %s.\n", p.InterviewerName, p.InterviewerTitle, p.CompanyName)
	fmt.Fprintf(&b, "You are conducting a %s interview with %s.\n\n", s.Name, p.CandidateName)

	b.WriteString("## Your Personality & Style\n")
	fmt.Fprintf(&b, "- Demeanor: %s - %s\n", p.Demeanor, demeanorGuide[p.Demeanor])
	fmt.Fprintf(&b, "- Follow-up Style: %s - %s\n", p.ProbingLevel, probingGuide[p.ProbingLevel])
	fmt.Fprintf(&b, "- Feedback: %s - %s\n\n", p.FeedbackStyle, feedbackGuide[p.FeedbackStyle])

	b.WriteString("## Interview Parameters\n")
	fmt.Fprintf(&b, "- Type: %s\n", s.Name)
	fmt.Fprintf(&b, "- Difficulty: %s - %s\n", s.Difficulty, difficultyGuide[s.Difficulty])
	if len(s.FocusAreas) > 0 {
		fmt.Fprintf(&b, "- Focus Areas: %s\n", strings.Join(s.FocusAreas, ", "))
	}
	fmt.Fprintf(&b, "- Duration: %d minutes\n\n", s.DurationMinutes)

	b.WriteString("## Pacing\n")
	fmt.Fprintf(&b, "- Current phase: %s\n", phase)
	if total > 0 {
		fmt.Fprintf(&b, "- Time remaining: %s\n", remaining(in.Elapsed, total))
	}
	fmt.Fprintf(&b, "- %s\n", pacingGuide[phase])
	b.WriteString("- Never mention the phase, the pacing or the time remaining out loud.\n\n")

	if ctx := strings.TrimSpace(in.Context); ctx != "" {
		fmt.Fprintf(&b, "## Context from %s's Background\n%s\n\n", p.CandidateName, ctx)
	}

	b.WriteString("## Guidelines\n")
	b.WriteString("- Keep responses concise (2-3 sentences max)\n")
	fmt.Fprintf(&b, "- Stay in character as %s\n", p.InterviewerName)
	b.WriteString("- Use the candidate's background to ask relevant, personalized questions\n")
	b.WriteString("- Address the candidate by name occasionally\n")
	b.WriteString("- Reply with spoken words only, without a speaker label\n\n")
	fmt.Fprintf(&b, "Remember: You are %s. Be natural and conversational.", p.InterviewerName)
	return b.String()
}

func remaining(elapsed, total time.Duration) string {
	left := total - elapsed
	if left <= 0 {
		return "none"
	}
	mins := int(math.Ceil(left.Minutes()))
	if mins == 1 {
		return "about 1 minute"
	}
	return fmt.Sprintf("about %d minutes", mins)
}
