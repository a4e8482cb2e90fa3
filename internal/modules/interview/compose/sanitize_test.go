package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStripsSpeakerLabels(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Sarah: Hello there", "Hello there"},
		{"sarah chen: Hello there", "Hello there"},
		{"Interviewer: Thanks, Alex.", "Thanks, Alex."},
		{"ASSISTANT: Sarah: Nice to meet you.", "Nice to meet you."},
		{"**Sarah:** Let's begin.", "Let's begin."},
		{"Alex: I think so", "I think so"},
		{"Note: this is a real sentence.", "Note: this is a real sentence."},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Sanitize(tc.in, "Sarah Chen", "Alex"), "input %q", tc.in)
	}
}

func TestSanitizeStripsLeakedPacing(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"(Phase: wrap_up) Thank you for your time today.", "Thank you for your time today."},
		{"Current phase: candidate_questions. What would you like to ask me?", "What would you like to ask me?"},
		{"Current phase: candidate-questions. What would you like to ask me?", "What would you like to ask me?"},
		{"(Phase: wrap-up) Thanks for coming in.", "Thanks for coming in."},
		{"Great answer. Time remaining: about 4 minutes. Tell me about a challenge.", "Great answer. Tell me about a challenge."},
		{"We have about 3 minutes left. Any questions for me?", "Any questions for me?"},
		{"We're now in the wrap-up phase. Thanks so much!", "Thanks so much!"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Sanitize(tc.in, "Sarah"), "input %q", tc.in)
	}
}

func TestSanitizeCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "Tell me more about that.", Sanitize("  \"Tell me   more\n about that.\"  "))
	assert.Equal(t, "", Sanitize("Sarah:   ", "Sarah"))
}
