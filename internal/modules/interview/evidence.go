package interview

import (
	"strings"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
)

// Evidence is the per-speaker tally the report generator starts from.
type Evidence struct {
	CandidateTurns   int `json:"candidate_turns"`
	InterviewerTurns int `json:"interviewer_turns"`
	CandidateWords   int `json:"candidate_words"`
	InterviewerWords int `json:"interviewer_words"`
}

func Summarize(entries []domain.TranscriptEntry) Evidence {
	var ev Evidence
	for _, e := range entries {
		words := len(strings.Fields(e.Text))
		switch e.Speaker {
		case domain.SpeakerCandidate:
			ev.CandidateTurns++
			ev.CandidateWords += words
		case domain.SpeakerInterviewer:
			ev.InterviewerTurns++
			ev.InterviewerWords += words
		}
	}
	return ev
}
