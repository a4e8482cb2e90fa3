package interview

import "strings"

type QuestionType string

const (
	QuestionBehavioral  QuestionType = "behavioral"
	QuestionTechnical   QuestionType = "technical"
	QuestionSituational QuestionType = "situational"
	QuestionCompetency  QuestionType = "competency"
	QuestionMotivation  QuestionType = "motivation"
	QuestionUnknown     QuestionType = "unknown"
)

var questionTypes = []QuestionType{
	QuestionBehavioral,
	QuestionTechnical,
	QuestionSituational,
	QuestionCompetency,
	QuestionMotivation,
	QuestionUnknown,
}

// ParseQuestionType maps a model label onto the closed set; anything that is
// not exactly one of the labels (after trimming case, whitespace and a
// trailing period) is unknown.
func ParseQuestionType(raw string) QuestionType {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, ".")
	s = strings.Trim(s, "\"'`*")
	for _, qt := range questionTypes {
		if s == string(qt) {
			return qt
		}
	}
	return QuestionUnknown
}

// STARProgress tracks which components of a Situation/Task/Action/Result
// answer the candidate has covered for the current behavioral question.
type STARProgress struct {
	Situation bool `json:"situation"`
	Task      bool `json:"task"`
	Action    bool `json:"action"`
	Result    bool `json:"result"`
}

// Merge ORs other into p. Components never go from true to false.
func (p STARProgress) Merge(other STARProgress) STARProgress {
	return STARProgress{
		Situation: p.Situation || other.Situation,
		Task:      p.Task || other.Task,
		Action:    p.Action || other.Action,
		Result:    p.Result || other.Result,
	}
}

type InsightType string

const (
	InsightFramework        InsightType = "framework"
	InsightResumeHighlight  InsightType = "resume_highlight"
	InsightQuestionGuidance InsightType = "question_guidance"
	InsightRecovery         InsightType = "recovery"
	InsightPositive         InsightType = "positive"
)

func (t InsightType) Valid() bool {
	switch t {
	case InsightFramework, InsightResumeHighlight, InsightQuestionGuidance, InsightRecovery, InsightPositive:
		return true
	}
	return false
}

type InsightPriority string

const (
	PriorityHigh   InsightPriority = "high"
	PriorityMedium InsightPriority = "medium"
	PriorityLow    InsightPriority = "low"
)

func (p InsightPriority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}
