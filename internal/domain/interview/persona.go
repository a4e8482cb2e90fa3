package interview

type ScenarioType string

const (
	ScenarioPhoneScreen   ScenarioType = "phone_screen"
	ScenarioBehavioral    ScenarioType = "behavioral"
	ScenarioTechnical     ScenarioType = "technical"
	ScenarioHiringManager ScenarioType = "hiring_manager"
	ScenarioFinalRound    ScenarioType = "final_round"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Demeanor string

const (
	DemeanorWarm         Demeanor = "warm"
	DemeanorProfessional Demeanor = "professional"
	DemeanorFormal       Demeanor = "formal"
	DemeanorCasual       Demeanor = "casual"
	DemeanorChallenging  Demeanor = "challenging"
)

type ProbingLevel string

const (
	ProbingLight    ProbingLevel = "light"
	ProbingModerate ProbingLevel = "moderate"
	ProbingDeep     ProbingLevel = "deep"
)

type FeedbackStyle string

const (
	FeedbackEncouraging FeedbackStyle = "encouraging"
	FeedbackNeutral     FeedbackStyle = "neutral"
	FeedbackDirect      FeedbackStyle = "direct"
)

type Scenario struct {
	ID              ScenarioType `json:"id"`
	Name            string       `json:"name"`
	Description     string       `json:"description,omitempty"`
	Difficulty      Difficulty   `json:"difficulty"`
	DurationMinutes int          `json:"duration_minutes"`
	FocusAreas      []string     `json:"focus_areas,omitempty"`
}

type Persona struct {
	InterviewerName  string        `json:"interviewer_name"`
	InterviewerTitle string        `json:"interviewer_title"`
	CompanyName      string        `json:"company_name"`
	CandidateName    string        `json:"candidate_name"`
	Demeanor         Demeanor      `json:"demeanor"`
	ProbingLevel     ProbingLevel  `json:"probing_level"`
	FeedbackStyle    FeedbackStyle `json:"feedback_style"`
	VoiceID          string        `json:"voice_id,omitempty"`
}

// Validate reports the first unknown enum value or missing required field.
func (s Scenario) Validate() error {
	switch s.ID {
	case ScenarioPhoneScreen, ScenarioBehavioral, ScenarioTechnical, ScenarioHiringManager, ScenarioFinalRound:
	default:
		return fieldError("scenario.id", string(s.ID))
	}
	switch s.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fieldError("scenario.difficulty", string(s.Difficulty))
	}
	if s.DurationMinutes <= 0 {
		return fieldError("scenario.duration_minutes", "")
	}
	return nil
}

func (p Persona) Validate() error {
	if p.InterviewerName == "" {
		return fieldError("persona.interviewer_name", "")
	}
	if p.CandidateName == "" {
		return fieldError("persona.candidate_name", "")
	}
	switch p.Demeanor {
	case DemeanorWarm, DemeanorProfessional, DemeanorFormal, DemeanorCasual, DemeanorChallenging:
	default:
		return fieldError("persona.demeanor", string(p.Demeanor))
	}
	switch p.ProbingLevel {
	case ProbingLight, ProbingModerate, ProbingDeep:
	default:
		return fieldError("persona.probing_level", string(p.ProbingLevel))
	}
	switch p.FeedbackStyle {
	case FeedbackEncouraging, FeedbackNeutral, FeedbackDirect:
	default:
		return fieldError("persona.feedback_style", string(p.FeedbackStyle))
	}
	return nil
}
