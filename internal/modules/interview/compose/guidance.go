package compose

import domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"

var demeanorGuide = map[domain.Demeanor]string{
	domain.DemeanorWarm:         "Be friendly, encouraging, and supportive. Use positive language.",
	domain.DemeanorProfessional: "Maintain a formal, business-like tone. Be respectful and structured.",
	domain.DemeanorFormal:       "Be reserved and business-like. Keep responses measured and precise.",
	domain.DemeanorCasual:       "Be relaxed and conversational. Use natural, friendly language.",
	domain.DemeanorChallenging:  "Be direct and probing. Push for specifics and challenge vague answers.",
}

var probingGuide = map[domain.ProbingLevel]string{
	domain.ProbingLight:    "Accept answers at face value. Ask minimal follow-up questions.",
	domain.ProbingModerate: "Ask 1-2 follow-up questions to clarify or expand on answers.",
	domain.ProbingDeep:     "Dig into details. Ask 'why' and 'how' repeatedly. Challenge vague responses.",
}

var feedbackGuide = map[domain.FeedbackStyle]string{
	domain.FeedbackEncouraging: "Provide positive reinforcement. Say things like 'Great point!' or 'That's a good example.'",
	domain.FeedbackNeutral:     "Don't provide emotional feedback. Simply acknowledge and move on.",
	domain.FeedbackDirect:      "Be straightforward. If an answer is vague, say so directly.",
}

var difficultyGuide = map[domain.Difficulty]string{
	domain.DifficultyEasy:   "Ask straightforward questions. Be forgiving of incomplete answers.",
	domain.DifficultyMedium: "Ask standard interview questions. Expect reasonable detail.",
	domain.DifficultyHard:   "Ask challenging questions. Expect thorough, specific answers with examples.",
}

type Phase string

const (
	PhaseMain               Phase = "main"
	PhaseCandidateQuestions Phase = "candidate-questions"
	PhaseWrapUp             Phase = "wrap-up"
)

var pacingGuide = map[Phase]string{
	PhaseMain:               "Continue with your core questions. Move on once an answer is reasonably complete.",
	PhaseCandidateQuestions: "Stop asking new interview questions. Invite the candidate to ask you questions about the role and company.",
	PhaseWrapUp:             "Wrap up the interview now. Thank the candidate, explain next steps briefly, and say goodbye.",
}
