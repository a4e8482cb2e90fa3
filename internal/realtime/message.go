package realtime

type Event string

const (
	EventConnected    Event = "connected"
	EventTranscript   Event = "transcript"
	EventQuestionType Event = "question_type"
	EventStarProgress Event = "star_progress"
	EventInsight      Event = "insight"
	EventSpeech       Event = "speech"
	EventSessionEnded Event = "session_ended"
)

// Message is one event on a session channel. Origin names the server instance
// that produced it so relayed copies are not delivered twice.
type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
	Origin  string `json:"origin,omitempty"`
}
