package interview

import (
	"github.com/google/uuid"

	"github.com/yungbote/interviewcoach-backend/internal/realtime"
)

// Speaker voices interviewer lines that have no caller-supplied reply
// callback: the greeting, and replies to fragments posted over HTTP.
type Speaker interface {
	Speak(text string)
}

type SpeechEvent struct {
	Text string `json:"text"`
}

// hubSpeaker publishes spoken lines to the session's observers.
type hubSpeaker struct {
	hub     *realtime.Hub
	channel string
}

func newHubSpeaker(hub *realtime.Hub, sessionID uuid.UUID) *hubSpeaker {
	return &hubSpeaker{hub: hub, channel: sessionID.String()}
}

func (s *hubSpeaker) Speak(text string) {
	s.hub.Broadcast(realtime.Message{Channel: s.channel, Event: realtime.EventSpeech, Data: SpeechEvent{Text: text}})
}
