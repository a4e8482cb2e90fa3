package interview

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionCreated SessionStatus = "created"
	SessionActive  SessionStatus = "active"
	SessionEnded   SessionStatus = "ended"
)

// Session is one simulated interview. StartedAt is set exactly once, when the
// first participant joins.
type Session struct {
	ID     uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Status SessionStatus `gorm:"type:text;not null;index" json:"status"`

	Scenario datatypes.JSONType[Scenario] `json:"scenario"`
	Persona  datatypes.JSONType[Persona]  `json:"persona"`

	// Free-text resume and job description supplied at creation. They are
	// indexed for retrieval when the session is created.
	ResumeContext  string `gorm:"type:text" json:"-"`
	JobDescription string `gorm:"type:text" json:"-"`

	StartedAt *time.Time `gorm:"index" json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Session) TableName() string { return "interview_session" }

type Speaker string

const (
	SpeakerCandidate   Speaker = "candidate"
	SpeakerInterviewer Speaker = "interviewer"
)

// TranscriptEntry is one finalized utterance. Entries are append-only.
type TranscriptEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID   uuid.UUID `gorm:"type:uuid;not null;index:idx_transcript_session_seq,priority:1" json:"session_id"`
	Seq         int       `gorm:"not null;index:idx_transcript_session_seq,priority:2" json:"seq"`
	Timestamp   time.Time `gorm:"not null" json:"timestamp"`
	Speaker     Speaker   `gorm:"type:text;not null" json:"speaker"`
	SpeakerName string    `gorm:"type:text" json:"speaker_name"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	Partial     bool      `gorm:"not null;default:false" json:"partial"`
}

func (TranscriptEntry) TableName() string { return "interview_transcript_entry" }

type InsightContext struct {
	QuestionType        QuestionType  `json:"question_type"`
	FrameworkProgress   *STARProgress `json:"framework_progress,omitempty"`
	InterviewerQuestion string        `json:"interviewer_question,omitempty"`
	UserResponse        string        `json:"user_response,omitempty"`
}

type Insight struct {
	ID        uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID                          `gorm:"type:uuid;not null;index" json:"session_id"`
	Timestamp time.Time                          `gorm:"not null;index" json:"timestamp"`
	Type      InsightType                        `gorm:"type:text;not null" json:"type"`
	Priority  InsightPriority                    `gorm:"type:text;not null" json:"priority"`
	Message   string                             `gorm:"type:text;not null" json:"message"`
	Context   datatypes.JSONType[InsightContext] `json:"context"`
}

func (Insight) TableName() string { return "interview_insight" }

// HistoryEntry is one message of the conversation fed back to the reply model.
type HistoryEntry struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}
