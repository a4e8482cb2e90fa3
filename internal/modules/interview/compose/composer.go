package compose

import (
	"context"
	"errors"
	"sync"
	"time"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

const DefaultHistoryWindow = 6

// Completer generates the interviewer's next line.
type Completer interface {
	Complete(ctx context.Context, system string, history []domain.HistoryEntry) (string, error)
}

// ContextSource supplies background (resume, job description) relevant to
// the candidate's latest utterance.
type ContextSource interface {
	Retrieve(ctx context.Context, query string, sessionID string) (string, error)
}

var ErrEmptyReply = errors.New("reply was empty after sanitization")

type Options struct {
	SessionID     string
	Scenario      domain.Scenario
	Persona       domain.Persona
	HistoryWindow int
	Context       ContextSource
	Now           func() time.Time
}

// Composer turns a finalized candidate utterance into the interviewer's reply.
type Composer struct {
	log     *logger.Logger
	llm     Completer
	opts    Options
	history *History

	mu        sync.Mutex
	startedAt time.Time
}

func New(log *logger.Logger, llm Completer, opts Options) *Composer {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = DefaultHistoryWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Composer{
		log:     log.With("component", "ResponseComposer"),
		llm:     llm,
		opts:    opts,
		history: NewHistory(),
	}
}

// Start records when the interview clock began. Later calls are ignored.
func (c *Composer) Start(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startedAt.IsZero() {
		c.startedAt = at
	}
}

func (c *Composer) elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startedAt.IsZero() {
		return 0
	}
	return c.opts.Now().Sub(c.startedAt)
}

// Prompt builds the system prompt for the current moment of the interview.
func (c *Composer) Prompt(ctx context.Context, candidateText string) string {
	return BuildSystemPrompt(PromptInput{
		Scenario: c.opts.Scenario,
		Persona:  c.opts.Persona,
		Elapsed:  c.elapsed(),
		Context:  c.retrieve(ctx, candidateText),
	})
}

func (c *Composer) retrieve(ctx context.Context, query string) string {
	if c.opts.Context == nil {
		return ""
	}
	text, err := c.opts.Context.Retrieve(ctx, query, c.opts.SessionID)
	if err != nil {
		c.log.Warn("context retrieval failed, continuing without it", "session_id", c.opts.SessionID, "error", err)
		return ""
	}
	return text
}

// Generate returns the sanitized reply to candidateText. The model sees at
// most HistoryWindow entries, the current utterance included. History is not
// modified; call Commit once the reply is actually delivered.
func (c *Composer) Generate(ctx context.Context, candidateText string) (string, error) {
	system := c.Prompt(ctx, candidateText)
	msgs := append(c.history.Window(c.opts.HistoryWindow-1), domain.HistoryEntry{
		Speaker: domain.SpeakerCandidate,
		Text:    candidateText,
	})

	raw, err := c.llm.Complete(ctx, system, msgs)
	if err != nil {
		return "", err
	}
	reply := Sanitize(raw, c.opts.Persona.InterviewerName, c.opts.Persona.CandidateName)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

// Commit appends a delivered exchange to the history.
func (c *Composer) Commit(candidateText, reply string) {
	c.history.Append(domain.SpeakerCandidate, candidateText)
	c.history.Append(domain.SpeakerInterviewer, reply)
}

// Record appends a single interviewer line, such as the greeting.
func (c *Composer) Record(speaker domain.Speaker, text string) {
	c.history.Append(speaker, text)
}
