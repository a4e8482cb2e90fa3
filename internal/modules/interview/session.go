package interview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
	"github.com/yungbote/interviewcoach-backend/internal/modules/interview/coach"
	"github.com/yungbote/interviewcoach-backend/internal/modules/interview/compose"
	"github.com/yungbote/interviewcoach-backend/internal/modules/interview/turn"
	"github.com/yungbote/interviewcoach-backend/internal/observability"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
	"github.com/yungbote/interviewcoach-backend/internal/realtime"
)

// Greeting is the interviewer's opening line once the first participant joins.
func Greeting(p domain.Persona, sc domain.Scenario) string {
	name := sc.Name
	if name == "" {
		name = string(sc.ID)
	}
	return fmt.Sprintf("Hello %s! I'm %s, %s at %s. Thanks for joining this %s. Let's begin when you're ready.",
		p.CandidateName, p.InterviewerName, p.InterviewerTitle, p.CompanyName, name)
}

// Session owns one interview's pipeline: filter, debouncer, scheduler,
// composer and coaching engine. Fragments flow in through OnFragment and
// replies leave through the turn's reply callback or the session speaker.
type Session struct {
	ID        uuid.UUID
	Scenario  domain.Scenario
	Persona   domain.Persona
	CreatedAt time.Time

	log     *logger.Logger
	hub     *realtime.Hub
	speaker Speaker
	now     func() time.Time

	filter    *turn.Filter
	debouncer *turn.Debouncer
	scheduler *turn.Scheduler
	composer  *compose.Composer
	coach     *coach.Engine

	replyTimeout  time.Duration
	greetingDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	status    domain.SessionStatus
	startedAt *time.Time
	endedAt   *time.Time
	greeting  *time.Timer
}

type sessionParams struct {
	id        uuid.UUID
	scenario  domain.Scenario
	persona   domain.Persona
	createdAt time.Time

	llm     LLM
	hub     *realtime.Hub
	speaker Speaker
	context compose.ContextSource
	sink    coach.Sink
	cfg     Config
	now     func() time.Time
}

func newSession(ctx context.Context, log *logger.Logger, p sessionParams) *Session {
	ctx, cancel := context.WithCancel(ctx)
	log = log.With("session_id", p.id.String())

	s := &Session{
		ID:            p.id,
		Scenario:      p.scenario,
		Persona:       p.persona,
		CreatedAt:     p.createdAt,
		log:           log,
		hub:           p.hub,
		speaker:       p.speaker,
		now:           p.now,
		replyTimeout:  p.cfg.Turn.ReplyTimeout.Duration,
		greetingDelay: p.cfg.Session.GreetingDelay.Duration,
		ctx:           ctx,
		cancel:        cancel,
		status:        domain.SessionCreated,
	}
	if s.speaker == nil {
		s.speaker = newHubSpeaker(p.hub, p.id)
	}

	s.filter = turn.NewFilter(log, p.cfg.Turn.ExtraFillers...)
	s.debouncer = turn.NewDebouncer(log, turn.DebounceConfig{
		ShortDelay: p.cfg.Turn.ShortDelay.Duration,
		LongDelay:  p.cfg.Turn.LongDelay.Duration,
		ShortWords: p.cfg.Turn.ShortWordThreshold,
	}, s.finalize)
	s.scheduler = turn.NewScheduler(ctx, log, s.generate, s.deliver)
	s.composer = compose.New(log, p.llm, compose.Options{
		SessionID:     p.id.String(),
		Scenario:      p.scenario,
		Persona:       p.persona,
		HistoryWindow: p.cfg.Session.HistoryWindow,
		Context:       p.context,
		Now:           p.now,
	})
	s.coach = coach.New(log, p.llm, p.hub, coach.Options{
		SessionID:       p.id,
		Persona:         p.persona,
		InsightInterval: p.cfg.Coach.InsightInterval.Duration,
		ReplayInsights:  p.cfg.Coach.ReplayInsights,
		MaxInsightWords: p.cfg.Coach.MaxInsightWords,
		QueueSize:       p.cfg.Coach.QueueSize,
		CallTimeout:     p.cfg.Coach.CallTimeout.Duration,
		Context:         p.context,
		Sink:            p.sink,
		Now:             p.now,
	})
	go s.coach.Run(ctx)
	return s
}

// OnFragment feeds one partial transcript into the pipeline. Fillers and
// empty fragments are dropped before they reach the debouncer.
func (s *Session) OnFragment(text string, reply turn.ReplyFunc) error {
	if s.Ended() {
		return ErrSessionEnded
	}
	clean, ok := s.filter.Accept(text)
	if !ok {
		return nil
	}
	s.debouncer.Push(clean, reply)
	return nil
}

func (s *Session) finalize(text string, reply turn.ReplyFunc) {
	if s.Ended() {
		return
	}
	s.coach.ProcessCandidate(text)
	s.scheduler.Submit(text, reply)
}

func (s *Session) generate(ctx context.Context, t turn.Turn) (string, error) {
	if s.replyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.replyTimeout)
		defer cancel()
	}
	return s.composer.Generate(ctx, t.Text)
}

func (s *Session) deliver(t turn.Turn, text string, failed bool) {
	outcome := "delivered"
	if failed {
		outcome = "failed"
	}
	observability.Current().IncTurn(outcome)
	if !failed {
		s.composer.Commit(t.Text, text)
	}
	s.speak(t.Reply, text)
	if !failed {
		s.coach.ProcessInterviewer(text)
	}
}

func (s *Session) speak(reply turn.ReplyFunc, text string) {
	if reply != nil {
		reply(text)
		return
	}
	s.speaker.Speak(text)
}

// Join marks the first arrival. It returns true only for the call that
// locked the start time; that call also schedules the greeting.
func (s *Session) Join() (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == domain.SessionEnded {
		return time.Time{}, false, ErrSessionEnded
	}
	if s.startedAt != nil {
		return *s.startedAt, false, nil
	}
	now := s.now()
	s.startedAt = &now
	s.status = domain.SessionActive
	s.composer.Start(now)
	s.greeting = time.AfterFunc(s.greetingDelay, s.greet)
	return now, true, nil
}

func (s *Session) greet() {
	if s.Ended() {
		return
	}
	text := Greeting(s.Persona, s.Scenario)
	s.log.Info("speaking greeting")
	s.composer.Record(domain.SpeakerInterviewer, text)
	s.speaker.Speak(text)
	s.coach.ProcessInterviewer(text)
}

func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == domain.SessionEnded
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.CreatedAt) > ttl
}

// End stops the pipeline: pending fragments are dropped, in-flight reply
// generation is cancelled and queued coaching work is drained until ctx is
// done. Observers receive session_ended and are then detached.
func (s *Session) End(ctx context.Context) (time.Time, bool) {
	s.mu.Lock()
	if s.status == domain.SessionEnded {
		at := *s.endedAt
		s.mu.Unlock()
		return at, false
	}
	now := s.now()
	s.status = domain.SessionEnded
	s.endedAt = &now
	if s.greeting != nil {
		s.greeting.Stop()
	}
	s.mu.Unlock()

	s.debouncer.Stop()
	s.scheduler.Close()
	s.coach.Close()
	select {
	case <-s.coach.Done():
	case <-ctx.Done():
		s.log.Warn("coach drain interrupted", "error", ctx.Err())
	}
	s.cancel()

	channel := s.ID.String()
	s.hub.Broadcast(realtime.Message{
		Channel: channel,
		Event:   realtime.EventSessionEnded,
		Data:    map[string]any{"session_id": channel, "ended_at": now},
	})
	s.hub.CloseChannel(channel)
	s.log.Info("session ended")
	return now, true
}

// Flush finalizes any buffered fragment and waits for the coach to catch
// up with everything recorded so far.
func (s *Session) Flush(ctx context.Context) error {
	s.debouncer.Flush()
	return s.coach.Flush(ctx)
}

func (s *Session) Attach(obs realtime.Observer) { s.coach.Attach(obs) }

func (s *Session) Detach(id uuid.UUID) bool { return s.coach.Detach(id) }

func (s *Session) State() coach.State { return s.coach.State() }

func (s *Session) Transcript() []domain.TranscriptEntry { return s.coach.Transcript() }

// Record returns the session as it would be persisted.
func (s *Session) Record() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := domain.Session{
		ID:        s.ID,
		Status:    s.status,
		Scenario:  datatypes.NewJSONType(s.Scenario),
		Persona:   datatypes.NewJSONType(s.Persona),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.CreatedAt,
	}
	if s.startedAt != nil {
		t := *s.startedAt
		rec.StartedAt = &t
		rec.UpdatedAt = t
	}
	if s.endedAt != nil {
		t := *s.endedAt
		rec.EndedAt = &t
		rec.UpdatedAt = t
	}
	return rec
}
