package turn

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

// ApologyText is spoken when reply generation fails.
const ApologyText = "I apologize, I encountered an error. Could you please repeat that?"

type State int

const (
	StateIdle State = iota
	StateGenerating
	StateGeneratingQueued
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateGeneratingQueued:
		return "generating_queued"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Event int

const (
	EventTurnFinalized Event = iota
	EventGenerationSucceeded
	EventGenerationFailed
)

func (e Event) String() string {
	switch e {
	case EventTurnFinalized:
		return "turn_finalized"
	case EventGenerationSucceeded:
		return "generation_succeeded"
	case EventGenerationFailed:
		return "generation_failed"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Turn is one finalized candidate utterance awaiting an interviewer reply.
type Turn struct {
	ID    uint64
	Text  string
	Reply ReplyFunc
}

// GenerateFunc produces the reply text for a turn. It may block.
type GenerateFunc func(ctx context.Context, t Turn) (string, error)

// DeliverFunc is called with the reply for a turn that is still current when
// its generation completes. failed is true when text is the apology.
type DeliverFunc func(t Turn, text string, failed bool)

// Scheduler keeps at most one generation in flight and at most one turn
// waiting behind it. A newer finalized turn replaces the waiting one.
// Results for turns that are no longer active are discarded on arrival.
type Scheduler struct {
	log      *logger.Logger
	generate GenerateFunc
	deliver  DeliverFunc

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	state  State
	nextID uint64
	active *Turn
	queued *Turn
	closed bool
	wg     sync.WaitGroup
}

func NewScheduler(ctx context.Context, log *logger.Logger, generate GenerateFunc, deliver DeliverFunc) *Scheduler {
	if deliver == nil {
		deliver = func(t Turn, text string, _ bool) {
			if t.Reply != nil {
				t.Reply(text)
			}
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		log:      log.With("component", "TurnScheduler"),
		generate: generate,
		deliver:  deliver,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Submit applies TurnFinalized and returns the id assigned to the new turn,
// or 0 if the scheduler is closed.
func (s *Scheduler) Submit(text string, reply ReplyFunc) uint64 {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0
	}
	s.nextID++
	t := &Turn{ID: s.nextID, Text: text, Reply: reply}

	var start *Turn
	prev := s.state
	switch s.state {
	case StateIdle:
		s.active = t
		s.state = StateGenerating
		start = t
	case StateGenerating:
		s.queued = t
		s.state = StateGeneratingQueued
	case StateGeneratingQueued:
		s.log.Debug("queued turn superseded", "dropped_turn_id", s.queued.ID, "turn_id", t.ID)
		s.queued = t
	}
	s.logTransition(prev, EventTurnFinalized, t.ID)
	if start != nil {
		s.wg.Add(1)
	}
	s.mu.Unlock()

	if start != nil {
		go s.run(start)
	}
	return t.ID
}

func (s *Scheduler) run(t *Turn) {
	defer s.wg.Done()
	text, err := s.generate(s.ctx, *t)
	if err != nil {
		s.log.Warn("reply generation failed", "turn_id", t.ID, "error", err)
		s.complete(t, EventGenerationFailed, ApologyText)
		return
	}
	s.complete(t, EventGenerationSucceeded, text)
}

func (s *Scheduler) complete(t *Turn, ev Event, text string) {
	s.mu.Lock()
	current := s.active != nil && s.active.ID == t.ID
	var next *Turn
	prev := s.state
	if current {
		s.active = nil
		s.state = StateIdle
		if s.queued != nil {
			next = s.queued
			s.queued = nil
			s.active = next
			s.state = StateGenerating
			s.wg.Add(1)
		}
		s.logTransition(prev, ev, t.ID)
	}
	s.mu.Unlock()

	if !current {
		s.log.Debug("discarding stale reply", "turn_id", t.ID, "event", ev.String())
	} else {
		s.deliver(*t, text, ev == EventGenerationFailed)
	}
	if next != nil {
		go s.run(next)
	}
}

func (s *Scheduler) logTransition(from State, ev Event, turnID uint64) {
	s.log.Debug("turn transition", "from", from.String(), "event", ev.String(), "to", s.state.String(), "turn_id", turnID)
}

// State returns the current FSM state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close resets the scheduler, cancels in-flight generation and rejects
// further submissions.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.active = nil
	s.queued = nil
	s.state = StateIdle
	s.mu.Unlock()
	s.cancel()
}

// Wait blocks until every started generation has completed.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
