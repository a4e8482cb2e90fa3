package coach

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
	"github.com/yungbote/interviewcoach-backend/internal/observability"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
	"github.com/yungbote/interviewcoach-backend/internal/realtime"
)

const (
	DefaultInsightInterval = 10 * time.Second
	DefaultReplayInsights  = 5
	DefaultMaxInsightWords = 15
	DefaultQueueSize       = 64
	DefaultCallTimeout     = 15 * time.Second

	userResponseSnippet = 200
)

var ErrClosed = errors.New("coach closed")

// Classifier runs one single-shot coaching prompt.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

type ContextSource interface {
	Retrieve(ctx context.Context, query string, sessionID string) (string, error)
}

// Sink persists transcript entries and insights for the report generator.
type Sink interface {
	SaveTranscriptEntry(ctx context.Context, e *domain.TranscriptEntry) error
	SaveInsight(ctx context.Context, in *domain.Insight) error
}

type Broadcaster interface {
	Attach(channel string, obs realtime.Observer, replay ...realtime.Message)
	Detach(channel string, id uuid.UUID) bool
	Broadcast(msg realtime.Message)
}

type Options struct {
	SessionID       uuid.UUID
	Persona         domain.Persona
	InsightInterval time.Duration
	ReplayInsights  int
	MaxInsightWords int
	QueueSize       int
	CallTimeout     time.Duration
	Context         ContextSource
	Sink            Sink
	Now             func() time.Time
}

func (o *Options) withDefaults() {
	if o.InsightInterval <= 0 {
		o.InsightInterval = DefaultInsightInterval
	}
	if o.ReplayInsights <= 0 {
		o.ReplayInsights = DefaultReplayInsights
	}
	if o.MaxInsightWords <= 0 {
		o.MaxInsightWords = DefaultMaxInsightWords
	}
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// State is a point-in-time copy of the coaching state.
type State struct {
	SessionID     uuid.UUID                `json:"session_id"`
	QuestionType  domain.QuestionType      `json:"question_type"`
	STARProgress  domain.STARProgress      `json:"star_progress"`
	Insights      []domain.Insight         `json:"insights"`
	Transcript    []domain.TranscriptEntry `json:"transcript"`
	LastInsightAt *time.Time               `json:"last_insight_at,omitempty"`
}

type jobKind int

const (
	jobInterviewer jobKind = iota
	jobCandidate
	jobBarrier
)

type job struct {
	kind  jobKind
	entry domain.TranscriptEntry
	done  chan struct{}
}

// Engine is one session's coaching actor. Transcript entries are recorded
// and broadcast synchronously and saved in order by a writer that never
// drops them. Classification, STAR analysis and insight generation run in
// order on the Run goroutine and are skipped when the queue is full.
type Engine struct {
	log  *logger.Logger
	llm  Classifier
	pub  Broadcaster
	opts Options

	channel string

	qmu    sync.RWMutex
	queue  chan job
	closed bool
	done   chan struct{}

	persist    *persistQueue
	writerDone chan struct{}

	mu           sync.Mutex
	seq          int
	questionType domain.QuestionType
	progress     domain.STARProgress
	question     string
	insights     []domain.Insight
	transcript   []domain.TranscriptEntry
	lastInsight  time.Time
}

func New(log *logger.Logger, llm Classifier, pub Broadcaster, opts Options) *Engine {
	opts.withDefaults()
	return &Engine{
		log:          log.With("component", "CoachingEngine", "session_id", opts.SessionID.String()),
		llm:          llm,
		pub:          pub,
		opts:         opts,
		channel:      opts.SessionID.String(),
		queue:        make(chan job, opts.QueueSize),
		done:         make(chan struct{}),
		persist:      newPersistQueue(),
		writerDone:   make(chan struct{}),
		questionType: domain.QuestionUnknown,
	}
}

// Run processes queued work until Close has been called and the queue is
// drained, or ctx is done.
func (e *Engine) Run(ctx context.Context) {
	go e.writeTranscript(ctx)
	defer func() {
		e.persist.close()
		<-e.writerDone
		close(e.done)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-e.queue:
			if !ok {
				return
			}
			e.handle(ctx, j)
		}
	}
}

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Close stops accepting work. Run finishes what is already queued.
func (e *Engine) Close() {
	e.qmu.Lock()
	defer e.qmu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.queue)
}

// Flush blocks until everything enqueued before the call has been analyzed
// and every transcript entry recorded before it has been persisted.
func (e *Engine) Flush(ctx context.Context) error {
	j := job{kind: jobBarrier, done: make(chan struct{})}
	e.qmu.RLock()
	if e.closed {
		e.qmu.RUnlock()
		return ErrClosed
	}
	select {
	case e.queue <- j:
		e.qmu.RUnlock()
	case <-ctx.Done():
		e.qmu.RUnlock()
		return ctx.Err()
	}
	select {
	case <-j.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return e.flushTranscript(ctx)
}

func (e *Engine) enqueue(j job) {
	e.qmu.RLock()
	defer e.qmu.RUnlock()
	if e.closed {
		e.log.Debug("coach closed, skipping analysis", "seq", j.entry.Seq)
		return
	}
	select {
	case e.queue <- j:
	default:
		e.log.Warn("coach queue full, skipping analysis", "seq", j.entry.Seq, "speaker", string(j.entry.Speaker))
	}
}

// ProcessInterviewer records an interviewer line and schedules its
// classification.
func (e *Engine) ProcessInterviewer(text string) domain.TranscriptEntry {
	entry := e.record(domain.SpeakerInterviewer, e.opts.Persona.InterviewerName, text)
	e.enqueue(job{kind: jobInterviewer, entry: entry})
	return entry
}

// ProcessCandidate records a candidate utterance and schedules STAR analysis
// and a possible insight.
func (e *Engine) ProcessCandidate(text string) domain.TranscriptEntry {
	entry := e.record(domain.SpeakerCandidate, e.opts.Persona.CandidateName, text)
	e.enqueue(job{kind: jobCandidate, entry: entry})
	return entry
}

func (e *Engine) record(speaker domain.Speaker, name, text string) domain.TranscriptEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	entry := domain.TranscriptEntry{
		ID:          uuid.New(),
		SessionID:   e.opts.SessionID,
		Seq:         e.seq,
		Timestamp:   e.opts.Now(),
		Speaker:     speaker,
		SpeakerName: name,
		Text:        text,
	}
	e.transcript = append(e.transcript, entry)
	if e.opts.Sink != nil && !e.persist.push(persistItem{entry: entry}) {
		e.log.Warn("coach closed, transcript entry not persisted", "seq", entry.Seq)
	}
	e.broadcast(realtime.EventTranscript, entry)
	return entry
}

// broadcast must be called with mu held so observers see state changes in
// the order they were made.
func (e *Engine) broadcast(ev realtime.Event, data any) {
	e.pub.Broadcast(realtime.Message{Channel: e.channel, Event: ev, Data: data})
}

func (e *Engine) handle(ctx context.Context, j job) {
	switch j.kind {
	case jobBarrier:
		close(j.done)
	case jobInterviewer:
		e.onInterviewer(ctx, j.entry.Text)
	case jobCandidate:
		e.onCandidate(ctx, j.entry.Text)
	}
}

func (e *Engine) onInterviewer(ctx context.Context, text string) {
	e.mu.Lock()
	e.question = text
	e.mu.Unlock()

	qt := e.classify(ctx, text)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.questionType = qt
	e.broadcast(realtime.EventQuestionType, qt)
	if qt == domain.QuestionBehavioral {
		e.progress = domain.STARProgress{}
		e.broadcast(realtime.EventStarProgress, e.progress)
	}
}

func (e *Engine) classify(ctx context.Context, question string) domain.QuestionType {
	ctx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()
	raw, err := e.llm.Classify(ctx, classifyPrompt(question))
	if err != nil {
		e.log.Warn("question classification failed", "error", err)
		return domain.QuestionUnknown
	}
	qt := domain.ParseQuestionType(raw)
	e.log.Info("question classified", "question_type", string(qt))
	return qt
}

func (e *Engine) onCandidate(ctx context.Context, text string) {
	e.mu.Lock()
	qt, progress := e.questionType, e.progress
	e.mu.Unlock()

	if qt == domain.QuestionBehavioral {
		e.updateSTAR(ctx, text, progress)
	}
	e.maybeInsight(ctx, text)
}

func (e *Engine) updateSTAR(ctx context.Context, text string, current domain.STARProgress) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()
	raw, err := e.ask(ctx, starPrompt(text, current), SchemaSTARProgress, starSchema)
	if err != nil {
		e.log.Warn("STAR analysis failed", "error", err)
		return
	}
	found, err := parseSTAR(raw)
	if err != nil {
		e.log.Warn("STAR analysis unparseable", "error", err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress = e.progress.Merge(found)
	e.log.Debug("STAR progress updated", "situation", e.progress.Situation, "task", e.progress.Task, "action", e.progress.Action, "result", e.progress.Result)
	e.broadcast(realtime.EventStarProgress, e.progress)
}

func (e *Engine) maybeInsight(ctx context.Context, text string) {
	e.mu.Lock()
	if !e.lastInsight.IsZero() && e.opts.Now().Sub(e.lastInsight) < e.opts.InsightInterval {
		e.mu.Unlock()
		e.log.Debug("insight rate limited")
		return
	}
	in := insightInput{
		QuestionType: e.questionType,
		Question:     e.question,
		Response:     text,
		Progress:     e.progress,
	}
	e.mu.Unlock()

	query := in.Question
	if query == "" {
		query = text
	}
	in.Resume = e.retrieve(ctx, query)

	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	raw, err := e.ask(callCtx, insightPrompt(in, e.opts.MaxInsightWords), SchemaInsight, insightSchema)
	cancel()
	if err != nil {
		e.log.Warn("insight generation failed", "error", err)
		return
	}
	draft, err := parseInsight(raw, e.opts.MaxInsightWords)
	if errors.Is(err, errSkip) {
		e.log.Info("insight skipped, not needed")
		return
	}
	if err != nil {
		e.log.Warn("insight unparseable", "error", err)
		return
	}

	e.mu.Lock()
	progress := e.progress
	insight := domain.Insight{
		ID:        uuid.New(),
		SessionID: e.opts.SessionID,
		Timestamp: e.opts.Now(),
		Type:      draft.Type,
		Priority:  draft.Priority,
		Message:   draft.Message,
		Context: datatypes.NewJSONType(domain.InsightContext{
			QuestionType:        in.QuestionType,
			FrameworkProgress:   &progress,
			InterviewerQuestion: in.Question,
			UserResponse:        truncateRunes(text, userResponseSnippet),
		}),
	}
	e.insights = append(e.insights, insight)
	e.lastInsight = insight.Timestamp
	e.broadcast(realtime.EventInsight, insight)
	e.mu.Unlock()

	e.log.Info("insight generated", "type", string(insight.Type), "priority", string(insight.Priority))
	observability.Current().IncInsight(string(insight.Type), string(insight.Priority))
	e.persistInsight(ctx, insight)
}

func (e *Engine) retrieve(ctx context.Context, query string) string {
	if e.opts.Context == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()
	text, err := e.opts.Context.Retrieve(ctx, query, e.channel)
	if err != nil {
		e.log.Warn("resume retrieval for insight failed", "error", err)
		return ""
	}
	return text
}

func (e *Engine) persistEntry(ctx context.Context, entry domain.TranscriptEntry) {
	if e.opts.Sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()
	if err := e.opts.Sink.SaveTranscriptEntry(ctx, &entry); err != nil {
		e.log.Warn("persist transcript entry failed", "seq", entry.Seq, "error", err)
	}
}

func (e *Engine) persistInsight(ctx context.Context, in domain.Insight) {
	if e.opts.Sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()
	if err := e.opts.Sink.SaveInsight(ctx, &in); err != nil {
		e.log.Warn("persist insight failed", "insight_id", in.ID, "error", err)
	}
}

// Attach replays the connected ack, the current question type, STAR
// progress and the most recent insights to obs, then subscribes it.
func (e *Engine) Attach(obs realtime.Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	replay := []realtime.Message{
		{Event: realtime.EventConnected, Data: map[string]string{"session_id": e.channel, "observer_id": obs.ID().String()}},
		{Event: realtime.EventQuestionType, Data: e.questionType},
		{Event: realtime.EventStarProgress, Data: e.progress},
	}
	start := len(e.insights) - e.opts.ReplayInsights
	if start < 0 {
		start = 0
	}
	for _, in := range e.insights[start:] {
		replay = append(replay, realtime.Message{Event: realtime.EventInsight, Data: in})
	}
	e.pub.Attach(e.channel, obs, replay...)
}

func (e *Engine) Detach(id uuid.UUID) bool {
	return e.pub.Detach(e.channel, id)
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := State{
		SessionID:    e.opts.SessionID,
		QuestionType: e.questionType,
		STARProgress: e.progress,
		Insights:     append([]domain.Insight(nil), e.insights...),
		Transcript:   append([]domain.TranscriptEntry(nil), e.transcript...),
	}
	if !e.lastInsight.IsZero() {
		t := e.lastInsight
		s.LastInsightAt = &t
	}
	return s
}

func (e *Engine) Transcript() []domain.TranscriptEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.TranscriptEntry(nil), e.transcript...)
}
