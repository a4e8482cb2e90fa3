package coach

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
	"github.com/yungbote/interviewcoach-backend/internal/realtime"
)

// scriptedLLM answers by prompt kind.
type scriptedLLM struct {
	mu       sync.Mutex
	classify []string
	star     []string
	insight  []string
	err      error
	prompts  []string
}

func pop(q *[]string) string {
	if len(*q) == 0 {
		return ""
	}
	out := (*q)[0]
	*q = (*q)[1:]
	return out
}

func (s *scriptedLLM) Classify(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	switch {
	case strings.HasPrefix(prompt, "Classify this interview question"):
		return pop(&s.classify), nil
	case strings.HasPrefix(prompt, "Analyze this interview response"):
		return pop(&s.star), nil
	default:
		return pop(&s.insight), nil
	}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memorySink struct {
	mu       sync.Mutex
	entries  []domain.TranscriptEntry
	insights []domain.Insight
}

func (m *memorySink) SaveTranscriptEntry(ctx context.Context, e *domain.TranscriptEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memorySink) SaveInsight(ctx context.Context, in *domain.Insight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insights = append(m.insights, *in)
	return nil
}

type fixture struct {
	engine *Engine
	hub    *realtime.Hub
	clock  *clock
	sink   *memorySink
	events *realtime.Client
}

func newFixture(t *testing.T, llm Classifier) *fixture {
	t.Helper()
	f := &fixture{
		hub:   realtime.NewHub(logger.Nop()),
		clock: &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		sink:  &memorySink{},
	}
	f.engine = New(logger.Nop(), llm, f.hub, Options{
		SessionID: uuid.New(),
		Persona:   domain.Persona{InterviewerName: "Sarah", CandidateName: "Alex"},
		Sink:      f.sink,
		Now:       f.clock.Now,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go f.engine.Run(ctx)
	t.Cleanup(func() {
		f.engine.Close()
		<-f.engine.Done()
		cancel()
	})

	f.events = realtime.NewClient(256)
	f.engine.Attach(f.events)
	f.drain()
	return f
}

func (f *fixture) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.engine.Flush(ctx))
}

func (f *fixture) drain() []realtime.Message {
	var out []realtime.Message
	for {
		select {
		case msg := <-f.events.Outbound():
			out = append(out, msg)
		default:
			return out
		}
	}
}

func events(msgs []realtime.Message) []realtime.Event {
	out := make([]realtime.Event, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Event)
	}
	return out
}

func TestInterviewerBehavioralQuestionResetsProgress(t *testing.T) {
	llm := &scriptedLLM{
		classify: []string{"behavioral", "Behavioral."},
		star:     []string{`{"situation": true, "task": true, "action": false, "result": false}`},
		insight:  []string{`{"skip": true}`},
	}
	f := newFixture(t, llm)

	f.engine.ProcessInterviewer("Tell me about a time you handled conflict.")
	f.engine.ProcessCandidate("At Globex two teams disagreed and I owned the fix.")
	f.flush(t)
	assert.Equal(t, domain.STARProgress{Situation: true, Task: true}, f.engine.State().STARProgress)
	f.drain()

	f.engine.ProcessInterviewer("Tell me about another time.")
	f.flush(t)
	st := f.engine.State()
	assert.Equal(t, domain.QuestionBehavioral, st.QuestionType)
	assert.Equal(t, domain.STARProgress{}, st.STARProgress)
	assert.Equal(t,
		[]realtime.Event{realtime.EventTranscript, realtime.EventQuestionType, realtime.EventStarProgress},
		events(f.drain()))
}

func TestSTARProgressIsMonotonic(t *testing.T) {
	llm := &scriptedLLM{
		classify: []string{"behavioral"},
		star: []string{
			`{"situation": true, "task": false, "action": false, "result": false}`,
			`{"situation": false, "task": false, "action": true, "result": false}`,
			`not json`,
		},
		insight: []string{`{"skip": true}`},
	}
	f := newFixture(t, llm)
	f.engine.ProcessInterviewer("Tell me about a time you led a project.")
	f.engine.ProcessCandidate("We were behind schedule.")
	f.engine.ProcessCandidate("I split the work into two streams.")
	f.engine.ProcessCandidate("Anyway.")
	f.flush(t)

	assert.Equal(t, domain.STARProgress{Situation: true, Action: true}, f.engine.State().STARProgress)
}

func TestNonBehavioralSkipsSTARAnalysis(t *testing.T) {
	llm := &scriptedLLM{classify: []string{"technical"}, insight: []string{`{"skip": true}`}}
	f := newFixture(t, llm)
	f.engine.ProcessInterviewer("How would you design a rate limiter?")
	f.engine.ProcessCandidate("I'd use a token bucket.")
	f.flush(t)

	for _, p := range llm.prompts {
		assert.False(t, strings.HasPrefix(p, "Analyze this interview response"))
	}
	assert.Equal(t, domain.QuestionTechnical, f.engine.State().QuestionType)
}

func TestClassificationFailureFallsBackToUnknown(t *testing.T) {
	llm := &scriptedLLM{classify: []string{"definitely a behavioral one"}}
	f := newFixture(t, llm)
	f.engine.ProcessInterviewer("So, anyway.")
	f.flush(t)
	assert.Equal(t, domain.QuestionUnknown, f.engine.State().QuestionType)

	llm.mu.Lock()
	llm.err = errors.New("upstream 500")
	llm.mu.Unlock()
	f.engine.ProcessInterviewer("Why this company?")
	f.flush(t)
	assert.Equal(t, domain.QuestionUnknown, f.engine.State().QuestionType)
}

func TestInsightRateLimit(t *testing.T) {
	tip := `{"type": "framework", "priority": "high", "message": "Describe the result with a metric"}`
	llm := &scriptedLLM{classify: []string{"motivation"}, insight: []string{tip, tip, tip}}
	f := newFixture(t, llm)
	f.engine.ProcessInterviewer("Why do you want this role?")

	f.engine.ProcessCandidate("I love the product.")
	f.flush(t)
	f.clock.Advance(2 * time.Second)
	f.engine.ProcessCandidate("And the team seems great.")
	f.flush(t)
	assert.Len(t, f.engine.State().Insights, 1)

	f.clock.Advance(9 * time.Second)
	f.engine.ProcessCandidate("Also the mission.")
	f.flush(t)
	st := f.engine.State()
	require.Len(t, st.Insights, 2)
	assert.Equal(t, f.clock.Now(), *st.LastInsightAt)
}

func TestSkipDoesNotResetRateLimitClock(t *testing.T) {
	tip := `{"type": "positive", "priority": "low", "message": "Nice concrete example"}`
	llm := &scriptedLLM{classify: []string{"competency"}, insight: []string{tip, `{"skip": true}`, tip}}
	f := newFixture(t, llm)
	f.engine.ProcessInterviewer("What are your strengths?")
	f.engine.ProcessCandidate("Debugging production issues.")
	f.flush(t)
	require.Len(t, f.engine.State().Insights, 1)
	first := *f.engine.State().LastInsightAt

	f.clock.Advance(11 * time.Second)
	f.engine.ProcessCandidate("For example the cache outage.")
	f.flush(t)
	assert.Equal(t, first, *f.engine.State().LastInsightAt)

	f.clock.Advance(time.Second)
	f.engine.ProcessCandidate("I found the bad key quickly.")
	f.flush(t)
	assert.Len(t, f.engine.State().Insights, 2)
}

func TestInsightCarriesContextAndIsPersisted(t *testing.T) {
	llm := &scriptedLLM{
		classify: []string{"behavioral"},
		star:     []string{`{"situation": true}`},
		insight:  []string{`Here: {"type": "framework", "priority": "high", "message": "Now explain the task you owned"}`},
	}
	f := newFixture(t, llm)
	f.engine.ProcessInterviewer("Tell me about a time you disagreed with a manager.")
	f.engine.ProcessCandidate("Last year our roadmap changed overnight.")
	f.flush(t)

	st := f.engine.State()
	require.Len(t, st.Insights, 1)
	in := st.Insights[0]
	assert.Equal(t, domain.InsightFramework, in.Type)
	ctx := in.Context.Data()
	assert.Equal(t, domain.QuestionBehavioral, ctx.QuestionType)
	assert.Equal(t, "Tell me about a time you disagreed with a manager.", ctx.InterviewerQuestion)
	require.NotNil(t, ctx.FrameworkProgress)
	assert.True(t, ctx.FrameworkProgress.Situation)

	f.sink.mu.Lock()
	defer f.sink.mu.Unlock()
	assert.Len(t, f.sink.entries, 2)
	assert.Len(t, f.sink.insights, 1)
	assert.Equal(t, domain.SpeakerInterviewer, f.sink.entries[0].Speaker)
	assert.Equal(t, "Sarah", f.sink.entries[0].SpeakerName)
	assert.Equal(t, 2, f.sink.entries[1].Seq)
}

func TestLateJoinReplay(t *testing.T) {
	var tips []string
	for i := 0; i < 7; i++ {
		tips = append(tips, `{"type": "positive", "priority": "low", "message": "tip `+string(rune('a'+i))+`"}`)
	}
	llm := &scriptedLLM{classify: []string{"behavioral"}, star: make([]string, 7), insight: tips}
	f := newFixture(t, llm)
	f.engine.ProcessInterviewer("Tell me about a time you shipped late.")
	for i := 0; i < 7; i++ {
		f.engine.ProcessCandidate("more detail")
		f.flush(t)
		f.clock.Advance(11 * time.Second)
	}
	require.Len(t, f.engine.State().Insights, 7)

	late := realtime.NewClient(32)
	f.engine.Attach(late)
	f.engine.ProcessCandidate("live")

	var got []realtime.Message
	for len(got) < 9 {
		select {
		case m := <-late.Outbound():
			got = append(got, m)
		case <-time.After(time.Second):
			t.Fatalf("only %d messages replayed", len(got))
		}
	}
	assert.Equal(t, []realtime.Event{
		realtime.EventConnected,
		realtime.EventQuestionType,
		realtime.EventStarProgress,
		realtime.EventInsight, realtime.EventInsight, realtime.EventInsight, realtime.EventInsight, realtime.EventInsight,
		realtime.EventTranscript,
	}, events(got))
	assert.Equal(t, domain.QuestionBehavioral, got[1].Data)
	assert.Equal(t, "tip c", got[3].Data.(domain.Insight).Message)
	assert.Equal(t, "tip g", got[7].Data.(domain.Insight).Message)

	assert.True(t, f.engine.Detach(late.ID()))
}

func TestCloseRejectsFlushAndDrains(t *testing.T) {
	llm := &scriptedLLM{classify: []string{"technical"}}
	f := newFixture(t, llm)
	f.engine.ProcessInterviewer("Explain consistent hashing.")
	f.engine.Close()
	<-f.engine.Done()

	assert.Equal(t, domain.QuestionTechnical, f.engine.State().QuestionType)
	assert.ErrorIs(t, f.engine.Flush(context.Background()), ErrClosed)
	f.engine.ProcessCandidate("after close")
	assert.Len(t, f.engine.Transcript(), 2)
}
