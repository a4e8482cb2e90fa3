package interview

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/interviewcoach-backend/internal/config"
	repos "github.com/yungbote/interviewcoach-backend/internal/data/repos/interview"
	"github.com/yungbote/interviewcoach-backend/internal/db"
	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
	"github.com/yungbote/interviewcoach-backend/internal/platform/dbctx"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
	"github.com/yungbote/interviewcoach-backend/internal/realtime"
	"github.com/yungbote/interviewcoach-backend/internal/retrieval"
)

type echoLLM struct {
	mu      sync.Mutex
	replies int
}

func (e *echoLLM) Complete(ctx context.Context, system string, history []domain.HistoryEntry) (string, error) {
	e.mu.Lock()
	e.replies++
	e.mu.Unlock()
	last := history[len(history)-1].Text
	return "Sarah: Tell me more about " + strings.TrimSuffix(last, "."), nil
}

func (e *echoLLM) Classify(ctx context.Context, prompt string) (string, error) {
	if strings.HasPrefix(prompt, "Classify this interview question") {
		return "behavioral", nil
	}
	return "", nil
}

func (e *echoLLM) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.replies
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

type recordingSpeaker struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingSpeaker) Speak(text string) {
	r.mu.Lock()
	r.lines = append(r.lines, text)
	r.mu.Unlock()
}

func (r *recordingSpeaker) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func testConfig() Config {
	return Config{
		Turn: config.TurnConfig{
			ShortDelay:         config.D(30 * time.Millisecond),
			LongDelay:          config.D(20 * time.Millisecond),
			ShortWordThreshold: 2,
		},
		Session: config.SessionConfig{HistoryWindow: 6},
	}
}

func validInput() CreateInput {
	return CreateInput{
		Scenario: domain.Scenario{ID: domain.ScenarioBehavioral, Name: "Behavioral Interview", Difficulty: domain.DifficultyMedium, DurationMinutes: 30},
		Persona: domain.Persona{
			InterviewerName:  "Sarah",
			InterviewerTitle: "Engineering Manager",
			CompanyName:      "Acme",
			CandidateName:    "Alex",
			Demeanor:         domain.DemeanorWarm,
			ProbingLevel:     domain.ProbingModerate,
			FeedbackStyle:    domain.FeedbackEncouraging,
		},
		Resume: "Led the migration of the billing platform to Go.",
	}
}

type harness struct {
	mgr     *Manager
	llm     *echoLLM
	clock   *clock
	speaker *recordingSpeaker
	hub     *realtime.Hub
}

func newHarness(t *testing.T, store *repos.Store) *harness {
	t.Helper()
	h := &harness{
		llm:     &echoLLM{},
		clock:   &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		speaker: &recordingSpeaker{},
		hub:     realtime.NewHub(logger.Nop()),
	}
	h.mgr = NewManager(context.Background(), logger.Nop(), h.llm, testConfig(), Deps{
		Hub:        h.hub,
		Store:      store,
		NewSpeaker: func(uuid.UUID) Speaker { return h.speaker },
		Now:        h.clock.Now,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.mgr.Shutdown(ctx)
	})
	return h
}

func testStore(t *testing.T) *repos.Store {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "interview.db")), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrateAll(gdb))
	return repos.NewStore(gdb, logger.Nop())
}

type replies struct {
	mu    sync.Mutex
	texts []string
}

func (r *replies) Reply(text string) {
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
}

func (r *replies) All() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func TestCreateValidates(t *testing.T) {
	h := newHarness(t, nil)
	in := validInput()
	in.Persona.Demeanor = "grumpy"
	_, err := h.mgr.Create(context.Background(), in)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "persona.demeanor", verr.Field)
	assert.Zero(t, h.mgr.Len())
}

func TestUnknownSession(t *testing.T) {
	h := newHarness(t, nil)
	id := uuid.New()
	assert.ErrorIs(t, h.mgr.OnTranscriptFragment(id, "hello", nil), ErrSessionNotFound)
	_, err := h.mgr.GetTranscript(context.Background(), id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = h.mgr.Join(context.Background(), id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestJoinGreetsOnce(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	sess, err := h.mgr.Create(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCreated, sess.Status)

	first, err := h.mgr.Join(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, first)
	again, err := h.mgr.Join(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, again)

	want := "Hello Alex! I'm Sarah, Engineering Manager at Acme. Thanks for joining this Behavioral Interview. Let's begin when you're ready."
	require.Eventually(t, func() bool { return len(h.speaker.Lines()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, want, h.speaker.Lines()[0])

	require.Eventually(t, func() bool {
		st, _ := h.mgr.GetState(ctx, sess.ID)
		return len(st.Transcript) == 1
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, h.mgr.Flush(ctx, sess.ID))
	state, err := h.mgr.GetState(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, state.Transcript, 1)
	assert.Equal(t, domain.SpeakerInterviewer, state.Transcript[0].Speaker)
	assert.Equal(t, domain.QuestionBehavioral, state.QuestionType)

	got, err := h.mgr.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, got.Status)
	require.NotNil(t, got.StartedAt)
}

func TestFragmentsCoalesceIntoOneReply(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	sess, err := h.mgr.Create(ctx, validInput())
	require.NoError(t, err)

	r := &replies{}
	for _, frag := range []string{"um", "I", "I went", "I went to the store."} {
		require.NoError(t, h.mgr.OnTranscriptFragment(sess.ID, frag, r.Reply))
	}
	require.Eventually(t, func() bool { return len(r.All()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Tell me more about I went to the store", r.All()[0])
	assert.Equal(t, 1, h.llm.count())

	require.NoError(t, h.mgr.Flush(ctx, sess.ID))
	require.Eventually(t, func() bool {
		tr, _ := h.mgr.GetTranscript(ctx, sess.ID)
		return len(tr) == 2
	}, time.Second, 5*time.Millisecond)
	tr, err := h.mgr.GetTranscript(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SpeakerCandidate, tr[0].Speaker)
	assert.Equal(t, "I went to the store.", tr[0].Text)
	assert.Equal(t, domain.SpeakerInterviewer, tr[1].Speaker)

	ev := Summarize(tr)
	assert.Equal(t, Evidence{CandidateTurns: 1, InterviewerTurns: 1, CandidateWords: 5, InterviewerWords: 9}, ev)
}

func TestRepliesWithoutCallbackGoToSpeaker(t *testing.T) {
	h := newHarness(t, nil)
	sess, err := h.mgr.Create(context.Background(), validInput())
	require.NoError(t, err)

	require.NoError(t, h.mgr.OnTranscriptFragment(sess.ID, "I shipped the release on time", nil))
	require.Eventually(t, func() bool { return len(h.speaker.Lines()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Tell me more about I shipped the release on time", h.speaker.Lines()[0])
}

func TestEndNotifiesObserversAndRejectsFragments(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	sess, err := h.mgr.Create(ctx, validInput())
	require.NoError(t, err)

	client := realtime.NewClient(16)
	handle, err := h.mgr.AttachObserver(sess.ID, client)
	require.NoError(t, err)
	assert.Equal(t, client.ID(), handle.ObserverID)

	ended, err := h.mgr.End(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionEnded, ended.Status)
	require.NotNil(t, ended.EndedAt)

	var events []realtime.Event
	for msg := range client.Outbound() {
		events = append(events, msg.Event)
	}
	require.NotEmpty(t, events)
	assert.Equal(t, realtime.EventConnected, events[0])
	assert.Equal(t, realtime.EventSessionEnded, events[len(events)-1])

	assert.ErrorIs(t, h.mgr.OnTranscriptFragment(sess.ID, "hello there", nil), ErrSessionEnded)
	_, err = h.mgr.AttachObserver(sess.ID, realtime.NewClient(1))
	assert.ErrorIs(t, err, ErrSessionEnded)
	_, err = h.mgr.GetTranscript(ctx, sess.ID)
	assert.NoError(t, err)

	again, err := h.mgr.End(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, ended.EndedAt, again.EndedAt)
}

func TestExpiredSessionsAreRejected(t *testing.T) {
	h := newHarness(t, nil)
	sess, err := h.mgr.Create(context.Background(), validInput())
	require.NoError(t, err)

	h.clock.Advance(DefaultTTL + time.Minute)
	assert.ErrorIs(t, h.mgr.OnTranscriptFragment(sess.ID, "hello there", nil), ErrSessionExpired)
	assert.Zero(t, h.mgr.Len())
	assert.ErrorIs(t, h.mgr.OnTranscriptFragment(sess.ID, "hello there", nil), ErrSessionNotFound)
}

func TestPersistedTranscriptOutlivesManager(t *testing.T) {
	store := testStore(t)
	h := newHarness(t, store)
	ctx := context.Background()
	sess, err := h.mgr.Create(ctx, validInput())
	require.NoError(t, err)

	r := &replies{}
	require.NoError(t, h.mgr.OnTranscriptFragment(sess.ID, "I led the billing migration", r.Reply))
	require.Eventually(t, func() bool { return len(r.All()) == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		tr, _ := h.mgr.GetTranscript(ctx, sess.ID)
		return len(tr) == 2
	}, time.Second, 5*time.Millisecond)
	_, err = h.mgr.End(ctx, sess.ID)
	require.NoError(t, err)

	other := newHarness(t, store)
	other.clock.now = h.clock.Now()
	got, err := other.mgr.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionEnded, got.Status)

	tr, err := other.mgr.GetTranscript(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, tr, 2)
	assert.Equal(t, "I led the billing migration", tr[0].Text)

	state, err := other.mgr.GetState(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionUnknown, state.QuestionType)
	assert.Len(t, state.Transcript, 2)
}

type failingIndex struct{ retrieval.Noop }

func (failingIndex) Index(context.Context, string, []retrieval.Document) error {
	return errors.New("vector store unavailable")
}

func TestAddDocumentsIndexesAndPersists(t *testing.T) {
	store := testStore(t)
	mem := retrieval.NewMemory(2000)
	mgr := NewManager(context.Background(), logger.Nop(), &echoLLM{}, testConfig(), Deps{Store: store, Retrieval: mem})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mgr.Shutdown(ctx)
	})
	ctx := context.Background()

	in := validInput()
	in.Resume = ""
	sess, err := mgr.Create(ctx, in)
	require.NoError(t, err)

	err = mgr.AddDocuments(ctx, sess.ID, "  ", "")
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))

	require.NoError(t, mgr.AddDocuments(ctx, sess.ID, "", "Staff engineer owning the payments platform."))
	got, err := mem.Retrieve(ctx, "payments platform", sess.ID.String())
	require.NoError(t, err)
	assert.Contains(t, got, "payments platform")

	row, err := store.Sessions.GetByID(dbctx.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Staff engineer owning the payments platform.", row.JobDescription)
	assert.Empty(t, row.ResumeContext)

	_, err = mgr.End(ctx, sess.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, mgr.AddDocuments(ctx, sess.ID, "Led billing.", ""), ErrSessionEnded)
	assert.ErrorIs(t, mgr.AddDocuments(ctx, uuid.New(), "Led billing.", ""), ErrSessionNotFound)
}

func TestAddDocumentsReturnsIndexFailure(t *testing.T) {
	mgr := NewManager(context.Background(), logger.Nop(), &echoLLM{}, testConfig(), Deps{Retrieval: failingIndex{}})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mgr.Shutdown(ctx)
	})
	sess, err := mgr.Create(context.Background(), validInput())
	require.NoError(t, err)

	err = mgr.AddDocuments(context.Background(), sess.ID, "Led billing.", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector store unavailable")
}
