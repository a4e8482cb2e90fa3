package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/interviewcoach-backend/internal/config"
	repos "github.com/yungbote/interviewcoach-backend/internal/data/repos/interview"
	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
	"github.com/yungbote/interviewcoach-backend/internal/modules/interview/coach"
	"github.com/yungbote/interviewcoach-backend/internal/modules/interview/compose"
	"github.com/yungbote/interviewcoach-backend/internal/modules/interview/turn"
	"github.com/yungbote/interviewcoach-backend/internal/observability"
	"github.com/yungbote/interviewcoach-backend/internal/platform/dbctx"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
	"github.com/yungbote/interviewcoach-backend/internal/realtime"
	"github.com/yungbote/interviewcoach-backend/internal/retrieval"
)

const (
	DefaultTTL = 24 * time.Hour

	endTimeout = 30 * time.Second
)

// LLM is the inference surface a session needs: one call for interviewer
// replies and one for coaching prompts.
type LLM interface {
	compose.Completer
	coach.Classifier
}

type Config struct {
	Turn    config.TurnConfig
	Coach   config.CoachConfig
	Session config.SessionConfig
}

// ConfigFrom picks the session-related sections out of the service config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{Turn: cfg.Turn, Coach: cfg.Coach, Session: cfg.Session}
}

type Deps struct {
	Hub *realtime.Hub
	// Store is optional; without it sessions live only in memory.
	Store     *repos.Store
	Retrieval retrieval.Service
	// NewSpeaker overrides the default speaker, which publishes speech
	// events to the session's observers.
	NewSpeaker func(sessionID uuid.UUID) Speaker
	Now        func() time.Time
}

type CreateInput struct {
	Scenario       domain.Scenario `json:"scenario"`
	Persona        domain.Persona  `json:"persona"`
	Resume         string          `json:"resume,omitempty"`
	JobDescription string          `json:"job_description,omitempty"`
}

// Handle identifies one attached observer.
type Handle struct {
	SessionID  uuid.UUID
	ObserverID uuid.UUID
}

// Manager is the registry of live sessions and the entry point for every
// session operation.
type Manager struct {
	log   *logger.Logger
	llm   LLM
	cfg   Config
	hub   *realtime.Hub
	store *repos.Store
	retr  retrieval.Service

	newSpeaker func(uuid.UUID) Speaker
	now        func() time.Time

	ctx context.Context
	wg  sync.WaitGroup

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewManager(ctx context.Context, log *logger.Logger, llm LLM, cfg Config, deps Deps) *Manager {
	if cfg.Session.TTL.Duration <= 0 {
		cfg.Session.TTL.Duration = DefaultTTL
	}
	if deps.Hub == nil {
		deps.Hub = realtime.NewHub(log)
	}
	if deps.Retrieval == nil {
		deps.Retrieval = retrieval.Noop{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Manager{
		log:        log.With("component", "SessionManager"),
		llm:        llm,
		cfg:        cfg,
		hub:        deps.Hub,
		store:      deps.Store,
		retr:       deps.Retrieval,
		newSpeaker: deps.NewSpeaker,
		now:        deps.Now,
		ctx:        context.WithoutCancel(ctx),
		sessions:   make(map[uuid.UUID]*Session),
	}
}

// Create validates and registers a new session. Resume and job description
// text are indexed for retrieval; indexing failures only degrade context.
func (m *Manager) Create(ctx context.Context, in CreateInput) (domain.Session, error) {
	if err := in.Scenario.Validate(); err != nil {
		return domain.Session{}, err
	}
	if err := in.Persona.Validate(); err != nil {
		return domain.Session{}, err
	}

	id := uuid.New()
	now := m.now()
	if m.store != nil {
		row := &domain.Session{
			ID:             id,
			Status:         domain.SessionCreated,
			Scenario:       datatypes.NewJSONType(in.Scenario),
			Persona:        datatypes.NewJSONType(in.Persona),
			ResumeContext:  in.Resume,
			JobDescription: in.JobDescription,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := m.store.Sessions.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
			return domain.Session{}, fmt.Errorf("create session: %w", err)
		}
	}

	if docs := sessionDocuments(in.Resume, in.JobDescription); len(docs) > 0 {
		if err := m.retr.Index(ctx, id.String(), docs); err != nil {
			m.log.Warn("index session documents failed", "session_id", id.String(), "error", err)
		}
	}

	p := sessionParams{
		id:        id,
		scenario:  in.Scenario,
		persona:   in.Persona,
		createdAt: now,
		llm:       m.llm,
		hub:       m.hub,
		context:   m.retr,
		cfg:       m.cfg,
		now:       m.now,
	}
	if m.newSpeaker != nil {
		p.speaker = m.newSpeaker(id)
	}
	if m.store != nil {
		p.sink = m.store
	}
	s := newSession(m.ctx, m.log, p)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	observability.Current().SessionsLive(1)

	m.log.Info("session created", "session_id", id.String(), "scenario", string(in.Scenario.ID))
	return s.Record(), nil
}

func sessionDocuments(resume, jobDescription string) []retrieval.Document {
	var docs []retrieval.Document
	if strings.TrimSpace(resume) != "" {
		docs = append(docs, retrieval.Document{Source: retrieval.SourceResume, Text: resume})
	}
	if strings.TrimSpace(jobDescription) != "" {
		docs = append(docs, retrieval.Document{Source: retrieval.SourceJobDescription, Text: jobDescription})
	}
	return docs
}

// AddDocuments indexes a resume and/or job description for a live session
// so later replies can draw on them. Unlike Create, an indexing failure is
// returned to the caller.
func (m *Manager) AddDocuments(ctx context.Context, id uuid.UUID, resume, jobDescription string) error {
	docs := sessionDocuments(resume, jobDescription)
	if len(docs) == 0 {
		return &domain.ValidationError{Field: "documents"}
	}
	s, err := m.live(id)
	if err != nil {
		return err
	}
	if err := m.retr.Index(ctx, s.ID.String(), docs); err != nil {
		return fmt.Errorf("index session documents: %w", err)
	}
	if m.store != nil {
		var r, jd string
		for _, d := range docs {
			if d.Source == retrieval.SourceResume {
				r = d.Text
			} else {
				jd = d.Text
			}
		}
		if err := m.store.Sessions.UpdateDocuments(dbctx.Context{Ctx: ctx}, s.ID, r, jd); err != nil {
			m.log.Warn("persist session documents failed", "session_id", s.ID.String(), "error", err)
		}
	}
	m.log.Info("session documents added", "session_id", s.ID.String(), "documents", len(docs))
	return nil
}

// lookup returns a registered session. Expired sessions are evicted and
// reported as ErrSessionExpired.
func (m *Manager) lookup(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s := m.sessions[id]
	m.mu.RUnlock()
	if s == nil {
		return nil, ErrSessionNotFound
	}
	if s.expired(m.now(), m.cfg.Session.TTL.Duration) {
		m.evict(s)
		return nil, ErrSessionExpired
	}
	return s, nil
}

func (m *Manager) live(id uuid.UUID) (*Session, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	if s.Ended() {
		return nil, ErrSessionEnded
	}
	return s, nil
}

// persisted loads a session that is not registered in memory.
func (m *Manager) persisted(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	if m.store == nil {
		return nil, ErrSessionNotFound
	}
	row, err := m.store.Sessions.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if row == nil {
		return nil, ErrSessionNotFound
	}
	if m.now().Sub(row.CreatedAt) > m.cfg.Session.TTL.Duration {
		return nil, ErrSessionExpired
	}
	return row, nil
}

func (m *Manager) Get(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	s, err := m.lookup(id)
	if err == nil {
		return s.Record(), nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return domain.Session{}, err
	}
	row, err := m.persisted(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	return *row, nil
}

// Join registers a participant's arrival. The first join locks the start
// time and schedules the greeting; later joins are no-ops.
func (m *Manager) Join(ctx context.Context, id uuid.UUID) (bool, error) {
	s, err := m.live(id)
	if err != nil {
		return false, err
	}
	at, first, err := s.Join()
	if err != nil || !first {
		return false, err
	}
	if m.store != nil {
		if err := m.store.Sessions.MarkStarted(dbctx.Context{Ctx: ctx}, id, at); err != nil {
			m.log.Warn("persist session start failed", "session_id", id.String(), "error", err)
		}
	}
	return true, nil
}

// OnTranscriptFragment routes one speech-to-text fragment to the session.
// reply receives the interviewer's answer; nil sends it to the session
// speaker instead.
func (m *Manager) OnTranscriptFragment(id uuid.UUID, text string, reply turn.ReplyFunc) error {
	s, err := m.live(id)
	if err != nil {
		return err
	}
	return s.OnFragment(text, reply)
}

func (m *Manager) AttachObserver(id uuid.UUID, obs realtime.Observer) (Handle, error) {
	s, err := m.live(id)
	if err != nil {
		return Handle{}, err
	}
	s.Attach(obs)
	observability.Current().ObserversAttached(1)
	return Handle{SessionID: id, ObserverID: obs.ID()}, nil
}

func (m *Manager) DetachObserver(h Handle) bool {
	m.mu.RLock()
	s := m.sessions[h.SessionID]
	m.mu.RUnlock()
	if s == nil {
		return false
	}
	if !s.Detach(h.ObserverID) {
		return false
	}
	observability.Current().ObserversAttached(-1)
	return true
}

// GetTranscript returns the live transcript, or the persisted one for a
// session this instance no longer holds.
func (m *Manager) GetTranscript(ctx context.Context, id uuid.UUID) ([]domain.TranscriptEntry, error) {
	s, err := m.lookup(id)
	if err == nil {
		return s.Transcript(), nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}
	if _, err := m.persisted(ctx, id); err != nil {
		return nil, err
	}
	entries, err := m.store.Transcript.ListBySession(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("list transcript: %w", err)
	}
	return entries, nil
}

// GetState returns the coaching state. For a persisted session only the
// transcript and insights are known; the question type reads as unknown.
func (m *Manager) GetState(ctx context.Context, id uuid.UUID) (coach.State, error) {
	s, err := m.lookup(id)
	if err == nil {
		return s.State(), nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return coach.State{}, err
	}
	if _, err := m.persisted(ctx, id); err != nil {
		return coach.State{}, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	entries, err := m.store.Transcript.ListBySession(dbc, id)
	if err != nil {
		return coach.State{}, fmt.Errorf("list transcript: %w", err)
	}
	insights, err := m.store.Insights.ListBySession(dbc, id)
	if err != nil {
		return coach.State{}, fmt.Errorf("list insights: %w", err)
	}
	return coach.State{
		SessionID:    id,
		QuestionType: domain.QuestionUnknown,
		Transcript:   entries,
		Insights:     insights,
	}, nil
}

// Flush finalizes buffered speech and waits until coaching has caught up.
func (m *Manager) Flush(ctx context.Context, id uuid.UUID) error {
	s, err := m.live(id)
	if err != nil {
		return err
	}
	return s.Flush(ctx)
}

// End stops a session. Its transcript and state stay readable until the
// session expires.
func (m *Manager) End(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	s, err := m.lookup(id)
	if err != nil {
		return domain.Session{}, err
	}
	m.end(ctx, s)
	return s.Record(), nil
}

func (m *Manager) end(ctx context.Context, s *Session) {
	at, first := s.End(ctx)
	if !first {
		return
	}
	id := s.ID.String()
	if err := m.retr.Forget(ctx, id); err != nil {
		m.log.Warn("forget session documents failed", "session_id", id, "error", err)
	}
	if m.store != nil {
		if err := m.store.Sessions.MarkEnded(dbctx.Context{Ctx: ctx}, s.ID, at); err != nil {
			m.log.Warn("persist session end failed", "session_id", id, "error", err)
		}
	}
}

func (m *Manager) evict(s *Session) {
	m.mu.Lock()
	if m.sessions[s.ID] != s {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, s.ID)
	m.mu.Unlock()
	observability.Current().SessionsLive(-1)

	m.log.Info("session expired", "session_id", s.ID.String())
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(m.ctx, endTimeout)
		defer cancel()
		m.end(ctx, s)
	}()
}

// Len reports how many sessions are registered, ended ones included.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Run evicts expired sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	interval := m.cfg.Session.TTL.Duration / 24
	if interval > time.Minute || interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	now := m.now()
	m.mu.RLock()
	var expired []*Session
	for _, s := range m.sessions {
		if s.expired(now, m.cfg.Session.TTL.Duration) {
			expired = append(expired, s)
		}
	}
	m.mu.RUnlock()
	for _, s := range expired {
		m.evict(s)
	}
}

// Shutdown ends every live session and waits for pending evictions.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, s := range all {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			m.end(ctx, s)
		}(s)
	}
	wg.Wait()
	m.wg.Wait()
}
