package interview

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/interviewcoach-backend/internal/db"
	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
	"github.com/yungbote/interviewcoach-backend/internal/platform/dbctx"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "repo.db")), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrateAll(gdb))
	return gdb
}

func seedSession(t *testing.T, store *Store) *domain.Session {
	t.Helper()
	s := &domain.Session{
		Scenario: datatypes.NewJSONType(domain.Scenario{ID: domain.ScenarioBehavioral, Name: "Behavioral Interview", Difficulty: domain.DifficultyMedium, DurationMinutes: 20}),
		Persona:  datatypes.NewJSONType(domain.Persona{InterviewerName: "Sarah", CandidateName: "Alex"}),
	}
	require.NoError(t, store.Sessions.Create(dbctx.Background(), s))
	return s
}

func TestSessionLifecycle(t *testing.T) {
	store := NewStore(testDB(t), logger.Nop())
	s := seedSession(t, store)
	assert.Equal(t, domain.SessionCreated, s.Status)

	got, err := store.Sessions.GetByID(dbctx.Background(), s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Sarah", got.Persona.Data().InterviewerName)
	assert.Nil(t, got.StartedAt)

	first := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Sessions.MarkStarted(dbctx.Background(), s.ID, first))
	require.NoError(t, store.Sessions.MarkStarted(dbctx.Background(), s.ID, first.Add(time.Hour)))
	got, err = store.Sessions.GetByID(dbctx.Background(), s.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StartedAt)
	assert.True(t, got.StartedAt.Equal(first))
	assert.Equal(t, domain.SessionActive, got.Status)

	require.NoError(t, store.Sessions.MarkEnded(dbctx.Background(), s.ID, first.Add(20*time.Minute)))
	got, err = store.Sessions.GetByID(dbctx.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionEnded, got.Status)

	missing, err := store.Sessions.GetByID(dbctx.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateDocumentsKeepsOmittedColumn(t *testing.T) {
	store := NewStore(testDB(t), logger.Nop())
	s := seedSession(t, store)

	require.NoError(t, store.Sessions.UpdateDocuments(dbctx.Background(), s.ID, "Led payments team.", ""))
	require.NoError(t, store.Sessions.UpdateDocuments(dbctx.Background(), s.ID, "", "Staff engineer, payments."))

	got, err := store.Sessions.GetByID(dbctx.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Led payments team.", got.ResumeContext)
	assert.Equal(t, "Staff engineer, payments.", got.JobDescription)
}

func TestTranscriptAppendIsOrderedAndIdempotent(t *testing.T) {
	store := NewStore(testDB(t), logger.Nop())
	s := seedSession(t, store)
	ctx := context.Background()

	second := &domain.TranscriptEntry{ID: uuid.New(), SessionID: s.ID, Seq: 2, Timestamp: time.Now(), Speaker: domain.SpeakerCandidate, Text: "I led the migration."}
	first := &domain.TranscriptEntry{ID: uuid.New(), SessionID: s.ID, Seq: 1, Timestamp: time.Now(), Speaker: domain.SpeakerInterviewer, Text: "Tell me about a time..."}
	require.NoError(t, store.SaveTranscriptEntry(ctx, second))
	require.NoError(t, store.SaveTranscriptEntry(ctx, first))
	require.NoError(t, store.SaveTranscriptEntry(ctx, first))

	rows, err := store.Transcript.ListBySession(dbctx.Background(), s.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Seq)
	assert.Equal(t, domain.SpeakerCandidate, rows[1].Speaker)
}

func TestInsightsRoundTripContext(t *testing.T) {
	store := NewStore(testDB(t), logger.Nop())
	s := seedSession(t, store)
	progress := domain.STARProgress{Situation: true}
	in := &domain.Insight{
		SessionID: s.ID,
		Timestamp: time.Now(),
		Type:      domain.InsightFramework,
		Priority:  domain.PriorityHigh,
		Message:   "Explain the task you owned",
		Context: datatypes.NewJSONType(domain.InsightContext{
			QuestionType:      domain.QuestionBehavioral,
			FrameworkProgress: &progress,
		}),
	}
	require.NoError(t, store.SaveInsight(context.Background(), in))

	rows, err := store.Insights.ListBySession(dbctx.Background(), s.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	ctx := rows[0].Context.Data()
	assert.Equal(t, domain.QuestionBehavioral, ctx.QuestionType)
	require.NotNil(t, ctx.FrameworkProgress)
	assert.True(t, ctx.FrameworkProgress.Situation)
}
