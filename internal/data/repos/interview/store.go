package interview

import (
	"context"

	"gorm.io/gorm"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
	"github.com/yungbote/interviewcoach-backend/internal/platform/dbctx"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

// Store groups the interview repos. It is the per-session persistence sink
// used by the coaching engine.
type Store struct {
	Sessions   SessionRepo
	Transcript TranscriptRepo
	Insights   InsightRepo
}

func NewStore(db *gorm.DB, log *logger.Logger) *Store {
	return &Store{
		Sessions:   NewSessionRepo(db, log),
		Transcript: NewTranscriptRepo(db, log),
		Insights:   NewInsightRepo(db, log),
	}
}

func (s *Store) SaveTranscriptEntry(ctx context.Context, e *domain.TranscriptEntry) error {
	return s.Transcript.Append(dbctx.Context{Ctx: ctx}, e)
}

func (s *Store) SaveInsight(ctx context.Context, in *domain.Insight) error {
	return s.Insights.Create(dbctx.Context{Ctx: ctx}, in)
}
