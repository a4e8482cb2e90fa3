package interview

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
	"github.com/yungbote/interviewcoach-backend/internal/platform/dbctx"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

type InsightRepo interface {
	Create(dbc dbctx.Context, in *domain.Insight) error
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]domain.Insight, error)
}

type insightRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInsightRepo(db *gorm.DB, baseLog *logger.Logger) InsightRepo {
	return &insightRepo{db: db, log: baseLog.With("repo", "InsightRepo")}
}

func (r *insightRepo) Create(dbc dbctx.Context, in *domain.Insight) error {
	if in == nil || in.SessionID == uuid.Nil {
		return nil
	}
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(in).Error
}

func (r *insightRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]domain.Insight, error) {
	var out []domain.Insight
	if sessionID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
