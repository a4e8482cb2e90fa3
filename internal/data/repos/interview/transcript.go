package interview

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
	"github.com/yungbote/interviewcoach-backend/internal/platform/dbctx"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

type TranscriptRepo interface {
	Append(dbc dbctx.Context, e *domain.TranscriptEntry) error
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]domain.TranscriptEntry, error)
}

type transcriptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTranscriptRepo(db *gorm.DB, baseLog *logger.Logger) TranscriptRepo {
	return &transcriptRepo{db: db, log: baseLog.With("repo", "TranscriptRepo")}
}

// Append is idempotent on entry id.
func (r *transcriptRepo) Append(dbc dbctx.Context, e *domain.TranscriptEntry) error {
	if e == nil || e.SessionID == uuid.Nil {
		return nil
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(e).Error
}

func (r *transcriptRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]domain.TranscriptEntry, error) {
	var out []domain.TranscriptEntry
	if sessionID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("session_id = ?", sessionID).
		Order("seq ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
