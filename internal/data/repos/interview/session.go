package interview

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
	"github.com/yungbote/interviewcoach-backend/internal/platform/dbctx"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

type SessionRepo interface {
	Create(dbc dbctx.Context, s *domain.Session) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Session, error)
	MarkStarted(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	MarkEnded(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	UpdateDocuments(dbc dbctx.Context, id uuid.UUID, resume, jobDescription string) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "InterviewSessionRepo")}
}

func (r *sessionRepo) Create(dbc dbctx.Context, s *domain.Session) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = domain.SessionCreated
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return dbc.DB(r.db).Create(s).Error
}

// GetByID returns (nil, nil) when the session does not exist.
func (r *sessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Session, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.Session
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// MarkStarted sets started_at only if it is still empty.
func (r *sessionRepo) MarkStarted(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	return dbc.DB(r.db).
		Model(&domain.Session{}).
		Where("id = ? AND started_at IS NULL", id).
		Updates(map[string]any{
			"status":     domain.SessionActive,
			"started_at": at.UTC(),
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *sessionRepo) MarkEnded(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	return dbc.DB(r.db).
		Model(&domain.Session{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     domain.SessionEnded,
			"ended_at":   at.UTC(),
			"updated_at": time.Now().UTC(),
		}).Error
}

// UpdateDocuments replaces the stored resume and job description. Empty
// arguments leave the existing column untouched.
func (r *sessionRepo) UpdateDocuments(dbc dbctx.Context, id uuid.UUID, resume, jobDescription string) error {
	updates := map[string]any{}
	if resume != "" {
		updates["resume_context"] = resume
	}
	if jobDescription != "" {
		updates["job_description"] = jobDescription
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return dbc.DB(r.db).
		Model(&domain.Session{}).
		Where("id = ?", id).
		Updates(updates).Error
}
