package postgres

import (
	"context"

	"github.com/interviewly/backend/internal/models"
	"gorm.io/gorm"
)

type ResumeRepo interface {
	CreatePair(ctx context.Context, convos []models.ResumeConversation) error
	ListBySession(ctx context.Context, sessionID string) ([]models.ResumeConversation, error)
	Save(ctx context.Context, c *models.ResumeConversation) error
}

type resumeRepo struct {
	db *gorm.DB
}

func NewResumeRepo(db *gorm.DB) ResumeRepo {
	return &resumeRepo{db: db}
}

func (r *resumeRepo) CreatePair(ctx context.Context, convos []models.ResumeConversation) error {
	return r.db.WithContext(ctx).Create(&convos).Error
}

func (r *resumeRepo) ListBySession(ctx context.Context, sessionID string) ([]models.ResumeConversation, error) {
	var rows []models.ResumeConversation
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("position ASC").
		Find(&rows).Error
	return rows, err
}

func (r *resumeRepo) Save(ctx context.Context, c *models.ResumeConversation) error {
	return r.db.WithContext(ctx).Save(c).Error
}
