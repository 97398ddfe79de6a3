package postgres

import (
	"context"
	"errors"

	"github.com/interviewly/backend/internal/models"
	"github.com/interviewly/backend/internal/utils"
	"gorm.io/gorm"
)

type CodingRepo interface {
	Ensure(ctx context.Context, in *models.CodingInteraction) error
	GetBySessionAndQuestion(ctx context.Context, sessionID, questionID string) (*models.CodingInteraction, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.CodingInteraction, error)
	Save(ctx context.Context, in *models.CodingInteraction) error
}

type codingRepo struct {
	db *gorm.DB
}

func NewCodingRepo(db *gorm.DB) CodingRepo {
	return &codingRepo{db: db}
}

func (r *codingRepo) Ensure(ctx context.Context, in *models.CodingInteraction) error {
	return r.db.WithContext(ctx).
		Where("session_id = ? AND question_id = ?", in.SessionID, in.QuestionID).
		FirstOrCreate(in).Error
}

func (r *codingRepo) GetBySessionAndQuestion(ctx context.Context, sessionID, questionID string) (*models.CodingInteraction, error) {
	var in models.CodingInteraction
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND question_id = ?", sessionID, questionID).
		Take(&in).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &in, err
}

func (r *codingRepo) ListBySession(ctx context.Context, sessionID string) ([]models.CodingInteraction, error) {
	var rows []models.CodingInteraction
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *codingRepo) Save(ctx context.Context, in *models.CodingInteraction) error {
	return r.db.WithContext(ctx).Save(in).Error
}
