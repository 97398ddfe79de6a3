package postgres

import (
	"context"
	"errors"

	"github.com/interviewly/backend/internal/models"
	"github.com/interviewly/backend/internal/utils"
	"gorm.io/gorm"
)

type DsaRepo interface {
	// Ensure creates the missing (session, topic) slot; existing rows keep
	// their submitted code and score.
	Ensure(ctx context.Context, in *models.DsaInteraction) error
	GetBySessionAndTopic(ctx context.Context, sessionID, topicID string) (*models.DsaInteraction, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.DsaInteraction, error)
	Save(ctx context.Context, in *models.DsaInteraction) error
}

type dsaRepo struct {
	db *gorm.DB
}

func NewDsaRepo(db *gorm.DB) DsaRepo {
	return &dsaRepo{db: db}
}

func (r *dsaRepo) Ensure(ctx context.Context, in *models.DsaInteraction) error {
	return r.db.WithContext(ctx).
		Where("session_id = ? AND topic_id = ?", in.SessionID, in.TopicID).
		FirstOrCreate(in).Error
}

func (r *dsaRepo) GetBySessionAndTopic(ctx context.Context, sessionID, topicID string) (*models.DsaInteraction, error) {
	var in models.DsaInteraction
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND topic_id = ?", sessionID, topicID).
		Take(&in).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &in, err
}

func (r *dsaRepo) ListBySession(ctx context.Context, sessionID string) ([]models.DsaInteraction, error) {
	var rows []models.DsaInteraction
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *dsaRepo) Save(ctx context.Context, in *models.DsaInteraction) error {
	return r.db.WithContext(ctx).Save(in).Error
}
