package postgres

import (
	"context"
	"errors"

	"github.com/interviewly/backend/internal/models"
	"github.com/interviewly/backend/internal/utils"
	"gorm.io/gorm"
)

type InteractionRepo interface {
	Create(ctx context.Context, in *models.Interaction) error
	GetBySessionAndQuestion(ctx context.Context, sessionID, questionID string) (*models.Interaction, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.Interaction, error)
	Save(ctx context.Context, in *models.Interaction) error

	CreateTurn(ctx context.Context, t *models.FollowUpTurn) error
	SaveTurn(ctx context.Context, t *models.FollowUpTurn) error
	Turns(ctx context.Context, interactionID string) ([]models.FollowUpTurn, error)
}

type interactionRepo struct {
	db *gorm.DB
}

func NewInteractionRepo(db *gorm.DB) InteractionRepo {
	return &interactionRepo{db: db}
}

func (r *interactionRepo) Create(ctx context.Context, in *models.Interaction) error {
	return r.db.WithContext(ctx).Create(in).Error
}

func (r *interactionRepo) GetBySessionAndQuestion(ctx context.Context, sessionID, questionID string) (*models.Interaction, error) {
	var in models.Interaction
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND question_id = ?", sessionID, questionID).
		Take(&in).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &in, err
}

func (r *interactionRepo) ListBySession(ctx context.Context, sessionID string) ([]models.Interaction, error) {
	var rows []models.Interaction
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *interactionRepo) Save(ctx context.Context, in *models.Interaction) error {
	return r.db.WithContext(ctx).Save(in).Error
}

func (r *interactionRepo) CreateTurn(ctx context.Context, t *models.FollowUpTurn) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *interactionRepo) SaveTurn(ctx context.Context, t *models.FollowUpTurn) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *interactionRepo) Turns(ctx context.Context, interactionID string) ([]models.FollowUpTurn, error) {
	var rows []models.FollowUpTurn
	err := r.db.WithContext(ctx).
		Where("interaction_id = ?", interactionID).
		Order("position ASC").
		Find(&rows).Error
	return rows, err
}
