package postgres

import (
	"context"
	"errors"

	"github.com/interviewly/backend/internal/models"
	"github.com/interviewly/backend/internal/utils"
	"gorm.io/gorm"
)

type ApplicationRepo interface {
	GetByUserAndInterview(ctx context.Context, userID, interviewID string) (*models.Application, error)
	GetByID(ctx context.Context, id string) (*models.Application, error)
}

type applicationRepo struct {
	db *gorm.DB
}

func NewApplicationRepo(db *gorm.DB) ApplicationRepo {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) GetByUserAndInterview(ctx context.Context, userID, interviewID string) (*models.Application, error) {
	var app models.Application
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND interview_id = ?", userID, interviewID).
		Take(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &app, err
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (*models.Application, error) {
	var app models.Application
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &app, err
}
