package postgres

import (
	"context"
	"errors"

	"github.com/interviewly/backend/internal/models"
	"github.com/interviewly/backend/internal/utils"
	"gorm.io/gorm"
)

// InterviewRepo reads the interview catalog. The engine never writes it;
// authoring happens in a separate surface.
type InterviewRepo interface {
	GetByID(ctx context.Context, id string) (*models.Interview, error)
	Questions(ctx context.Context, interviewID string) ([]models.Question, error)
	DsaTopics(ctx context.Context, interviewID string) ([]models.DsaTopic, error)
	CodingQuestions(ctx context.Context, interviewID string) ([]models.CodingQuestion, error)
}

type interviewRepo struct {
	db *gorm.DB
}

func NewInterviewRepo(db *gorm.DB) InterviewRepo {
	return &interviewRepo{db: db}
}

func (r *interviewRepo) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	var iv models.Interview
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&iv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &iv, err
}

func (r *interviewRepo) Questions(ctx context.Context, interviewID string) ([]models.Question, error) {
	var rows []models.Question
	err := r.db.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order("position ASC").
		Find(&rows).Error
	return rows, err
}

func (r *interviewRepo) DsaTopics(ctx context.Context, interviewID string) ([]models.DsaTopic, error) {
	var rows []models.DsaTopic
	err := r.db.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *interviewRepo) CodingQuestions(ctx context.Context, interviewID string) ([]models.CodingQuestion, error) {
	var rows []models.CodingQuestion
	err := r.db.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}
