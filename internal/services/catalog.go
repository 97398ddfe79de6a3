package services

import (
	"context"
	"time"

	"github.com/interviewly/backend/internal/models"
)

const catalogTTL = 10 * time.Minute

// questionsFor returns the interview's dev question chain, ordered by
// position. Questions are immutable once an interview is live, so the list
// is cached; a cache outage degrades to a direct read.
func (s *sessionService) questionsFor(ctx context.Context, interviewID string) ([]models.Question, error) {
	key := "catalog:questions:" + interviewID

	if s.cache != nil {
		var cached []models.Question
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	questions, err := s.interviews.Questions(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, questions, catalogTTL); err != nil {
			s.log.WithError(err).WithField("interview_id", interviewID).Warn("failed to cache question catalog")
		}
	}
	return questions, nil
}
