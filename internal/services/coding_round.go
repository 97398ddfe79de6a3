package services

import (
	"context"

	"github.com/interviewly/backend/internal/models"
	"github.com/interviewly/backend/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func (s *sessionService) ensureCodingItems(ctx context.Context, sessionID string, questions []models.CodingQuestion) error {
	for i := range questions {
		item := models.CodingInteraction{
			ID:         uuid.NewString(),
			SessionID:  sessionID,
			QuestionID: questions[i].ID,
		}
		if err := s.coding.Ensure(ctx, &item); err != nil {
			return err
		}
	}
	return nil
}

// CodingItems lists the session's coding slots, creating any missing ones
// first so a read after a partially failed round entry still sees the full
// set.
func (s *sessionService) CodingItems(ctx context.Context, sessionID, userID string) ([]models.CodingInteraction, error) {
	const op = "SessionService.CodingItems"

	sctx, err := s.loadOwned(ctx, op, sessionID, userID)
	if err != nil {
		return nil, err
	}

	questions, err := s.interviews.CodingQuestions(ctx, sctx.interview.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load coding questions", err)
	}
	if err := s.ensureCodingItems(ctx, sctx.session.ID, questions); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create coding items", err)
	}

	items, err := s.coding.ListBySession(ctx, sctx.session.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load coding items", err)
	}
	return items, nil
}

// SubmitCodingItem upserts {code, score, feedback} on the question's slot
// while the round is open; the round mean follows the latest values.
func (s *sessionService) SubmitCodingItem(ctx context.Context, sessionID, userID, questionID, code, feedback string, score float64) (*ItemResult, error) {
	const op = "SessionService.SubmitCodingItem"

	if score < 0 || score > 10 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "score must be between 0 and 10", nil)
	}

	s.locks.Lock(sessionID)
	defer s.locks.Unlock(sessionID)

	sctx, err := s.loadOwned(ctx, op, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOngoing(ctx, op, sctx); err != nil {
		return nil, err
	}
	if sctx.session.Round != models.RoundCoding {
		return nil, utils.E(utils.CodeInvalidState, op, "session is not in the coding round", nil)
	}

	item, err := s.coding.GetBySessionAndQuestion(ctx, sessionID, questionID)
	if err != nil {
		if isNotFound(err) {
			return nil, utils.E(utils.CodeNotFound, op, "question is not part of this session", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load coding item", err)
	}

	item.Code = code
	item.Score = &score
	item.Feedback = feedback
	if err := s.coding.Save(ctx, item); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store submission", err)
	}

	items, err := s.coding.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load coding items", err)
	}
	mean, allScored := meanItemScore(items, func(it models.CodingInteraction) *float64 { return it.Score })

	sctx.session.CodingScore = &mean
	if err := s.sessions.Save(ctx, sctx.session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store round score", err)
	}

	result := &ItemResult{RoundScore: sctx.session.CodingScore, RoundComplete: allScored}
	if allScored {
		_, completed, err := s.enterRoundAfter(ctx, op, sctx, models.RoundCoding)
		if err != nil {
			return nil, err
		}
		result.SessionCompleted = completed
	}
	return result, nil
}

// RequestAssistance consumes one AI-help token on a coding question. The
// check happens before the increment, so the count visible to the caller
// never exceeds the cap.
func (s *sessionService) RequestAssistance(ctx context.Context, sessionID, userID, questionID string) (*AssistanceResult, error) {
	const op = "SessionService.RequestAssistance"

	s.locks.Lock(sessionID)
	defer s.locks.Unlock(sessionID)

	sctx, err := s.loadOwned(ctx, op, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOngoing(ctx, op, sctx); err != nil {
		return nil, err
	}
	if sctx.session.Round != models.RoundCoding {
		return nil, utils.E(utils.CodeInvalidState, op, "session is not in the coding round", nil)
	}

	item, err := s.coding.GetBySessionAndQuestion(ctx, sessionID, questionID)
	if err != nil {
		if isNotFound(err) {
			return nil, utils.E(utils.CodeNotFound, op, "question is not part of this session", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load coding item", err)
	}

	if item.AssistanceCount >= models.MaxAssistance {
		return nil, utils.E(utils.CodeLimitExceeded, op, "assistance limit reached", nil)
	}
	item.AssistanceCount++
	if err := s.coding.Save(ctx, item); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to record assistance", err)
	}

	s.log.WithFields(logrus.Fields{
		"session_id":  sessionID,
		"question_id": questionID,
		"count":       item.AssistanceCount,
	}).Info("assistance granted")

	return &AssistanceResult{AssistanceCount: item.AssistanceCount}, nil
}
