package services

import (
	"context"

	"github.com/interviewly/backend/internal/models"
	"github.com/interviewly/backend/internal/utils"

	"github.com/google/uuid"
)

func (s *sessionService) ensureDsaItems(ctx context.Context, sessionID string, topics []models.DsaTopic) error {
	for i := range topics {
		item := models.DsaInteraction{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			TopicID:   topics[i].ID,
		}
		if err := s.dsa.Ensure(ctx, &item); err != nil {
			return err
		}
	}
	return nil
}

// DsaItems lists the session's DSA slots, creating any missing ones first so
// a read after a partially failed round entry still sees the full set.
func (s *sessionService) DsaItems(ctx context.Context, sessionID, userID string) ([]models.DsaInteraction, error) {
	const op = "SessionService.DsaItems"

	sctx, err := s.loadOwned(ctx, op, sessionID, userID)
	if err != nil {
		return nil, err
	}

	topics, err := s.interviews.DsaTopics(ctx, sctx.interview.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load dsa topics", err)
	}
	if err := s.ensureDsaItems(ctx, sctx.session.ID, topics); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create dsa items", err)
	}

	items, err := s.dsa.ListBySession(ctx, sctx.session.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load dsa items", err)
	}
	return items, nil
}

// SubmitDsaItem records one topic's solved question. Scoring happens on the
// client's DSA surface; the engine only validates, stores and aggregates.
// Submissions upsert: while the round is open a topic may be resubmitted and
// the round mean is recomputed from the latest values.
func (s *sessionService) SubmitDsaItem(ctx context.Context, sessionID, userID, topicID, questionText, code string, score float64) (*ItemResult, error) {
	const op = "SessionService.SubmitDsaItem"

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
	if sctx.session.Round != models.RoundDsa {
		return nil, utils.E(utils.CodeInvalidState, op, "session is not in the dsa round", nil)
	}

	item, err := s.dsa.GetBySessionAndTopic(ctx, sessionID, topicID)
	if err != nil {
		if isNotFound(err) {
			return nil, utils.E(utils.CodeNotFound, op, "topic is not part of this session", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load dsa item", err)
	}

	item.QuestionText = questionText
	item.Code = code
	item.Score = &score
	if err := s.dsa.Save(ctx, item); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store submission", err)
	}

	items, err := s.dsa.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load dsa items", err)
	}
	mean, allScored := meanItemScore(items, func(it models.DsaInteraction) *float64 { return it.Score })

	sctx.session.DsaScore = &mean
	if err := s.sessions.Save(ctx, sctx.session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store round score", err)
	}

	result := &ItemResult{RoundScore: sctx.session.DsaScore, RoundComplete: allScored}
	if allScored {
		_, completed, err := s.enterRoundAfter(ctx, op, sctx, models.RoundDsa)
		if err != nil {
			return nil, err
		}
		result.SessionCompleted = completed
	}
	return result, nil
}

// meanItemScore averages the scored subset and reports whether every item
// has been scored.
func meanItemScore[T any](items []T, score func(T) *float64) (float64, bool) {
	sum, n := 0.0, 0
	for _, it := range items {
		if s := score(it); s != nil {
			sum += *s
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), n == len(items)
}
