package services

import (
	"context"
	"errors"

	"github.com/interviewly/backend/internal/models"
	"github.com/interviewly/backend/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// roundOrder is the fixed sequence of phases; each is individually optional
// per interview.
var roundOrder = []models.Round{
	models.RoundDev,
	models.RoundResume,
	models.RoundDsa,
	models.RoundCoding,
}

// enterRoundAfter advances the session into the first configured round with
// work in it after `after` (empty means start from the beginning). When no
// round remains it finalizes the session. Returns the next prompt and
// whether the session completed.
func (s *sessionService) enterRoundAfter(ctx context.Context, op string, sctx *sessionContext, after models.Round) (string, bool, error) {
	start := 0
	if after != "" {
		for i, r := range roundOrder {
			if r == after {
				start = i + 1
				break
			}
		}
	}

	for _, round := range roundOrder[start:] {
		prompt, entered, err := s.enterRound(ctx, op, sctx, round)
		if err != nil {
			return "", false, err
		}
		if entered {
			return prompt, false, nil
		}
	}

	if err := s.finalize(ctx, op, sctx); err != nil {
		return "", false, err
	}
	return "", true, nil
}

// enterRound moves the cursor into one round if the interview configures it
// and it has items. Entering is idempotent: item creation uses ensure
// semantics so a retried transition never duplicates rows.
func (s *sessionService) enterRound(ctx context.Context, op string, sctx *sessionContext, round models.Round) (string, bool, error) {
	session := sctx.session
	interview := sctx.interview

	switch round {
	case models.RoundDev:
		if !interview.HasDevRound {
			return "", false, nil
		}
		questions, err := s.questionsFor(ctx, interview.ID)
		if err != nil {
			return "", false, utils.E(utils.CodeInternal, op, "failed to load questions", err)
		}
		if len(questions) == 0 {
			return "", false, nil
		}
		session.Round = models.RoundDev
		session.CurrentQuestionIndex = 0
		if err := s.sessions.Save(ctx, session); err != nil {
			return "", false, utils.E(utils.CodeInternal, op, "failed to advance round", err)
		}
		if _, err := s.ensureInteraction(ctx, session.ID, &questions[0]); err != nil {
			return "", false, utils.E(utils.CodeInternal, op, "failed to seed first interaction", err)
		}
		s.logRound(session, models.RoundDev)
		return questions[0].Prompt, true, nil

	case models.RoundResume:
		if !interview.HasResumeRound {
			return "", false, nil
		}
		session.Round = models.RoundResume
		session.CurrentQuestionIndex = 0
		if err := s.sessions.Save(ctx, session); err != nil {
			return "", false, utils.E(utils.CodeInternal, op, "failed to advance round", err)
		}
		s.logRound(session, models.RoundResume)
		convos, err := s.ensureResumeConversations(ctx, op, sctx)
		if err != nil {
			// session is parked in the resume round; the next submission
			// retries generation
			return "", false, err
		}
		return convos[0].Question, true, nil

	case models.RoundDsa:
		if !interview.HasDsaRound {
			return "", false, nil
		}
		topics, err := s.interviews.DsaTopics(ctx, interview.ID)
		if err != nil {
			return "", false, utils.E(utils.CodeInternal, op, "failed to load dsa topics", err)
		}
		if len(topics) == 0 {
			return "", false, nil
		}
		session.Round = models.RoundDsa
		session.CurrentQuestionIndex = 0
		if err := s.sessions.Save(ctx, session); err != nil {
			return "", false, utils.E(utils.CodeInternal, op, "failed to advance round", err)
		}
		if err := s.ensureDsaItems(ctx, session.ID, topics); err != nil {
			return "", false, utils.E(utils.CodeInternal, op, "failed to create dsa items", err)
		}
		s.logRound(session, models.RoundDsa)
		return topics[0].Topic, true, nil

	case models.RoundCoding:
		if !interview.HasCodingRound {
			return "", false, nil
		}
		questions, err := s.interviews.CodingQuestions(ctx, interview.ID)
		if err != nil {
			return "", false, utils.E(utils.CodeInternal, op, "failed to load coding questions", err)
		}
		if len(questions) == 0 {
			return "", false, nil
		}
		session.Round = models.RoundCoding
		session.CurrentQuestionIndex = 0
		if err := s.sessions.Save(ctx, session); err != nil {
			return "", false, utils.E(utils.CodeInternal, op, "failed to advance round", err)
		}
		if err := s.ensureCodingItems(ctx, session.ID, questions); err != nil {
			return "", false, utils.E(utils.CodeInternal, op, "failed to create coding items", err)
		}
		s.logRound(session, models.RoundCoding)
		return questions[0].Prompt, true, nil
	}

	return "", false, nil
}

// ensureInteraction lazily creates the interaction for a question and seeds
// turn 0 with the question text, so the client always has a ready prompt.
func (s *sessionService) ensureInteraction(ctx context.Context, sessionID string, q *models.Question) (*models.Interaction, error) {
	in, err := s.interactions.GetBySessionAndQuestion(ctx, sessionID, q.ID)
	if err != nil {
		if !isNotFound(err) {
			return nil, err
		}
		in = &models.Interaction{
			ID:         uuid.NewString(),
			SessionID:  sessionID,
			QuestionID: q.ID,
		}
		if err := s.interactions.Create(ctx, in); err != nil {
			return nil, err
		}
	}

	turns, err := s.interactions.Turns(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		seed := &models.FollowUpTurn{
			ID:            uuid.NewString(),
			InteractionID: in.ID,
			Position:      0,
			Question:      q.Prompt,
		}
		if err := s.interactions.CreateTurn(ctx, seed); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func (s *sessionService) logRound(session *models.Session, round models.Round) {
	s.log.WithFields(logrus.Fields{
		"session_id": session.ID,
		"round":      round,
	}).Info("round entered")
}

func isNotFound(err error) bool {
	return errors.Is(err, utils.ErrNotFound)
}
