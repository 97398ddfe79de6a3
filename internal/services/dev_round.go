package services

import (
	"context"
	"fmt"

	"github.com/interviewly/backend/internal/models"
	"github.com/interviewly/backend/internal/oracle"
	"github.com/interviewly/backend/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxFollowUpTurns bounds the probing loop per question. Once the
// conversation holds this many turns the answer is scored no matter what the
// oracle would prefer.
const maxFollowUpTurns = 3

// submitDev runs one step of the dev Q&A follow-up loop:
// record the answer, ask the oracle whether to probe deeper, and either
// append a follow-up turn or score the interaction and advance the cursor.
func (s *sessionService) submitDev(ctx context.Context, op string, sctx *sessionContext, answer string) (*SubmitResult, error) {
	session := sctx.session
	interview := sctx.interview

	questions, err := s.questionsFor(ctx, interview.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load questions", err)
	}

	idx := session.CurrentQuestionIndex
	if idx >= len(questions) {
		// round already exhausted; this is a finalize/advance retry
		return s.advanceFromDev(ctx, op, sctx)
	}
	q := &questions[idx]

	interaction, err := s.ensureInteraction(ctx, session.ID, q)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load interaction", err)
	}
	turns, err := s.interactions.Turns(ctx, interaction.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load turns", err)
	}

	last := &turns[len(turns)-1]
	if !last.Answered() {
		if answer == "" {
			return nil, utils.E(utils.CodeInvalidArgument, op, "answer is required", nil)
		}
		last.Answer = &answer
		if err := s.interactions.SaveTurn(ctx, last); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to record answer", err)
		}
	}
	// An answered last turn with no score means a previous attempt failed at
	// the oracle; fall through and re-attempt the decision/scoring without
	// recording anything twice.

	convo := conversationContext(turns)

	if interaction.Score == nil && len(turns) < maxFollowUpTurns {
		decision, err := s.oracle.DecideFollowUp(ctx, oracle.FollowUpRequest{
			Position:            interview.Post,
			Experience:          interview.Experience,
			ExpectedAnswer:      q.Expected,
			ConversationContext: convo,
		})
		if err != nil {
			s.logOracleFailure(session, "follow_up_decision", err)
			return nil, utils.E(utils.CodeOracleFailure, op, "follow-up decision failed", err)
		}

		if decision.NeedsFollowUp && decision.FollowUpQuestion != "" {
			next := &models.FollowUpTurn{
				ID:            uuid.NewString(),
				InteractionID: interaction.ID,
				Position:      len(turns),
				Question:      decision.FollowUpQuestion,
			}
			if err := s.interactions.CreateTurn(ctx, next); err != nil {
				return nil, utils.E(utils.CodeInternal, op, "failed to append follow-up", err)
			}
			return &SubmitResult{
				SessionID:    session.ID,
				Round:        models.RoundDev,
				NextQuestion: decision.FollowUpQuestion,
			}, nil
		}
	}

	if interaction.Score == nil {
		eval, err := s.oracle.Evaluate(ctx, oracle.EvaluationRequest{
			Position:            interview.Post,
			Experience:          interview.Experience,
			Question:            q.Prompt,
			ConversationContext: convo,
			ExpectedAnswer:      q.Expected,
		})
		if err != nil {
			s.logOracleFailure(session, "evaluation", err)
			return nil, utils.E(utils.CodeOracleFailure, op, "evaluation failed", err)
		}

		// write-once: the nil check above is the only path that sets a score
		interaction.Score = &eval.Score
		interaction.Feedback = eval.Feedback
		if err := s.interactions.Save(ctx, interaction); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to store score", err)
		}
	}

	session.CurrentQuestionIndex = idx + 1
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to advance cursor", err)
	}

	if session.CurrentQuestionIndex < len(questions) {
		next := &questions[session.CurrentQuestionIndex]
		if _, err := s.ensureInteraction(ctx, session.ID, next); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to seed next interaction", err)
		}
		return &SubmitResult{
			SessionID:    session.ID,
			Round:        models.RoundDev,
			NextQuestion: next.Prompt,
		}, nil
	}

	return s.advanceFromDev(ctx, op, sctx)
}

// advanceFromDev closes the dev round: stores the round mean and moves on.
func (s *sessionService) advanceFromDev(ctx context.Context, op string, sctx *sessionContext) (*SubmitResult, error) {
	session := sctx.session

	if session.DevScore == nil {
		interactions, err := s.interactions.ListBySession(ctx, session.ID)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to load interactions", err)
		}
		if mean, ok := meanInteractionScore(interactions); ok {
			session.DevScore = &mean
			if err := s.sessions.Save(ctx, session); err != nil {
				return nil, utils.E(utils.CodeInternal, op, "failed to store round score", err)
			}
		}
	}

	prompt, completed, err := s.enterRoundAfter(ctx, op, sctx, models.RoundDev)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{
		SessionID:    session.ID,
		Round:        session.Round,
		NextQuestion: prompt,
		Completed:    completed,
	}, nil
}

// conversationContext renders the turns as ordered "Q:"/"A:" lines, the
// exact shape the oracle prompts expect.
func conversationContext(turns []models.FollowUpTurn) []string {
	lines := make([]string, 0, len(turns)*2)
	for i := range turns {
		lines = append(lines, fmt.Sprintf("Q: %s", turns[i].Question))
		if turns[i].Answer != nil {
			lines = append(lines, fmt.Sprintf("A: %s", *turns[i].Answer))
		}
	}
	return lines
}

func meanInteractionScore(interactions []models.Interaction) (float64, bool) {
	sum, n := 0.0, 0
	for i := range interactions {
		if interactions[i].Score != nil {
			sum += *interactions[i].Score
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func (s *sessionService) logOracleFailure(session *models.Session, stage string, err error) {
	s.log.WithError(err).WithFields(logrus.Fields{
		"session_id": session.ID,
		"stage":      stage,
	}).Warn("oracle call failed")
}
