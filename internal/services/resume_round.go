package services

import (
	"context"
	"fmt"

	"github.com/interviewly/backend/internal/models"
	"github.com/interviewly/backend/internal/oracle"
	"github.com/interviewly/backend/internal/utils"

	"github.com/google/uuid"
)

// ensureResumeConversations returns the round's conversation pair,
// generating it through the oracle on first entry. Generation happens once;
// a failed attempt leaves nothing behind and is retried on the next call.
func (s *sessionService) ensureResumeConversations(ctx context.Context, op string, sctx *sessionContext) ([]models.ResumeConversation, error) {
	convos, err := s.resumes.ListBySession(ctx, sctx.session.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load resume conversations", err)
	}
	if len(convos) > 0 {
		return convos, nil
	}

	generated, err := s.oracle.GenerateResumeQuestions(ctx, oracle.ResumeQuestionRequest{
		Resume:         sctx.app.ExtractedResume,
		JobTitle:       sctx.interview.Post,
		JobDescription: sctx.interview.Description,
		Experience:     sctx.interview.Experience,
	})
	if err != nil {
		s.logOracleFailure(sctx.session, "resume_question_generation", err)
		return nil, utils.E(utils.CodeOracleFailure, op, "resume question generation failed", err)
	}

	pair := []models.ResumeConversation{
		{
			ID:        uuid.NewString(),
			SessionID: sctx.session.ID,
			Position:  0,
			Question:  generated.Question1,
			Expected:  generated.Expected1,
		},
		{
			ID:        uuid.NewString(),
			SessionID: sctx.session.ID,
			Position:  1,
			Question:  generated.Question2,
			Expected:  generated.Expected2,
		},
	}
	if err := s.resumes.CreatePair(ctx, pair); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store resume conversations", err)
	}
	return pair, nil
}

// submitResume answers the oldest unscored conversation. The round is flat:
// one answer, one immediate score, no probing.
func (s *sessionService) submitResume(ctx context.Context, op string, sctx *sessionContext, answer string) (*SubmitResult, error) {
	session := sctx.session

	convos, err := s.resumes.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load resume conversations", err)
	}
	if len(convos) == 0 {
		// generation failed on round entry; regenerate and hand out the
		// first question without consuming this submission
		convos, err = s.ensureResumeConversations(ctx, op, sctx)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{
			SessionID:    session.ID,
			Round:        models.RoundResume,
			NextQuestion: convos[0].Question,
		}, nil
	}

	// oldest unscored first, so a scoring retry lands on the same
	// conversation it failed on
	var target *models.ResumeConversation
	for i := range convos {
		if convos[i].Score == nil {
			target = &convos[i]
			break
		}
	}
	if target == nil {
		return s.advanceFromResume(ctx, op, sctx, convos)
	}

	if target.Answer == nil {
		if answer == "" {
			return nil, utils.E(utils.CodeInvalidArgument, op, "answer is required", nil)
		}
		target.Answer = &answer
		if err := s.resumes.Save(ctx, target); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to record answer", err)
		}
	}

	eval, err := s.oracle.Evaluate(ctx, oracle.EvaluationRequest{
		Position:   sctx.interview.Post,
		Experience: sctx.interview.Experience,
		Question:   target.Question,
		ConversationContext: []string{
			fmt.Sprintf("Q: %s", target.Question),
			fmt.Sprintf("A: %s", *target.Answer),
		},
		ExpectedAnswer: target.Expected,
	})
	if err != nil {
		s.logOracleFailure(session, "resume_evaluation", err)
		return nil, utils.E(utils.CodeOracleFailure, op, "evaluation failed", err)
	}

	target.Score = &eval.Score
	target.Feedback = eval.Feedback
	if err := s.resumes.Save(ctx, target); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store score", err)
	}

	for i := range convos {
		if convos[i].Score == nil {
			return &SubmitResult{
				SessionID:    session.ID,
				Round:        models.RoundResume,
				NextQuestion: convos[i].Question,
			}, nil
		}
	}
	return s.advanceFromResume(ctx, op, sctx, convos)
}

func (s *sessionService) advanceFromResume(ctx context.Context, op string, sctx *sessionContext, convos []models.ResumeConversation) (*SubmitResult, error) {
	session := sctx.session

	if session.ResumeScore == nil {
		sum, n := 0.0, 0
		for i := range convos {
			if convos[i].Score != nil {
				sum += *convos[i].Score
				n++
			}
		}
		if n > 0 {
			mean := sum / float64(n)
			session.ResumeScore = &mean
			if err := s.sessions.Save(ctx, session); err != nil {
				return nil, utils.E(utils.CodeInternal, op, "failed to store round score", err)
			}
		}
	}

	prompt, completed, err := s.enterRoundAfter(ctx, op, sctx, models.RoundResume)
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
