package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/interviewly/backend/internal/models"
	"github.com/interviewly/backend/internal/oracle"
	"github.com/interviewly/backend/internal/utils"

	"github.com/sirupsen/logrus"
)

// finalize closes an ongoing session: it assembles the scored history across
// every round, asks the oracle for the overall evaluation, and marks the
// session completed. Idempotent; a session that already left the ongoing
// state is untouched.
func (s *sessionService) finalize(ctx context.Context, op string, sctx *sessionContext) error {
	session := sctx.session
	if session.Status != models.StatusOngoing {
		return nil
	}

	history, err := s.buildHistory(ctx, sctx)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to assemble history", err)
	}

	if len(history) > 0 {
		final, err := s.oracle.FinalEvaluate(ctx, oracle.FinalEvaluationRequest{
			Position:   sctx.interview.Post,
			Experience: sctx.interview.Experience,
			History:    history,
		})
		if err != nil {
			s.logOracleFailure(session, "final_evaluation", err)
			return utils.E(utils.CodeOracleFailure, op, "final evaluation failed", err)
		}

		session.OverallScore = &final.OverallScore
		session.Feedback = final.Feedback
		session.Recommendation = final.Recommendation
		if len(final.Strengths) > 0 {
			raw, err := json.Marshal(final.Strengths)
			if err != nil {
				return utils.E(utils.CodeInternal, op, "failed to encode strengths", err)
			}
			session.Strengths = raw
		}
	}

	now := time.Now().UTC()
	session.Status = models.StatusCompleted
	session.Round = models.RoundDone
	session.EndedAt = &now
	if err := s.sessions.Save(ctx, session); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to complete session", err)
	}

	s.log.WithFields(logrus.Fields{
		"session_id":    session.ID,
		"overall_score": session.OverallScore,
	}).Info("session completed")
	return nil
}

// buildHistory flattens every scored unit of the session into the shape the
// final evaluation prompt consumes, in round order.
func (s *sessionService) buildHistory(ctx context.Context, sctx *sessionContext) ([]oracle.HistoryItem, error) {
	var history []oracle.HistoryItem
	session := sctx.session

	questions, err := s.questionsFor(ctx, sctx.interview.ID)
	if err != nil {
		return nil, err
	}
	interactions, err := s.interactions.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		for j := range interactions {
			if interactions[j].QuestionID != questions[i].ID {
				continue
			}
			history = append(history, oracle.HistoryItem{
				Round:          string(models.RoundDev),
				Question:       questions[i].Prompt,
				ExpectedAnswer: questions[i].Expected,
				Score:          interactions[j].Score,
				Feedback:       interactions[j].Feedback,
			})
		}
	}

	convos, err := s.resumes.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	for i := range convos {
		history = append(history, oracle.HistoryItem{
			Round:          string(models.RoundResume),
			Question:       convos[i].Question,
			ExpectedAnswer: convos[i].Expected,
			Score:          convos[i].Score,
			Feedback:       convos[i].Feedback,
		})
	}

	dsaItems, err := s.dsa.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	topics, err := s.interviews.DsaTopics(ctx, sctx.interview.ID)
	if err != nil {
		return nil, err
	}
	topicByID := make(map[string]*models.DsaTopic, len(topics))
	for i := range topics {
		topicByID[topics[i].ID] = &topics[i]
	}
	for i := range dsaItems {
		question := dsaItems[i].QuestionText
		if question == "" {
			if t := topicByID[dsaItems[i].TopicID]; t != nil {
				question = t.Topic
			}
		}
		history = append(history, oracle.HistoryItem{
			Round:    string(models.RoundDsa),
			Question: question,
			Score:    dsaItems[i].Score,
		})
	}

	codingItems, err := s.coding.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	codingQuestions, err := s.interviews.CodingQuestions(ctx, sctx.interview.ID)
	if err != nil {
		return nil, err
	}
	promptByID := make(map[string]string, len(codingQuestions))
	for i := range codingQuestions {
		promptByID[codingQuestions[i].ID] = codingQuestions[i].Prompt
	}
	for i := range codingItems {
		history = append(history, oracle.HistoryItem{
			Round:    string(models.RoundCoding),
			Question: promptByID[codingItems[i].QuestionID],
			Score:    codingItems[i].Score,
			Feedback: codingItems[i].Feedback,
		})
	}

	return history, nil
}
