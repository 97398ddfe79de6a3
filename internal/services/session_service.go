package services

import (
	"context"
	"errors"
	"time"

	"github.com/interviewly/backend/internal/cache"
	"github.com/interviewly/backend/internal/locker"
	"github.com/interviewly/backend/internal/models"
	"github.com/interviewly/backend/internal/oracle"
	mongorepo "github.com/interviewly/backend/internal/repositories/mongo"
	pgrepo "github.com/interviewly/backend/internal/repositories/postgres"
	"github.com/interviewly/backend/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type InitializeResult struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question,omitempty"`
	Completed bool   `json:"completed"`
}

type SubmitResult struct {
	SessionID    string       `json:"session_id"`
	Round        models.Round `json:"round"`
	NextQuestion string       `json:"next_question,omitempty"`
	Completed    bool         `json:"completed"`
}

type ItemResult struct {
	RoundScore       *float64 `json:"round_score,omitempty"`
	RoundComplete    bool     `json:"round_complete"`
	SessionCompleted bool     `json:"session_completed"`
}

type AssistanceResult struct {
	AssistanceCount int `json:"assistance_count"`
}

// SessionService is the per-candidate interview state machine. Every
// mutating call serializes on the session's lock, including the blocking
// oracle calls, so at most one submission is in flight per session.
type SessionService interface {
	Initialize(ctx context.Context, userID, interviewID string) (*InitializeResult, error)
	SubmitAnswer(ctx context.Context, sessionID, userID, answer string) (*SubmitResult, error)
	MarkCheated(ctx context.Context, sessionID, userID string) error
	Report(ctx context.Context, sessionID, userID string) (*models.Session, error)

	DsaItems(ctx context.Context, sessionID, userID string) ([]models.DsaInteraction, error)
	SubmitDsaItem(ctx context.Context, sessionID, userID, topicID, questionText, code string, score float64) (*ItemResult, error)

	CodingItems(ctx context.Context, sessionID, userID string) ([]models.CodingInteraction, error)
	SubmitCodingItem(ctx context.Context, sessionID, userID, questionID, code, feedback string, score float64) (*ItemResult, error)
	RequestAssistance(ctx context.Context, sessionID, userID, questionID string) (*AssistanceResult, error)

	RecordSnapshot(ctx context.Context, sessionID, userID, imageURL string) error
}

type Deps struct {
	Sessions     pgrepo.SessionRepo
	Interviews   pgrepo.InterviewRepo
	Applications pgrepo.ApplicationRepo
	Interactions pgrepo.InteractionRepo
	Resumes      pgrepo.ResumeRepo
	Dsa          pgrepo.DsaRepo
	Coding       pgrepo.CodingRepo
	Proctor      mongorepo.ProctorRepo
	Oracle       oracle.Oracle
	Cache        cache.Cache // optional; question catalog
	Log          *logrus.Logger
}

type sessionService struct {
	sessions     pgrepo.SessionRepo
	interviews   pgrepo.InterviewRepo
	applications pgrepo.ApplicationRepo
	interactions pgrepo.InteractionRepo
	resumes      pgrepo.ResumeRepo
	dsa          pgrepo.DsaRepo
	coding       pgrepo.CodingRepo
	proctor      mongorepo.ProctorRepo
	oracle       oracle.Oracle
	cache        cache.Cache
	locks        *locker.Keyed
	log          *logrus.Logger
}

func NewSessionService(d Deps) SessionService {
	log := d.Log
	if log == nil {
		log = logrus.New()
	}
	return &sessionService{
		sessions:     d.Sessions,
		interviews:   d.Interviews,
		applications: d.Applications,
		interactions: d.Interactions,
		resumes:      d.Resumes,
		dsa:          d.Dsa,
		coding:       d.Coding,
		proctor:      d.Proctor,
		oracle:       d.Oracle,
		cache:        d.Cache,
		locks:        locker.New(),
		log:          log,
	}
}

// sessionContext bundles the rows every round controller needs.
type sessionContext struct {
	session   *models.Session
	app       *models.Application
	interview *models.Interview
}

func (s *sessionService) Initialize(ctx context.Context, userID, interviewID string) (*InitializeResult, error) {
	const op = "SessionService.Initialize"

	if userID == "" || interviewID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and interview_id are required", nil)
	}

	interview, err := s.interviews.GetByID(ctx, interviewID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load interview", err)
	}

	app, err := s.applications.GetByUserAndInterview(ctx, userID, interviewID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeForbidden, op, "no application for this interview", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load application", err)
	}
	if !app.Approved {
		return nil, utils.E(utils.CodeForbidden, op, "application not approved", nil)
	}

	now := time.Now().UTC()
	if now.Before(interview.StartTime) || now.After(interview.EndTime) {
		return nil, utils.E(utils.CodeInvalidState, op, "outside the interview window", nil)
	}

	// Serialize on the application so a double click cannot race two creates.
	s.locks.Lock(app.ID)
	defer s.locks.Unlock(app.ID)

	if existing, err := s.sessions.GetByApplication(ctx, app.ID); err == nil {
		// idempotent: a repeat request returns the session unchanged
		prompt, perr := s.currentPrompt(ctx, &sessionContext{session: existing, app: app, interview: interview})
		if perr != nil {
			return nil, perr
		}
		return &InitializeResult{
			SessionID: existing.ID,
			Question:  prompt,
			Completed: existing.Status.Terminal(),
		}, nil
	} else if !errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeInternal, op, "failed to look up session", err)
	}

	session := &models.Session{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		Status:        models.StatusOngoing,
		Round:         models.RoundDev,
		StartedAt:     now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}

	s.log.WithFields(logrus.Fields{
		"session_id":   session.ID,
		"interview_id": interview.ID,
		"user_id":      userID,
	}).Info("session initialized")

	sctx := &sessionContext{session: session, app: app, interview: interview}
	prompt, completed, err := s.enterRoundAfter(ctx, op, sctx, "")
	if err != nil {
		return nil, err
	}
	return &InitializeResult{SessionID: session.ID, Question: prompt, Completed: completed}, nil
}

// loadOwned fetches the session and enforces caller ownership.
func (s *sessionService) loadOwned(ctx context.Context, op, sessionID, userID string) (*sessionContext, error) {
	if sessionID == "" || userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id and user_id are required", nil)
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load session", err)
	}

	app, err := s.applications.GetByID(ctx, session.ApplicationID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load application", err)
	}
	if app.UserID != userID {
		return nil, utils.E(utils.CodeForbidden, op, "session belongs to another candidate", nil)
	}

	interview, err := s.interviews.GetByID(ctx, app.InterviewID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load interview", err)
	}

	return &sessionContext{session: session, app: app, interview: interview}, nil
}

// requireOngoing rejects terminal sessions and lazily expires a session whose
// interview window has closed.
func (s *sessionService) requireOngoing(ctx context.Context, op string, sctx *sessionContext) error {
	session := sctx.session
	if session.Status != models.StatusOngoing {
		return utils.E(utils.CodeInvalidState, op, "session is not ongoing", nil)
	}

	now := time.Now().UTC()
	if now.After(sctx.interview.EndTime) {
		session.Status = models.StatusExpired
		session.EndedAt = &now
		if err := s.sessions.Save(ctx, session); err != nil {
			return utils.E(utils.CodeInternal, op, "failed to expire session", err)
		}
		s.log.WithField("session_id", session.ID).Info("session expired")
		return utils.E(utils.CodeInvalidState, op, "interview window has closed", nil)
	}
	return nil
}

func (s *sessionService) SubmitAnswer(ctx context.Context, sessionID, userID, answer string) (*SubmitResult, error) {
	const op = "SessionService.SubmitAnswer"

	s.locks.Lock(sessionID)
	defer s.locks.Unlock(sessionID)

	sctx, err := s.loadOwned(ctx, op, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOngoing(ctx, op, sctx); err != nil {
		return nil, err
	}

	switch sctx.session.Round {
	case models.RoundDev:
		return s.submitDev(ctx, op, sctx, answer)
	case models.RoundResume:
		return s.submitResume(ctx, op, sctx, answer)
	default:
		return nil, utils.E(utils.CodeInvalidState, op, "current round does not take free-form answers", nil)
	}
}

func (s *sessionService) MarkCheated(ctx context.Context, sessionID, userID string) error {
	const op = "SessionService.MarkCheated"

	s.locks.Lock(sessionID)
	defer s.locks.Unlock(sessionID)

	sctx, err := s.loadOwned(ctx, op, sessionID, userID)
	if err != nil {
		return err
	}
	if sctx.session.Status.Terminal() {
		return utils.E(utils.CodeInvalidState, op, "session already ended", nil)
	}

	now := time.Now().UTC()
	sctx.session.Status = models.StatusCheated
	sctx.session.EndedAt = &now
	if err := s.sessions.Save(ctx, sctx.session); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to mark session", err)
	}

	if s.proctor != nil {
		ev := &models.ProctorEvent{
			SessionID: sessionID,
			UserID:    userID,
			Type:      models.ProctorCheatSignal,
			Note:      "anti-cheat signal from proctoring surface",
		}
		if err := s.proctor.Append(ctx, ev); err != nil {
			s.log.WithError(err).WithField("session_id", sessionID).Warn("failed to record cheat signal")
		}
	}

	s.log.WithField("session_id", sessionID).Info("session marked cheated")
	return nil
}

func (s *sessionService) Report(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	const op = "SessionService.Report"

	sctx, err := s.loadOwned(ctx, op, sessionID, userID)
	if err != nil {
		return nil, err
	}
	return sctx.session, nil
}

func (s *sessionService) RecordSnapshot(ctx context.Context, sessionID, userID, imageURL string) error {
	const op = "SessionService.RecordSnapshot"

	if imageURL == "" {
		return utils.E(utils.CodeInvalidArgument, op, "image_url is required", nil)
	}

	sctx, err := s.loadOwned(ctx, op, sessionID, userID)
	if err != nil {
		return err
	}
	if sctx.session.Status != models.StatusOngoing {
		return utils.E(utils.CodeInvalidState, op, "session is not ongoing", nil)
	}

	if s.proctor == nil {
		return utils.E(utils.CodeInternal, op, "proctor store not configured", nil)
	}
	ev := &models.ProctorEvent{
		SessionID: sessionID,
		UserID:    userID,
		Type:      models.ProctorSnapshot,
		ImageURL:  &imageURL,
	}
	if err := s.proctor.Append(ctx, ev); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to record snapshot", err)
	}
	return nil
}

// currentPrompt rebuilds the question the candidate should be answering,
// used when a duplicate Initialize has to echo the pending state.
func (s *sessionService) currentPrompt(ctx context.Context, sctx *sessionContext) (string, error) {
	const op = "SessionService.currentPrompt"

	session := sctx.session
	if session.Status.Terminal() {
		return "", nil
	}

	switch session.Round {
	case models.RoundDev:
		questions, err := s.questionsFor(ctx, sctx.interview.ID)
		if err != nil {
			return "", utils.E(utils.CodeInternal, op, "failed to load questions", err)
		}
		if session.CurrentQuestionIndex >= len(questions) {
			return "", nil
		}
		q := questions[session.CurrentQuestionIndex]
		in, err := s.interactions.GetBySessionAndQuestion(ctx, session.ID, q.ID)
		if err != nil {
			return q.Prompt, nil
		}
		turns, err := s.interactions.Turns(ctx, in.ID)
		if err != nil || len(turns) == 0 {
			return q.Prompt, nil
		}
		return turns[len(turns)-1].Question, nil
	case models.RoundResume:
		convos, err := s.resumes.ListBySession(ctx, session.ID)
		if err != nil {
			return "", utils.E(utils.CodeInternal, op, "failed to load resume conversations", err)
		}
		for i := range convos {
			if convos[i].Score == nil {
				return convos[i].Question, nil
			}
		}
		return "", nil
	default:
		return "", nil
	}
}
