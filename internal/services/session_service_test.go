package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/interviewly/backend/internal/models"
	"github.com/interviewly/backend/internal/oracle"
	pgrepo "github.com/interviewly/backend/internal/repositories/postgres"
	"github.com/interviewly/backend/internal/utils"
)

var testDBSeq int

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testDBSeq++
	dsn := fmt.Sprintf("file:sessions%d?mode=memory&cache=shared", testDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Interview{},
		&models.Question{},
		&models.DsaTopic{},
		&models.CodingQuestion{},
		&models.Application{},
		&models.Session{},
		&models.Interaction{},
		&models.FollowUpTurn{},
		&models.ResumeConversation{},
		&models.DsaInteraction{},
		&models.CodingInteraction{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// fakeOracle scripts model behavior per test. Unset fields fall back to
// benign defaults: no probing, score 7, overall 7.5.
type fakeOracle struct {
	evaluate func(req oracle.EvaluationRequest) (*oracle.Evaluation, error)
	decide   func(req oracle.FollowUpRequest) (*oracle.FollowUpDecision, error)
	final    func(req oracle.FinalEvaluationRequest) (*oracle.FinalEvaluation, error)
	resume   func(req oracle.ResumeQuestionRequest) (*oracle.ResumeQuestions, error)

	evaluateCalls int
	finalCalls    int
}

func (f *fakeOracle) Evaluate(_ context.Context, req oracle.EvaluationRequest) (*oracle.Evaluation, error) {
	f.evaluateCalls++
	if f.evaluate != nil {
		return f.evaluate(req)
	}
	return &oracle.Evaluation{Score: 7, Feedback: "solid"}, nil
}

func (f *fakeOracle) DecideFollowUp(_ context.Context, req oracle.FollowUpRequest) (*oracle.FollowUpDecision, error) {
	if f.decide != nil {
		return f.decide(req)
	}
	return &oracle.FollowUpDecision{NeedsFollowUp: false}, nil
}

func (f *fakeOracle) FinalEvaluate(_ context.Context, req oracle.FinalEvaluationRequest) (*oracle.FinalEvaluation, error) {
	f.finalCalls++
	if f.final != nil {
		return f.final(req)
	}
	return &oracle.FinalEvaluation{
		OverallScore:   7.5,
		Feedback:       "good candidate",
		Strengths:      []string{"fundamentals"},
		Recommendation: "hire",
	}, nil
}

func (f *fakeOracle) GenerateResumeQuestions(_ context.Context, req oracle.ResumeQuestionRequest) (*oracle.ResumeQuestions, error) {
	if f.resume != nil {
		return f.resume(req)
	}
	return &oracle.ResumeQuestions{
		Question1: "Tell me about project X",
		Expected1: "ownership details",
		Question2: "Why Go",
		Expected2: "concurrency story",
	}, nil
}

type memProctor struct {
	events []models.ProctorEvent
}

func (m *memProctor) Append(_ context.Context, ev *models.ProctorEvent) error {
	m.events = append(m.events, *ev)
	return nil
}

func (m *memProctor) ListBySession(_ context.Context, sessionID string, _ int) ([]models.ProctorEvent, error) {
	var out []models.ProctorEvent
	for _, ev := range m.events {
		if ev.SessionID == sessionID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fixture struct {
	db      *gorm.DB
	oracle  *fakeOracle
	proctor *memProctor
	svc     SessionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	fo := &fakeOracle{}
	mp := &memProctor{}

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	svc := NewSessionService(Deps{
		Sessions:     pgrepo.NewSessionRepo(db),
		Interviews:   pgrepo.NewInterviewRepo(db),
		Applications: pgrepo.NewApplicationRepo(db),
		Interactions: pgrepo.NewInteractionRepo(db),
		Resumes:      pgrepo.NewResumeRepo(db),
		Dsa:          pgrepo.NewDsaRepo(db),
		Coding:       pgrepo.NewCodingRepo(db),
		Proctor:      mp,
		Oracle:       fo,
		Log:          log,
	})
	return &fixture{db: db, oracle: fo, proctor: mp, svc: svc}
}

type interviewOpts struct {
	dev    []string // dev question prompts, in order
	resume bool
	dsa    []string // topic names
	coding []string // coding prompts
	window func(*models.Interview)
}

func (f *fixture) seedInterview(t *testing.T, opts interviewOpts) *models.Interview {
	t.Helper()

	now := time.Now().UTC()
	iv := &models.Interview{
		ID:          uuid.NewString(),
		OrgID:       uuid.NewString(),
		Post:        "Backend Engineer",
		Description: "Go services",
		Experience:  "3 years",
		StartTime:   now.Add(-time.Hour),
		EndTime:     now.Add(time.Hour),

		HasDevRound:    len(opts.dev) > 0,
		HasResumeRound: opts.resume,
		HasDsaRound:    len(opts.dsa) > 0,
		HasCodingRound: len(opts.coding) > 0,
	}
	if opts.window != nil {
		opts.window(iv)
	}
	if err := f.db.Create(iv).Error; err != nil {
		t.Fatalf("seed interview: %v", err)
	}

	for i, prompt := range opts.dev {
		q := &models.Question{
			ID:          uuid.NewString(),
			InterviewID: iv.ID,
			Position:    i,
			Prompt:      prompt,
			Expected:    "expected " + prompt,
		}
		if err := f.db.Create(q).Error; err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}
	for _, topic := range opts.dsa {
		dt := &models.DsaTopic{
			ID:          uuid.NewString(),
			InterviewID: iv.ID,
			Topic:       topic,
			Difficulty:  "medium",
		}
		if err := f.db.Create(dt).Error; err != nil {
			t.Fatalf("seed topic: %v", err)
		}
	}
	for _, prompt := range opts.coding {
		cq := &models.CodingQuestion{
			ID:          uuid.NewString(),
			InterviewID: iv.ID,
			Prompt:      prompt,
		}
		if err := f.db.Create(cq).Error; err != nil {
			t.Fatalf("seed coding question: %v", err)
		}
	}
	return iv
}

func (f *fixture) seedApplication(t *testing.T, interviewID, userID string, approved bool) *models.Application {
	t.Helper()

	app := &models.Application{
		ID:              uuid.NewString(),
		UserID:          userID,
		InterviewID:     interviewID,
		Approved:        approved,
		ExtractedResume: "worked on distributed systems",
		AppliedAt:       time.Now().UTC(),
	}
	if err := f.db.Create(app).Error; err != nil {
		t.Fatalf("seed application: %v", err)
	}
	return app
}

func (f *fixture) session(t *testing.T, id string) *models.Session {
	t.Helper()
	var s models.Session
	if err := f.db.Where("id = ?", id).Take(&s).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	return &s
}

func wantCode(t *testing.T, err error, code utils.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("want error code %s, got nil", code)
	}
	if !utils.IsCode(err, code) {
		t.Fatalf("want error code %s, got %v", code, err)
	}
}

func TestInitializeIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{dev: []string{"What is a goroutine?"}})
	f.seedApplication(t, iv.ID, user, true)

	first, err := f.svc.Initialize(ctx, user, iv.ID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if first.Question != "What is a goroutine?" {
		t.Fatalf("want first question, got %q", first.Question)
	}

	second, err := f.svc.Initialize(ctx, user, iv.ID)
	if err != nil {
		t.Fatalf("repeat initialize: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("repeat created a new session: %s vs %s", second.SessionID, first.SessionID)
	}
	if second.Question != first.Question {
		t.Fatalf("repeat changed the question: %q vs %q", second.Question, first.Question)
	}

	var count int64
	f.db.Model(&models.Session{}).Count(&count)
	if count != 1 {
		t.Fatalf("want 1 session, got %d", count)
	}
}

func TestInitializeRequiresApprovedApplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{dev: []string{"q1"}})

	_, err := f.svc.Initialize(ctx, user, iv.ID)
	wantCode(t, err, utils.CodeForbidden)

	f.seedApplication(t, iv.ID, user, false)
	_, err = f.svc.Initialize(ctx, user, iv.ID)
	wantCode(t, err, utils.CodeForbidden)
}

func TestInitializeOutsideWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{
		dev: []string{"q1"},
		window: func(iv *models.Interview) {
			iv.StartTime = time.Now().UTC().Add(time.Hour)
			iv.EndTime = time.Now().UTC().Add(2 * time.Hour)
		},
	})
	f.seedApplication(t, iv.ID, user, true)

	_, err := f.svc.Initialize(ctx, user, iv.ID)
	wantCode(t, err, utils.CodeInvalidState)
}

func TestInitializeUnknownInterview(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Initialize(context.Background(), uuid.NewString(), uuid.NewString())
	wantCode(t, err, utils.CodeNotFound)
}

func TestDevRoundFollowUpCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{dev: []string{"Explain channels"}})
	f.seedApplication(t, iv.ID, user, true)

	// always wants to probe deeper
	f.oracle.decide = func(oracle.FollowUpRequest) (*oracle.FollowUpDecision, error) {
		return &oracle.FollowUpDecision{NeedsFollowUp: true, FollowUpQuestion: "and what about select?"}, nil
	}
	f.oracle.final = func(oracle.FinalEvaluationRequest) (*oracle.FinalEvaluation, error) {
		return &oracle.FinalEvaluation{OverallScore: 6, Recommendation: "maybe"}, nil
	}

	init, err := f.svc.Initialize(ctx, user, iv.ID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// turns 1 and 2 answered: follow-ups appended
	for i := 0; i < 2; i++ {
		res, err := f.svc.SubmitAnswer(ctx, init.SessionID, user, "buffered vs unbuffered")
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if res.NextQuestion != "and what about select?" {
			t.Fatalf("submit %d: want follow-up, got %q", i, res.NextQuestion)
		}
	}

	// third answer hits the cap: scored despite the oracle wanting more
	res, err := f.svc.SubmitAnswer(ctx, init.SessionID, user, "select multiplexes")
	if err != nil {
		t.Fatalf("final submit: %v", err)
	}
	if !res.Completed {
		t.Fatalf("want session completed, got %+v", res)
	}
	if f.oracle.evaluateCalls != 1 {
		t.Fatalf("want 1 evaluation, got %d", f.oracle.evaluateCalls)
	}

	var turns int64
	f.db.Model(&models.FollowUpTurn{}).Count(&turns)
	if turns != 3 {
		t.Fatalf("want 3 turns, got %d", turns)
	}

	s := f.session(t, init.SessionID)
	if s.DevScore == nil || *s.DevScore != 7 {
		t.Fatalf("want dev score 7, got %v", s.DevScore)
	}
	if s.Status != models.StatusCompleted || s.Round != models.RoundDone {
		t.Fatalf("want completed/done, got %s/%s", s.Status, s.Round)
	}
}

func TestDevRoundTwoQuestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{dev: []string{"q one", "q two"}})
	f.seedApplication(t, iv.ID, user, true)

	scores := []float64{8, 4}
	f.oracle.evaluate = func(oracle.EvaluationRequest) (*oracle.Evaluation, error) {
		s := scores[0]
		scores = scores[1:]
		return &oracle.Evaluation{Score: s, Feedback: "ok"}, nil
	}

	init, err := f.svc.Initialize(ctx, user, iv.ID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	res, err := f.svc.SubmitAnswer(ctx, init.SessionID, user, "answer one")
	if err != nil {
		t.Fatalf("submit one: %v", err)
	}
	if res.NextQuestion != "q two" {
		t.Fatalf("want q two, got %q", res.NextQuestion)
	}

	res, err = f.svc.SubmitAnswer(ctx, init.SessionID, user, "answer two")
	if err != nil {
		t.Fatalf("submit two: %v", err)
	}
	if !res.Completed {
		t.Fatalf("want completion, got %+v", res)
	}

	s := f.session(t, init.SessionID)
	if s.DevScore == nil || *s.DevScore != 6 {
		t.Fatalf("want dev score 6, got %v", s.DevScore)
	}
	if s.OverallScore == nil || *s.OverallScore != 7.5 {
		t.Fatalf("want overall 7.5, got %v", s.OverallScore)
	}
}

func TestDevRoundEmptyAnswerRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{dev: []string{"q1"}})
	f.seedApplication(t, iv.ID, user, true)

	init, err := f.svc.Initialize(ctx, user, iv.ID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	_, err = f.svc.SubmitAnswer(ctx, init.SessionID, user, "")
	wantCode(t, err, utils.CodeInvalidArgument)
}

func TestDevRoundOracleFailureRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{dev: []string{"q1"}})
	f.seedApplication(t, iv.ID, user, true)

	fail := true
	f.oracle.evaluate = func(oracle.EvaluationRequest) (*oracle.Evaluation, error) {
		if fail {
			return nil, fmt.Errorf("model unavailable")
		}
		return &oracle.Evaluation{Score: 9, Feedback: "great"}, nil
	}

	init, err := f.svc.Initialize(ctx, user, iv.ID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	_, err = f.svc.SubmitAnswer(ctx, init.SessionID, user, "my answer")
	wantCode(t, err, utils.CodeOracleFailure)
	if !utils.Retryable(err) {
		t.Fatalf("oracle failure should be retryable")
	}

	// retry succeeds and does not duplicate the recorded answer
	fail = false
	res, err := f.svc.SubmitAnswer(ctx, init.SessionID, user, "my answer")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !res.Completed {
		t.Fatalf("want completion, got %+v", res)
	}

	var turns []models.FollowUpTurn
	f.db.Find(&turns)
	if len(turns) != 1 {
		t.Fatalf("want 1 turn, got %d", len(turns))
	}

	s := f.session(t, init.SessionID)
	if s.DevScore == nil || *s.DevScore != 9 {
		t.Fatalf("want dev score 9, got %v", s.DevScore)
	}
}

func TestResumeRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{resume: true})
	f.seedApplication(t, iv.ID, user, true)

	scores := []float64{8, 6}
	f.oracle.evaluate = func(oracle.EvaluationRequest) (*oracle.Evaluation, error) {
		s := scores[0]
		scores = scores[1:]
		return &oracle.Evaluation{Score: s}, nil
	}

	init, err := f.svc.Initialize(ctx, user, iv.ID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if init.Question != "Tell me about project X" {
		t.Fatalf("want first resume question, got %q", init.Question)
	}

	res, err := f.svc.SubmitAnswer(ctx, init.SessionID, user, "I led it")
	if err != nil {
		t.Fatalf("submit one: %v", err)
	}
	if res.NextQuestion != "Why Go" {
		t.Fatalf("want second question, got %q", res.NextQuestion)
	}

	res, err = f.svc.SubmitAnswer(ctx, init.SessionID, user, "channels")
	if err != nil {
		t.Fatalf("submit two: %v", err)
	}
	if !res.Completed {
		t.Fatalf("want completion, got %+v", res)
	}

	s := f.session(t, init.SessionID)
	if s.ResumeScore == nil || *s.ResumeScore != 7 {
		t.Fatalf("want resume score 7, got %v", s.ResumeScore)
	}
}

func TestResumeGenerationFailureParksRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{resume: true})
	f.seedApplication(t, iv.ID, user, true)

	fail := true
	f.oracle.resume = func(oracle.ResumeQuestionRequest) (*oracle.ResumeQuestions, error) {
		if fail {
			return nil, fmt.Errorf("model unavailable")
		}
		return &oracle.ResumeQuestions{
			Question1: "rq1", Expected1: "e1",
			Question2: "rq2", Expected2: "e2",
		}, nil
	}

	_, err := f.svc.Initialize(ctx, user, iv.ID)
	wantCode(t, err, utils.CodeOracleFailure)

	// the session exists, parked in the resume round
	var s models.Session
	if err := f.db.Take(&s).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if s.Round != models.RoundResume || s.Status != models.StatusOngoing {
		t.Fatalf("want parked in resume round, got %s/%s", s.Round, s.Status)
	}

	// next submission regenerates and hands out the first question
	fail = false
	res, err := f.svc.SubmitAnswer(ctx, s.ID, user, "ignored")
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if res.NextQuestion != "rq1" {
		t.Fatalf("want rq1, got %q", res.NextQuestion)
	}
}

func TestDsaRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{dsa: []string{"arrays", "graphs"}})
	f.seedApplication(t, iv.ID, user, true)

	init, err := f.svc.Initialize(ctx, user, iv.ID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	items, err := f.svc.DsaItems(ctx, init.SessionID, user)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("want 2 items, got %d", len(items))
	}

	res, err := f.svc.SubmitDsaItem(ctx, init.SessionID, user, items[0].TopicID, "two sum", "func twoSum(){}", 4)
	if err != nil {
		t.Fatalf("submit first: %v", err)
	}
	if res.RoundComplete || res.SessionCompleted {
		t.Fatalf("round should not be complete yet: %+v", res)
	}
	if res.RoundScore == nil || *res.RoundScore != 4 {
		t.Fatalf("want running score 4, got %v", res.RoundScore)
	}

	// resubmission upserts: the latest code and score win
	res, err = f.svc.SubmitDsaItem(ctx, init.SessionID, user, items[0].TopicID, "two sum", "func twoSumFixed(){}", 8)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if res.RoundScore == nil || *res.RoundScore != 8 {
		t.Fatalf("want running score 8 after resubmit, got %v", res.RoundScore)
	}

	var revised models.DsaInteraction
	if err := f.db.Where("session_id = ? AND topic_id = ?", init.SessionID, items[0].TopicID).
		Take(&revised).Error; err != nil {
		t.Fatalf("load revised item: %v", err)
	}
	if revised.Code != "func twoSumFixed(){}" || revised.Score == nil || *revised.Score != 8 {
		t.Fatalf("resubmission not stored: %+v", revised)
	}

	res, err = f.svc.SubmitDsaItem(ctx, init.SessionID, user, items[1].TopicID, "bfs", "func bfs(){}", 4)
	if err != nil {
		t.Fatalf("submit second: %v", err)
	}
	if !res.RoundComplete || !res.SessionCompleted {
		t.Fatalf("want round and session complete, got %+v", res)
	}

	s := f.session(t, init.SessionID)
	if s.DsaScore == nil || *s.DsaScore != 6 {
		t.Fatalf("want dsa score 6, got %v", s.DsaScore)
	}
}

func TestDsaSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{dsa: []string{"arrays"}})
	f.seedApplication(t, iv.ID, user, true)

	init, err := f.svc.Initialize(ctx, user, iv.ID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	_, err = f.svc.SubmitDsaItem(ctx, init.SessionID, user, uuid.NewString(), "q", "code", 11)
	wantCode(t, err, utils.CodeInvalidArgument)

	_, err = f.svc.SubmitDsaItem(ctx, init.SessionID, user, uuid.NewString(), "q", "code", 5)
	wantCode(t, err, utils.CodeNotFound)
}

func TestDsaSubmitOutsideRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{dev: []string{"q1"}, dsa: []string{"arrays"}})
	f.seedApplication(t, iv.ID, user, true)

	init, err := f.svc.Initialize(ctx, user, iv.ID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// still in the dev round
	_, err = f.svc.SubmitDsaItem(ctx, init.SessionID, user, uuid.NewString(), "q", "code", 5)
	wantCode(t, err, utils.CodeInvalidState)

	// listing creates the missing slots even before the round is entered
	items, err := f.svc.DsaItems(ctx, init.SessionID, user)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("want 1 item, got %d", len(items))
	}
}

func TestCodingResubmissionOverwrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{coding: []string{"parse a log line", "reverse a list"}})
	f.seedApplication(t, iv.ID, user, true)

	init, err := f.svc.Initialize(ctx, user, iv.ID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	items, err := f.svc.CodingItems(ctx, init.SessionID, user)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	qid := items[0].QuestionID

	res, err := f.svc.SubmitCodingItem(ctx, init.SessionID, user, qid, "draft", "partial", 3)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.RoundScore == nil || *res.RoundScore != 3 {
		t.Fatalf("want running score 3, got %v", res.RoundScore)
	}

	res, err = f.svc.SubmitCodingItem(ctx, init.SessionID, user, qid, "final", "all tests pass", 9)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if res.RoundScore == nil || *res.RoundScore != 9 {
		t.Fatalf("want running score 9 after resubmit, got %v", res.RoundScore)
	}
	if res.RoundComplete {
		t.Fatalf("one slot still open: %+v", res)
	}

	var revised models.CodingInteraction
	if err := f.db.Where("session_id = ? AND question_id = ?", init.SessionID, qid).
		Take(&revised).Error; err != nil {
		t.Fatalf("load revised item: %v", err)
	}
	if revised.Code != "final" || revised.Feedback != "all tests pass" || revised.Score == nil || *revised.Score != 9 {
		t.Fatalf("resubmission not stored: %+v", revised)
	}
}

func TestCodingRoundWithAssistanceCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{coding: []string{"implement an LRU cache"}})
	f.seedApplication(t, iv.ID, user, true)

	init, err := f.svc.Initialize(ctx, user, iv.ID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if init.Question != "implement an LRU cache" {
		t.Fatalf("want coding prompt, got %q", init.Question)
	}

	items, err := f.svc.CodingItems(ctx, init.SessionID, user)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("want 1 item, got %d", len(items))
	}
	qid := items[0].QuestionID

	for i := 1; i <= models.MaxAssistance; i++ {
		res, err := f.svc.RequestAssistance(ctx, init.SessionID, user, qid)
		if err != nil {
			t.Fatalf("assist %d: %v", i, err)
		}
		if res.AssistanceCount != i {
			t.Fatalf("assist %d: want count %d, got %d", i, i, res.AssistanceCount)
		}
	}

	_, err = f.svc.RequestAssistance(ctx, init.SessionID, user, qid)
	wantCode(t, err, utils.CodeLimitExceeded)

	// the failed request must not bump the counter
	items, _ = f.svc.CodingItems(ctx, init.SessionID, user)
	if items[0].AssistanceCount != models.MaxAssistance {
		t.Fatalf("want count %d, got %d", models.MaxAssistance, items[0].AssistanceCount)
	}

	res, err := f.svc.SubmitCodingItem(ctx, init.SessionID, user, qid, "type LRU struct{}", "passes tests", 9)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.SessionCompleted {
		t.Fatalf("want session complete, got %+v", res)
	}

	s := f.session(t, init.SessionID)
	if s.CodingScore == nil || *s.CodingScore != 9 {
		t.Fatalf("want coding score 9, got %v", s.CodingScore)
	}
	if s.Status != models.StatusCompleted {
		t.Fatalf("want completed, got %s", s.Status)
	}
}

func TestMarkCheatedAbsorbs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{dev: []string{"q1"}})
	f.seedApplication(t, iv.ID, user, true)

	init, err := f.svc.Initialize(ctx, user, iv.ID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if err := f.svc.MarkCheated(ctx, init.SessionID, user); err != nil {
		t.Fatalf("mark cheated: %v", err)
	}

	s := f.session(t, init.SessionID)
	if s.Status != models.StatusCheated || s.EndedAt == nil {
		t.Fatalf("want cheated with end time, got %+v", s)
	}

	// terminal state absorbs everything
	_, err = f.svc.SubmitAnswer(ctx, init.SessionID, user, "late answer")
	wantCode(t, err, utils.CodeInvalidState)

	err = f.svc.MarkCheated(ctx, init.SessionID, user)
	wantCode(t, err, utils.CodeInvalidState)

	if len(f.proctor.events) != 1 || f.proctor.events[0].Type != models.ProctorCheatSignal {
		t.Fatalf("want one cheat event, got %+v", f.proctor.events)
	}
}

func TestSubmitAfterWindowExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{dev: []string{"q1"}})
	f.seedApplication(t, iv.ID, user, true)

	init, err := f.svc.Initialize(ctx, user, iv.ID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// close the window behind the candidate's back
	if err := f.db.Model(&models.Interview{}).Where("id = ?", iv.ID).
		Update("end_time", time.Now().UTC().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("shrink window: %v", err)
	}

	_, err = f.svc.SubmitAnswer(ctx, init.SessionID, user, "too late")
	wantCode(t, err, utils.CodeInvalidState)

	s := f.session(t, init.SessionID)
	if s.Status != models.StatusExpired {
		t.Fatalf("want expired, got %s", s.Status)
	}
}

func TestOwnershipEnforced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.NewString()
	intruder := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{dev: []string{"q1"}})
	f.seedApplication(t, iv.ID, owner, true)

	init, err := f.svc.Initialize(ctx, owner, iv.ID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	_, err = f.svc.Report(ctx, init.SessionID, intruder)
	wantCode(t, err, utils.CodeForbidden)

	_, err = f.svc.SubmitAnswer(ctx, init.SessionID, intruder, "hi")
	wantCode(t, err, utils.CodeForbidden)
}

func TestNoRoundsCompletesImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{})
	f.seedApplication(t, iv.ID, user, true)

	init, err := f.svc.Initialize(ctx, user, iv.ID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !init.Completed {
		t.Fatalf("want immediate completion, got %+v", init)
	}

	s := f.session(t, init.SessionID)
	if s.Status != models.StatusCompleted {
		t.Fatalf("want completed, got %s", s.Status)
	}
	// empty history: the final evaluation is skipped
	if f.oracle.finalCalls != 0 {
		t.Fatalf("want no final evaluation, got %d", f.oracle.finalCalls)
	}
	if s.OverallScore != nil {
		t.Fatalf("want no overall score, got %v", s.OverallScore)
	}
}

func TestRecordSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.NewString()
	iv := f.seedInterview(t, interviewOpts{dev: []string{"q1"}})
	f.seedApplication(t, iv.ID, user, true)

	init, err := f.svc.Initialize(ctx, user, iv.ID)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if err := f.svc.RecordSnapshot(ctx, init.SessionID, user, "https://cdn/frame1.jpg"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := f.svc.RecordSnapshot(ctx, init.SessionID, user, ""); err == nil {
		t.Fatalf("empty url should fail")
	}

	events, _ := f.proctor.ListBySession(ctx, init.SessionID, 10)
	if len(events) != 1 || events[0].Type != models.ProctorSnapshot {
		t.Fatalf("want one snapshot event, got %+v", events)
	}
}
