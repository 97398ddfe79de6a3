package oracle

import "context"

// EvaluationRequest asks for a 0-10 score of one answered question given the
// full probing conversation so far.
type EvaluationRequest struct {
	Position            string
	Experience          string
	Question            string
	ConversationContext []string // ordered "Q: ..." / "A: ..." lines
	ExpectedAnswer      string
}

type Evaluation struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

type FollowUpRequest struct {
	Position            string
	Experience          string
	ExpectedAnswer      string
	ConversationContext []string
}

type FollowUpDecision struct {
	NeedsFollowUp    bool   `json:"needs_followup"`
	FollowUpQuestion string `json:"followup_question,omitempty"`
}

// HistoryItem is one scored unit of the interview, across all rounds.
type HistoryItem struct {
	Round          string   `json:"round"`
	Question       string   `json:"question"`
	ExpectedAnswer string   `json:"expected_answer,omitempty"`
	Score          *float64 `json:"score,omitempty"`
	Feedback       string   `json:"feedback,omitempty"`
}

type FinalEvaluationRequest struct {
	Position   string
	Experience string
	History    []HistoryItem
}

type FinalEvaluation struct {
	OverallScore   float64  `json:"overall_score"`
	Feedback       string   `json:"overall_feedback"`
	Strengths      []string `json:"strengths"`
	Recommendation string   `json:"recommendation"`
}

type ResumeQuestionRequest struct {
	Resume         string
	JobTitle       string
	JobDescription string
	Experience     string
}

// ResumeQuestions is the fixed pair generated for the resume round.
type ResumeQuestions struct {
	Question1 string `json:"question_1"`
	Expected1 string `json:"expected_answer_1"`
	Question2 string `json:"question_2"`
	Expected2 string `json:"expected_answer_2"`
}

// Oracle is the LLM-backed scoring collaborator. Calls block for up to the
// configured timeout; any failure is recoverable from the session's point of
// view and the caller may retry.
type Oracle interface {
	Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error)
	DecideFollowUp(ctx context.Context, req FollowUpRequest) (*FollowUpDecision, error)
	FinalEvaluate(ctx context.Context, req FinalEvaluationRequest) (*FinalEvaluation, error)
	GenerateResumeQuestions(ctx context.Context, req ResumeQuestionRequest) (*ResumeQuestions, error)
}
