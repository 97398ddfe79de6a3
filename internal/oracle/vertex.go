package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	vertexgenai "cloud.google.com/go/vertexai/genai"
)

// Config is process-wide oracle configuration, read once at startup.
type Config struct {
	ProjectID string
	Location  string
	Model     string
	Timeout   time.Duration
}

// Vertex implements Oracle on Vertex AI Gemini. Every call is a single
// unary generation bounded by the configured timeout.
type Vertex struct {
	client  *vertexgenai.Client
	model   *vertexgenai.GenerativeModel
	timeout time.Duration
}

func NewVertex(ctx context.Context, cfg Config) (*Vertex, error) {
	c, err := vertexgenai.NewClient(ctx, cfg.ProjectID, cfg.Location)
	if err != nil {
		return nil, err
	}

	name := cfg.Model
	if name == "" {
		name = "gemini-1.5-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	m := c.GenerativeModel(name)
	m.SetTemperature(0.2)
	return &Vertex{client: c, model: m, timeout: timeout}, nil
}

func (v *Vertex) Close() error { return v.client.Close() }

func (v *Vertex) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	resp, err := v.model.GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("empty model reply")
	}
	return b.String(), nil
}

func (v *Vertex) Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
	raw, err := v.generate(ctx, evaluationPrompt(req))
	if err != nil {
		return nil, err
	}
	var out Evaluation
	if err := decodeJSON(raw, &out); err != nil {
		return nil, err
	}
	out.Score = clampScore(out.Score)
	return &out, nil
}

func (v *Vertex) DecideFollowUp(ctx context.Context, req FollowUpRequest) (*FollowUpDecision, error) {
	raw, err := v.generate(ctx, followUpPrompt(req))
	if err != nil {
		return nil, err
	}
	var out FollowUpDecision
	if err := decodeJSON(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (v *Vertex) FinalEvaluate(ctx context.Context, req FinalEvaluationRequest) (*FinalEvaluation, error) {
	raw, err := v.generate(ctx, finalEvaluationPrompt(req))
	if err != nil {
		return nil, err
	}
	var out FinalEvaluation
	if err := decodeJSON(raw, &out); err != nil {
		return nil, err
	}
	out.OverallScore = clampScore(out.OverallScore)
	return &out, nil
}

func (v *Vertex) GenerateResumeQuestions(ctx context.Context, req ResumeQuestionRequest) (*ResumeQuestions, error) {
	raw, err := v.generate(ctx, resumeQuestionPrompt(req))
	if err != nil {
		return nil, err
	}
	var out ResumeQuestions
	if err := decodeJSON(raw, &out); err != nil {
		return nil, err
	}
	if out.Question1 == "" || out.Question2 == "" {
		return nil, fmt.Errorf("model returned incomplete question pair")
	}
	return &out, nil
}
