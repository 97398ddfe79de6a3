package oracle

import (
	"fmt"
	"strings"
)

func evaluationPrompt(req EvaluationRequest) string {
	var b strings.Builder
	b.WriteString("You are a strict technical interviewer scoring a candidate's answer.\n\n")
	fmt.Fprintf(&b, "Position: %s\nExperience level: %s\n\n", req.Position, req.Experience)
	fmt.Fprintf(&b, "Main question: %s\n", req.Question)
	fmt.Fprintf(&b, "Expected answer: %s\n\n", req.ExpectedAnswer)
	b.WriteString("Conversation so far:\n")
	for _, line := range req.ConversationContext {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(`
Score the candidate's understanding from 0 to 10 and give short feedback.
Respond with JSON only:
{"score": <number 0-10>, "feedback": "<one or two sentences>"}`)
	return b.String()
}

func followUpPrompt(req FollowUpRequest) string {
	var b strings.Builder
	b.WriteString("You are a technical interviewer deciding whether to probe deeper before scoring.\n\n")
	fmt.Fprintf(&b, "Position: %s\nExperience level: %s\n", req.Position, req.Experience)
	fmt.Fprintf(&b, "Expected answer for the main question: %s\n\n", req.ExpectedAnswer)
	b.WriteString("Conversation so far:\n")
	for _, line := range req.ConversationContext {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(`
If the answer is incomplete or worth probing, ask ONE short follow-up question.
If the answer is sufficient to score, do not follow up.
Respond with JSON only:
{"needs_followup": <true|false>, "followup_question": "<question or empty>"}`)
	return b.String()
}

func finalEvaluationPrompt(req FinalEvaluationRequest) string {
	var b strings.Builder
	b.WriteString("You are producing the final evaluation of a completed technical interview.\n\n")
	fmt.Fprintf(&b, "Position: %s\nExperience level: %s\n\n", req.Position, req.Experience)
	b.WriteString("Interview history:\n")
	for i, h := range req.History {
		fmt.Fprintf(&b, "%d. [%s] Q: %s\n", i+1, h.Round, h.Question)
		if h.ExpectedAnswer != "" {
			fmt.Fprintf(&b, "   Expected: %s\n", h.ExpectedAnswer)
		}
		if h.Score != nil {
			fmt.Fprintf(&b, "   Score: %.1f/10\n", *h.Score)
		}
		if h.Feedback != "" {
			fmt.Fprintf(&b, "   Feedback: %s\n", h.Feedback)
		}
	}
	b.WriteString(`
Respond with JSON only:
{"overall_score": <number 0-10>, "overall_feedback": "<paragraph>", "strengths": ["<strength>", ...], "recommendation": "<hire|no hire|borderline>"}`)
	return b.String()
}

func resumeQuestionPrompt(req ResumeQuestionRequest) string {
	var b strings.Builder
	b.WriteString("You are preparing resume-based interview questions.\n\n")
	fmt.Fprintf(&b, "Job title: %s\nJob description: %s\nExperience level: %s\n\n", req.JobTitle, req.JobDescription, req.Experience)
	fmt.Fprintf(&b, "Candidate resume:\n%s\n", req.Resume)
	b.WriteString(`
Write exactly two questions grounded in the resume, each with the answer you
would expect from this candidate.
Respond with JSON only:
{"question_1": "...", "expected_answer_1": "...", "question_2": "...", "expected_answer_2": "..."}`)
	return b.String()
}
