package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/interviewly/backend/internal/services"
	"github.com/interviewly/backend/internal/utils"
)

type SessionHandler struct {
	sessions services.SessionService
}

func NewSessionHandler(s services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: s}
}

// Start creates (or returns) the caller's session for an interview.
// POST /interviews/:interview_id/session
func (h *SessionHandler) Start(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	res, err := h.sessions.Initialize(c.Request.Context(), userID, c.Param("interview_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Get returns the session report, including scores once available.
// GET /sessions/:session_id
func (h *SessionHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	session, err := h.sessions.Report(c.Request.Context(), c.Param("session_id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type submitAnswerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// SubmitAnswer feeds one answer into the dev or resume round.
// POST /sessions/:session_id/answer
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Code: utils.CodeInvalidArgument, Message: "answer is required"})
		return
	}

	res, err := h.sessions.SubmitAnswer(c.Request.Context(), c.Param("session_id"), userID, req.Answer)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// MarkCheated terminally flags the session from the proctoring surface.
// PUT /sessions/:session_id/cheated
func (h *SessionHandler) MarkCheated(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.sessions.MarkCheated(c.Request.Context(), c.Param("session_id"), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cheated"})
}
