package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/interviewly/backend/internal/services"
	"github.com/interviewly/backend/internal/utils"
)

type CodingHandler struct {
	sessions services.SessionService
}

func NewCodingHandler(s services.SessionService) *CodingHandler {
	return &CodingHandler{sessions: s}
}

// List returns the session's coding slots, including assistance counts.
// GET /sessions/:session_id/coding
func (h *CodingHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	items, err := h.sessions.CodingItems(c.Request.Context(), c.Param("session_id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type submitCodingRequest struct {
	Code     string   `json:"code" binding:"required"`
	Feedback string   `json:"feedback"`
	Score    *float64 `json:"score" binding:"required"`
}

// Submit records one coding question's solution and score.
// POST /sessions/:session_id/coding/:question_id
func (h *CodingHandler) Submit(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req submitCodingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Code: utils.CodeInvalidArgument, Message: "code and score are required"})
		return
	}

	res, err := h.sessions.SubmitCodingItem(
		c.Request.Context(),
		c.Param("session_id"), userID, c.Param("question_id"),
		req.Code, req.Feedback, *req.Score,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Assist consumes one AI-help token for a coding question.
// POST /sessions/:session_id/coding/:question_id/assistance
func (h *CodingHandler) Assist(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	res, err := h.sessions.RequestAssistance(
		c.Request.Context(),
		c.Param("session_id"), userID, c.Param("question_id"),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
