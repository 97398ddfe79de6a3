package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/interviewly/backend/internal/services"
	"github.com/interviewly/backend/internal/utils"
)

type DsaHandler struct {
	sessions services.SessionService
}

func NewDsaHandler(s services.SessionService) *DsaHandler {
	return &DsaHandler{sessions: s}
}

// List returns the session's DSA slots with whatever has been submitted.
// GET /sessions/:session_id/dsa
func (h *DsaHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	items, err := h.sessions.DsaItems(c.Request.Context(), c.Param("session_id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type submitDsaRequest struct {
	QuestionText string   `json:"question_text"`
	Code         string   `json:"code" binding:"required"`
	Score        *float64 `json:"score" binding:"required"`
}

// Submit records one topic's solution and score.
// POST /sessions/:session_id/dsa/:topic_id
func (h *DsaHandler) Submit(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req submitDsaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Code: utils.CodeInvalidArgument, Message: "code and score are required"})
		return
	}

	res, err := h.sessions.SubmitDsaItem(
		c.Request.Context(),
		c.Param("session_id"), userID, c.Param("topic_id"),
		req.QuestionText, req.Code, *req.Score,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
