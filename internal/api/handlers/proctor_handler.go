package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	mongorepo "github.com/interviewly/backend/internal/repositories/mongo"
	"github.com/interviewly/backend/internal/services"
	"github.com/interviewly/backend/internal/utils"
	"github.com/interviewly/backend/internal/workers"
)

type ProctorHandler struct {
	sessions services.SessionService
	events   mongorepo.ProctorRepo
	queue    *workers.ProctorQueue // optional; nil disables raw-frame uploads
}

func NewProctorHandler(s services.SessionService, events mongorepo.ProctorRepo, queue *workers.ProctorQueue) *ProctorHandler {
	return &ProctorHandler{sessions: s, events: events, queue: queue}
}

type snapshotRequest struct {
	ImageURL    string `json:"image_url"`
	ImageBase64 string `json:"image_base64"`
}

// Snapshot stores one proctoring frame taken during the session. A frame
// already hosted elsewhere is recorded by URL synchronously; raw base64
// frames go through the ingest stream and are persisted by the worker pool.
// POST /sessions/:session_id/proctor
func (h *ProctorHandler) Snapshot(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req snapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.ImageURL == "" && req.ImageBase64 == "") {
		c.JSON(http.StatusBadRequest, APIError{Code: utils.CodeInvalidArgument, Message: "image_url or image_base64 is required"})
		return
	}

	sessionID := c.Param("session_id")

	if req.ImageBase64 != "" {
		if h.queue == nil {
			c.JSON(http.StatusBadRequest, APIError{Code: utils.CodeInvalidArgument, Message: "raw frame uploads are not enabled"})
			return
		}
		// ownership check only; the worker does the heavy lifting
		if _, err := h.sessions.Report(c.Request.Context(), sessionID, userID); err != nil {
			writeError(c, err)
			return
		}
		if _, err := h.queue.Enqueue(c.Request.Context(), sessionID, userID, req.ImageBase64); err != nil {
			writeError(c, utils.E(utils.CodeInternal, "ProctorHandler.Snapshot", "failed to enqueue frame", err))
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
		return
	}

	if err := h.sessions.RecordSnapshot(c.Request.Context(), sessionID, userID, req.ImageURL); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

// List returns a session's proctoring trail for review. Admin only.
// GET /sessions/:session_id/proctor
func (h *ProctorHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := h.events.ListBySession(c.Request.Context(), c.Param("session_id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
