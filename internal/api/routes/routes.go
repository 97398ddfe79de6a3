package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/interviewly/backend/internal/api/handlers"
	"github.com/interviewly/backend/internal/api/middleware"
)

type Deps struct {
	Session *handlers.SessionHandler
	Dsa     *handlers.DsaHandler
	Coding  *handlers.CodingHandler
	Proctor *handlers.ProctorHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/interviews/:interview_id/session", d.Session.Start)
	auth.GET("/sessions/:session_id", d.Session.Get)
	auth.POST("/sessions/:session_id/answer", d.Session.SubmitAnswer)
	auth.PUT("/sessions/:session_id/cheated", d.Session.MarkCheated)

	auth.GET("/sessions/:session_id/dsa", d.Dsa.List)
	auth.POST("/sessions/:session_id/dsa/:topic_id", d.Dsa.Submit)

	auth.GET("/sessions/:session_id/coding", d.Coding.List)
	auth.POST("/sessions/:session_id/coding/:question_id", d.Coding.Submit)
	auth.POST("/sessions/:session_id/coding/:question_id/assistance", d.Coding.Assist)

	auth.POST("/sessions/:session_id/proctor", d.Proctor.Snapshot)
	auth.GET("/sessions/:session_id/proctor", middleware.RequireAdmin(), d.Proctor.List)
}
