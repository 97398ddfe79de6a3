package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/interviewly/backend/config"
	"github.com/interviewly/backend/internal/api/handlers"
	"github.com/interviewly/backend/internal/api/middleware"
	"github.com/interviewly/backend/internal/api/routes"
	"github.com/interviewly/backend/internal/cache"
	"github.com/interviewly/backend/internal/logger"
	"github.com/interviewly/backend/internal/models"
	"github.com/interviewly/backend/internal/oracle"
	mongorepo "github.com/interviewly/backend/internal/repositories/mongo"
	pgrepo "github.com/interviewly/backend/internal/repositories/postgres"
	"github.com/interviewly/backend/internal/services"
	"github.com/interviewly/backend/internal/storage"
	"github.com/interviewly/backend/internal/workers"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()

	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	l.Info("PostgreSQL connected")

	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	l.Info("MongoDB connected")

	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	db := config.PostgresDB
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
		log.Fatalf("migration error: %v", err)
	}

	ctx := context.Background()
	vertex, err := oracle.NewVertex(ctx, oracle.Config{
		ProjectID: os.Getenv("VERTEX_PROJECT_ID"),
		Location:  os.Getenv("VERTEX_LOCATION"),
		Model:     os.Getenv("VERTEX_MODEL"),
		Timeout:   30 * time.Second,
	})
	if err != nil {
		log.Fatalf("Vertex init error: %v", err)
	}
	defer vertex.Close()

	mongoDB := config.MongoClient.Database(config.MongoDBName())
	proctorRepo := mongorepo.NewProctorRepo(mongoDB)

	var proctorQueue *workers.ProctorQueue
	if bucket := os.Getenv("PROCTOR_BUCKET"); bucket != "" {
		frames, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			log.Fatalf("GCS init error: %v", err)
		}
		defer frames.Close()

		pool := &workers.ProctorWorkerPool{
			Redis:  config.RedisClient,
			Events: proctorRepo,
			Frames: frames,
			Logger: l,
		}
		if err := pool.Start(ctx); err != nil {
			log.Fatalf("proctor worker error: %v", err)
		}
		proctorQueue = &workers.ProctorQueue{Redis: config.RedisClient}
	}

	sessionService := services.NewSessionService(services.Deps{
		Sessions:     pgrepo.NewSessionRepo(db),
		Interviews:   pgrepo.NewInterviewRepo(db),
		Applications: pgrepo.NewApplicationRepo(db),
		Interactions: pgrepo.NewInteractionRepo(db),
		Resumes:      pgrepo.NewResumeRepo(db),
		Dsa:          pgrepo.NewDsaRepo(db),
		Coding:       pgrepo.NewCodingRepo(db),
		Proctor:      proctorRepo,
		Oracle:       vertex,
		Cache:        cache.NewRedisCache(config.RedisClient),
		Log:          l,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Session: handlers.NewSessionHandler(sessionService),
		Dsa:     handlers.NewDsaHandler(sessionService),
		Coding:  handlers.NewCodingHandler(sessionService),
		Proctor: handlers.NewProctorHandler(sessionService, proctorRepo, proctorQueue),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
