package mongo

import (
	"context"
	"time"

	"github.com/interviewly/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProctorRepo interface {
	Append(ctx context.Context, ev *models.ProctorEvent) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.ProctorEvent, error)
}

type proctorRepo struct {
	col *mongo.Collection
}

func NewProctorRepo(db *mongo.Database) ProctorRepo {
	return &proctorRepo{col: db.Collection("proctor_events")}
}

func (r *proctorRepo) Append(ctx context.Context, ev *models.ProctorEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if ev.ExpiresAt.IsZero() {
		// events are evidence, not state; keep them 90 days
		ev.ExpiresAt = ev.Timestamp.Add(90 * 24 * time.Hour)
	}
	_, err := r.col.InsertOne(ctx, ev)
	return err
}

func (r *proctorRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.ProctorEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	cur, err := r.col.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().SetSort(bson.M{"timestamp": 1}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.ProctorEvent
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
