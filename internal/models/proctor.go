package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProctorEventType string

const (
	ProctorSnapshot    ProctorEventType = "snapshot"
	ProctorCheatSignal ProctorEventType = "cheat_signal"
)

// ProctorEvent is an append-only record from the proctoring surface:
// periodic webcam snapshots and the anti-cheat signal. Kept in Mongo with a
// TTL index; the relational session row stays the source of truth for state.
type ProctorEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	UserID    string             `bson:"user_id" json:"user_id"`

	Type     ProctorEventType `bson:"type" json:"type"`
	ImageURL *string          `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Note     string           `bson:"note,omitempty" json:"note,omitempty"`

	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"` // for TTL index
}
