package models

import "time"

// DsaInteraction is one DSA topic's submission slot. All slots are created
// when the round starts; topics are independent problems, not a chain, so
// they can be submitted in any order.
type DsaInteraction struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID string `gorm:"column:session_id;type:uuid;index:idx_dsa_session_topic,unique" json:"session_id"`
	TopicID   string `gorm:"column:topic_id;type:uuid;index:idx_dsa_session_topic,unique" json:"topic_id"`

	QuestionText string   `gorm:"column:question_text;type:text" json:"question_text"`
	Code         string   `gorm:"column:code;type:text" json:"code"`
	Score        *float64 `gorm:"column:score" json:"score,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (DsaInteraction) TableName() string { return "dsa_interactions" }
