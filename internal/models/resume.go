package models

import "time"

// ResumeConversation is one generated resume question for a session. The
// round is flat: no follow-up loop, each conversation answered and scored
// in a single shot.
type ResumeConversation struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID string `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	Position  int    `gorm:"column:position;type:integer" json:"position"`

	Question string  `gorm:"column:question;type:text" json:"question"`
	Expected string  `gorm:"column:expected;type:text" json:"expected"`
	Answer   *string `gorm:"column:answer;type:text" json:"answer,omitempty"`

	Score    *float64 `gorm:"column:score" json:"score,omitempty"`
	Feedback string   `gorm:"column:feedback;type:text" json:"feedback"`

	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (ResumeConversation) TableName() string { return "resume_conversations" }
