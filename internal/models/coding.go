package models

import "time"

// MaxAssistance caps AI help per coding interaction.
const MaxAssistance = 3

type CodingInteraction struct {
	ID         string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID  string `gorm:"column:session_id;type:uuid;index:idx_coding_session_question,unique" json:"session_id"`
	QuestionID string `gorm:"column:question_id;type:uuid;index:idx_coding_session_question,unique" json:"question_id"`

	Code     string   `gorm:"column:code;type:text" json:"code"`
	Score    *float64 `gorm:"column:score" json:"score,omitempty"`
	Feedback string   `gorm:"column:feedback;type:text" json:"feedback"`

	AssistanceCount int `gorm:"column:assistance_count;type:integer" json:"assistance_count"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (CodingInteraction) TableName() string { return "coding_interactions" }
