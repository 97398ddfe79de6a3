package models

import "time"

// Interaction records one dev question's conversation and score. It is
// created when its question becomes current and scored exactly once; a nil
// score means the follow-up loop is still running.
type Interaction struct {
	ID         string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID  string `gorm:"column:session_id;type:uuid;index:idx_interaction_session_question,unique" json:"session_id"`
	QuestionID string `gorm:"column:question_id;type:uuid;index:idx_interaction_session_question,unique" json:"question_id"`

	Score    *float64 `gorm:"column:score" json:"score,omitempty"`
	Feedback string   `gorm:"column:feedback;type:text" json:"feedback"`

	Turns []FollowUpTurn `gorm:"foreignKey:InteractionID;constraint:OnDelete:CASCADE" json:"turns,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (Interaction) TableName() string { return "interactions" }

// FollowUpTurn is one question/answer exchange inside an interaction's
// probing loop. Answer stays nil until the candidate responds; an answered
// turn is never rewritten.
type FollowUpTurn struct {
	ID            string  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InteractionID string  `gorm:"column:interaction_id;type:uuid;index" json:"interaction_id"`
	Position      int     `gorm:"column:position;type:integer" json:"position"`
	Question      string  `gorm:"column:question;type:text" json:"question"`
	Answer        *string `gorm:"column:answer;type:text" json:"answer,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (FollowUpTurn) TableName() string { return "follow_up_turns" }

// Answered reports whether the candidate has responded to this turn.
func (t *FollowUpTurn) Answered() bool { return t.Answer != nil }
