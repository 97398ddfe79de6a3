package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	StatusOngoing   SessionStatus = "ongoing"
	StatusCompleted SessionStatus = "completed"
	StatusCheated   SessionStatus = "cheated"
	StatusExpired   SessionStatus = "expired"
)

// Terminal reports whether the status absorbs: nothing transitions out of it.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCheated || s == StatusExpired
}

type Round string

const (
	RoundDev    Round = "dev"
	RoundResume Round = "resume"
	RoundDsa    Round = "dsa"
	RoundCoding Round = "coding"
	RoundDone   Round = "done"
)

// Session is one candidate's run through one interview, created at most once
// per application. All mutation goes through the session service; handlers
// never write it directly.
type Session struct {
	ID            string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ApplicationID string `gorm:"column:application_id;type:uuid;uniqueIndex" json:"application_id"`

	Status SessionStatus `gorm:"column:status;type:text" json:"status"`
	Round  Round         `gorm:"column:round;type:text" json:"round"`

	// Cursor into the active round's sequential question list. Only the dev
	// round is sequential; it resets to 0 when a new round is entered.
	CurrentQuestionIndex int `gorm:"column:current_question_index;type:integer" json:"current_question_index"`

	DevScore     *float64 `gorm:"column:dev_score" json:"dev_score,omitempty"`
	ResumeScore  *float64 `gorm:"column:resume_score" json:"resume_score,omitempty"`
	DsaScore     *float64 `gorm:"column:dsa_score" json:"dsa_score,omitempty"`
	CodingScore  *float64 `gorm:"column:coding_score" json:"coding_score,omitempty"`
	OverallScore *float64 `gorm:"column:overall_score" json:"overall_score,omitempty"`

	Feedback       string         `gorm:"column:feedback;type:text" json:"feedback"`
	Strengths      datatypes.JSON `gorm:"column:strengths;type:jsonb" json:"strengths,omitempty"`
	Recommendation string         `gorm:"column:recommendation;type:text" json:"recommendation"`

	Interactions        []Interaction        `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"interactions,omitempty"`
	ResumeConversations []ResumeConversation `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"resume_conversations,omitempty"`
	DsaInteractions     []DsaInteraction     `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"dsa_interactions,omitempty"`
	CodingInteractions  []CodingInteraction  `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"coding_interactions,omitempty"`

	StartedAt time.Time  `gorm:"column:started_at" json:"started_at"`
	EndedAt   *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`
}

func (Session) TableName() string { return "interview_sessions" }
