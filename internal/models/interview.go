package models

import "time"

// Interview is authored by an organization ahead of time and is read-only
// to the session engine. Round flags decide which phases a candidate goes
// through: dev Q&A, resume Q&A, DSA, coding.
type Interview struct {
	ID          string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID       string    `gorm:"column:org_id;type:uuid;index" json:"org_id"`
	Post        string    `gorm:"column:post;type:text" json:"post"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Experience  string    `gorm:"column:experience;type:text" json:"experience"`

	SubmissionDeadline time.Time `gorm:"column:submission_deadline" json:"submission_deadline"`
	StartTime          time.Time `gorm:"column:start_time" json:"start_time"`
	EndTime            time.Time `gorm:"column:end_time" json:"end_time"`
	DurationMinutes    int       `gorm:"column:duration_minutes;type:integer" json:"duration_minutes"`

	HasDevRound    bool `gorm:"column:has_dev_round" json:"has_dev_round"`
	HasResumeRound bool `gorm:"column:has_resume_round" json:"has_resume_round"`
	HasDsaRound    bool `gorm:"column:has_dsa_round" json:"has_dsa_round"`
	HasCodingRound bool `gorm:"column:has_coding_round" json:"has_coding_round"`

	Questions       []Question       `gorm:"foreignKey:InterviewID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	DsaTopics       []DsaTopic       `gorm:"foreignKey:InterviewID;constraint:OnDelete:CASCADE" json:"dsa_topics,omitempty"`
	CodingQuestions []CodingQuestion `gorm:"foreignKey:InterviewID;constraint:OnDelete:CASCADE" json:"coding_questions,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Interview) TableName() string { return "interviews" }

// Question is one dev Q&A prompt with its expected answer. Position orders
// the dev round's sequential chain.
type Question struct {
	ID          string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InterviewID string `gorm:"column:interview_id;type:uuid;index" json:"interview_id"`
	Position    int    `gorm:"column:position;type:integer" json:"position"`
	Prompt      string `gorm:"column:prompt;type:text" json:"prompt"`
	Expected    string `gorm:"column:expected;type:text" json:"expected"`
}

func (Question) TableName() string { return "questions" }

type DsaTopic struct {
	ID                string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InterviewID       string `gorm:"column:interview_id;type:uuid;index" json:"interview_id"`
	Topic             string `gorm:"column:topic;type:text" json:"topic"`
	Difficulty        string `gorm:"column:difficulty;type:text" json:"difficulty"`
	NumberOfQuestions int    `gorm:"column:number_of_questions;type:integer" json:"number_of_questions"`
}

func (DsaTopic) TableName() string { return "dsa_topics" }

type CodingQuestion struct {
	ID          string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InterviewID string `gorm:"column:interview_id;type:uuid;index" json:"interview_id"`
	Prompt      string `gorm:"column:prompt;type:text" json:"prompt"`
}

func (CodingQuestion) TableName() string { return "coding_questions" }
