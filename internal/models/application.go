package models

import "time"

// Application links a candidate to an interview. Resume parsing and the
// shortlisting score are produced elsewhere; the session engine only reads
// the approval flag, the extracted resume text, and the timestamps.
type Application struct {
	ID          string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID      string `gorm:"column:user_id;type:uuid;index:idx_app_user_interview,unique" json:"user_id"`
	InterviewID string `gorm:"column:interview_id;type:uuid;index:idx_app_user_interview,unique" json:"interview_id"`

	Approved        bool     `gorm:"column:approved" json:"approved"`
	ResumeURL       string   `gorm:"column:resume_url;type:text" json:"resume_url"`
	ExtractedResume string   `gorm:"column:extracted_resume;type:text" json:"extracted_resume"`
	ResumeScore     *float64 `gorm:"column:resume_score" json:"resume_score,omitempty"`
	ResumeFeedback  string   `gorm:"column:resume_feedback;type:text" json:"resume_feedback"`

	// Oracle sometimes omits this field; nil means "no decision yet".
	ShortlistingDecision *bool `gorm:"column:shortlisting_decision" json:"shortlisting_decision,omitempty"`

	AppliedAt time.Time `gorm:"column:applied_at" json:"applied_at"`
}

func (Application) TableName() string { return "applications" }
