package model

import "time"

type SubmissionStatus string

const (
	SubmissionPending             SubmissionStatus = "pending"
	SubmissionCompleted           SubmissionStatus = "completed"
	SubmissionCompletedWithErrors SubmissionStatus = "completed_with_errors"
	SubmissionUngraded            SubmissionStatus = "ungraded"
)

type Submission struct {
	ID           uint             `gorm:"primarykey" json:"id"`
	UserID       uint             `json:"user_id" gorm:"not null;index"`
	AssessmentID uint             `json:"assessment_id" gorm:"not null;index"`
	Assessment   *Assessment      `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	SubmitTime   time.Time        `json:"submit_time" gorm:"<-:create;autoCreateTime"`
	Status       SubmissionStatus `json:"status" gorm:"size:32;not null;default:'pending'"`
	TotalScore   *float64         `json:"total_score,omitempty"`
	Answers      []Answer         `json:"answers,omitempty" gorm:"foreignKey:SubmissionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
