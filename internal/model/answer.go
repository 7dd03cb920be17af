package model

import "gorm.io/gorm"

// Answer snapshots the question type and text at submission time so later
// edits to the question do not rewrite history.
type Answer struct {
	ID           uint         `gorm:"primarykey" json:"id"`
	SubmissionID uint         `json:"submission_id" gorm:"not null;index"`
	QuestionID   uint         `json:"question_id" gorm:"not null;index"`
	Question     *Question    `json:"-" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
	QuestionType QuestionType `json:"question_type" gorm:"size:30;not null"`
	QuestionText string       `json:"question_text" gorm:"size:300;not null"`
	AnswerText   string       `json:"answer_text" gorm:"size:300;not null"`
	AIFeedback   string       `json:"ai_feedback,omitempty" gorm:"type:text"`
	AIScore      *float64     `json:"ai_score,omitempty"`
}

func (a *Answer) BeforeSave(tx *gorm.DB) error {
	if !a.QuestionType.Valid() {
		return ErrInvalidQuestionType{Type: a.QuestionType}
	}
	return nil
}
