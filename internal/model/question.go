package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionTypeText           QuestionType = "TEXT"
	QuestionTypeChoice         QuestionType = "CHOICE"
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeText, QuestionTypeChoice, QuestionTypeMultipleChoice:
		return true
	}
	return false
}

// HasOptions reports whether answers to this type pick from a Choice list.
func (t QuestionType) HasOptions() bool {
	return t == QuestionTypeChoice || t == QuestionTypeMultipleChoice
}

// ErrInvalidQuestionType is returned by the write hooks of Question and Answer.
type ErrInvalidQuestionType struct {
	Type QuestionType
}

func (e ErrInvalidQuestionType) Error() string {
	return fmt.Sprintf("question type %q is not one of TEXT, CHOICE, MULTIPLE_CHOICE", string(e.Type))
}

type Question struct {
	ID           uint         `gorm:"primarykey" json:"id"`
	AssessmentID uint         `json:"assessment_id" gorm:"not null;index"`
	Type         QuestionType `json:"type" gorm:"size:30;not null"`
	MaxPoint     float64      `json:"max_point" gorm:"not null;default:1"`
	Text         string       `json:"text" gorm:"type:text;not null"`
	Choices      []Choice     `json:"choices,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (q *Question) HasOptionType() bool {
	return q.Type.HasOptions()
}

func (q *Question) BeforeSave(tx *gorm.DB) error {
	if !q.Type.Valid() {
		return ErrInvalidQuestionType{Type: q.Type}
	}
	return nil
}
