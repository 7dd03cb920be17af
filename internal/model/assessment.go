package model

import "time"

type Assessment struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	Title       string     `json:"title" gorm:"size:30;not null"`
	Description string     `json:"description" gorm:"type:text;not null"`
	Questions   []Question `json:"questions,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Choice struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	QuestionID uint   `json:"question_id" gorm:"not null;uniqueIndex:idx_choice_question_index"`
	Index      uint   `json:"index" gorm:"not null;uniqueIndex:idx_choice_question_index"`
	Text       string `json:"text" gorm:"size:100;not null"`
}
