package repository

import (
	"context"

	"github.com/lshigami/Materia/internal/model"
	"gorm.io/gorm"
)

type AnswerRepository interface {
	WithTx(tx *gorm.DB) AnswerRepository
	// UpdateGrade stores the grader's feedback and score for one answer.
	UpdateGrade(ctx context.Context, answer *model.Answer) error
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) WithTx(tx *gorm.DB) AnswerRepository {
	return &answerRepository{db: tx}
}

func (r *answerRepository) UpdateGrade(ctx context.Context, answer *model.Answer) error {
	return r.db.WithContext(ctx).Model(answer).
		Select("AIFeedback", "AIScore").
		Updates(answer).Error
}
