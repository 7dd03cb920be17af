package repository

import (
	"context"

	"github.com/lshigami/Materia/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// "index" is a keyword in some dialects; let gorm quote it.
var choiceOrder = clause.OrderByColumn{Column: clause.Column{Table: "choices", Name: "index"}}

type QuestionRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Question, error)
	FindByAssessmentID(ctx context.Context, assessmentID uint) ([]model.Question, error)
	// Delete removes the question with its choices and answers.
	Delete(ctx context.Context, id uint) error
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var question model.Question
	if err := r.db.WithContext(ctx).Preload("Choices").First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepository) FindByAssessmentID(ctx context.Context, assessmentID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.WithContext(ctx).
		Preload("Choices", func(db *gorm.DB) *gorm.DB { return db.Order(choiceOrder) }).
		Where("assessment_id = ?", assessmentID).
		Order("id ASC").
		Find(&questions).Error
	return questions, err
}

func (r *questionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteQuestionDependents(tx, []uint{id}); err != nil {
			return err
		}
		res := tx.Delete(&model.Question{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func deleteQuestionDependents(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("question_id IN ?", ids).Delete(&model.Choice{}).Error; err != nil {
		return err
	}
	return tx.Where("question_id IN ?", ids).Delete(&model.Answer{}).Error
}
