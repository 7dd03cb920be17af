package repository

import (
	"context"
	"time"

	"github.com/lshigami/Materia/internal/model"
	"gorm.io/gorm"
)

type AssessmentSummary struct {
	Assessment    model.Assessment
	QuestionCount int
}

type AssessmentRepository interface {
	WithTx(tx *gorm.DB) AssessmentRepository
	// Create inserts the assessment with its nested questions and choices.
	Create(ctx context.Context, assessment *model.Assessment) error
	FindByID(ctx context.Context, id uint) (*model.Assessment, error)
	FindByIDWithQuestions(ctx context.Context, id uint) (*model.Assessment, error)
	FindAllWithQuestionCount(ctx context.Context, page Page) ([]AssessmentSummary, int64, error)
	// Delete removes the assessment with its questions, choices,
	// submissions and answers.
	Delete(ctx context.Context, id uint) error
}

type assessmentRepository struct {
	db *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) WithTx(tx *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: tx}
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *model.Assessment) error {
	// gorm creates Questions and their Choices through the has-many associations.
	return r.db.WithContext(ctx).Create(assessment).Error
}

func (r *assessmentRepository) FindByID(ctx context.Context, id uint) (*model.Assessment, error) {
	var assessment model.Assessment
	if err := r.db.WithContext(ctx).First(&assessment, id).Error; err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (r *assessmentRepository) FindByIDWithQuestions(ctx context.Context, id uint) (*model.Assessment, error) {
	var assessment model.Assessment
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.id ASC")
		}).
		Preload("Questions.Choices", func(db *gorm.DB) *gorm.DB {
			return db.Order(choiceOrder)
		}).
		First(&assessment, id).Error
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (r *assessmentRepository) FindAllWithQuestionCount(ctx context.Context, page Page) ([]AssessmentSummary, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Assessment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []struct {
		ID            uint
		Title         string
		Description   string
		CreatedAt     time.Time
		UpdatedAt     time.Time
		QuestionCount int
	}
	err := r.db.WithContext(ctx).Model(&model.Assessment{}).
		Select("assessments.id, assessments.title, assessments.description, assessments.created_at, assessments.updated_at, " +
			"(SELECT COUNT(*) FROM questions WHERE questions.assessment_id = assessments.id) AS question_count").
		Order("assessments.id DESC").
		Offset(page.Offset()).Limit(page.Limit()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	results := make([]AssessmentSummary, 0, len(rows))
	for _, row := range rows {
		results = append(results, AssessmentSummary{
			Assessment: model.Assessment{
				ID:          row.ID,
				Title:       row.Title,
				Description: row.Description,
				CreatedAt:   row.CreatedAt,
				UpdatedAt:   row.UpdatedAt,
			},
			QuestionCount: row.QuestionCount,
		})
	}
	return results, total, nil
}

func (r *assessmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var questionIDs []uint
		if err := tx.Model(&model.Question{}).Where("assessment_id = ?", id).Pluck("id", &questionIDs).Error; err != nil {
			return err
		}
		if err := deleteQuestionDependents(tx, questionIDs); err != nil {
			return err
		}
		var submissionIDs []uint
		if err := tx.Model(&model.Submission{}).Where("assessment_id = ?", id).Pluck("id", &submissionIDs).Error; err != nil {
			return err
		}
		if len(submissionIDs) > 0 {
			if err := tx.Where("submission_id IN ?", submissionIDs).Delete(&model.Answer{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("assessment_id = ?", id).Delete(&model.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("assessment_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Assessment{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
