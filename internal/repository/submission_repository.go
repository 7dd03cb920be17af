package repository

import (
	"context"

	"github.com/lshigami/Materia/internal/model"
	"gorm.io/gorm"
)

type SubmissionRepository interface {
	WithTx(tx *gorm.DB) SubmissionRepository
	// Create inserts the submission together with its answers.
	Create(ctx context.Context, submission *model.Submission) error
	UpdateResult(ctx context.Context, id uint, status model.SubmissionStatus, totalScore *float64) error
	FindByIDWithDetails(ctx context.Context, id uint) (*model.Submission, error)
	FindAllByAssessmentAndUser(ctx context.Context, assessmentID, userID uint) ([]model.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) WithTx(tx *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: tx}
}

func (r *submissionRepository) Create(ctx context.Context, submission *model.Submission) error {
	return r.db.WithContext(ctx).Omit("Assessment").Create(submission).Error
}

func (r *submissionRepository) UpdateResult(ctx context.Context, id uint, status model.SubmissionStatus, totalScore *float64) error {
	return r.db.WithContext(ctx).Model(&model.Submission{ID: id}).
		Updates(map[string]any{"status": status, "total_score": totalScore}).Error
}

func (r *submissionRepository) FindByIDWithDetails(ctx context.Context, id uint) (*model.Submission, error) {
	var submission model.Submission
	err := r.db.WithContext(ctx).
		Preload("Assessment").
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("answers.id ASC") }).
		Preload("Answers.Question").
		First(&submission, id).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) FindAllByAssessmentAndUser(ctx context.Context, assessmentID, userID uint) ([]model.Submission, error) {
	var submissions []model.Submission
	err := r.db.WithContext(ctx).
		Where("assessment_id = ? AND user_id = ?", assessmentID, userID).
		Order("submit_time DESC, id DESC").
		Find(&submissions).Error
	return submissions, err
}
