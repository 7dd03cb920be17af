package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/lshigami/Materia/internal/apperr"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/lshigami/Materia/internal/model"
	"github.com/lshigami/Materia/internal/repository"
	"github.com/rs/zerolog/log"
)

type AssessmentService interface {
	// Create stores the assessment with its questions and choices in one
	// transaction. Admin only.
	Create(ctx context.Context, req dto.AssessmentCreateDTO) (*dto.AssessmentResponseDTO, error)
	Get(ctx context.Context, id uint) (*dto.AssessmentResponseDTO, error)
	List(ctx context.Context, page repository.Page) ([]dto.AssessmentSummaryDTO, int64, error)
	Delete(ctx context.Context, id uint) error
	DeleteQuestion(ctx context.Context, id uint) error
}

type assessmentService struct {
	assessmentRepo repository.AssessmentRepository
	questionRepo   repository.QuestionRepository
}

func NewAssessmentService(assessmentRepo repository.AssessmentRepository, questionRepo repository.QuestionRepository) AssessmentService {
	return &assessmentService{assessmentRepo: assessmentRepo, questionRepo: questionRepo}
}

func (s *assessmentService) Create(ctx context.Context, req dto.AssessmentCreateDTO) (*dto.AssessmentResponseDTO, error) {
	questions := make([]model.Question, 0, len(req.Questions))
	for i, qDto := range req.Questions {
		question, err := buildQuestion(i, qDto)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}

	assessment := model.Assessment{
		Title:       req.Title,
		Description: req.Description,
		Questions:   questions,
	}
	if err := s.assessmentRepo.Create(ctx, &assessment); err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("Create: failed to store assessment")
		return nil, fmt.Errorf("create assessment: %w", err)
	}
	log.Info().Uint("assessmentID", assessment.ID).Int("questions", len(questions)).Msg("assessment created")
	return s.Get(ctx, assessment.ID)
}

func buildQuestion(i int, qDto dto.QuestionCreateDTO) (model.Question, error) {
	field := func(name string) string { return fmt.Sprintf("questions[%d].%s", i, name) }

	qType := model.QuestionType(strings.ToUpper(strings.TrimSpace(qDto.Type)))
	if !qType.Valid() {
		return model.Question{}, apperr.Validation(field("type"), "%q is not one of TEXT, CHOICE, MULTIPLE_CHOICE", qDto.Type)
	}
	var question model.Question
	_ = copier.Copy(&question, &qDto)
	question.Type = qType
	question.MaxPoint = 1
	if qDto.MaxPoint != nil {
		question.MaxPoint = *qDto.MaxPoint
	}

	switch {
	case qType.HasOptions() && len(qDto.Choices) == 0:
		return model.Question{}, apperr.Validation(field("choices"), "%s questions need at least one choice", qType)
	case !qType.HasOptions() && len(qDto.Choices) > 0:
		return model.Question{}, apperr.Validation(field("choices"), "TEXT questions cannot have choices")
	}
	seen := make(map[uint]bool, len(qDto.Choices))
	question.Choices = make([]model.Choice, 0, len(qDto.Choices))
	for _, c := range qDto.Choices {
		if seen[c.Index] {
			return model.Question{}, apperr.Validation(field("choices"), "choice index %d is repeated", c.Index)
		}
		seen[c.Index] = true
		question.Choices = append(question.Choices, model.Choice{Index: c.Index, Text: c.Text})
	}
	return question, nil
}

func (s *assessmentService) Get(ctx context.Context, id uint) (*dto.AssessmentResponseDTO, error) {
	assessment, err := s.assessmentRepo.FindByIDWithQuestions(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundOr(err, "assessment", id)
	}
	resp := dto.NewAssessmentResponse(assessment)
	return &resp, nil
}

func (s *assessmentService) List(ctx context.Context, page repository.Page) ([]dto.AssessmentSummaryDTO, int64, error) {
	summaries, total, err := s.assessmentRepo.FindAllWithQuestionCount(ctx, page)
	if err != nil {
		log.Error().Err(err).Msg("List: failed to load assessments")
		return nil, 0, fmt.Errorf("list assessments: %w", err)
	}
	dtos := make([]dto.AssessmentSummaryDTO, 0, len(summaries))
	for i := range summaries {
		dtos = append(dtos, dto.NewAssessmentSummary(&summaries[i]))
	}
	return dtos, total, nil
}

func (s *assessmentService) Delete(ctx context.Context, id uint) error {
	if err := s.assessmentRepo.Delete(ctx, id); err != nil {
		return apperr.NotFoundOr(err, "assessment", id)
	}
	log.Info().Uint("assessmentID", id).Msg("assessment deleted")
	return nil
}

func (s *assessmentService) DeleteQuestion(ctx context.Context, id uint) error {
	if err := s.questionRepo.Delete(ctx, id); err != nil {
		return apperr.NotFoundOr(err, "question", id)
	}
	log.Info().Uint("questionID", id).Msg("question deleted")
	return nil
}
