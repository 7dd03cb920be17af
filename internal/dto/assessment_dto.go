package dto

import (
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/Materia/internal/model"
	"github.com/lshigami/Materia/internal/repository"
)

// --- Admin authoring ---

type ChoiceCreateDTO struct {
	Index uint   `json:"index"`
	Text  string `json:"text" binding:"required,max=100"`
}

type QuestionCreateDTO struct {
	Type     string            `json:"type" binding:"required"`
	MaxPoint *float64          `json:"max_point" binding:"omitempty,gt=0"`
	Text     string            `json:"text" binding:"required"`
	Choices  []ChoiceCreateDTO `json:"choices" binding:"omitempty,dive"`
}

type AssessmentCreateDTO struct {
	Title       string              `json:"title" binding:"required,max=30"`
	Description string              `json:"description" binding:"required"`
	Questions   []QuestionCreateDTO `json:"questions" binding:"required,min=1,dive"`
}

// --- Reading assessments ---

type ChoiceResponseDTO struct {
	ID    uint   `json:"id"`
	Index uint   `json:"index"`
	Text  string `json:"text"`
}

type QuestionResponseDTO struct {
	ID            uint                `json:"id"`
	AssessmentID  uint                `json:"assessment_id"`
	Type          string              `json:"type"`
	MaxPoint      float64             `json:"max_point"`
	Text          string              `json:"text"`
	HasOptionType bool                `json:"has_option_type"`
	Choices       []ChoiceResponseDTO `json:"choices,omitempty"`
}

type AssessmentResponseDTO struct {
	ID          uint                  `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Questions   []QuestionResponseDTO `json:"questions"`
	CreatedAt   time.Time             `json:"created_at"`
}

type AssessmentSummaryDTO struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// --- Submissions ---

// AnswerSubmitDTO carries free text for TEXT questions, a choice index for
// CHOICE and comma separated indexes for MULTIPLE_CHOICE.
type AnswerSubmitDTO struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	Answer     string `json:"answer" binding:"required,max=300"`
}

type SubmissionCreateDTO struct {
	Answers []AnswerSubmitDTO `json:"answers" binding:"required,min=1,dive"`
}

type AnswerResponseDTO struct {
	ID           uint     `json:"id"`
	QuestionID   uint     `json:"question_id"`
	QuestionType string   `json:"question_type"`
	QuestionText string   `json:"question_text"`
	AnswerText   string   `json:"answer_text"`
	AIFeedback   string   `json:"ai_feedback,omitempty"`
	AIScore      *float64 `json:"ai_score,omitempty"`
}

type SubmissionDetailDTO struct {
	ID              uint                `json:"id"`
	UserID          uint                `json:"user_id"`
	AssessmentID    uint                `json:"assessment_id"`
	AssessmentTitle string              `json:"assessment_title,omitempty"`
	SubmitTime      time.Time           `json:"submit_time"`
	Status          string              `json:"status"`
	TotalScore      *float64            `json:"total_score"`
	MaxScore        *float64            `json:"max_score,omitempty"`
	ScorePercent    *float64            `json:"score_percent,omitempty"`
	Answers         []AnswerResponseDTO `json:"answers"`
}

type SubmissionSummaryDTO struct {
	ID           uint      `json:"id"`
	AssessmentID uint      `json:"assessment_id"`
	SubmitTime   time.Time `json:"submit_time"`
	Status       string    `json:"status"`
	TotalScore   *float64  `json:"total_score"`
}

func NewAssessmentResponse(a *model.Assessment) AssessmentResponseDTO {
	resp := AssessmentResponseDTO{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		CreatedAt:   a.CreatedAt,
		Questions:   make([]QuestionResponseDTO, 0, len(a.Questions)),
	}
	for i := range a.Questions {
		q := &a.Questions[i]
		var qDTO QuestionResponseDTO
		_ = copier.Copy(&qDTO, q)
		qDTO.Type = string(q.Type)
		qDTO.HasOptionType = q.HasOptionType()
		qDTO.Choices = make([]ChoiceResponseDTO, 0, len(q.Choices))
		_ = copier.Copy(&qDTO.Choices, &q.Choices)
		resp.Questions = append(resp.Questions, qDTO)
	}
	return resp
}

func NewAssessmentSummary(s *repository.AssessmentSummary) AssessmentSummaryDTO {
	var out AssessmentSummaryDTO
	_ = copier.Copy(&out, &s.Assessment)
	out.QuestionCount = s.QuestionCount
	return out
}

func NewSubmissionDetail(s *model.Submission) SubmissionDetailDTO {
	resp := SubmissionDetailDTO{
		ID:           s.ID,
		UserID:       s.UserID,
		AssessmentID: s.AssessmentID,
		SubmitTime:   s.SubmitTime,
		Status:       string(s.Status),
		TotalScore:   s.TotalScore,
		Answers:      make([]AnswerResponseDTO, 0, len(s.Answers)),
	}
	if s.Assessment != nil {
		resp.AssessmentTitle = s.Assessment.Title
	}
	for i := range s.Answers {
		a := &s.Answers[i]
		var aDTO AnswerResponseDTO
		_ = copier.Copy(&aDTO, a)
		aDTO.QuestionType = string(a.QuestionType)
		resp.Answers = append(resp.Answers, aDTO)
	}
	return resp
}

func NewSubmissionSummary(s *model.Submission) SubmissionSummaryDTO {
	return SubmissionSummaryDTO{
		ID:           s.ID,
		AssessmentID: s.AssessmentID,
		SubmitTime:   s.SubmitTime,
		Status:       string(s.Status),
		TotalScore:   s.TotalScore,
	}
}
