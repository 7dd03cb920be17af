package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lshigami/Materia/internal/apperr"
	"github.com/lshigami/Materia/internal/auth"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/lshigami/Materia/internal/model"
	"github.com/lshigami/Materia/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// gradingConcurrency bounds simultaneous grader calls per submission.
const gradingConcurrency = 4

const answerTextLimit = 300

type SubmissionService interface {
	// Submit stores the answers, grades TEXT answers and returns the graded
	// submission.
	Submit(ctx context.Context, viewer *auth.Viewer, assessmentID uint, req dto.SubmissionCreateDTO) (*dto.SubmissionDetailDTO, error)
	// Get is allowed to the submitter and to admins.
	Get(ctx context.Context, viewer *auth.Viewer, id uint) (*dto.SubmissionDetailDTO, error)
	ListMine(ctx context.Context, viewer *auth.Viewer, assessmentID uint) ([]dto.SubmissionSummaryDTO, error)
}

type submissionService struct {
	assessmentRepo repository.AssessmentRepository
	submissionRepo repository.SubmissionRepository
	answerRepo     repository.AnswerRepository
	grader         Grader
	scoreConverter ScoreConverterService
	db             *gorm.DB
}

func NewSubmissionService(
	assessmentRepo repository.AssessmentRepository,
	submissionRepo repository.SubmissionRepository,
	answerRepo repository.AnswerRepository,
	grader Grader,
	scoreConverter ScoreConverterService,
	db *gorm.DB,
) SubmissionService {
	return &submissionService{
		assessmentRepo: assessmentRepo,
		submissionRepo: submissionRepo,
		answerRepo:     answerRepo,
		grader:         grader,
		scoreConverter: scoreConverter,
		db:             db,
	}
}

type gradeResult struct {
	feedback string
	score    float64
	err      error
}

func (s *submissionService) Submit(ctx context.Context, viewer *auth.Viewer, assessmentID uint, req dto.SubmissionCreateDTO) (*dto.SubmissionDetailDTO, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	assessment, err := s.assessmentRepo.FindByIDWithQuestions(ctx, assessmentID)
	if err != nil {
		return nil, apperr.NotFoundOr(err, "assessment", assessmentID)
	}
	questions := make(map[uint]*model.Question, len(assessment.Questions))
	for i := range assessment.Questions {
		questions[assessment.Questions[i].ID] = &assessment.Questions[i]
	}

	submission := model.Submission{
		UserID:       viewer.ID,
		AssessmentID: assessment.ID,
		Status:       model.SubmissionPending,
		Answers:      make([]model.Answer, 0, len(req.Answers)),
	}
	answered := make(map[uint]bool, len(req.Answers))
	for i, a := range req.Answers {
		question, ok := questions[a.QuestionID]
		if !ok {
			return nil, apperr.Validation(fmt.Sprintf("answers[%d].question_id", i), "question %d is not part of assessment %d", a.QuestionID, assessment.ID)
		}
		if answered[question.ID] {
			return nil, apperr.Validation(fmt.Sprintf("answers[%d].question_id", i), "question %d is answered twice", question.ID)
		}
		answered[question.ID] = true

		text, err := normalizeAnswer(question, a.Answer)
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("answers[%d].answer", i), "%s", err.Error())
		}
		submission.Answers = append(submission.Answers, model.Answer{
			QuestionID:   question.ID,
			QuestionType: question.Type,
			QuestionText: truncateRunes(question.Text, answerTextLimit),
			AnswerText:   text,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.submissionRepo.WithTx(tx).Create(ctx, &submission)
	})
	if err != nil {
		log.Error().Err(err).Uint("assessmentID", assessment.ID).Uint("userID", viewer.ID).Msg("Submit: failed to store submission")
		return nil, fmt.Errorf("create submission: %w", err)
	}

	// The row is committed; grades and the final status must be written even
	// if the caller goes away.
	storeCtx := context.WithoutCancel(ctx)

	results, gradeErr := s.gradeAnswers(ctx, questions, submission.Answers)
	status, total := s.applyGrades(storeCtx, submission.Answers, results)
	if gradeErr != nil {
		log.Warn().Err(gradeErr).Uint("submissionID", submission.ID).Msg("Submit: grading interrupted")
		status = model.SubmissionCompletedWithErrors
	}
	if err := s.submissionRepo.UpdateResult(storeCtx, submission.ID, status, total); err != nil {
		log.Error().Err(err).Uint("submissionID", submission.ID).Msg("Submit: failed to store final status")
		if status != model.SubmissionCompletedWithErrors {
			if fallbackErr := s.submissionRepo.UpdateResult(storeCtx, submission.ID, model.SubmissionCompletedWithErrors, nil); fallbackErr != nil {
				log.Error().Err(fallbackErr).Uint("submissionID", submission.ID).Msg("Submit: failed to store fallback status")
			}
		}
		return nil, fmt.Errorf("update submission: %w", err)
	}
	log.Info().Uint("submissionID", submission.ID).Str("status", string(status)).Msg("submission graded")
	if gradeErr != nil {
		return nil, fmt.Errorf("grade submission %d: %w", submission.ID, gradeErr)
	}

	return s.detail(ctx, submission.ID)
}

// gradeAnswers fans TEXT answers out to the grader. Per-answer failures are
// reported in the result; cancellation of ctx stops scheduling and is
// returned alongside the grades finished so far.
func (s *submissionService) gradeAnswers(ctx context.Context, questions map[uint]*model.Question, answers []model.Answer) (map[int]gradeResult, error) {
	results := make([]*gradeResult, len(answers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(gradingConcurrency)
	for i := range answers {
		if answers[i].QuestionType != model.QuestionTypeText {
			continue
		}
		i := i
		question := questions[answers[i].QuestionID]
		answerText := answers[i].AnswerText
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			feedback, score, err := s.grader.Grade(gctx, question, answerText)
			results[i] = &gradeResult{feedback: feedback, score: score, err: err}
			return nil
		})
	}
	err := g.Wait()
	out := make(map[int]gradeResult, len(answers))
	for i, r := range results {
		if r != nil {
			out[i] = *r
		}
	}
	return out, err
}

// applyGrades stores grader output and derives the submission status.
func (s *submissionService) applyGrades(ctx context.Context, answers []model.Answer, results map[int]gradeResult) (model.SubmissionStatus, *float64) {
	if len(results) == 0 {
		return model.SubmissionCompleted, nil
	}

	var total float64
	graded, disabled, failed := 0, 0, 0
	for i, r := range results {
		answer := &answers[i]
		switch {
		case r.err == nil:
			score := r.score
			answer.AIFeedback = r.feedback
			answer.AIScore = &score
			total += score
			graded++
		case errors.Is(r.err, ErrGraderDisabled):
			disabled++
			continue
		default:
			log.Warn().Err(r.err).Uint("answerID", answer.ID).Msg("grading failed")
			answer.AIFeedback = r.feedback
			failed++
		}
		if err := s.answerRepo.UpdateGrade(ctx, answer); err != nil {
			log.Error().Err(err).Uint("answerID", answer.ID).Msg("failed to store grade")
			failed++
		}
	}

	var totalPtr *float64
	if graded > 0 {
		totalPtr = &total
	}
	switch {
	case disabled == len(results):
		return model.SubmissionUngraded, nil
	case failed > 0 || disabled > 0:
		return model.SubmissionCompletedWithErrors, totalPtr
	default:
		return model.SubmissionCompleted, totalPtr
	}
}

func (s *submissionService) Get(ctx context.Context, viewer *auth.Viewer, id uint) (*dto.SubmissionDetailDTO, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	submission, err := s.submissionRepo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundOr(err, "submission", id)
	}
	if submission.UserID != viewer.ID && !viewer.IsAdmin {
		return nil, apperr.Forbidden("you can only view your own submissions")
	}
	return s.toDetail(submission), nil
}

func (s *submissionService) ListMine(ctx context.Context, viewer *auth.Viewer, assessmentID uint) ([]dto.SubmissionSummaryDTO, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	if _, err := s.assessmentRepo.FindByID(ctx, assessmentID); err != nil {
		return nil, apperr.NotFoundOr(err, "assessment", assessmentID)
	}
	submissions, err := s.submissionRepo.FindAllByAssessmentAndUser(ctx, assessmentID, viewer.ID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	out := make([]dto.SubmissionSummaryDTO, 0, len(submissions))
	for i := range submissions {
		out = append(out, dto.NewSubmissionSummary(&submissions[i]))
	}
	return out, nil
}

func (s *submissionService) detail(ctx context.Context, id uint) (*dto.SubmissionDetailDTO, error) {
	submission, err := s.submissionRepo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload submission %d: %w", id, err)
	}
	return s.toDetail(submission), nil
}

func (s *submissionService) toDetail(submission *model.Submission) *dto.SubmissionDetailDTO {
	resp := dto.NewSubmissionDetail(submission)
	if submission.TotalScore == nil {
		return &resp
	}
	var maxScore float64
	for _, a := range submission.Answers {
		if a.AIScore != nil && a.Question != nil {
			maxScore += a.Question.MaxPoint
		}
	}
	if maxScore <= 0 {
		return &resp
	}
	resp.MaxScore = &maxScore
	percent, err := s.scoreConverter.ToPercent(*submission.TotalScore, maxScore)
	if err != nil {
		log.Warn().Err(err).Uint("submissionID", submission.ID).Msg("could not convert score")
		return &resp
	}
	resp.ScorePercent = &percent
	return &resp
}

// normalizeAnswer validates an answer against its question and returns the
// stored form: trimmed text, a choice index, or sorted distinct indexes.
func normalizeAnswer(question *model.Question, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("answer must not be blank")
	}
	if !question.HasOptionType() {
		if len([]rune(raw)) > answerTextLimit {
			return "", fmt.Errorf("answer is longer than %d characters", answerTextLimit)
		}
		return raw, nil
	}

	valid := make(map[uint]bool, len(question.Choices))
	for _, c := range question.Choices {
		valid[c.Index] = true
	}
	parts := strings.Split(raw, ",")
	if question.Type == model.QuestionTypeChoice && len(parts) != 1 {
		return "", fmt.Errorf("exactly one choice index expected")
	}
	picked := make(map[uint]bool, len(parts))
	indexes := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return "", fmt.Errorf("%q is not a choice index", strings.TrimSpace(p))
		}
		idx := uint(n)
		if !valid[idx] {
			return "", fmt.Errorf("choice %d does not exist for question %d", idx, question.ID)
		}
		if picked[idx] {
			continue
		}
		picked[idx] = true
		indexes = append(indexes, int(idx))
	}
	sort.Ints(indexes)
	out := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, strconv.Itoa(idx))
	}
	return strings.Join(out, ","), nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
