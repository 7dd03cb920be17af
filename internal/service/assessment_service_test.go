package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lshigami/Materia/internal/apperr"
	"github.com/lshigami/Materia/internal/auth"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/lshigami/Materia/internal/model"
	"github.com/lshigami/Materia/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func surveyRequest() dto.AssessmentCreateDTO {
	return dto.AssessmentCreateDTO{
		Title:       "Onboarding",
		Description: "How did it go?",
		Questions: []dto.QuestionCreateDTO{
			{Type: "TEXT", Text: "Describe your first week", MaxPoint: ptr(10.0)},
			{Type: "choice", Text: "Pick a team", Choices: []dto.ChoiceCreateDTO{
				{Index: 1, Text: "Platform"}, {Index: 2, Text: "Product"},
			}},
			{Type: "MULTIPLE_CHOICE", Text: "Which tools do you use?", Choices: []dto.ChoiceCreateDTO{
				{Index: 3, Text: "Go"}, {Index: 1, Text: "Postgres"}, {Index: 2, Text: "Redis"},
			}},
		},
	}
}

func TestCreateAssessment(t *testing.T) {
	f := newFixture(t)
	resp, err := f.assessments.Create(ctx, surveyRequest())
	require.NoError(t, err)
	require.Len(t, resp.Questions, 3)

	text, choice, multi := resp.Questions[0], resp.Questions[1], resp.Questions[2]
	assert.Equal(t, "TEXT", text.Type)
	assert.False(t, text.HasOptionType)
	assert.Equal(t, 10.0, text.MaxPoint)
	assert.Equal(t, "CHOICE", choice.Type)
	assert.True(t, choice.HasOptionType)
	assert.Equal(t, 1.0, choice.MaxPoint)
	require.Len(t, multi.Choices, 3)
	assert.Equal(t, []uint{1, 2, 3}, []uint{multi.Choices[0].Index, multi.Choices[1].Index, multi.Choices[2].Index})

	list, total, err := f.assessments.List(ctx, repository.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].QuestionCount)
}

func TestCreateAssessmentValidation(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*dto.AssessmentCreateDTO)
		field string
	}{
		{"unknown type", func(r *dto.AssessmentCreateDTO) { r.Questions[0].Type = "ESSAY" }, "questions[0].type"},
		{"choice without options", func(r *dto.AssessmentCreateDTO) { r.Questions[1].Choices = nil }, "questions[1].choices"},
		{"text with options", func(r *dto.AssessmentCreateDTO) {
			r.Questions[0].Choices = []dto.ChoiceCreateDTO{{Index: 1, Text: "x"}}
		}, "questions[0].choices"},
		{"repeated index", func(r *dto.AssessmentCreateDTO) { r.Questions[2].Choices[1].Index = 3 }, "questions[2].choices"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			req := surveyRequest()
			tc.edit(&req)
			_, err := f.assessments.Create(ctx, req)
			appErr, ok := apperr.From(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, apperr.KindValidation, appErr.Kind)
			assert.Equal(t, tc.field, appErr.Field)
		})
	}
}

func TestDeleteAssessmentAndQuestion(t *testing.T) {
	f := newFixture(t)
	resp, err := f.assessments.Create(ctx, surveyRequest())
	require.NoError(t, err)

	require.NoError(t, f.assessments.DeleteQuestion(ctx, resp.Questions[1].ID))
	got, err := f.assessments.Get(ctx, resp.ID)
	require.NoError(t, err)
	assert.Len(t, got.Questions, 2)
	assert.True(t, apperr.Is(f.assessments.DeleteQuestion(ctx, resp.Questions[1].ID), apperr.KindNotFound))

	require.NoError(t, f.assessments.Delete(ctx, resp.ID))
	_, err = f.assessments.Get(ctx, resp.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.True(t, apperr.Is(f.assessments.Delete(ctx, resp.ID), apperr.KindNotFound))
}

func answersFor(a *dto.AssessmentResponseDTO, text, choice, multi string) dto.SubmissionCreateDTO {
	return dto.SubmissionCreateDTO{Answers: []dto.AnswerSubmitDTO{
		{QuestionID: a.Questions[0].ID, Answer: text},
		{QuestionID: a.Questions[1].ID, Answer: choice},
		{QuestionID: a.Questions[2].ID, Answer: multi},
	}}
}

func TestSubmitGradesTextAnswers(t *testing.T) {
	f := newFixture(t)
	student := f.register(t, "student")
	a, err := f.assessments.Create(ctx, surveyRequest())
	require.NoError(t, err)
	f.grader.grade = func(q *model.Question, answer string) (string, float64, error) {
		return "solid", 7.5, nil
	}

	detail, err := f.submissions.Submit(ctx, student, a.ID, answersFor(a, "  It went well  ", "2", "3, 1,3"))
	require.NoError(t, err)
	assert.Equal(t, string(model.SubmissionCompleted), detail.Status)
	require.NotNil(t, detail.TotalScore)
	assert.Equal(t, 7.5, *detail.TotalScore)
	require.NotNil(t, detail.MaxScore)
	assert.Equal(t, 10.0, *detail.MaxScore)
	require.NotNil(t, detail.ScorePercent)
	assert.Equal(t, 75.0, *detail.ScorePercent)
	assert.Equal(t, "Onboarding", detail.AssessmentTitle)
	assert.EqualValues(t, 1, f.grader.calls.Load())

	require.Len(t, detail.Answers, 3)
	assert.Equal(t, "It went well", detail.Answers[0].AnswerText)
	assert.Equal(t, "solid", detail.Answers[0].AIFeedback)
	assert.Equal(t, "2", detail.Answers[1].AnswerText)
	assert.Nil(t, detail.Answers[1].AIScore)
	assert.Equal(t, "1,3", detail.Answers[2].AnswerText)

	mine, err := f.submissions.ListMine(ctx, student, a.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, detail.ID, mine[0].ID)
}

func TestSubmitValidatesAnswers(t *testing.T) {
	f := newFixture(t)
	student := f.register(t, "student")
	a, err := f.assessments.Create(ctx, surveyRequest())
	require.NoError(t, err)

	cases := []struct {
		name  string
		req   dto.SubmissionCreateDTO
		field string
	}{
		{"unknown choice", answersFor(a, "ok", "9", "1"), "answers[1].answer"},
		{"two picks for single choice", answersFor(a, "ok", "1,2", "1"), "answers[1].answer"},
		{"not an index", answersFor(a, "ok", "1", "one"), "answers[2].answer"},
		{"blank text", answersFor(a, "   ", "1", "1"), "answers[0].answer"},
		{"foreign question", dto.SubmissionCreateDTO{Answers: []dto.AnswerSubmitDTO{{QuestionID: 9999, Answer: "x"}}}, "answers[0].question_id"},
		{"answered twice", dto.SubmissionCreateDTO{Answers: []dto.AnswerSubmitDTO{
			{QuestionID: a.Questions[1].ID, Answer: "1"},
			{QuestionID: a.Questions[1].ID, Answer: "2"},
		}}, "answers[1].question_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.submissions.Submit(ctx, student, a.ID, tc.req)
			appErr, ok := apperr.From(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tc.field, appErr.Field)
		})
	}

	var n int64
	require.NoError(t, f.db.Model(&model.Submission{}).Count(&n).Error)
	assert.Zero(t, n, "rejected submissions must not be stored")

	_, err = f.submissions.Submit(ctx, nil, a.ID, answersFor(a, "ok", "1", "1"))
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	_, err = f.submissions.Submit(ctx, student, 9999, answersFor(a, "ok", "1", "1"))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSubmitStatuses(t *testing.T) {
	cases := []struct {
		name   string
		grade  func(*model.Question, string) (string, float64, error)
		status model.SubmissionStatus
		total  *float64
	}{
		{"grader disabled", func(*model.Question, string) (string, float64, error) {
			return "", 0, ErrGraderDisabled
		}, model.SubmissionUngraded, nil},
		{"grader failure", func(*model.Question, string) (string, float64, error) {
			return "", 0, errors.New("quota exceeded")
		}, model.SubmissionCompletedWithErrors, nil},
		{"graded", nil, model.SubmissionCompleted, ptr(10.0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			student := f.register(t, "student")
			a, err := f.assessments.Create(ctx, surveyRequest())
			require.NoError(t, err)
			f.grader.grade = tc.grade

			detail, err := f.submissions.Submit(ctx, student, a.ID, answersFor(a, "text", "1", "2"))
			require.NoError(t, err)
			assert.Equal(t, string(tc.status), detail.Status)
			assert.Equal(t, tc.total, detail.TotalScore)
		})
	}
}

func storedSubmission(t *testing.T, f *fixture) model.Submission {
	t.Helper()
	var sub model.Submission
	require.NoError(t, f.db.Preload("Answers").Order("id DESC").First(&sub).Error)
	return sub
}

func TestSubmitFinishesWhenCallerCancels(t *testing.T) {
	f := newFixture(t)
	student := f.register(t, "student")
	a, err := f.assessments.Create(ctx, surveyRequest())
	require.NoError(t, err)

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	f.grader.grade = func(q *model.Question, answer string) (string, float64, error) {
		cancel()
		return "fine", 6, nil
	}

	_, err = f.submissions.Submit(cctx, student, a.ID, answersFor(a, "text", "1", "2"))
	assert.ErrorIs(t, err, context.Canceled)

	sub := storedSubmission(t, f)
	assert.Equal(t, model.SubmissionCompleted, sub.Status)
	require.NotNil(t, sub.TotalScore)
	assert.Equal(t, 6.0, *sub.TotalScore)
	require.NotNil(t, sub.Answers[0].AIScore)
	assert.Equal(t, "fine", sub.Answers[0].AIFeedback)
}

func TestSubmitInterruptedGradingIsCompletedWithErrors(t *testing.T) {
	f := newFixture(t)
	student := f.register(t, "student")
	req := dto.AssessmentCreateDTO{Title: "Essay", Description: "long form"}
	for i := 0; i < gradingConcurrency+2; i++ {
		req.Questions = append(req.Questions, dto.QuestionCreateDTO{Type: "TEXT", Text: fmt.Sprintf("q%d", i), MaxPoint: ptr(2.0)})
	}
	a, err := f.assessments.Create(ctx, req)
	require.NoError(t, err)
	sub := dto.SubmissionCreateDTO{}
	for _, q := range a.Questions {
		sub.Answers = append(sub.Answers, dto.AnswerSubmitDTO{QuestionID: q.ID, Answer: "answer"})
	}

	// Every call cancels, so answers queued behind a busy slot never reach
	// the grader.
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	f.grader.grade = func(q *model.Question, answer string) (string, float64, error) {
		cancel()
		return "ok", q.MaxPoint, nil
	}

	_, err = f.submissions.Submit(cctx, student, a.ID, sub)
	assert.ErrorIs(t, err, context.Canceled)

	stored := storedSubmission(t, f)
	assert.Equal(t, model.SubmissionCompletedWithErrors, stored.Status)
	calls := int(f.grader.calls.Load())
	assert.Less(t, calls, len(a.Questions))
	require.NotNil(t, stored.TotalScore)
	assert.Equal(t, float64(2*calls), *stored.TotalScore)
}

func TestSubmitWithoutTextQuestionsIsCompleted(t *testing.T) {
	f := newFixture(t)
	student := f.register(t, "student")
	req := surveyRequest()
	req.Questions = req.Questions[1:]
	a, err := f.assessments.Create(ctx, req)
	require.NoError(t, err)

	detail, err := f.submissions.Submit(ctx, student, a.ID, dto.SubmissionCreateDTO{Answers: []dto.AnswerSubmitDTO{
		{QuestionID: a.Questions[0].ID, Answer: "1"},
	}})
	require.NoError(t, err)
	assert.Equal(t, string(model.SubmissionCompleted), detail.Status)
	assert.Nil(t, detail.TotalScore)
	assert.Zero(t, f.grader.calls.Load())
}

func TestSubmitGradesConcurrently(t *testing.T) {
	f := newFixture(t)
	student := f.register(t, "student")
	req := dto.AssessmentCreateDTO{Title: "Essay", Description: "long form"}
	for i := 0; i < 6; i++ {
		req.Questions = append(req.Questions, dto.QuestionCreateDTO{Type: "TEXT", Text: fmt.Sprintf("q%d", i), MaxPoint: ptr(2.0)})
	}
	a, err := f.assessments.Create(ctx, req)
	require.NoError(t, err)

	sub := dto.SubmissionCreateDTO{}
	for _, q := range a.Questions {
		sub.Answers = append(sub.Answers, dto.AnswerSubmitDTO{QuestionID: q.ID, Answer: "answer " + q.Text})
	}
	detail, err := f.submissions.Submit(ctx, student, a.ID, sub)
	require.NoError(t, err)
	assert.EqualValues(t, 6, f.grader.calls.Load())
	require.NotNil(t, detail.TotalScore)
	assert.Equal(t, 12.0, *detail.TotalScore)
	assert.Equal(t, 100.0, *detail.ScorePercent)
	for _, ans := range detail.Answers {
		require.NotNil(t, ans.AIScore)
		assert.Equal(t, 2.0, *ans.AIScore)
	}
}

func TestGetSubmissionOwnership(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "owner")
	other := f.register(t, "other")
	root := f.admin(t, "root")
	a, err := f.assessments.Create(ctx, surveyRequest())
	require.NoError(t, err)
	detail, err := f.submissions.Submit(ctx, owner, a.ID, answersFor(a, "text", "1", "1"))
	require.NoError(t, err)

	_, err = f.submissions.Get(ctx, other, detail.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = f.submissions.Get(ctx, nil, detail.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	_, err = f.submissions.Get(ctx, owner, 9999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	for _, v := range []*auth.Viewer{owner, root} {
		got, err := f.submissions.Get(ctx, v, detail.ID)
		require.NoError(t, err)
		assert.Equal(t, detail.ID, got.ID)
		assert.Len(t, got.Answers, 3)
	}

	mine, err := f.submissions.ListMine(ctx, other, a.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}
