package service

import (
	"context"
	"errors"
	"testing"

	"github.com/lshigami/Materia/config"
	"github.com/lshigami/Materia/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGrade(t *testing.T) {
	feedback, score, err := parseGrade("Score: 4.5\nFeedback:\nClear and relevant.\nCould add an example.", 5)
	require.NoError(t, err)
	assert.Equal(t, 4.5, score)
	assert.Equal(t, "Clear and relevant.\nCould add an example.", feedback)

	_, score, err = parseGrade("Score: 12 points\nFeedback: too generous", 10)
	require.NoError(t, err)
	assert.Equal(t, 10.0, score, "clamped to max")

	_, score, err = parseGrade("Score: -3\nFeedback: harsh", 10)
	require.NoError(t, err)
	assert.Zero(t, score)

	feedback, _, err = parseGrade("I refuse to grade this.", 10)
	assert.Error(t, err)
	assert.Equal(t, "I refuse to grade this.", feedback)

	_, _, err = parseGrade("Score: excellent\nFeedback: nice", 10)
	assert.Error(t, err)

	feedback, score, err = parseGrade("Score: NaN\nFeedback: ok", 5)
	assert.Error(t, err)
	assert.Zero(t, score)
	assert.Equal(t, "ok", feedback)

	_, score, err = parseGrade("Score: +Inf\nFeedback: wow", 5)
	require.NoError(t, err)
	assert.Equal(t, 5.0, score)
}

func TestBuildGradingPrompt(t *testing.T) {
	prompt := buildGradingPrompt("Why Go?", "Because of goroutines", 3)
	assert.Contains(t, prompt, "Why Go?")
	assert.Contains(t, prompt, "Because of goroutines")
	assert.Contains(t, prompt, "0.0 to 3.0")
}

func TestGraderDisabledWithoutKey(t *testing.T) {
	cfg := &config.Config{}
	g, closeFn, err := NewGeminiGrader(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, closeFn)
	defer closeFn()

	_, _, err = g.Grade(context.Background(), &model.Question{Type: model.QuestionTypeText, Text: "q", MaxPoint: 1}, "a")
	assert.True(t, errors.Is(err, ErrGraderDisabled))
}

func TestNormalizeAnswer(t *testing.T) {
	choice := &model.Question{ID: 1, Type: model.QuestionTypeChoice, Choices: []model.Choice{{Index: 0}, {Index: 1}}}
	multi := &model.Question{ID: 2, Type: model.QuestionTypeMultipleChoice, Choices: []model.Choice{{Index: 1}, {Index: 2}, {Index: 5}}}
	text := &model.Question{ID: 3, Type: model.QuestionTypeText}

	got, err := normalizeAnswer(choice, " 0 ")
	require.NoError(t, err)
	assert.Equal(t, "0", got)

	got, err = normalizeAnswer(multi, "5, 1,5")
	require.NoError(t, err)
	assert.Equal(t, "1,5", got)

	got, err = normalizeAnswer(text, "  free form  ")
	require.NoError(t, err)
	assert.Equal(t, "free form", got)

	for _, tc := range []struct {
		q   *model.Question
		raw string
	}{
		{choice, "0,1"},
		{choice, "7"},
		{multi, "1,,2"},
		{multi, "x"},
		{text, ""},
	} {
		_, err := normalizeAnswer(tc.q, tc.raw)
		assert.Error(t, err, "%s %q", tc.q.Type, tc.raw)
	}
}

func TestScoreConverter(t *testing.T) {
	sc := NewScoreConverterService()

	got, err := sc.ToPercent(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 66.7, got)

	_, err = sc.ToPercent(1, 0)
	assert.Error(t, err)
	_, err = sc.ToPercent(4, 3)
	assert.Error(t, err)
}
