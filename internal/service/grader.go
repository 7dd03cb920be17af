package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lshigami/Materia/config"
	"github.com/lshigami/Materia/internal/model"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// ErrGraderDisabled is returned by the grader when no API key is configured.
var ErrGraderDisabled = errors.New("answer grader is not configured")

// Grader scores a free-text answer against its question, from 0 to the
// question's max_point.
type Grader interface {
	Grade(ctx context.Context, question *model.Question, answer string) (feedback string, score float64, err error)
}

type geminiGrader struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiGrader returns a disabled grader when GEMINI_API_KEY is empty.
// The close func is never nil.
func NewGeminiGrader(ctx context.Context, cfg *config.Config) (Grader, func() error, error) {
	if cfg.Gemini.APIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. TEXT answers will be stored ungraded.")
		return disabledGrader{}, func() error { return nil }, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	gm := client.GenerativeModel(cfg.Gemini.Model)
	gm.SetTemperature(0.2)
	return &geminiGrader{client: client, model: gm}, client.Close, nil
}

type disabledGrader struct{}

func (disabledGrader) Grade(context.Context, *model.Question, string) (string, float64, error) {
	return "", 0, ErrGraderDisabled
}

func (g *geminiGrader) Grade(ctx context.Context, question *model.Question, answer string) (string, float64, error) {
	maxPoint := question.MaxPoint
	if maxPoint <= 0 {
		maxPoint = 1
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(buildGradingPrompt(question.Text, answer, maxPoint)))
	if err != nil {
		log.Error().Err(err).Uint("questionID", question.ID).Msg("Gemini API error during grading")
		return "", 0, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", 0, errors.New("gemini returned no content")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if text.Len() == 0 {
		return "", 0, errors.New("gemini returned no text content")
	}

	feedback, score, err := parseGrade(text.String(), maxPoint)
	if err != nil {
		log.Warn().Err(err).Str("rawResponse", text.String()).Msg("could not parse grader response")
		return feedback, 0, err
	}
	return feedback, score, nil
}

func buildGradingPrompt(questionText, answer string, maxPoint float64) string {
	var b strings.Builder
	b.WriteString("You are grading a short free-text answer to a survey question.\n\n")
	b.WriteString("Question:\n---\n")
	b.WriteString(questionText)
	b.WriteString("\n---\n\nAnswer:\n---\n")
	b.WriteString(answer)
	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, `Evaluate relevance, completeness and clarity of the answer.
Format your response strictly as:
Score: [a number from 0.0 to %.1f]
Feedback:
[two or three sentences of constructive feedback]
`, maxPoint)
	return b.String()
}

// parseGrade extracts "Score:" and "Feedback:" sections and clamps the score
// into [0, maxPoint].
func parseGrade(raw string, maxPoint float64) (string, float64, error) {
	const scorePrefix, feedbackPrefix = "Score:", "Feedback:"

	scoreIdx := strings.Index(raw, scorePrefix)
	if scoreIdx == -1 {
		return strings.TrimSpace(raw), 0, fmt.Errorf("response has no %q line", scorePrefix)
	}
	scoreLine := raw[scoreIdx+len(scorePrefix):]
	if nl := strings.IndexByte(scoreLine, '\n'); nl != -1 {
		scoreLine = scoreLine[:nl]
	}

	feedback := ""
	if fbIdx := strings.Index(raw, feedbackPrefix); fbIdx > scoreIdx {
		feedback = strings.TrimSpace(raw[fbIdx+len(feedbackPrefix):])
	}

	fields := strings.Fields(scoreLine)
	if len(fields) == 0 {
		return feedback, 0, fmt.Errorf("empty score in %q", strings.TrimSpace(scoreLine))
	}
	score, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], ","), 64)
	if err != nil {
		return feedback, 0, fmt.Errorf("score %q is not a number: %w", fields[0], err)
	}
	if math.IsNaN(score) {
		return feedback, 0, fmt.Errorf("score %q is not a number", fields[0])
	}
	if score > maxPoint {
		score = maxPoint
	}
	if score < 0 {
		score = 0
	}
	return feedback, score, nil
}
