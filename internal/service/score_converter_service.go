package service

import (
	"fmt"
	"math"
)

// ScoreConverterService turns a raw submission total into a percentage of
// the points available for the graded answers.
type ScoreConverterService interface {
	ToPercent(rawScore, maxScore float64) (float64, error)
}

type scoreConverterServiceImpl struct{}

func NewScoreConverterService() ScoreConverterService {
	return &scoreConverterServiceImpl{}
}

// ToPercent rounds to one decimal place.
func (s *scoreConverterServiceImpl) ToPercent(rawScore, maxScore float64) (float64, error) {
	if maxScore <= 0 {
		return 0, fmt.Errorf("max score %.2f must be positive", maxScore)
	}
	if rawScore < 0 || rawScore > maxScore {
		return 0, fmt.Errorf("raw score %.2f is out of valid range (0-%.2f)", rawScore, maxScore)
	}
	return math.Round(rawScore/maxScore*1000) / 10, nil
}
