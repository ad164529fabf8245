package service

import (
	"math"

	"github.com/lumilearn/assess-backend/internal/model"
)

// ScoreSummary is the outcome of grading one session's answers.
type ScoreSummary struct {
	Score        int `json:"score"`
	CorrectCount int `json:"correct_count"`
	TotalCount   int `json:"total_count"`
}

// ScoreAnswers grades a session's answer rows. Unanswered questions count
// as incorrect; TotalCount is the number of rows (the frozen order length).
func ScoreAnswers(answers []model.AssessmentAnswer) ScoreSummary {
	correct := 0
	for _, a := range answers {
		if a.IsCorrect != nil && *a.IsCorrect {
			correct++
		}
	}
	return ScoreSummary{
		Score:        scoreValue(correct, len(answers)),
		CorrectCount: correct,
		TotalCount:   len(answers),
	}
}

// scoreValue computes round(100 * correct / total) with rounding half away
// from zero (math.Round). An empty total scores 0.
func scoreValue(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// Passed reports whether a score meets the assessment's pass threshold.
func Passed(score, passScore int) bool {
	return score >= passScore
}

// Percentile ranks a score within the cohort of finalized scores.
// The cohort includes the session's own score, so a single-session cohort
// yields percentile 100 and rank 1. Rank counts cohort scores at or below
// the given score; percentile is that count as a rounded share of the cohort.
func Percentile(score int, cohort []int) (percentile, rank int) {
	if len(cohort) == 0 {
		return 0, 0
	}
	atOrBelow := 0
	for _, s := range cohort {
		if s <= score {
			atOrBelow++
		}
	}
	percentile = int(math.Round(100 * float64(atOrBelow) / float64(len(cohort))))
	return percentile, atOrBelow
}
