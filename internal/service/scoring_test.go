package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lumilearn/assess-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func answersWithCorrect(correct, total int) []model.AssessmentAnswer {
	answers := make([]model.AssessmentAnswer, 0, total)
	for i := 0; i < total; i++ {
		a := model.AssessmentAnswer{QuestionID: uuid.New()}
		if i < correct {
			a.IsCorrect = boolPtr(true)
		} else if i%2 == 0 {
			a.IsCorrect = boolPtr(false) // answered wrong
		} // else left unanswered
		answers = append(answers, a)
	}
	return answers
}

func TestScoreValueBounds(t *testing.T) {
	for total := 0; total <= 20; total++ {
		for correct := 0; correct <= total; correct++ {
			s := scoreValue(correct, total)
			assert.GreaterOrEqual(t, s, 0, "correct=%d total=%d", correct, total)
			assert.LessOrEqual(t, s, 100, "correct=%d total=%d", correct, total)
		}
	}
	assert.Equal(t, 0, scoreValue(0, 5))
	assert.Equal(t, 100, scoreValue(5, 5))
	assert.Equal(t, 0, scoreValue(3, 0), "empty total scores zero")
}

func TestScoreValueMonotonic(t *testing.T) {
	const total = 13
	prev := -1
	for correct := 0; correct <= total; correct++ {
		s := scoreValue(correct, total)
		assert.GreaterOrEqual(t, s, prev)
		prev = s
	}
}

func TestScoreAnswersPassFail(t *testing.T) {
	// 4/5 correct => 80, passes at threshold 70.
	sum := ScoreAnswers(answersWithCorrect(4, 5))
	assert.Equal(t, 80, sum.Score)
	assert.Equal(t, 4, sum.CorrectCount)
	assert.Equal(t, 5, sum.TotalCount)
	assert.True(t, Passed(sum.Score, 70))

	// 3/5 correct => 60, fails at threshold 70.
	sum = ScoreAnswers(answersWithCorrect(3, 5))
	assert.Equal(t, 60, sum.Score)
	assert.False(t, Passed(sum.Score, 70))
}

func TestScoreAnswersUnansweredCountIncorrect(t *testing.T) {
	answers := []model.AssessmentAnswer{
		{QuestionID: uuid.New(), IsCorrect: boolPtr(true)},
		{QuestionID: uuid.New()}, // never answered
		{QuestionID: uuid.New()}, // never answered
		{QuestionID: uuid.New(), IsCorrect: boolPtr(false)},
	}
	sum := ScoreAnswers(answers)
	assert.Equal(t, 1, sum.CorrectCount)
	assert.Equal(t, 4, sum.TotalCount)
	assert.Equal(t, 25, sum.Score)
}

func TestScoreRounding(t *testing.T) {
	// 1/3 = 33.33 rounds down; 2/3 = 66.67 rounds up.
	assert.Equal(t, 33, scoreValue(1, 3))
	assert.Equal(t, 67, scoreValue(2, 3))
	// 1/8 = 12.5 rounds half away from zero.
	assert.Equal(t, 13, scoreValue(1, 8))
}

func TestPercentileSingleSessionCohort(t *testing.T) {
	pct, rank := Percentile(60, []int{60})
	assert.Equal(t, 100, pct)
	assert.Equal(t, 1, rank)
}

func TestPercentileEmptyCohort(t *testing.T) {
	pct, rank := Percentile(80, nil)
	assert.Equal(t, 0, pct)
	assert.Equal(t, 0, rank)
}

func TestPercentileMidCohort(t *testing.T) {
	cohort := []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

	pct, rank := Percentile(50, cohort)
	assert.Equal(t, 5, rank)
	assert.Equal(t, 50, pct)

	pct, rank = Percentile(100, cohort)
	assert.Equal(t, 10, rank)
	assert.Equal(t, 100, pct)

	// Below everyone: only its own-equal scores count, here none below 10.
	pct, rank = Percentile(5, cohort)
	assert.Equal(t, 0, rank)
	assert.Equal(t, 0, pct)
}

func TestPercentileWithTies(t *testing.T) {
	cohort := []int{70, 70, 70, 90}
	pct, rank := Percentile(70, cohort)
	assert.Equal(t, 3, rank)
	assert.Equal(t, 75, pct)
}
