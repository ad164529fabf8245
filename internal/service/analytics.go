package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/lumilearn/assess-backend/internal/model"
)

// trendAttemptCap bounds how many attempt numbers the trend reports.
const trendAttemptCap = 10

// discriminationMinCohort is the smallest finalized cohort for which the
// discrimination index is computed at all.
const discriminationMinCohort = 4

// ScoreDistribution buckets scores into ten fixed-width bands. A score of
// exactly 100 lands in the last bucket rather than an eleventh.
func ScoreDistribution(scores []int) []model.ScoreBucket {
	buckets := make([]model.ScoreBucket, 10)
	for i := range buckets {
		buckets[i].Min = i * 10
		buckets[i].Max = i*10 + 9
		buckets[i].Label = fmt.Sprintf("%d-%d", buckets[i].Min, buckets[i].Max)
	}
	buckets[9].Max = 100
	buckets[9].Label = "90-100"

	for _, s := range scores {
		idx := s / 10
		if idx > 9 {
			idx = 9
		}
		if idx < 0 {
			idx = 0
		}
		buckets[idx].Count++
	}
	return buckets
}

// MedianScore returns the standard median, averaging the two middle values
// for even-sized samples. Nil when the sample is empty.
func MedianScore(scores []int) *float64 {
	if len(scores) == 0 {
		return nil
	}
	sorted := make([]int, len(scores))
	copy(sorted, scores)
	sort.Ints(sorted)

	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = float64(sorted[mid-1]+sorted[mid]) / 2
	} else {
		median = float64(sorted[mid])
	}
	return &median
}

// CompletionRate is the share of started sessions that ended via explicit
// completion, expressed 0-100. Zero when nothing started.
func CompletionRate(completedCount, totalStartedCount int) float64 {
	if totalStartedCount <= 0 {
		return 0
	}
	return 100 * float64(completedCount) / float64(totalStartedCount)
}

// CohortMember is one finalized session reduced to what the discrimination
// index needs: its score and, per question, whether the answer was correct.
// Questions never answered are absent from the map.
type CohortMember struct {
	Score   int
	Answers map[uuid.UUID]bool
}

// DiscriminationIndices computes the discrimination index for each question:
// the correct rate of the top 27% of the cohort by score minus that of the
// bottom 27%, rounded to two decimals. Requires a finalized cohort of at
// least four; a question with no answers in either group gets a nil index.
func DiscriminationIndices(cohort []CohortMember, questionIDs []uuid.UUID) map[uuid.UUID]*float64 {
	indices := make(map[uuid.UUID]*float64, len(questionIDs))
	for _, qid := range questionIDs {
		indices[qid] = nil
	}
	if len(cohort) < discriminationMinCohort {
		return indices
	}

	sorted := make([]CohortMember, len(cohort))
	copy(sorted, cohort)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	groupSize := int(math.Round(0.27 * float64(len(sorted))))
	if groupSize < 1 {
		groupSize = 1
	}
	top := sorted[:groupSize]
	bottom := sorted[len(sorted)-groupSize:]

	for _, qid := range questionIDs {
		topRate, topOK := correctRate(top, qid)
		bottomRate, bottomOK := correctRate(bottom, qid)
		if !topOK || !bottomOK {
			continue
		}
		index := math.Round((topRate-bottomRate)*100) / 100
		indices[qid] = &index
	}
	return indices
}

// correctRate returns the group's correct rate for one question and whether
// the group had any answers to it at all.
func correctRate(group []CohortMember, questionID uuid.UUID) (float64, bool) {
	answered, correct := 0, 0
	for _, m := range group {
		isCorrect, ok := m.Answers[questionID]
		if !ok {
			continue
		}
		answered++
		if isCorrect {
			correct++
		}
	}
	if answered == 0 {
		return 0, false
	}
	return float64(correct) / float64(answered), true
}

// trendSession is one finalized session reduced to trend inputs.
type trendSession struct {
	CandidateID int
	Score       int
}

// ScoreTrend averages the Nth attempt's score across all candidates who have
// an Nth attempt, for N up to a fixed cap. Input sessions must be in
// chronological order; attempt numbers are assigned per candidate.
func ScoreTrend(sessions []trendSession) []model.TrendPoint {
	attemptSums := make(map[int]float64)
	attemptCounts := make(map[int]int)
	perCandidate := make(map[int]int)

	for _, s := range sessions {
		perCandidate[s.CandidateID]++
		attempt := perCandidate[s.CandidateID]
		if attempt > trendAttemptCap {
			continue
		}
		attemptSums[attempt] += float64(s.Score)
		attemptCounts[attempt]++
	}

	var trend []model.TrendPoint
	for n := 1; n <= trendAttemptCap; n++ {
		count, ok := attemptCounts[n]
		if !ok {
			break
		}
		trend = append(trend, model.TrendPoint{
			AttemptNumber: n,
			AverageScore:  attemptSums[n] / float64(count),
			Candidates:    count,
		})
	}
	return trend
}
