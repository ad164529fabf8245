package service

import (
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreDistributionBuckets(t *testing.T) {
	buckets := ScoreDistribution([]int{0, 5, 9, 10, 55, 89, 90, 99, 100, 100})
	require.Len(t, buckets, 10)

	assert.Equal(t, 3, buckets[0].Count, "0, 5, 9")
	assert.Equal(t, 1, buckets[1].Count, "10")
	assert.Equal(t, 1, buckets[5].Count, "55")
	assert.Equal(t, 1, buckets[8].Count, "89")
	assert.Equal(t, 4, buckets[9].Count, "90, 99, 100, 100 share the last bucket")

	assert.Equal(t, "90-100", buckets[9].Label)
	assert.Equal(t, 100, buckets[9].Max)
}

func TestScoreDistributionEmpty(t *testing.T) {
	buckets := ScoreDistribution(nil)
	require.Len(t, buckets, 10)
	for _, b := range buckets {
		assert.Zero(t, b.Count)
	}
}

func TestMedianScore(t *testing.T) {
	assert.Nil(t, MedianScore(nil))

	m := MedianScore([]int{80})
	require.NotNil(t, m)
	assert.Equal(t, 80.0, *m)

	m = MedianScore([]int{10, 30, 20})
	require.NotNil(t, m)
	assert.Equal(t, 20.0, *m)

	// Even-sized sample averages the two middle values.
	m = MedianScore([]int{10, 20, 30, 40})
	require.NotNil(t, m)
	assert.Equal(t, 25.0, *m)
}

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 0.0, CompletionRate(0, 0))
	assert.Equal(t, 100.0, CompletionRate(4, 4))
	assert.Equal(t, 50.0, CompletionRate(2, 4))
}

func TestDiscriminationPerfectSplit(t *testing.T) {
	// Ten-member cohort: the top-scoring three all answer Q correctly, the
	// bottom three all answer it incorrectly. 27% of 10 rounds to 3.
	q := uuid.New()
	cohort := make([]CohortMember, 0, 10)
	for i := 0; i < 10; i++ {
		score := 100 - i*10 // 100, 90, ..., 10
		correct := i < 3    // slice is built in descending score order
		cohort = append(cohort, CohortMember{
			Score:   score,
			Answers: map[uuid.UUID]bool{q: correct},
		})
	}

	indices := DiscriminationIndices(cohort, []uuid.UUID{q})
	require.NotNil(t, indices[q])
	assert.Equal(t, 1.0, *indices[q])
}

func TestDiscriminationSmallCohortIsNil(t *testing.T) {
	q := uuid.New()
	cohort := []CohortMember{
		{Score: 90, Answers: map[uuid.UUID]bool{q: true}},
		{Score: 50, Answers: map[uuid.UUID]bool{q: false}},
		{Score: 10, Answers: map[uuid.UUID]bool{q: false}},
	}
	indices := DiscriminationIndices(cohort, []uuid.UUID{q})
	assert.Nil(t, indices[q], "cohorts under four members get no index")
}

func TestDiscriminationMissingAnswersIsNil(t *testing.T) {
	q := uuid.New()
	cohort := make([]CohortMember, 0, 8)
	for i := 0; i < 8; i++ {
		answers := map[uuid.UUID]bool{}
		if i >= 4 {
			answers[q] = false // only the bottom half ever answered Q
		}
		cohort = append(cohort, CohortMember{Score: 100 - i*10, Answers: answers})
	}
	indices := DiscriminationIndices(cohort, []uuid.UUID{q})
	assert.Nil(t, indices[q], "a group with no answers yields no index")
}

func TestDiscriminationUnorderedInput(t *testing.T) {
	// The function sorts internally; input order must not matter.
	q := uuid.New()
	cohort := make([]CohortMember, 0, 10)
	for i := 0; i < 10; i++ {
		cohort = append(cohort, CohortMember{
			Score:   (i*37 + 10) % 100,
			Answers: map[uuid.UUID]bool{q: i%2 == 0},
		})
	}
	first := DiscriminationIndices(cohort, []uuid.UUID{q})

	shuffled := make([]CohortMember, len(cohort))
	copy(shuffled, cohort)
	sort.Slice(shuffled, func(i, j int) bool { return shuffled[i].Score < shuffled[j].Score })
	second := DiscriminationIndices(shuffled, []uuid.UUID{q})

	require.NotNil(t, first[q])
	require.NotNil(t, second[q])
	assert.Equal(t, *first[q], *second[q])
}

func TestScoreTrend(t *testing.T) {
	// Candidate 1: attempts scoring 40 then 70. Candidate 2: a single 60.
	sessions := []trendSession{
		{CandidateID: 1, Score: 40},
		{CandidateID: 2, Score: 60},
		{CandidateID: 1, Score: 70},
	}
	trend := ScoreTrend(sessions)
	require.Len(t, trend, 2)

	assert.Equal(t, 1, trend[0].AttemptNumber)
	assert.Equal(t, 50.0, trend[0].AverageScore)
	assert.Equal(t, 2, trend[0].Candidates)

	assert.Equal(t, 2, trend[1].AttemptNumber)
	assert.Equal(t, 70.0, trend[1].AverageScore)
	assert.Equal(t, 1, trend[1].Candidates)
}

func TestScoreTrendCapsAttempts(t *testing.T) {
	sessions := make([]trendSession, 0, 15)
	for i := 0; i < 15; i++ {
		sessions = append(sessions, trendSession{CandidateID: 1, Score: 50})
	}
	trend := ScoreTrend(sessions)
	assert.Len(t, trend, trendAttemptCap)
}

func TestScoreTrendEmpty(t *testing.T) {
	assert.Empty(t, ScoreTrend(nil))
}
