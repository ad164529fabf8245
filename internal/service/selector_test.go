package service

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePool(n int) []uuid.UUID {
	pool := make([]uuid.UUID, n)
	for i := range pool {
		pool[i] = uuid.New()
	}
	return pool
}

func TestSelectQuestionsInsufficientPool(t *testing.T) {
	pool := makePool(3)
	_, err := SelectQuestions(pool, 5, false, nil)
	assert.ErrorIs(t, err, ErrInsufficientPool)
}

func TestSelectQuestionsKeepsPositionOrder(t *testing.T) {
	pool := makePool(10)
	selected, err := SelectQuestions(pool, 4, false, nil)
	require.NoError(t, err)
	assert.Equal(t, pool[:4], selected)
}

func TestSelectQuestionsShuffleIsDistinctSubset(t *testing.T) {
	pool := makePool(20)
	rng := rand.New(rand.NewSource(42))

	selected, err := SelectQuestions(pool, 10, true, rng)
	require.NoError(t, err)
	require.Len(t, selected, 10)

	inPool := make(map[uuid.UUID]bool, len(pool))
	for _, id := range pool {
		inPool[id] = true
	}
	seen := make(map[uuid.UUID]bool, len(selected))
	for _, id := range selected {
		assert.True(t, inPool[id], "selected id must come from the pool")
		assert.False(t, seen[id], "no id may be drawn twice")
		seen[id] = true
	}
}

func TestSelectQuestionsShuffleDeterministicPerSeed(t *testing.T) {
	pool := makePool(15)

	a, err := SelectQuestions(pool, 15, true, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	b, err := SelectQuestions(pool, 15, true, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSelectQuestionsExactPoolSize(t *testing.T) {
	pool := makePool(5)
	selected, err := SelectQuestions(pool, 5, false, nil)
	require.NoError(t, err)
	assert.Equal(t, pool, selected)

	// Mutating the returned slice must not touch the pool.
	selected[0] = uuid.New()
	assert.NotEqual(t, selected[0], pool[0])
}
