package service

import (
	"math/rand"

	"github.com/google/uuid"
)

// SelectQuestions draws count distinct question ids without replacement
// from the pool. With shuffle the draw and the resulting order are
// randomized; without it the pool's position order is kept. The result is
// frozen into the session's question order and never recomputed — later
// pool changes must not alter an in-progress session.
//
// A nil rng falls back to the global math/rand source.
func SelectQuestions(pool []uuid.UUID, count int, shuffle bool, rng *rand.Rand) ([]uuid.UUID, error) {
	if len(pool) < count {
		return nil, ErrInsufficientPool
	}

	if !shuffle {
		selected := make([]uuid.UUID, count)
		copy(selected, pool[:count])
		return selected, nil
	}

	perm := randPerm(len(pool), rng)
	selected := make([]uuid.UUID, 0, count)
	for _, idx := range perm[:count] {
		selected = append(selected, pool[idx])
	}
	return selected, nil
}

func randPerm(n int, rng *rand.Rand) []int {
	if rng != nil {
		return rng.Perm(n)
	}
	return rand.Perm(n)
}
