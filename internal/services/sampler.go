package services

import (
	"math/rand/v2"
	"sync"

	"commentlottery/internal/models"
)

// Sampler draws winners uniformly at random without replacement.
// It is safe for concurrent use.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler creates a Sampler seeded from the runtime random source.
func NewSampler() *Sampler {
	return NewSeededSampler(rand.Uint64(), rand.Uint64())
}

// NewSeededSampler creates a Sampler with a fixed seed, for reproducible draws.
func NewSeededSampler(seed1, seed2 uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// Sample draws min(k, participants.Len()) distinct names.
func (s *Sampler) Sample(participants *models.ParticipantSet, k int) models.WinnerList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Sample(participants.Names(), k, s.rng)
}

// Sample runs a partial Fisher-Yates shuffle over names and returns the
// first min(k, len(names)) picks in draw order. names is not modified.
func Sample(names []string, k int, rng *rand.Rand) models.WinnerList {
	n := len(names)
	if k <= 0 || n == 0 {
		return models.WinnerList{}
	}
	if k > n {
		k = n
	}

	pool := make([]string, n)
	copy(pool, names)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return models.WinnerList(pool[:k])
}
