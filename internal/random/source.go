package random

import (
	"math/rand/v2"
	"sync"
)

// Source picks indexes uniformly at random.
type Source interface {
	// IntN returns a value in [0, n). n must be positive.
	IntN(n int) int
}

// lockedSource serializes access to a PCG generator; tool calls run
// concurrently.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource returns a deterministic source for seed.
func NewSource(seed uint64) Source {
	return &lockedSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewSeededSource returns a source seeded from crypto/rand.
func NewSeededSource() (Source, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewSource(seed), nil
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
