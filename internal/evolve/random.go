package evolve

import "math/rand/v2"

// Source is the single stream of uniform random values a run draws from.
// Every selection, crossover and mutation decision goes through it, so a
// seeded Source makes a run reproducible.
type Source interface {
	// Float64 returns a value in [0,1).
	Float64() float64
	// IntN returns a value in [0,n). n must be positive.
	IntN(n int) int
}

// NewSource returns a PCG-backed Source for the given seed.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
