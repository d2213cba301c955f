package opt

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// minPopulation is the smallest swarm mayfly accepts
const minPopulation = 20

// MayflyAdapter wraps the external Mayfly library to conform to our Optimizer interface
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a new Mayfly optimizer adapter. popSize is raised to
// the library minimum when smaller.
func NewMayfly(maxIters, popSize int, seed int64) Optimizer {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  max(popSize, minPopulation),
		seed:     seed,
	}
}

// Run executes the Mayfly optimization using the external library
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	if dim <= 0 || len(lower) < dim || len(upper) < dim {
		slog.Warn("Mayfly called with inconsistent bounds", "dim", dim, "lower", len(lower), "upper", len(upper))
		return nil, math.Inf(1)
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = eval
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize

	// The library takes scalar bounds; use the envelope of the per-dimension ones
	lo, hi := lower[0], upper[0]
	for i := 1; i < dim; i++ {
		lo = math.Min(lo, lower[i])
		hi = math.Max(hi, upper[i])
	}
	config.LowerBound = lo
	config.UpperBound = hi

	// Set random seed for reproducibility
	config.Rand = rand.New(rand.NewSource(m.seed))

	slog.Debug("Starting mayfly", "dim", dim, "iterations", m.maxIters, "population", m.popSize)

	result, err := mayfly.Optimize(config)
	if err != nil {
		slog.Warn("Mayfly optimization failed", "error", err)
		return nil, math.Inf(1)
	}

	return result.GlobalBest.Position, result.GlobalBest.Cost
}
