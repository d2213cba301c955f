package fit

import (
	"log/slog"
	"math"
)

// ConvergenceConfig defines parameters for detecting a stalled evolution
type ConvergenceConfig struct {
	// Enabled controls whether convergence detection is active
	Enabled bool

	// Patience is the number of generations with no significant
	// improvement before the run is considered converged
	Patience int

	// Threshold is the minimum relative improvement required to count as progress.
	// Relative improvement = (newFitness - lastSignificant) / lastSignificant
	// Example: 0.0001 = 0.01% improvement required
	Threshold float64
}

// DefaultConvergenceConfig returns sensible defaults for convergence detection
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled:   true,
		Patience:  500,
		Threshold: 0.0001,
	}
}

// DisabledConvergenceConfig returns a config with convergence detection disabled
func DisabledConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled: false,
	}
}

// ConvergenceTracker tracks best fitness per generation and detects when
// it stops improving. Fitness is higher-is-better.
type ConvergenceTracker struct {
	config          ConvergenceConfig
	history         []float64
	bestFitness     float64 // Best fitness ever seen
	lastSignificant float64 // Last fitness that was a significant improvement
	staleCount      int     // Generations without significant improvement
}

// NewConvergenceTracker creates a new convergence tracker with the given config
func NewConvergenceTracker(config ConvergenceConfig) *ConvergenceTracker {
	return &ConvergenceTracker{
		config:          config,
		history:         []float64{},
		bestFitness:     math.Inf(-1),
		lastSignificant: math.Inf(-1),
	}
}

// Update records the best fitness of a generation and returns true if
// convergence is detected
func (c *ConvergenceTracker) Update(fitness float64) bool {
	if !c.config.Enabled {
		return false
	}

	c.history = append(c.history, fitness)

	if fitness > c.bestFitness {
		c.bestFitness = fitness
	}

	if len(c.history) == 1 {
		c.lastSignificant = fitness
		return false
	}

	relativeImprovement := relativeGain(c.lastSignificant, fitness)

	if relativeImprovement >= c.config.Threshold && relativeImprovement > 0 {
		c.lastSignificant = fitness
		c.staleCount = 0
		slog.Debug("Fitness improvement detected",
			"fitness", fitness,
			"relative_improvement", relativeImprovement,
		)
		return false
	}

	c.staleCount++
	if c.staleCount >= c.config.Patience {
		slog.Info("Convergence detected - stopping early",
			"stale_count", c.staleCount,
			"patience", c.config.Patience,
			"best_fitness", c.bestFitness,
		)
		return true
	}

	return false
}

// relativeGain guards against a zero baseline
func relativeGain(from, to float64) float64 {
	if from <= 0 {
		return to - from
	}
	return (to - from) / from
}

// BestFitness returns the best fitness seen so far
func (c *ConvergenceTracker) BestFitness() float64 {
	return c.bestFitness
}

// History returns the full fitness history
func (c *ConvergenceTracker) History() []float64 {
	return append([]float64{}, c.history...)
}

// StaleCount returns the current number of generations without improvement
func (c *ConvergenceTracker) StaleCount() int {
	return c.staleCount
}

// Reset clears the tracker's state
func (c *ConvergenceTracker) Reset() {
	c.history = []float64{}
	c.bestFitness = math.Inf(-1)
	c.lastSignificant = math.Inf(-1)
	c.staleCount = 0
}
