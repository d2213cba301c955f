package opt

// Optimizer defines a box-bounded continuous minimizer
type Optimizer interface {
	// Run executes the optimization
	// eval: objective function to minimize
	// lower, upper: parameter bounds
	// dim: dimensionality of parameter space
	// Returns: best parameters and best cost. A nil slice means the
	// optimizer produced no usable candidate.
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64)
}
