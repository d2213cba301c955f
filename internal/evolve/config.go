package evolve

import "fmt"

// Config holds the parameters of one evolution run
type Config struct {
	PopulationSize int     `json:"population_size"`
	Genes          int     `json:"genes"`
	Vertices       int     `json:"vertices"`
	MutationRate   float64 `json:"mutation_rate"`

	// TournamentSize is the number of random draws per parent selection
	TournamentSize int `json:"tournament_size"`
	// CrossoverRate is the probability a child gene comes from the first parent
	CrossoverRate float64 `json:"crossover_rate"`
	// PositionFactor scales the vertex mutation step relative to the image extent
	PositionFactor float64 `json:"position_factor"`
	ColorStep      int     `json:"color_step"`
	AlphaStep      float64 `json:"alpha_step"`

	// TargetFitness ends the evolution once reached
	TargetFitness float64 `json:"target_fitness"`

	// Parallelism bounds concurrent offspring scoring. Values <= 1 score
	// sequentially.
	Parallelism int `json:"parallelism"`
}

// DefaultConfig returns the classic parameters: triangles, tournaments of
// ten and a 100% similarity target.
func DefaultConfig() Config {
	return Config{
		PopulationSize: 50,
		Genes:          50,
		Vertices:       3,
		MutationRate:   0.01,
		TournamentSize: 10,
		CrossoverRate:  0.5,
		PositionFactor: 0.1,
		ColorStep:      10,
		AlphaStep:      0.01,
		TargetFitness:  100,
		Parallelism:    1,
	}
}

// InvalidConfigurationError reports a parameter outside its domain
type InvalidConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%v: %s", e.Field, e.Value, e.Reason)
}

// Is allows errors.Is(err, ErrInvalidConfiguration) for any field
func (e *InvalidConfigurationError) Is(target error) bool {
	_, ok := target.(*InvalidConfigurationError)
	return ok
}

// ErrInvalidConfiguration is the sentinel for configuration errors
var ErrInvalidConfiguration = &InvalidConfigurationError{}

// Validate checks every parameter before a run is constructed
func (c Config) Validate() error {
	switch {
	case c.PopulationSize < 1:
		return &InvalidConfigurationError{Field: "population_size", Value: c.PopulationSize, Reason: "must be at least 1"}
	case c.Genes < 1:
		return &InvalidConfigurationError{Field: "genes", Value: c.Genes, Reason: "must be at least 1"}
	case c.Vertices < 3:
		return &InvalidConfigurationError{Field: "vertices", Value: c.Vertices, Reason: "must be at least 3"}
	case !(c.MutationRate >= 0 && c.MutationRate <= 1):
		return &InvalidConfigurationError{Field: "mutation_rate", Value: c.MutationRate, Reason: "must be in [0,1]"}
	case c.TournamentSize < 1:
		return &InvalidConfigurationError{Field: "tournament_size", Value: c.TournamentSize, Reason: "must be at least 1"}
	case !(c.CrossoverRate >= 0 && c.CrossoverRate <= 1):
		return &InvalidConfigurationError{Field: "crossover_rate", Value: c.CrossoverRate, Reason: "must be in [0,1]"}
	case !(c.PositionFactor >= 0 && c.PositionFactor <= 1):
		return &InvalidConfigurationError{Field: "position_factor", Value: c.PositionFactor, Reason: "must be in [0,1]"}
	case c.ColorStep < 0 || c.ColorStep > 255:
		return &InvalidConfigurationError{Field: "color_step", Value: c.ColorStep, Reason: "must be in [0,255]"}
	case !(c.AlphaStep >= 0 && c.AlphaStep <= 1):
		return &InvalidConfigurationError{Field: "alpha_step", Value: c.AlphaStep, Reason: "must be in [0,1]"}
	case !(c.TargetFitness > 0 && c.TargetFitness <= 100):
		return &InvalidConfigurationError{Field: "target_fitness", Value: c.TargetFitness, Reason: "must be in (0,100]"}
	}
	return nil
}
