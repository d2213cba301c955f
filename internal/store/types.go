package store

import (
	"fmt"
	"time"

	"github.com/cwbudde/evoshapes/internal/gene"
)

// RunConfig is the persisted copy of a run's parameters.
// It mirrors the CLI flags so a run can be inspected without the binary
// that produced it.
type RunConfig struct {
	RefPath        string  `json:"refPath"`
	PopulationSize int     `json:"populationSize"`
	Genes          int     `json:"genes"`
	Vertices       int     `json:"vertices"`
	MutationRate   float64 `json:"mutationRate"`
	MaxGenerations int     `json:"maxGenerations,omitempty"`
	Backend        string  `json:"backend,omitempty"`
	Metric         string  `json:"metric,omitempty"`
	Seed           uint64  `json:"seed"`
}

// GeneRecord is the serialized form of one polygon
type GeneRecord struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
	R int       `json:"r"`
	G int       `json:"g"`
	B int       `json:"b"`
	A float64   `json:"a"`
}

// NewGeneRecord captures a shape
func NewGeneRecord(s *gene.Shape) GeneRecord {
	c := s.Color()
	return GeneRecord{
		X: s.XCoordinates(),
		Y: s.YCoordinates(),
		R: c.Red(),
		G: c.Green(),
		B: c.Blue(),
		A: c.Alpha(),
	}
}

// Shape rebuilds the polygon. Out-of-range colors are rejected, not clamped.
func (g GeneRecord) Shape() (*gene.Shape, error) {
	c, err := gene.NewColor(g.R, g.G, g.B, g.A)
	if err != nil {
		return nil, err
	}
	return gene.NewShape(g.X, g.Y, c)
}

// RecordGenes converts a genome for persistence
func RecordGenes(shapes []*gene.Shape) []GeneRecord {
	out := make([]GeneRecord, len(shapes))
	for i, s := range shapes {
		out[i] = NewGeneRecord(s)
	}
	return out
}

// RunRecord is a snapshot of a run: its configuration, progress and the
// genome of the fittest individual.
type RunRecord struct {
	// RunID is the unique identifier of the run
	RunID string `json:"runId"`

	// State is the controller state when the record was written
	State string `json:"state"`

	// Generation is the number of completed generations
	Generation int `json:"generation"`

	// BestFitness is the fitness of BestGenes
	BestFitness float64 `json:"bestFitness"`

	// InitialFitness is the best fitness of generation 0
	InitialFitness float64 `json:"initialFitness"`

	// Width and Height are the reference extents the genome was built for
	Width  int `json:"width"`
	Height int `json:"height"`

	// BestGenes is the genome of the fittest individual
	BestGenes []GeneRecord `json:"bestGenes"`

	// Error holds the failure message of a failed run
	Error string `json:"error,omitempty"`

	// Timestamp records when this snapshot was taken
	Timestamp time.Time `json:"timestamp"`

	Config RunConfig `json:"config"`
}

// RunInfo contains metadata about a run without the genome
type RunInfo struct {
	RunID       string    `json:"runId"`
	State       string    `json:"state"`
	BestFitness float64   `json:"bestFitness"`
	Generation  int       `json:"generation"`
	Timestamp   time.Time `json:"timestamp"`
	Genes       int       `json:"genes"`
	RefPath     string    `json:"refPath"`
}

// ToInfo converts a full RunRecord to RunInfo (metadata only).
func (r *RunRecord) ToInfo() RunInfo {
	return RunInfo{
		RunID:       r.RunID,
		State:       r.State,
		BestFitness: r.BestFitness,
		Generation:  r.Generation,
		Timestamp:   r.Timestamp,
		Genes:       r.Config.Genes,
		RefPath:     r.Config.RefPath,
	}
}

// Shapes rebuilds the stored genome
func (r *RunRecord) Shapes() ([]*gene.Shape, error) {
	shapes := make([]*gene.Shape, len(r.BestGenes))
	for i, g := range r.BestGenes {
		s, err := g.Shape()
		if err != nil {
			return nil, fmt.Errorf("gene %d: %w", i, err)
		}
		shapes[i] = s
	}
	return shapes, nil
}

// Validate checks if the record has valid data.
// Returns an error if any required field is missing or invalid.
func (r *RunRecord) Validate() error {
	if r.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if r.State == "" {
		return &ValidationError{Field: "State", Reason: "cannot be empty"}
	}
	if r.Generation < 0 {
		return &ValidationError{Field: "Generation", Reason: "cannot be negative"}
	}
	if r.BestFitness < 0 || r.BestFitness > 100 {
		return &ValidationError{Field: "BestFitness", Reason: "must be in [0,100]"}
	}
	if r.InitialFitness < 0 || r.InitialFitness > 100 {
		return &ValidationError{Field: "InitialFitness", Reason: "must be in [0,100]"}
	}
	if r.Width <= 0 || r.Height <= 0 {
		return &ValidationError{Field: "Width/Height", Reason: "must be positive"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if r.Config.RefPath == "" {
		return &ValidationError{Field: "Config.RefPath", Reason: "cannot be empty"}
	}
	if r.Config.Genes <= 0 {
		return &ValidationError{Field: "Config.Genes", Reason: "must be positive"}
	}
	if r.Config.PopulationSize <= 0 {
		return &ValidationError{Field: "Config.PopulationSize", Reason: "must be positive"}
	}
	if len(r.BestGenes) != r.Config.Genes {
		return &ValidationError{
			Field:  "BestGenes",
			Reason: fmt.Sprintf("length mismatch: expected %d genes, got %d", r.Config.Genes, len(r.BestGenes)),
		}
	}
	for i, g := range r.BestGenes {
		if len(g.X) != len(g.Y) {
			return &ValidationError{Field: fmt.Sprintf("BestGenes[%d]", i), Reason: "coordinate lengths differ"}
		}
	}
	return nil
}

// ValidationError represents a record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
