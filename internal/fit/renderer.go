package fit

import (
	"fmt"
	"image"

	"github.com/cwbudde/evoshapes/internal/gene"
)

// Rasterizer turns a genome into pixels
type Rasterizer interface {
	// Render paints the shapes in order onto an opaque white canvas of
	// exactly width x height pixels. Each shape is filled with its color,
	// alpha included.
	Render(genes []*gene.Shape, width, height int) (*image.NRGBA, error)
}

// Evaluator scores a genome against the reference of the current run
type Evaluator interface {
	// Fitness renders the genes at the given size and returns the
	// similarity to the reference in [0,100].
	Fitness(genes []*gene.Shape, width, height int) (float64, error)
}

// Scorer is the standard Evaluator: rasterize, then compare.
type Scorer struct {
	ref     *ImageContext
	raster  Rasterizer
	compare CompareFunc
}

// NewScorer wires a rasterizer and a compare function to a reference.
// A nil compare selects Similarity.
func NewScorer(ref *ImageContext, raster Rasterizer, compare CompareFunc) *Scorer {
	if compare == nil {
		compare = Similarity
	}
	return &Scorer{ref: ref, raster: raster, compare: compare}
}

// Fitness implements Evaluator
func (s *Scorer) Fitness(genes []*gene.Shape, width, height int) (float64, error) {
	img, err := s.raster.Render(genes, width, height)
	if err != nil {
		return 0, fmt.Errorf("failed to render genome: %w", err)
	}
	return s.compare(img, s.ref.Reference())
}

// Render paints the genes at the reference size
func (s *Scorer) Render(genes []*gene.Shape) (*image.NRGBA, error) {
	return s.raster.Render(genes, s.ref.Width(), s.ref.Height())
}

// Reference returns the image context the scorer compares against
func (s *Scorer) Reference() *ImageContext {
	return s.ref
}
