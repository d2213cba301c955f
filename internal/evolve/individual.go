package evolve

import (
	"errors"
	"fmt"

	"github.com/cwbudde/evoshapes/internal/fit"
	"github.com/cwbudde/evoshapes/internal/gene"
)

// ErrIncompleteGenome is returned when an Individual with unset gene slots
// is scored.
var ErrIncompleteGenome = errors.New("genome has unset genes")

// Layout fixes the shape of every genome in a run
type Layout struct {
	Genes    int // Shapes per individual
	Vertices int // Corners per shape
	Width    int // Reference width
	Height   int // Reference height
}

// Individual is one candidate image: an ordered genome plus its cached
// fitness. The fitness is stale until RecalculateFitness is called.
type Individual struct {
	genes   []*gene.Shape
	fitness float64
	width   int
	height  int
}

// NewIndividual allocates a genome for the layout. With randomize every
// slot gets a random polygon, otherwise the slots stay empty and must be
// filled before the individual is scored.
func NewIndividual(layout Layout, rng Source, randomize bool) *Individual {
	ind := &Individual{
		genes:  make([]*gene.Shape, layout.Genes),
		width:  layout.Width,
		height: layout.Height,
	}
	if randomize {
		for i := range ind.genes {
			ind.genes[i] = randomShape(layout, rng)
		}
	}
	return ind
}

// randomShape draws integer vertex positions inside the image and a
// uniformly random color.
func randomShape(layout Layout, rng Source) *gene.Shape {
	xs := make([]float64, layout.Vertices)
	ys := make([]float64, layout.Vertices)
	for v := range xs {
		xs[v] = float64(intN(rng, layout.Width))
		ys[v] = float64(intN(rng, layout.Height))
	}

	c := gene.MustColor(rng.IntN(256), rng.IntN(256), rng.IntN(256), rng.Float64())
	s, _ := gene.NewShape(xs, ys, c)
	return s
}

// intN tolerates empty extents
func intN(rng Source, n int) int {
	if n <= 0 {
		return 0
	}
	return rng.IntN(n)
}

// RecalculateFitness renders the genome at the stored size and scores it
// against the reference.
func (ind *Individual) RecalculateFitness(ev fit.Evaluator) error {
	for i, g := range ind.genes {
		if g == nil {
			return fmt.Errorf("%w: slot %d", ErrIncompleteGenome, i)
		}
	}

	f, err := ev.Fitness(ind.genes, ind.width, ind.height)
	if err != nil {
		return fmt.Errorf("failed to score individual: %w", err)
	}
	ind.fitness = f
	return nil
}

// Genes returns the genome. The slice is a copy; the shapes are shared and
// must not be modified.
func (ind *Individual) Genes() []*gene.Shape {
	return append([]*gene.Shape(nil), ind.genes...)
}

// Gene returns the shape at index i
func (ind *Individual) Gene(i int) *gene.Shape { return ind.genes[i] }

// Len returns the genome length
func (ind *Individual) Len() int { return len(ind.genes) }

// Fitness returns the cached fitness
func (ind *Individual) Fitness() float64 { return ind.fitness }

// Width returns the image width the individual was created against
func (ind *Individual) Width() int { return ind.width }

// Height returns the image height the individual was created against
func (ind *Individual) Height() int { return ind.height }
