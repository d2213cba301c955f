package evolve

import (
	"image/color"
	"testing"

	"github.com/cwbudde/evoshapes/internal/gene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func individualWith(fitness float64) *Individual {
	return &Individual{fitness: fitness}
}

func TestFittestIsMaximum(t *testing.T) {
	pop, err := NewPopulation(20, Layout{Genes: 3, Vertices: 3, Width: 16, Height: 16}, NewSource(5), redness, true)
	require.NoError(t, err)

	best := pop.Fittest()
	require.NotNil(t, best)
	for i := 0; i < pop.Size(); i++ {
		assert.GreaterOrEqual(t, best.Fitness(), pop.Get(i).Fitness())
	}
}

func TestFittestTieBreakAndEmptySlots(t *testing.T) {
	pop, err := NewPopulation(4, Layout{}, nil, nil, false)
	require.NoError(t, err)
	assert.Nil(t, pop.Fittest())

	first := individualWith(50)
	pop.Set(1, individualWith(10))
	pop.Set(2, first)
	pop.Set(3, individualWith(50))

	assert.Same(t, first, pop.Fittest())
}

func TestStats(t *testing.T) {
	pop, _ := NewPopulation(3, Layout{}, nil, nil, false)
	pop.Set(0, individualWith(10))
	pop.Set(1, individualWith(40))
	pop.Set(2, individualWith(70))

	assert.Equal(t, Stats{Best: 70, Mean: 40, Worst: 10}, pop.Stats())
}

func TestNewIndividualEmpty(t *testing.T) {
	ind := NewIndividual(Layout{Genes: 3, Vertices: 3, Width: 4, Height: 4}, NewSource(1), false)
	assert.Equal(t, 3, ind.Len())
	assert.Nil(t, ind.Gene(0))

	err := ind.RecalculateFitness(redness)
	assert.ErrorIs(t, err, ErrIncompleteGenome)
}

func TestRecalculateFitnessPassesDimensions(t *testing.T) {
	ind := NewIndividual(Layout{Genes: 2, Vertices: 4, Width: 9, Height: 7}, NewSource(1), true)

	var gotW, gotH, gotLen int
	ev := evalFunc(func(genes []*gene.Shape, w, h int) (float64, error) {
		gotW, gotH, gotLen = w, h, len(genes)
		return 42, nil
	})

	require.NoError(t, ind.RecalculateFitness(ev))
	assert.Equal(t, 42.0, ind.Fitness())
	assert.Equal(t, 9, gotW)
	assert.Equal(t, 7, gotH)
	assert.Equal(t, 2, gotLen)
	assert.Equal(t, 4, ind.Gene(0).Vertices())
	assert.Equal(t, 9, ind.Width())
	assert.Equal(t, 7, ind.Height())
}

func TestNewPopulationPropagatesErrors(t *testing.T) {
	ref := solidReference(8, 8, color.NRGBA{A: 255})
	mismatch := evalFunc(func(genes []*gene.Shape, w, h int) (float64, error) {
		return 0, assert.AnError
	})

	_, err := NewPopulation(3, Layout{Genes: 1, Vertices: 3, Width: ref.Width(), Height: ref.Height()}, NewSource(1), mismatch, true)
	assert.ErrorIs(t, err, assert.AnError)
}
