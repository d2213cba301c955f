package evolve

import (
	"image/color"
	"testing"

	"github.com/cwbudde/evoshapes/internal/gene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetWithZeroDraw(t *testing.T) {
	src := fixedSource{f: 0}

	// 5 + 0*2*3 - 3 = 2, inside [0,10]
	assert.Equal(t, 2, offsetInt(src, 5, 0, 10, 3))
	assert.Equal(t, 2.0, offsetFloat(src, 5, 0, 10, 3))
}

func TestOffsetClamps(t *testing.T) {
	tests := []struct {
		name  string
		draw  float64
		value int
		want  int
	}{
		{"below min", 0, 1, 0},
		{"above max", 0.999, 254, 255},
		{"center draw keeps value", 0.5, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, offsetInt(fixedSource{f: tt.draw}, tt.value, 0, 255, 10))
		})
	}

	assert.Equal(t, 1.0, offsetFloat(fixedSource{f: 0.999}, 0.995, 0, 1, 0.01))
	assert.Equal(t, 0.0, offsetFloat(fixedSource{f: 0}, 0.005, 0, 1, 0.01))
}

func TestMutationStaysInBounds(t *testing.T) {
	const w, h = 30, 20

	cfg := smallConfig()
	cfg.MutationRate = 1
	cfg.PositionFactor = 0.5
	cfg.ColorStep = 200
	cfg.AlphaStep = 1

	ga, err := New(cfg, solidReference(w, h, color.NRGBA{A: 255}), redness, NewSource(17))
	require.NoError(t, err)

	ind := NewIndividual(ga.layout, ga.rng, true)
	for round := 0; round < 200; round++ {
		ga.mutate(ind)
		for _, s := range ind.genes {
			for v := 0; v < s.Vertices(); v++ {
				x, y := s.Vertex(v)
				require.True(t, x >= 0 && x <= w, "x=%f", x)
				require.True(t, y >= 0 && y <= h, "y=%f", y)
			}
			c := s.Color()
			require.True(t, c.Red() >= 0 && c.Red() <= 255)
			require.True(t, c.Green() >= 0 && c.Green() <= 255)
			require.True(t, c.Blue() >= 0 && c.Blue() <= 255)
			require.True(t, c.Alpha() >= 0 && c.Alpha() <= 1)
		}
	}
}

func TestMutationRateZeroNeverMutates(t *testing.T) {
	cfg := smallConfig()
	cfg.MutationRate = 0

	ga, err := New(cfg, solidReference(10, 10, color.NRGBA{A: 255}), redness, NewSource(2))
	require.NoError(t, err)

	// A zero draw is the worst case for the gate
	ga.rng = fixedSource{f: 0}
	ind := ga.Population().Get(0)
	before := make([]*gene.Shape, ind.Len())
	for i, s := range ind.genes {
		before[i] = s.Clone()
	}

	ga.mutate(ind)
	for i, s := range ind.genes {
		assert.True(t, s.Equal(before[i]))
	}
}

func TestMutationMovesEverythingTogether(t *testing.T) {
	cfg := smallConfig()
	cfg.MutationRate = 1

	ga, err := New(cfg, solidReference(100, 50, color.NRGBA{A: 255}), redness, NewSource(2))
	require.NoError(t, err)

	s, err := gene.NewShape([]float64{50, 50, 50}, []float64{25, 25, 25}, gene.MustColor(100, 100, 100, 0.5))
	require.NoError(t, err)

	// Draw 0 subtracts the full step everywhere
	ga.rng = fixedSource{f: 0}
	ga.mutateShape(s)

	assert.Equal(t, []float64{40, 40, 40}, s.XCoordinates())
	assert.Equal(t, []float64{20, 20, 20}, s.YCoordinates())
	assert.Equal(t, 90, s.Color().Red())
	assert.Equal(t, 90, s.Color().Green())
	assert.Equal(t, 90, s.Color().Blue())
	assert.InDelta(t, 0.49, s.Color().Alpha(), 1e-12)
}

func TestCrossoverTakesWholeGenesFromParents(t *testing.T) {
	cfg := smallConfig()
	cfg.Genes = 20

	ga, err := New(cfg, solidReference(32, 32, color.NRGBA{A: 255}), redness, NewSource(23))
	require.NoError(t, err)

	a := ga.Population().Get(0)
	b := ga.Population().Get(1)

	fromA, fromB := 0, 0
	for trial := 0; trial < 10; trial++ {
		child := ga.crossover(a, b)
		require.Equal(t, cfg.Genes, child.Len())

		for g := 0; g < child.Len(); g++ {
			got := child.Gene(g)
			require.NotSame(t, a.Gene(g), got)
			require.NotSame(t, b.Gene(g), got)

			switch {
			case got.Equal(a.Gene(g)):
				fromA++
			case got.Equal(b.Gene(g)):
				fromB++
			default:
				t.Fatalf("gene %d is not a copy of either parent", g)
			}
		}
	}

	assert.Positive(t, fromA)
	assert.Positive(t, fromB)
}

func TestCrossoverCopiesAreIndependent(t *testing.T) {
	ga, err := New(smallConfig(), solidReference(8, 8, color.NRGBA{A: 255}), redness, NewSource(4))
	require.NoError(t, err)

	a := ga.Population().Get(0)
	child := ga.crossover(a, a)
	original := a.Gene(0).Clone()

	require.NoError(t, child.Gene(0).SetXCoordinates([]float64{1, 2, 3}))
	child.Gene(0).SetColor(gene.MustColor(1, 2, 3, 0))

	assert.True(t, a.Gene(0).Equal(original))
}

func TestSelectParentPicksTournamentBest(t *testing.T) {
	ga, err := New(smallConfig(), solidReference(8, 8, color.NRGBA{A: 255}), redness, NewSource(8))
	require.NoError(t, err)

	// One draw per tournament returns exactly that slot
	ga.cfg.TournamentSize = 1
	ga.rng = fixedSource{i: 3}
	assert.Same(t, ga.Population().Get(3), ga.selectParent())

	// A full tournament over a seeded stream never loses to a drawn rival
	ga.cfg.TournamentSize = 10
	ga.rng = NewSource(8)
	for i := 0; i < 50; i++ {
		winner := ga.selectParent()
		assert.LessOrEqual(t, winner.Fitness(), ga.Fittest().Fitness())
	}

	// Tournament covering the population deterministically finds the best
	seq := &sequenceSource{}
	ga.cfg.TournamentSize = ga.Population().Size()
	ga.rng = seq
	assert.Same(t, ga.Fittest(), ga.selectParent())
}

// sequenceSource returns 0, 1, 2, ... from IntN
type sequenceSource struct{ next int }

func (s *sequenceSource) Float64() float64 { return 0 }
func (s *sequenceSource) IntN(n int) int {
	v := s.next % n
	s.next++
	return v
}
