package evolve

import (
	"errors"
	"image/color"
	"testing"

	"github.com/cwbudde/evoshapes/internal/fit"
	"github.com/cwbudde/evoshapes/internal/gene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero population", func(c *Config) { c.PopulationSize = 0 }, "population_size"},
		{"zero genes", func(c *Config) { c.Genes = 0 }, "genes"},
		{"two vertices", func(c *Config) { c.Vertices = 2 }, "vertices"},
		{"negative mutation", func(c *Config) { c.MutationRate = -0.1 }, "mutation_rate"},
		{"mutation above one", func(c *Config) { c.MutationRate = 1.5 }, "mutation_rate"},
		{"zero tournament", func(c *Config) { c.TournamentSize = 0 }, "tournament_size"},
		{"crossover above one", func(c *Config) { c.CrossoverRate = 2 }, "crossover_rate"},
		{"color step too big", func(c *Config) { c.ColorStep = 300 }, "color_step"},
		{"zero target", func(c *Config) { c.TargetFitness = 0 }, "target_fitness"},
	}

	require.NoError(t, DefaultConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)

			var ice *InvalidConfigurationError
			require.ErrorAs(t, err, &ice)
			assert.Equal(t, tt.field, ice.Field)
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MutationRate = 2

	_, err := New(cfg, solidReference(4, 4, color.NRGBA{A: 255}), redness, NewSource(1))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = New(DefaultConfig(), nil, redness, NewSource(1))
	assert.ErrorIs(t, err, ErrNoReference)
}

func TestNewSeedsPopulation(t *testing.T) {
	cfg := smallConfig()
	ga, err := New(cfg, solidReference(20, 10, color.NRGBA{A: 255}), redness, NewSource(7))
	require.NoError(t, err)

	assert.Equal(t, NotStarted, ga.State())
	assert.Equal(t, 0, ga.Generation())
	assert.Equal(t, cfg.PopulationSize, ga.Population().Size())
	assert.Equal(t, Layout{Genes: 4, Vertices: 3, Width: 20, Height: 10}, ga.Layout())
	assert.Equal(t, ga.Fittest().Fitness(), ga.BestFitness())

	for i := 0; i < ga.Population().Size(); i++ {
		ind := ga.Population().Get(i)
		require.Equal(t, cfg.Genes, ind.Len())
		for _, g := range ind.Genes() {
			for v := 0; v < g.Vertices(); v++ {
				x, y := g.Vertex(v)
				assert.True(t, x >= 0 && x < 20, "x out of range: %f", x)
				assert.True(t, y >= 0 && y < 10, "y out of range: %f", y)
				assert.Equal(t, float64(int(x)), x, "initial coordinates are integers")
			}
		}
	}
}

func TestElitism(t *testing.T) {
	ga, err := New(smallConfig(), solidReference(16, 16, color.NRGBA{A: 255}), redness, NewSource(3))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		before := ga.Fittest()
		beforeFitness := before.Fitness()
		beforeGenes := before.Genes()

		_, err := ga.StepGeneration()
		require.NoError(t, err)

		elite := ga.Population().Get(0)
		assert.Same(t, before, elite)
		assert.Equal(t, beforeFitness, elite.Fitness())
		for g, s := range elite.Genes() {
			assert.True(t, s.Equal(beforeGenes[g]))
		}
	}
}

func TestBestFitnessMonotonic(t *testing.T) {
	ref := solidReference(12, 12, color.NRGBA{200, 40, 40, 255})
	scorer := fit.NewScorer(ref, fit.NewVectorRasterizer(), fit.Similarity)

	cfg := smallConfig()
	cfg.MutationRate = 0.3
	ga, err := New(cfg, ref, scorer, NewSource(11))
	require.NoError(t, err)

	last := ga.BestFitness()
	for i := 0; i < 15; i++ {
		fittest, err := ga.StepGeneration()
		require.NoError(t, err)
		require.GreaterOrEqual(t, ga.BestFitness(), last)
		require.Equal(t, fittest.Fitness(), ga.BestFitness())
		last = ga.BestFitness()
	}
	assert.Equal(t, 15, ga.Generation())
	assert.Equal(t, Running, ga.State())
}

func TestIsEvolutionCompleted(t *testing.T) {
	ga, err := New(smallConfig(), solidReference(4, 4, color.NRGBA{A: 255}), redness, NewSource(1))
	require.NoError(t, err)

	for _, tt := range []struct {
		best float64
		want bool
	}{
		{0, false},
		{99.999, false},
		{100, true},
		{100.5, true},
	} {
		ga.best = tt.best
		assert.Equal(t, tt.want, ga.IsEvolutionCompleted(), "best=%f", tt.best)
	}
}

func TestStepReachesCompleted(t *testing.T) {
	perfect := evalFunc(func([]*gene.Shape, int, int) (float64, error) { return 100, nil })

	ga, err := New(smallConfig(), solidReference(4, 4, color.NRGBA{A: 255}), perfect, NewSource(1))
	require.NoError(t, err)

	_, err = ga.StepGeneration()
	require.NoError(t, err)
	assert.True(t, ga.IsEvolutionCompleted())
	assert.Equal(t, Completed, ga.State())
}

func TestSolidColorScenario(t *testing.T) {
	ref := solidReference(4, 4, color.NRGBA{30, 160, 90, 255})
	raster := fit.NewVectorRasterizer()
	scorer := fit.NewScorer(ref, raster, fit.Similarity)

	cfg := DefaultConfig()
	cfg.PopulationSize = 5
	cfg.Genes = 1
	cfg.MutationRate = 0

	ga, err := New(cfg, ref, scorer, NewSource(42))
	require.NoError(t, err)

	// Recompute every score independently of the scorer
	want := -1.0
	for i := 0; i < 5; i++ {
		ind := ga.Population().Get(i)
		img, err := raster.Render(ind.Genes(), 4, 4)
		require.NoError(t, err)
		sim, err := fit.Similarity(img, ref.Reference())
		require.NoError(t, err)
		assert.Equal(t, sim, ind.Fitness())
		want = max(want, sim)
	}

	assert.Equal(t, want, ga.Fittest().Fitness())
	assert.GreaterOrEqual(t, want, 0.0)
	assert.LessOrEqual(t, want, 100.0)
}

func TestStepFailureKeepsPopulation(t *testing.T) {
	cfg := smallConfig()
	calls := 0
	failing := evalFunc(func(genes []*gene.Shape, w, h int) (float64, error) {
		calls++
		if calls > cfg.PopulationSize {
			return 0, &fit.DimensionMismatchError{}
		}
		return redness(genes, w, h)
	})

	ga, err := New(cfg, solidReference(8, 8, color.NRGBA{A: 255}), failing, NewSource(5))
	require.NoError(t, err)
	pop := ga.Population()

	_, err = ga.StepGeneration()
	require.Error(t, err)
	assert.ErrorIs(t, err, fit.ErrDimensionMismatch)
	assert.Equal(t, Failed, ga.State())
	assert.Same(t, pop, ga.Population())
	assert.Equal(t, 0, ga.Generation())

	_, again := ga.StepGeneration()
	assert.True(t, errors.Is(again, fit.ErrDimensionMismatch))

	ga.Stop()
	assert.Equal(t, Failed, ga.State(), "a failed run stays failed")
}

func TestParallelScoringMatchesSequential(t *testing.T) {
	ref := solidReference(10, 10, color.NRGBA{20, 20, 220, 255})
	scorer := fit.NewScorer(ref, fit.NewVectorRasterizer(), fit.Similarity)

	run := func(parallelism int) *GeneticAlgorithm {
		cfg := smallConfig()
		cfg.Parallelism = parallelism
		ga, err := New(cfg, ref, scorer, NewSource(99))
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			_, err := ga.StepGeneration()
			require.NoError(t, err)
		}
		return ga
	}

	seq := run(1)
	par := run(4)

	assert.Equal(t, seq.BestFitness(), par.BestFitness())
	for i := 0; i < seq.Population().Size(); i++ {
		assert.Equal(t, seq.Population().Get(i).Fitness(), par.Population().Get(i).Fitness())
	}
	for g, s := range seq.Fittest().Genes() {
		assert.True(t, s.Equal(par.Fittest().Gene(g)), "gene %d differs", g)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "state(42)", State(42).String())
}
