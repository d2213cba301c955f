package evolve

import (
	"context"
	"image/color"
	"testing"

	"github.com/cwbudde/evoshapes/internal/fit"
	"github.com/cwbudde/evoshapes/internal/gene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMaxGenerations(t *testing.T) {
	ga, err := New(smallConfig(), solidReference(8, 8, color.NRGBA{A: 255}), redness, NewSource(1))
	require.NoError(t, err)

	var seen []int
	res, err := ga.Run(context.Background(), RunOptions{MaxGenerations: 7}, func(p Progress) {
		seen = append(seen, p.Generation)
		assert.Equal(t, p.BestFitness, p.Fittest.Fitness())
		assert.Equal(t, p.BestFitness, p.Stats.Best)
		assert.LessOrEqual(t, p.Stats.Worst, p.Stats.Mean)
	})
	require.NoError(t, err)

	assert.Equal(t, StopMaxGenerations, res.Reason)
	assert.Equal(t, 7, res.Generations)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, seen)
	assert.Same(t, ga.Fittest(), res.Fittest)
	assert.Equal(t, Stopped, ga.State())
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ga, err := New(smallConfig(), solidReference(8, 8, color.NRGBA{A: 255}), redness, NewSource(1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := ga.Run(ctx, RunOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, StopCancelled, res.Reason)
	assert.Equal(t, 0, res.Generations)
	assert.Equal(t, Stopped, ga.State())
}

func TestRunCancelledBetweenGenerations(t *testing.T) {
	ga, err := New(smallConfig(), solidReference(8, 8, color.NRGBA{A: 255}), redness, NewSource(1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := ga.Run(ctx, RunOptions{}, func(p Progress) {
		if p.Generation == 3 {
			cancel()
		}
	})
	require.NoError(t, err)

	// The generation in flight finishes, no further one starts
	assert.Equal(t, StopCancelled, res.Reason)
	assert.Equal(t, 3, res.Generations)
}

func TestRunCompletes(t *testing.T) {
	perfect := evalFunc(func([]*gene.Shape, int, int) (float64, error) { return 100, nil })

	ga, err := New(smallConfig(), solidReference(4, 4, color.NRGBA{A: 255}), perfect, NewSource(1))
	require.NoError(t, err)

	res, err := ga.Run(context.Background(), RunOptions{MaxGenerations: 50}, nil)
	require.NoError(t, err)
	assert.Equal(t, StopCompleted, res.Reason)
	assert.Equal(t, 1, res.Generations)
	assert.Equal(t, Completed, ga.State())
}

func TestRunConverges(t *testing.T) {
	flat := evalFunc(func([]*gene.Shape, int, int) (float64, error) { return 50, nil })

	ga, err := New(smallConfig(), solidReference(4, 4, color.NRGBA{A: 255}), flat, NewSource(1))
	require.NoError(t, err)

	res, err := ga.Run(context.Background(), RunOptions{
		MaxGenerations: 100,
		Convergence:    fit.ConvergenceConfig{Enabled: true, Patience: 4, Threshold: 0.001},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, StopConverged, res.Reason)
	assert.Equal(t, 5, res.Generations)
}

func TestRunFailure(t *testing.T) {
	cfg := smallConfig()
	calls := 0
	ev := evalFunc(func(genes []*gene.Shape, w, h int) (float64, error) {
		calls++
		if calls > cfg.PopulationSize {
			return 0, &fit.DimensionMismatchError{}
		}
		return 10, nil
	})

	ga, err := New(cfg, solidReference(4, 4, color.NRGBA{A: 255}), ev, NewSource(1))
	require.NoError(t, err)

	res, err := ga.Run(context.Background(), RunOptions{}, nil)
	assert.ErrorIs(t, err, fit.ErrDimensionMismatch)
	assert.Equal(t, StopFailed, res.Reason)
	assert.Equal(t, Failed, ga.State())
	assert.NotNil(t, res.Fittest)
}
