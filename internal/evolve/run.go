package evolve

import (
	"context"
	"log/slog"
	"time"

	"github.com/cwbudde/evoshapes/internal/fit"
)

// StopReason tells why Run returned
type StopReason string

const (
	StopCompleted      StopReason = "completed"
	StopMaxGenerations StopReason = "max_generations"
	StopConverged      StopReason = "converged"
	StopCancelled      StopReason = "cancelled"
	StopFailed         StopReason = "failed"
)

// RunOptions bounds a Run beyond the fitness target
type RunOptions struct {
	// MaxGenerations stops the run after that many steps. Zero means no limit.
	MaxGenerations int
	// Convergence stops the run when the best fitness stagnates
	Convergence fit.ConvergenceConfig
}

// Progress is reported after every generation
type Progress struct {
	Generation  int
	BestFitness float64
	Stats       Stats
	Fittest     *Individual
	Elapsed     time.Duration
}

// RunResult is the outcome of Run
type RunResult struct {
	Fittest     *Individual
	Generations int
	Reason      StopReason
	Elapsed     time.Duration
}

// Run steps generations until the target fitness is reached, a limit in
// opts is hit, or ctx is cancelled. Cancellation is only observed between
// generations. onGen may be nil.
func (ga *GeneticAlgorithm) Run(ctx context.Context, opts RunOptions, onGen func(Progress)) (RunResult, error) {
	start := time.Now()
	tracker := fit.NewConvergenceTracker(opts.Convergence)

	result := func(reason StopReason) RunResult {
		return RunResult{
			Fittest:     ga.Fittest(),
			Generations: ga.generation,
			Reason:      reason,
			Elapsed:     time.Since(start),
		}
	}

	slog.Info("Starting evolution",
		"population", ga.cfg.PopulationSize,
		"genes", ga.cfg.Genes,
		"mutation_rate", ga.cfg.MutationRate,
		"max_generations", opts.MaxGenerations,
	)

	for {
		if ctx.Err() != nil {
			ga.Stop()
			slog.Info("Evolution stopped", "generation", ga.generation, "best_fitness", ga.best)
			return result(StopCancelled), nil
		}

		fittest, err := ga.StepGeneration()
		if err != nil {
			return result(StopFailed), err
		}

		if onGen != nil {
			onGen(Progress{
				Generation:  ga.generation,
				BestFitness: ga.best,
				Stats:       ga.pop.Stats(),
				Fittest:     fittest,
				Elapsed:     time.Since(start),
			})
		}

		if ga.IsEvolutionCompleted() {
			slog.Info("Evolution completed", "generation", ga.generation, "best_fitness", ga.best)
			return result(StopCompleted), nil
		}

		if opts.MaxGenerations > 0 && ga.generation >= opts.MaxGenerations {
			ga.Stop()
			slog.Info("Generation limit reached", "generation", ga.generation, "best_fitness", ga.best)
			return result(StopMaxGenerations), nil
		}

		if tracker.Update(ga.best) {
			ga.Stop()
			return result(StopConverged), nil
		}
	}
}
