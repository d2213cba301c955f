package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwbudde/evoshapes/internal/evolve"
	"github.com/cwbudde/evoshapes/internal/fit"
	"github.com/cwbudde/evoshapes/internal/opt"
	"github.com/cwbudde/evoshapes/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	refPath        string
	outPath        string
	popSize        int
	genes          int
	vertices       int
	mutationRate   float64
	targetFitness  float64
	maxGenerations int
	patience       int
	maxSize        int
	backend        string
	metric         string
	parallelism    int
	refineIters    int
	seed           uint64
	saveRun        bool
	logEvery       int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evolve an approximation of one image",
	Long: `Runs the genetic algorithm until the target similarity is reached, a
limit is hit or Ctrl-C is pressed (honoured between generations), then writes
the fittest individual's rendering.`,
	RunE: runEvolution,
}

func init() {
	def := evolve.DefaultConfig()

	runCmd.Flags().StringVar(&refPath, "ref", "", "Reference image path (required)")
	runCmd.Flags().StringVar(&outPath, "out", "out.png", "Output image path")
	runCmd.Flags().IntVar(&popSize, "pop", def.PopulationSize, "Population size")
	runCmd.Flags().IntVar(&genes, "genes", def.Genes, "Polygons per individual")
	runCmd.Flags().IntVar(&vertices, "vertices", def.Vertices, "Vertices per polygon")
	runCmd.Flags().Float64Var(&mutationRate, "mutation", def.MutationRate, "Per-gene mutation probability [0,1]")
	runCmd.Flags().Float64Var(&targetFitness, "target", def.TargetFitness, "Stop once the best similarity reaches this value")
	runCmd.Flags().IntVar(&maxGenerations, "max-gens", 0, "Stop after N generations (0 = no limit)")
	runCmd.Flags().IntVar(&patience, "patience", 0, "Stop after N generations without improvement (0 = disabled)")
	runCmd.Flags().IntVar(&maxSize, "max-size", 0, "Downscale the reference so its longer side fits (0 = keep)")
	runCmd.Flags().StringVar(&backend, "backend", string(fit.BackendCPU), "Rasterizer backend: cpu, gg")
	runCmd.Flags().StringVar(&metric, "metric", "abs", "Similarity metric: abs, lab")
	runCmd.Flags().IntVar(&parallelism, "parallelism", 1, "Concurrent offspring evaluations")
	runCmd.Flags().IntVar(&refineIters, "refine-iters", 0, "Mayfly iterations per gene to polish the result (0 = off)")
	runCmd.Flags().Uint64Var(&seed, "seed", 42, "Random seed")
	runCmd.Flags().BoolVar(&saveRun, "save", false, "Persist record, artifacts and trace under --data-dir")
	runCmd.Flags().IntVar(&logEvery, "log-every", 100, "Log progress every N generations")

	runCmd.MarkFlagRequired("ref")
	rootCmd.AddCommand(runCmd)
}

// runConfig collects the evolution flags
func runConfig() evolve.Config {
	cfg := evolve.DefaultConfig()
	cfg.PopulationSize = popSize
	cfg.Genes = genes
	cfg.Vertices = vertices
	cfg.MutationRate = mutationRate
	cfg.TargetFitness = targetFitness
	cfg.Parallelism = parallelism
	return cfg
}

func runEvolution(cmd *cobra.Command, args []string) error {
	cfg := runConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ref, err := fit.LoadReference(refPath, maxSize)
	if err != nil {
		return err
	}
	slog.Info("Loaded reference", "path", refPath, "width", ref.Width(), "height", ref.Height())

	pipeline, err := fit.NewPipeline(ref, backend, metric)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ga, err := evolve.New(cfg, ref, pipeline.Evaluator, evolve.NewSource(seed))
	if err != nil {
		return err
	}
	initial := ga.BestFitness()

	var (
		st    *store.FSStore
		trace *store.TraceWriter
		runID string
	)
	if saveRun {
		st, err = store.NewFSStore(dataDir)
		if err != nil {
			return err
		}
		runID = uuid.New().String()
		trace, err = store.NewTraceWriter(st.BaseDir(), runID, false)
		if err != nil {
			return err
		}
		defer trace.Close()
	}

	opts := evolve.RunOptions{MaxGenerations: maxGenerations, Convergence: fit.DisabledConvergenceConfig()}
	if patience > 0 {
		opts.Convergence = fit.ConvergenceConfig{Enabled: true, Patience: patience, Threshold: 1e-4}
	}

	res, err := ga.Run(ctx, opts, func(p evolve.Progress) {
		if logEvery > 0 && p.Generation%logEvery == 0 {
			slog.Info("Generation",
				"generation", p.Generation,
				"best_fitness", p.BestFitness,
				"mean_fitness", p.Stats.Mean,
				"elapsed", p.Elapsed.Round(time.Millisecond),
			)
		}
		if trace != nil {
			if err := trace.Write(store.TraceEntry{
				Generation: p.Generation,
				Best:       p.Stats.Best,
				Mean:       p.Stats.Mean,
				Worst:      p.Stats.Worst,
				Timestamp:  time.Now(),
			}); err != nil {
				slog.Warn("Failed to write trace entry", "error", err)
			}
		}
	})
	if err != nil {
		return err
	}

	best := res.Fittest
	if refineIters > 0 && ctx.Err() == nil {
		slog.Info("Refining fittest individual", "iterations", refineIters)
		best, err = evolve.Refine(best, pipeline.Evaluator, opt.NewMayfly(refineIters, 20, int64(seed)))
		if err != nil {
			return err
		}
	}

	img, err := pipeline.Scorer.Render(best.Genes())
	if err != nil {
		return err
	}
	if err := writePNG(outPath, img); err != nil {
		return err
	}

	slog.Info("Evolution finished",
		"reason", res.Reason,
		"generations", res.Generations,
		"elapsed", res.Elapsed,
		"initial_fitness", initial,
		"best_fitness", best.Fitness(),
	)

	if st != nil {
		record := &store.RunRecord{
			RunID:          runID,
			State:          recordState(res.Reason),
			Generation:     res.Generations,
			BestFitness:    best.Fitness(),
			InitialFitness: initial,
			Width:          best.Width(),
			Height:         best.Height(),
			BestGenes:      store.RecordGenes(best.Genes()),
			Timestamp:      time.Now(),
			Config: store.RunConfig{
				RefPath:        refPath,
				PopulationSize: cfg.PopulationSize,
				Genes:          cfg.Genes,
				Vertices:       cfg.Vertices,
				MutationRate:   cfg.MutationRate,
				MaxGenerations: maxGenerations,
				Backend:        backend,
				Metric:         metric,
				Seed:           seed,
			},
		}
		if err := st.SaveRun(record); err != nil {
			return err
		}
		if err := st.SaveArtifact(runID, store.ArtifactBest, img); err != nil {
			return err
		}
		if err := st.SaveArtifact(runID, store.ArtifactDiff, fit.DiffImage(ref.Reference(), img)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved run %s\n", runID)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (similarity %.2f -> %.2f after %d generations, %s)\n",
		outPath, initial, best.Fitness(), res.Generations, res.Reason)
	return nil
}

// recordState folds the stop reason into the state vocabulary the server
// uses, so runs from both sources list alike
func recordState(reason evolve.StopReason) string {
	switch reason {
	case evolve.StopCompleted, evolve.StopCancelled, evolve.StopFailed:
		return string(reason)
	default:
		return "stopped"
	}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return f.Close()
}
