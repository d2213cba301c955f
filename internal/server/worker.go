package server

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/cwbudde/evoshapes/internal/evolve"
	"github.com/cwbudde/evoshapes/internal/fit"
	"github.com/cwbudde/evoshapes/internal/opt"
	"github.com/cwbudde/evoshapes/internal/store"
)

// broadcastInterval throttles SSE progress to a few updates per second
const broadcastInterval = 250 * time.Millisecond

// worker runs one job. The GA is confined to the worker goroutine; the
// JobManager only ever sees immutable snapshots.
type worker struct {
	jm      *JobManager
	store   *store.FSStore // nil disables persistence
	metrics *Metrics
	jobID   string

	// rendered is the fitness of the individual behind the job's best image
	rendered float64
}

// runJob executes an evolution job until it completes, hits a limit, is
// cancelled through ctx, or fails.
func runJob(ctx context.Context, jm *JobManager, st *store.FSStore, metrics *Metrics, jobID string) error {
	w := &worker{jm: jm, store: st, metrics: metrics, jobID: jobID}
	return w.run(ctx)
}

func (w *worker) run(ctx context.Context) error {
	job, exists := w.jm.GetJob(w.jobID)
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, w.jobID)
	}
	cfg := job.Config

	if err := w.jm.UpdateJob(w.jobID, func(j *Job) { j.State = StateRunning }); err != nil {
		return err
	}
	w.metrics.jobStarted()

	slog.Info("Starting job", "job_id", w.jobID, "ref", cfg.RefPath, "backend", cfg.Backend)

	ref, err := fit.LoadReference(cfg.RefPath, cfg.MaxSize)
	if err != nil {
		return w.fail(err)
	}

	pipeline, err := fit.NewPipeline(ref, cfg.Backend, cfg.Metric)
	if err != nil {
		return w.fail(err)
	}
	defer pipeline.Close()

	ga, err := evolve.New(cfg.evolveConfig(), ref, pipeline.Evaluator, evolve.NewSource(cfg.Seed))
	if err != nil {
		return w.fail(err)
	}

	initial := ga.Fittest()
	w.jm.UpdateJob(w.jobID, func(j *Job) {
		j.InitialFitness = initial.Fitness()
		j.BestFitness = initial.Fitness()
		j.best = initial
		j.reference = ref.Reference()
	})
	w.publish(pipeline, initial)

	var trace *store.TraceWriter
	if w.store != nil {
		trace, err = store.NewTraceWriter(w.store.BaseDir(), w.jobID, false)
		if err != nil {
			slog.Warn("Trace disabled", "job_id", w.jobID, "error", err)
		} else {
			defer trace.Close()
		}
	}

	opts := evolve.RunOptions{
		MaxGenerations: cfg.MaxGenerations,
		Convergence:    fit.DisabledConvergenceConfig(),
	}
	if cfg.Patience > 0 {
		opts.Convergence = fit.ConvergenceConfig{Enabled: true, Patience: cfg.Patience, Threshold: 1e-4}
	}

	var lastBroadcast, lastSnapshot, lastStep time.Time
	lastStep = time.Now()
	lastSnapshot = lastStep
	snapshotEvery := time.Duration(cfg.SnapshotInterval) * time.Second

	res, runErr := ga.Run(ctx, opts, func(p evolve.Progress) {
		now := time.Now()
		w.metrics.generation(w.jobID, p.BestFitness, now.Sub(lastStep).Seconds())
		lastStep = now

		w.jm.UpdateJob(w.jobID, func(j *Job) {
			j.Generation = p.Generation
			j.BestFitness = p.BestFitness
			j.best = p.Fittest
		})
		if p.BestFitness > w.rendered {
			w.publish(pipeline, p.Fittest)
		}

		if trace != nil {
			if err := trace.Write(store.TraceEntry{
				Generation: p.Generation,
				Best:       p.Stats.Best,
				Mean:       p.Stats.Mean,
				Worst:      p.Stats.Worst,
				Timestamp:  now,
			}); err != nil {
				slog.Warn("Failed to write trace entry", "job_id", w.jobID, "error", err)
			}
		}

		if now.Sub(lastBroadcast) >= broadcastInterval {
			lastBroadcast = now
			w.broadcast(StateRunning, p.Generation, p.BestFitness, p.Elapsed)
		}

		if snapshotEvery > 0 && now.Sub(lastSnapshot) >= snapshotEvery {
			lastSnapshot = now
			w.snapshot(ga.State().String(), "")
		}
	})

	if runErr != nil {
		return w.fail(runErr)
	}

	best := res.Fittest
	if cfg.RefineIters > 0 && ctx.Err() == nil {
		optimizer := opt.NewMayfly(cfg.RefineIters, 20, int64(cfg.Seed))
		refined, err := evolve.Refine(best, pipeline.Evaluator, optimizer)
		if err != nil {
			return w.fail(err)
		}
		best = refined
	}

	state := jobStateFor(res.Reason)
	endTime := time.Now()
	w.jm.UpdateJob(w.jobID, func(j *Job) {
		j.State = state
		j.EndTime = &endTime
		j.best = best
		j.BestFitness = best.Fitness()
		j.Generation = res.Generations
	})
	if best.Fitness() != w.rendered {
		w.publish(pipeline, best)
	}
	w.metrics.jobFinished(state)

	slog.Info("Job finished",
		"job_id", w.jobID,
		"state", state,
		"generations", res.Generations,
		"elapsed", res.Elapsed,
		"initial_fitness", initial.Fitness(),
		"best_fitness", best.Fitness(),
	)

	w.snapshot(string(state), "")
	w.broadcast(state, res.Generations, best.Fitness(), res.Elapsed)
	return nil
}

// publish renders ind through the pipeline, so serialized backends stay on
// their executor, and stores the image on the job
func (w *worker) publish(pipeline *fit.Pipeline, ind *evolve.Individual) {
	img, err := pipeline.Render(ind.Genes())
	if err != nil {
		slog.Warn("Failed to render best individual", "job_id", w.jobID, "error", err)
		return
	}
	w.rendered = ind.Fitness()
	w.jm.UpdateJob(w.jobID, func(j *Job) { j.bestImage = img })
}

// jobStateFor maps why the run loop returned to a final job state
func jobStateFor(reason evolve.StopReason) JobState {
	switch reason {
	case evolve.StopCompleted:
		return StateCompleted
	case evolve.StopCancelled:
		return StateCancelled
	case evolve.StopFailed:
		return StateFailed
	default:
		return StateStopped
	}
}

func (w *worker) broadcast(state JobState, generation int, best float64, elapsed time.Duration) {
	var gps float64
	if elapsed > 0 {
		gps = float64(generation) / elapsed.Seconds()
	}
	w.jm.broadcaster.Broadcast(ProgressEvent{
		JobID:       w.jobID,
		State:       state,
		Generation:  generation,
		BestFitness: best,
		GPS:         gps,
		Timestamp:   time.Now(),
	})
}

// fail marks the job failed, records it and returns err
func (w *worker) fail(err error) error {
	endTime := time.Now()
	var generation int
	var best float64
	w.jm.UpdateJob(w.jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
		generation, best = j.Generation, j.BestFitness
	})
	w.metrics.jobFinished(StateFailed)
	slog.Error("Job failed", "job_id", w.jobID, "error", err)

	w.snapshot(string(StateFailed), err.Error())
	w.broadcast(StateFailed, generation, best, 0)
	return err
}

// snapshot persists run.json plus best.png and diff.png. Persistence
// problems are logged, never fatal to the job.
func (w *worker) snapshot(state, errMsg string) {
	if w.store == nil {
		return
	}

	job, exists := w.jm.GetJob(w.jobID)
	if !exists {
		return
	}
	best := job.Best()
	img, ref := job.Images()
	if best == nil || img == nil {
		slog.Debug("Skipping snapshot, no population yet", "job_id", w.jobID)
		return
	}

	record := &store.RunRecord{
		RunID:          w.jobID,
		State:          state,
		Generation:     job.Generation,
		BestFitness:    best.Fitness(),
		InitialFitness: job.InitialFitness,
		Width:          best.Width(),
		Height:         best.Height(),
		BestGenes:      store.RecordGenes(best.Genes()),
		Error:          errMsg,
		Timestamp:      time.Now(),
		Config:         job.Config.runConfig(),
	}
	if err := w.store.SaveRun(record); err != nil {
		slog.Error("Failed to save run record", "job_id", w.jobID, "error", err)
		return
	}

	if err := saveArtifacts(w.store, w.jobID, img, ref); err != nil {
		slog.Warn("Failed to save artifacts", "job_id", w.jobID, "error", err)
	}
	slog.Debug("Snapshot saved", "job_id", w.jobID, "generation", job.Generation)
}

// saveArtifacts writes best.png and diff.png
func saveArtifacts(st *store.FSStore, runID string, img, ref *image.NRGBA) error {
	if err := st.SaveArtifact(runID, store.ArtifactBest, img); err != nil {
		return err
	}
	return st.SaveArtifact(runID, store.ArtifactDiff, fit.DiffImage(ref, img))
}
