package server

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"
	"time"

	"github.com/cwbudde/evoshapes/internal/evolve"
	"github.com/cwbudde/evoshapes/internal/fit"
	"github.com/cwbudde/evoshapes/internal/store"
	"github.com/google/uuid"
)

// JobState represents the current state of a job
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateStopped   JobState = "stopped"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// Finished reports whether the job can no longer change
func (s JobState) Finished() bool {
	return s == StateCompleted || s == StateStopped || s == StateFailed || s == StateCancelled
}

// ErrJobNotFound is returned for unknown job IDs
var ErrJobNotFound = errors.New("job not found")

// JobConfig is the request body of POST /api/v1/jobs
type JobConfig struct {
	RefPath        string   `json:"refPath"`
	PopulationSize int      `json:"populationSize"`
	Genes          int      `json:"genes"`
	Vertices       int      `json:"vertices"`
	MutationRate   *float64 `json:"mutationRate,omitempty"` // nil takes the default, 0 disables mutation
	MaxGenerations int      `json:"maxGenerations"`
	Patience       int      `json:"patience,omitempty"` // Stop after N stale generations (0 = disabled)
	MaxSize        int      `json:"maxSize,omitempty"`  // Downscale the reference so the longer side fits
	Backend        string   `json:"backend,omitempty"`  // cpu, gg
	Metric         string   `json:"metric,omitempty"`   // abs, lab
	Parallelism    int      `json:"parallelism,omitempty"`
	RefineIters    int      `json:"refineIters,omitempty"` // Mayfly iterations per gene after the run (0 = off)
	Seed           uint64   `json:"seed"`

	// SnapshotInterval saves run.json and artifacts every N seconds (0 = only at the end)
	SnapshotInterval int `json:"snapshotInterval,omitempty"`
}

// applyDefaults fills zero values with the classic parameters
func (c *JobConfig) applyDefaults() {
	def := evolve.DefaultConfig()
	if c.PopulationSize <= 0 {
		c.PopulationSize = def.PopulationSize
	}
	if c.Genes <= 0 {
		c.Genes = def.Genes
	}
	if c.Vertices <= 0 {
		c.Vertices = def.Vertices
	}
	if c.MutationRate == nil {
		rate := def.MutationRate
		c.MutationRate = &rate
	}
	if c.Backend == "" {
		c.Backend = string(fit.BackendCPU)
	}
	if c.Metric == "" {
		c.Metric = "abs"
	}
}

// evolveConfig converts the request to the algorithm configuration
func (c JobConfig) evolveConfig() evolve.Config {
	cfg := evolve.DefaultConfig()
	cfg.PopulationSize = c.PopulationSize
	cfg.Genes = c.Genes
	cfg.Vertices = c.Vertices
	if c.MutationRate != nil {
		cfg.MutationRate = *c.MutationRate
	}
	cfg.Parallelism = c.Parallelism
	return cfg
}

// runConfig converts the request to its persisted form
func (c JobConfig) runConfig() store.RunConfig {
	return store.RunConfig{
		RefPath:        c.RefPath,
		PopulationSize: c.PopulationSize,
		Genes:          c.Genes,
		Vertices:       c.Vertices,
		MutationRate:   c.evolveConfig().MutationRate,
		MaxGenerations: c.MaxGenerations,
		Backend:        c.Backend,
		Metric:         c.Metric,
		Seed:           c.Seed,
	}
}

// Job represents one evolution run owned by the server
type Job struct {
	ID             string     `json:"id"`
	State          JobState   `json:"state"`
	Config         JobConfig  `json:"config"`
	BestFitness    float64    `json:"bestFitness"`
	InitialFitness float64    `json:"initialFitness"`
	Generation     int        `json:"generation"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	Error          string     `json:"error,omitempty"`

	best      *evolve.Individual
	bestImage *image.NRGBA
	reference *image.NRGBA
	cancel    context.CancelFunc
}

// Best returns the fittest individual seen so far, nil before generation 0
// is seeded.
func (j *Job) Best() *evolve.Individual {
	return j.best
}

// Images returns the last rendering of the fittest individual and the
// reference it is scored against. The worker renders on its own executor,
// so readers only ever encode finished images.
func (j *Job) Images() (best, reference *image.NRGBA) {
	return j.bestImage, j.reference
}

// JobManager manages the lifecycle of jobs
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	broadcaster *EventBroadcaster
}

// NewJobManager creates a new JobManager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob registers a new pending job. cancel stops the job's worker.
func (jm *JobManager) CreateJob(config JobConfig, cancel context.CancelFunc) Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    config,
		StartTime: time.Now(),
		cancel:    cancel,
	}

	jm.jobs[job.ID] = job
	return *job
}

// GetJob returns a snapshot of the job
func (jm *JobManager) GetJob(id string) (Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return Job{}, false
	}
	return *job, true
}

// ListJobs returns snapshots of all jobs, oldest first
func (jm *JobManager) ListJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartTime.Before(jobs[j].StartTime)
	})
	return jobs
}

// UpdateJob atomically updates a job using the provided function
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	updateFn(job)
	return nil
}

// CancelJob asks the job's worker to stop after the current generation
func (jm *JobManager) CancelJob(id string) error {
	jm.mu.RLock()
	job, exists := jm.jobs[id]
	var cancel context.CancelFunc
	if exists {
		cancel = job.cancel
	}
	jm.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if cancel != nil {
		cancel()
	}
	return nil
}

// GetRunningJobs returns all jobs currently in the running state
func (jm *JobManager) GetRunningJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	runningJobs := make([]Job, 0)
	for _, job := range jm.jobs {
		if job.State == StateRunning {
			runningJobs = append(runningJobs, *job)
		}
	}
	return runningJobs
}
