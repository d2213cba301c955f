// Package evolve implements the generational genetic algorithm that evolves
// polygon genomes towards a reference image.
package evolve

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwbudde/evoshapes/internal/fit"
)

// State is the lifecycle phase of a GeneticAlgorithm
type State int

const (
	NotStarted State = iota
	Running
	Completed
	Stopped
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Stopped:
		return "stopped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrNoReference is returned by New when no reference image is given
var ErrNoReference = errors.New("reference image is required")

// GeneticAlgorithm owns the current population of a run and steps it one
// generation at a time. It is not safe for concurrent use.
type GeneticAlgorithm struct {
	cfg    Config
	layout Layout
	ev     fit.Evaluator
	rng    Source

	pop        *Population
	best       float64
	generation int
	state      State
	err        error
}

// New validates the configuration and seeds generation 0 with random,
// scored individuals.
func New(cfg Config, ref *fit.ImageContext, ev fit.Evaluator, rng Source) (*GeneticAlgorithm, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, ErrNoReference
	}

	ga := &GeneticAlgorithm{
		cfg: cfg,
		layout: Layout{
			Genes:    cfg.Genes,
			Vertices: cfg.Vertices,
			Width:    ref.Width(),
			Height:   ref.Height(),
		},
		ev:  ev,
		rng: rng,
	}

	// Drawing all genomes before scoring keeps the random stream identical
	// whatever the parallelism
	pop, _ := NewPopulation(cfg.PopulationSize, ga.layout, rng, ev, false)
	for i := 0; i < pop.Size(); i++ {
		pop.Set(i, NewIndividual(ga.layout, rng, true))
	}
	if err := scoreAll(pop.individuals, ev, cfg.Parallelism); err != nil {
		return nil, fmt.Errorf("failed to seed population: %w", err)
	}

	ga.pop = pop
	ga.best = pop.Fittest().Fitness()

	slog.Debug("Seeded population",
		"population", cfg.PopulationSize,
		"genes", cfg.Genes,
		"width", ga.layout.Width,
		"height", ga.layout.Height,
		"best_fitness", ga.best,
	)
	return ga, nil
}

// StepGeneration produces the next population and returns its fittest
// individual. On error the previous population stays in place and the
// algorithm moves to Failed; further steps return the same error.
func (ga *GeneticAlgorithm) StepGeneration() (*Individual, error) {
	if ga.state == Failed {
		return nil, ga.err
	}

	size := ga.pop.Size()
	next, _ := NewPopulation(size, ga.layout, ga.rng, ga.ev, false)

	// Elitism: carried over as is, fitness is still valid
	next.Set(0, ga.pop.Fittest())

	for i := 1; i < size; i++ {
		a := ga.selectParent()
		b := ga.selectParent()
		child := ga.crossover(a, b)
		ga.mutate(child)
		next.Set(i, child)
	}

	if err := scoreAll(next.individuals[1:], ga.ev, ga.cfg.Parallelism); err != nil {
		ga.state = Failed
		ga.err = fmt.Errorf("generation %d: %w", ga.generation+1, err)
		slog.Error("Generation failed", "generation", ga.generation+1, "error", err)
		return nil, ga.err
	}

	ga.pop = next
	ga.generation++
	fittest := next.Fittest()
	ga.best = fittest.Fitness()

	if ga.IsEvolutionCompleted() {
		ga.state = Completed
	} else {
		ga.state = Running
	}

	slog.Debug("Generation complete", "generation", ga.generation, "best_fitness", ga.best)
	return fittest, nil
}

// IsEvolutionCompleted reports whether the best fitness reached the target
func (ga *GeneticAlgorithm) IsEvolutionCompleted() bool {
	return ga.best >= ga.cfg.TargetFitness
}

// Fittest returns the best individual of the current population
func (ga *GeneticAlgorithm) Fittest() *Individual { return ga.pop.Fittest() }

// BestFitness returns the fitness recorded after the last step
func (ga *GeneticAlgorithm) BestFitness() float64 { return ga.best }

// Generation returns the number of completed steps
func (ga *GeneticAlgorithm) Generation() int { return ga.generation }

// State returns the lifecycle phase
func (ga *GeneticAlgorithm) State() State { return ga.state }

// Population returns the current population. Callers must not modify it.
func (ga *GeneticAlgorithm) Population() *Population { return ga.pop }

// Layout returns the genome layout of the run
func (ga *GeneticAlgorithm) Layout() Layout { return ga.layout }

// Config returns the run configuration
func (ga *GeneticAlgorithm) Config() Config { return ga.cfg }

// Stop marks the run as stopped by its caller
func (ga *GeneticAlgorithm) Stop() {
	if ga.state != Failed {
		ga.state = Stopped
	}
}

// Err returns the error that moved the algorithm to Failed
func (ga *GeneticAlgorithm) Err() error { return ga.err }
