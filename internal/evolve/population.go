package evolve

import (
	"fmt"

	"github.com/cwbudde/evoshapes/internal/fit"
)

// Population is a fixed-size set of individual slots
type Population struct {
	individuals []*Individual
}

// Stats summarizes the fitness distribution of a population
type Stats struct {
	Best  float64 `json:"best"`
	Mean  float64 `json:"mean"`
	Worst float64 `json:"worst"`
}

// NewPopulation allocates size slots. With initialize every slot receives a
// random individual which is scored immediately.
func NewPopulation(size int, layout Layout, rng Source, ev fit.Evaluator, initialize bool) (*Population, error) {
	p := &Population{individuals: make([]*Individual, size)}
	if !initialize {
		return p, nil
	}

	for i := range p.individuals {
		p.individuals[i] = NewIndividual(layout, rng, true)
		if err := p.individuals[i].RecalculateFitness(ev); err != nil {
			return nil, fmt.Errorf("failed to seed individual %d: %w", i, err)
		}
	}
	return p, nil
}

// Set stores ind at index i
func (p *Population) Set(i int, ind *Individual) { p.individuals[i] = ind }

// Get returns the individual at index i
func (p *Population) Get(i int) *Individual { return p.individuals[i] }

// Size returns the number of slots
func (p *Population) Size() int { return len(p.individuals) }

// Fittest returns the individual with the highest fitness. On ties the
// lowest index wins. Empty slots are skipped.
func (p *Population) Fittest() *Individual {
	var best *Individual
	for _, ind := range p.individuals {
		if ind == nil {
			continue
		}
		if best == nil || ind.fitness > best.fitness {
			best = ind
		}
	}
	return best
}

// Stats computes best, mean and worst fitness over the filled slots
func (p *Population) Stats() Stats {
	var s Stats
	n := 0
	for _, ind := range p.individuals {
		if ind == nil {
			continue
		}
		if n == 0 || ind.fitness > s.Best {
			s.Best = ind.fitness
		}
		if n == 0 || ind.fitness < s.Worst {
			s.Worst = ind.fitness
		}
		s.Mean += ind.fitness
		n++
	}
	if n > 0 {
		s.Mean /= float64(n)
	}
	return s
}
