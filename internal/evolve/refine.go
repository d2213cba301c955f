package evolve

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/evoshapes/internal/fit"
	"github.com/cwbudde/evoshapes/internal/gene"
	"github.com/cwbudde/evoshapes/internal/opt"
)

// Refine polishes an individual gene by gene with a continuous optimizer.
// For each position the optimizer searches the normalized parameters of
// that one shape while the rest of the genome stays fixed; a candidate is
// kept only if it raises the fitness. The input is never modified.
func Refine(ind *Individual, ev fit.Evaluator, optimizer opt.Optimizer) (*Individual, error) {
	if ind.Len() == 0 {
		return ind, nil
	}

	vertices := ind.genes[0].Vertices()
	pv := fit.NewParamVector(ind.Len(), vertices, ind.width, ind.height)
	for i, s := range ind.genes {
		if s == nil {
			return nil, fmt.Errorf("%w: slot %d", ErrIncompleteGenome, i)
		}
		if err := pv.EncodeShape(i, s); err != nil {
			return nil, fmt.Errorf("failed to encode genome: %w", err)
		}
	}

	best := &Individual{
		genes:   ind.Genes(),
		fitness: ind.fitness,
		width:   ind.width,
		height:  ind.height,
	}

	dim := fit.ParamsPerShape(vertices)
	single := fit.NewParamVector(1, vertices, ind.width, ind.height)
	lower, upper := single.Bounds()

	var evalErr error
	for g := range best.genes {
		trial := make([]*gene.Shape, len(best.genes))
		copy(trial, best.genes)

		// Minimize the remaining distance to a perfect score
		objective := func(params []float64) float64 {
			copy(single.Data, params)
			s, err := single.DecodeShape(0)
			if err != nil {
				return 100
			}
			trial[g] = s
			f, err := ev.Fitness(trial, best.width, best.height)
			if err != nil {
				if evalErr == nil {
					evalErr = err
				}
				return 100
			}
			return 100 - f
		}

		params, cost := optimizer.Run(objective, lower, upper, dim)
		if evalErr != nil {
			return nil, fmt.Errorf("failed to refine gene %d: %w", g, evalErr)
		}
		if params == nil || 100-cost <= best.fitness {
			continue
		}

		copy(pv.Data[g*dim:(g+1)*dim], params)
		s, err := pv.DecodeShape(g)
		if err != nil {
			return nil, fmt.Errorf("failed to decode gene %d: %w", g, err)
		}
		best.genes[g] = s
		if err := best.RecalculateFitness(ev); err != nil {
			return nil, err
		}

		slog.Debug("Refined gene", "gene", g, "fitness", best.fitness)
	}

	slog.Info("Refinement complete", "initial_fitness", ind.fitness, "refined_fitness", best.fitness)
	return best, nil
}
