package evolve

import (
	"github.com/cwbudde/evoshapes/internal/fit"
	"github.com/sourcegraph/conc/pool"
)

// scoreAll recalculates the fitness of every individual. With parallelism
// above one the evaluations run on a bounded worker pool; the evaluator
// must then be safe for concurrent use (wrap it in fit.Exclusive if not).
func scoreAll(inds []*Individual, ev fit.Evaluator, parallelism int) error {
	if parallelism <= 1 || len(inds) < 2 {
		for _, ind := range inds {
			if err := ind.RecalculateFitness(ev); err != nil {
				return err
			}
		}
		return nil
	}

	p := pool.New().WithMaxGoroutines(parallelism).WithErrors().WithFirstError()
	for _, ind := range inds {
		p.Go(func() error {
			return ind.RecalculateFitness(ev)
		})
	}
	return p.Wait()
}
