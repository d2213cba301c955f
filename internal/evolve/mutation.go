package evolve

import (
	"math"

	"github.com/cwbudde/evoshapes/internal/gene"
)

// mutate perturbs each gene of ind with probability MutationRate. A
// mutating gene moves every vertex and shifts every color channel at once.
func (ga *GeneticAlgorithm) mutate(ind *Individual) {
	for _, s := range ind.genes {
		// Strict comparison so a zero rate never mutates
		if ga.rng.Float64() < ga.cfg.MutationRate {
			ga.mutateShape(s)
		}
	}
}

func (ga *GeneticAlgorithm) mutateShape(s *gene.Shape) {
	w, h := ga.layout.Width, ga.layout.Height
	stepX := math.Round(float64(w) * ga.cfg.PositionFactor)
	stepY := math.Round(float64(h) * ga.cfg.PositionFactor)

	xs := s.XCoordinates()
	ys := s.YCoordinates()
	for v := range xs {
		xs[v] = offsetFloat(ga.rng, xs[v], 0, float64(w), stepX)
		ys[v] = offsetFloat(ga.rng, ys[v], 0, float64(h), stepY)
	}
	// Lengths come from the shape itself
	_ = s.SetXCoordinates(xs)
	_ = s.SetYCoordinates(ys)

	c := s.Color()
	step := ga.cfg.ColorStep
	s.SetColor(gene.MustColor(
		offsetInt(ga.rng, c.Red(), 0, 255, step),
		offsetInt(ga.rng, c.Green(), 0, 255, step),
		offsetInt(ga.rng, c.Blue(), 0, 255, step),
		offsetFloat(ga.rng, c.Alpha(), 0, 1, ga.cfg.AlphaStep),
	))
}

// offsetInt adds a uniform offset in [-m,+m) to value, rounds, and clamps
// the result to [lo,hi].
func offsetInt(rng Source, value, lo, hi, m int) int {
	v := int(math.Round(float64(value) + 2*rng.Float64()*float64(m) - float64(m)))
	return min(max(v, lo), hi)
}

// offsetFloat adds a uniform offset in [-m,+m) to value and clamps the
// result to [lo,hi].
func offsetFloat(rng Source, value, lo, hi, m float64) float64 {
	v := value + 2*rng.Float64()*m - m
	return math.Max(math.Min(v, hi), lo)
}
