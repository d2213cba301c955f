package evolve

import (
	"image"
	"image/color"

	"github.com/cwbudde/evoshapes/internal/fit"
	"github.com/cwbudde/evoshapes/internal/gene"
)

// fixedSource always returns the same draws
type fixedSource struct {
	f float64
	i int
}

func (s fixedSource) Float64() float64 { return s.f }
func (s fixedSource) IntN(n int) int   { return s.i % n }

// evalFunc adapts a function to fit.Evaluator
type evalFunc func(genes []*gene.Shape, width, height int) (float64, error)

func (f evalFunc) Fitness(genes []*gene.Shape, width, height int) (float64, error) {
	return f(genes, width, height)
}

// redness scores a genome by the mean red channel of its genes, giving
// distinct, cheap fitness values
var redness = evalFunc(func(genes []*gene.Shape, _, _ int) (float64, error) {
	var sum float64
	for _, g := range genes {
		sum += float64(g.Color().Red())
	}
	return 100 * sum / (255 * float64(len(genes))), nil
})

func solidReference(w, h int, c color.NRGBA) *fit.ImageContext {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return fit.NewImageContext(img)
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.PopulationSize = 12
	cfg.Genes = 4
	cfg.MutationRate = 0.2
	return cfg
}
