package fit

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/cwbudde/evoshapes/internal/gene"
)

// Backend identifies a rasterizer implementation.
type Backend string

const (
	BackendCPU Backend = "cpu"
	BackendGG  Backend = "gg"
)

// ErrUnknownBackend is returned when the name does not match a known backend.
var ErrUnknownBackend = errors.New("unknown rasterizer backend")

// NormalizeBackend maps arbitrary user input to a canonical backend identifier.
func NormalizeBackend(name string) Backend {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cpu", "vector":
		return BackendCPU
	case "gg", "gogpu":
		return BackendGG
	default:
		return Backend(name)
	}
}

// SupportedBackends returns the list of backends understood by the factory.
func SupportedBackends() []Backend {
	return []Backend{BackendCPU, BackendGG}
}

// NewRasterizer constructs the requested rasterizer.
func NewRasterizer(name string) (Rasterizer, error) {
	switch NormalizeBackend(name) {
	case BackendCPU:
		return NewVectorRasterizer(), nil
	case BackendGG:
		return NewGGRasterizer(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
}

// Serialized reports whether every render on the backend must run on one
// goroutine. gg may hand fills to a process-wide GPU accelerator, so its
// pipelines route both scoring and Render through Exclusive.
func Serialized(name string) bool {
	return NormalizeBackend(name) == BackendGG
}

// Pipeline is a ready-to-use evaluator for one reference: the scorer plus,
// for serialized backends, the Exclusive executor in front of it.
type Pipeline struct {
	Scorer    *Scorer
	Evaluator Evaluator
	exclusive *Exclusive
}

// NewPipeline wires a backend and a metric to a reference image.
func NewPipeline(ref *ImageContext, backend, metric string) (*Pipeline, error) {
	raster, err := NewRasterizer(backend)
	if err != nil {
		return nil, err
	}
	compare, err := CompareFuncFor(metric)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{Scorer: NewScorer(ref, raster, compare)}
	p.Evaluator = p.Scorer
	if Serialized(backend) {
		p.exclusive = NewExclusive(p.Scorer)
		p.Evaluator = p.exclusive
	}
	return p, nil
}

// Render draws genes at the reference size, on the exclusive worker when
// the backend needs one.
func (p *Pipeline) Render(genes []*gene.Shape) (*image.NRGBA, error) {
	if p.exclusive == nil {
		return p.Scorer.Render(genes)
	}

	var img *image.NRGBA
	var err error
	if doErr := p.exclusive.Do(func() { img, err = p.Scorer.Render(genes) }); doErr != nil {
		return nil, doErr
	}
	return img, err
}

// Close stops the exclusive executor, if any.
func (p *Pipeline) Close() error {
	if p.exclusive != nil {
		return p.exclusive.Close()
	}
	return nil
}
