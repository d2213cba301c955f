package fit

import (
	"fmt"
	"math"

	"github.com/cwbudde/evoshapes/internal/gene"
)

// ParamsPerShape is the length of one encoded shape: vertices X, vertices
// Y, then red, green, blue and alpha.
func ParamsPerShape(vertices int) int {
	return 2*vertices + 4
}

// ParamVector encodes K shapes as a flat float64 slice. Every parameter is
// normalized to [0,1] so a box-bounded optimizer can use scalar bounds.
type ParamVector struct {
	Data     []float64
	K        int // Number of shapes
	Vertices int // Corners per shape
	Width    int // Image width
	Height   int // Image height
}

// NewParamVector creates a parameter vector for K shapes
func NewParamVector(k, vertices, width, height int) *ParamVector {
	return &ParamVector{
		Data:     make([]float64, k*ParamsPerShape(vertices)),
		K:        k,
		Vertices: vertices,
		Width:    width,
		Height:   height,
	}
}

// EncodeShape writes a shape to position i in the vector
func (pv *ParamVector) EncodeShape(i int, s *gene.Shape) error {
	if s.Vertices() != pv.Vertices {
		return fmt.Errorf("shape %d has %d vertices, vector expects %d", i, s.Vertices(), pv.Vertices)
	}

	offset := i * ParamsPerShape(pv.Vertices)
	for v := 0; v < pv.Vertices; v++ {
		x, y := s.Vertex(v)
		pv.Data[offset+v] = normalize(x, pv.Width)
		pv.Data[offset+pv.Vertices+v] = normalize(y, pv.Height)
	}

	c := s.Color()
	base := offset + 2*pv.Vertices
	pv.Data[base+0] = float64(c.Red()) / 255
	pv.Data[base+1] = float64(c.Green()) / 255
	pv.Data[base+2] = float64(c.Blue()) / 255
	pv.Data[base+3] = c.Alpha()
	return nil
}

// DecodeShape reads a shape from position i in the vector. Out-of-range
// values are clamped so the result is always a valid gene.
func (pv *ParamVector) DecodeShape(i int) (*gene.Shape, error) {
	offset := i * ParamsPerShape(pv.Vertices)

	xs := make([]float64, pv.Vertices)
	ys := make([]float64, pv.Vertices)
	for v := 0; v < pv.Vertices; v++ {
		xs[v] = clamp(pv.Data[offset+v], 0, 1) * float64(pv.Width)
		ys[v] = clamp(pv.Data[offset+pv.Vertices+v], 0, 1) * float64(pv.Height)
	}

	base := offset + 2*pv.Vertices
	c, err := gene.NewColor(
		channel(pv.Data[base+0]),
		channel(pv.Data[base+1]),
		channel(pv.Data[base+2]),
		clamp(pv.Data[base+3], 0, 1),
	)
	if err != nil {
		return nil, err
	}

	return gene.NewShape(xs, ys, c)
}

// Bounds returns lower and upper bounds for every parameter
func (pv *ParamVector) Bounds() (lower, upper []float64) {
	lower = make([]float64, len(pv.Data))
	upper = make([]float64, len(pv.Data))
	for i := range upper {
		upper[i] = 1
	}
	return lower, upper
}

func normalize(v float64, extent int) float64 {
	if extent <= 0 {
		return 0
	}
	return clamp(v/float64(extent), 0, 1)
}

func channel(v float64) int {
	return int(math.Round(clamp(v, 0, 1) * 255))
}

func clamp(val, lo, hi float64) float64 {
	if math.IsNaN(val) {
		return lo
	}
	return math.Max(lo, math.Min(hi, val))
}
