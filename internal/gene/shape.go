// Package gene holds the genetic building blocks: colors and polygons.
package gene

import (
	"fmt"
	"slices"
)

// Shape is one gene: a polygon given by parallel X and Y coordinate
// sequences plus a fill color. Both sequences always have the same length.
type Shape struct {
	xs    []float64
	ys    []float64
	color Color
}

// NewShape copies the coordinates, so callers may reuse their buffers.
func NewShape(xs, ys []float64, c Color) (*Shape, error) {
	if len(xs) != len(ys) {
		return nil, &ValidationError{
			Field:  "coordinates",
			Reason: fmt.Sprintf("length mismatch: %d x vs %d y", len(xs), len(ys)),
		}
	}
	return &Shape{xs: slices.Clone(xs), ys: slices.Clone(ys), color: c}, nil
}

// Vertices returns the number of polygon corners.
func (s *Shape) Vertices() int {
	return len(s.xs)
}

// Vertex returns the i-th corner without copying.
func (s *Shape) Vertex(i int) (x, y float64) {
	return s.xs[i], s.ys[i]
}

// XCoordinates returns a copy of the X coordinates.
func (s *Shape) XCoordinates() []float64 {
	return slices.Clone(s.xs)
}

// YCoordinates returns a copy of the Y coordinates.
func (s *Shape) YCoordinates() []float64 {
	return slices.Clone(s.ys)
}

// Color returns the fill color.
func (s *Shape) Color() Color {
	return s.color
}

// SetXCoordinates replaces the X coordinates with a copy of xs.
// The vertex count cannot change.
func (s *Shape) SetXCoordinates(xs []float64) error {
	if len(xs) != len(s.ys) {
		return &ValidationError{
			Field:  "x",
			Reason: fmt.Sprintf("expected %d coordinates, got %d", len(s.ys), len(xs)),
		}
	}
	s.xs = slices.Clone(xs)
	return nil
}

// SetYCoordinates replaces the Y coordinates with a copy of ys.
func (s *Shape) SetYCoordinates(ys []float64) error {
	if len(ys) != len(s.xs) {
		return &ValidationError{
			Field:  "y",
			Reason: fmt.Sprintf("expected %d coordinates, got %d", len(s.xs), len(ys)),
		}
	}
	s.ys = slices.Clone(ys)
	return nil
}

// SetColor replaces the fill color.
func (s *Shape) SetColor(c Color) {
	s.color = c
}

// Clone returns a deep copy that shares no memory with s.
func (s *Shape) Clone() *Shape {
	return &Shape{xs: slices.Clone(s.xs), ys: slices.Clone(s.ys), color: s.color}
}

// Equal reports whether both shapes have identical coordinates and color.
func (s *Shape) Equal(o *Shape) bool {
	if s == nil || o == nil {
		return s == o
	}
	return slices.Equal(s.xs, o.xs) && slices.Equal(s.ys, o.ys) && s.color == o.color
}
