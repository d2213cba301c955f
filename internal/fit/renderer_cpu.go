package fit

import (
	"image"
	"image/color"

	"github.com/cwbudde/evoshapes/internal/gene"
	"golang.org/x/image/vector"
)

// VectorRasterizer implements software polygon filling with
// golang.org/x/image/vector. It keeps no state between calls and is safe
// for concurrent use.
type VectorRasterizer struct {
	background color.NRGBA
}

// NewVectorRasterizer creates a CPU rasterizer with a white background
func NewVectorRasterizer() *VectorRasterizer {
	return &VectorRasterizer{background: color.NRGBA{255, 255, 255, 255}}
}

// Render implements Rasterizer
func (r *VectorRasterizer) Render(genes []*gene.Shape, width, height int) (*image.NRGBA, error) {
	img := newCanvas(width, height, r.background)
	if width == 0 || height == 0 {
		return img, nil
	}

	z := vector.NewRasterizer(width, height)
	for _, s := range genes {
		// Fewer than three corners cover no area
		if s == nil || s.Vertices() < 3 {
			continue
		}

		z.Reset(width, height)
		x, y := s.Vertex(0)
		z.MoveTo(float32(x), float32(y))
		for i := 1; i < s.Vertices(); i++ {
			x, y = s.Vertex(i)
			z.LineTo(float32(x), float32(y))
		}
		z.ClosePath()

		// DrawOp defaults to draw.Over, which composites with the shape alpha
		z.Draw(img, img.Bounds(), image.NewUniform(s.Color().NRGBA()), image.Point{})
	}

	return img, nil
}

// newCanvas allocates an image filled with a solid color
func newCanvas(width, height int, bg color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = bg.R
		img.Pix[i+1] = bg.G
		img.Pix[i+2] = bg.B
		img.Pix[i+3] = bg.A
	}
	return img
}
