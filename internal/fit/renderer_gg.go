package fit

import (
	"fmt"
	"image"

	"github.com/cwbudde/evoshapes/internal/gene"
	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
)

// GGRasterizer renders through the gogpu/gg software canvas, which uses
// analytic anti-aliasing. Each call owns its own context.
type GGRasterizer struct {
	background gg.RGBA
}

// NewGGRasterizer creates a gg-backed rasterizer with a white background
func NewGGRasterizer() *GGRasterizer {
	return &GGRasterizer{background: gg.White}
}

// Render implements Rasterizer
func (r *GGRasterizer) Render(genes []*gene.Shape, width, height int) (*image.NRGBA, error) {
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return out, nil
	}

	dc := gg.NewContext(width, height)
	defer dc.Close()

	dc.ClearWithColor(r.background)
	for i, s := range genes {
		if s == nil || s.Vertices() < 3 {
			continue
		}

		cr, cg, cb, ca := s.Color().Floats()
		dc.SetRGBA(cr, cg, cb, ca)

		x, y := s.Vertex(0)
		dc.MoveTo(x, y)
		for v := 1; v < s.Vertices(); v++ {
			x, y = s.Vertex(v)
			dc.LineTo(x, y)
		}
		dc.ClosePath()

		if err := dc.Fill(); err != nil {
			return nil, fmt.Errorf("failed to fill shape %d: %w", i, err)
		}
	}

	// Pending accelerator work must land before the pixels are read
	if err := dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("failed to flush gpu: %w", err)
	}

	src := dc.Image()
	draw.Copy(out, image.Point{}, src, src.Bounds(), draw.Src, nil)
	return out, nil
}
