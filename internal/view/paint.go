// Package view shows a run's fittest image live in the terminal.
package view

import (
	"image"
	"image/color"

	"github.com/gdamore/tcell/v2"
)

// halfBlock paints the upper pixel as foreground and the lower one as
// background, giving two image rows per terminal row.
const halfBlock = '▀'

// Paint draws img into the cols x rows cell box at (x0, y0), scaled to fit
// with nearest-neighbour sampling. Each cell covers two vertical pixels.
func Paint(screen tcell.Screen, img image.Image, x0, y0, cols, rows int) {
	b := img.Bounds()
	if cols <= 0 || rows <= 0 || b.Empty() {
		return
	}

	// Preserve aspect ratio, pixel rows are twice as dense as cell rows
	scale := min(float64(cols)/float64(b.Dx()), float64(2*rows)/float64(b.Dy()))
	w := max(1, int(float64(b.Dx())*scale))
	h := max(1, int(float64(b.Dy())*scale))

	sample := func(px, py int) tcell.Color {
		sx := b.Min.X + min(b.Dx()-1, int(float64(px)/scale))
		sy := b.Min.Y + min(b.Dy()-1, int(float64(py)/scale))
		return toColor(img.At(sx, sy))
	}

	for cy := 0; cy < (h+1)/2; cy++ {
		for cx := 0; cx < w; cx++ {
			top := sample(cx, 2*cy)
			bottom := top
			if 2*cy+1 < h {
				bottom = sample(cx, 2*cy+1)
			}
			style := tcell.StyleDefault.Foreground(top).Background(bottom)
			screen.SetContent(x0+cx, y0+cy, halfBlock, nil, style)
		}
	}
}

func toColor(c color.Color) tcell.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return tcell.NewRGBColor(int32(n.R), int32(n.G), int32(n.B))
}

// DrawText writes s starting at (x, y), clipped to width cells
func DrawText(screen tcell.Screen, x, y, width int, s string, style tcell.Style) {
	i := 0
	for _, r := range s {
		if i >= width {
			return
		}
		screen.SetContent(x+i, y, r, nil, style)
		i++
	}
}
