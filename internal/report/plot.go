// Package report draws charts from generation traces.
package report

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/cwbudde/evoshapes/internal/store"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrEmptyTrace is returned when there is nothing to plot
var ErrEmptyTrace = errors.New("trace has no entries")

// Size of the saved chart
var (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

// FitnessPlot builds a fitness-over-generations chart with one line each
// for the best, mean and worst individual.
func FitnessPlot(entries []store.TraceEntry, title string) (*plot.Plot, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyTrace
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness"
	p.Y.Min = 0
	p.Y.Max = 100

	best := make(plotter.XYs, len(entries))
	mean := make(plotter.XYs, len(entries))
	worst := make(plotter.XYs, len(entries))
	for i, e := range entries {
		g := float64(e.Generation)
		best[i] = plotter.XY{X: g, Y: e.Best}
		mean[i] = plotter.XY{X: g, Y: e.Mean}
		worst[i] = plotter.XY{X: g, Y: e.Worst}
	}

	series := []struct {
		name string
		pts  plotter.XYs
		c    color.Color
	}{
		{"best", best, color.RGBA{R: 200, A: 255}},
		{"mean", mean, color.RGBA{B: 200, A: 255}},
		{"worst", worst, color.RGBA{R: 128, G: 128, B: 128, A: 255}},
	}
	for _, s := range series {
		line, err := plotter.NewLine(s.pts)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s line: %w", s.name, err)
		}
		line.Color = s.c
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	p.Add(plotter.NewGrid())
	p.Legend.Top = false
	p.Legend.Left = false
	return p, nil
}

// SaveFitnessPlot writes the chart to outPath. The format follows the
// extension (png, svg, pdf).
func SaveFitnessPlot(entries []store.TraceEntry, title, outPath string) error {
	p, err := FitnessPlot(entries, title)
	if err != nil {
		return err
	}
	if err := p.Save(Width, Height, outPath); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
