package telemetry

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	maxDispColor  = color.RGBA{R: 200, G: 40, B: 40, A: 255}
	meanDispColor = color.RGBA{R: 40, G: 90, B: 200, A: 255}
)

// SaveConvergencePlot plots max and mean squared displacement per iteration
// on a log scale. Non-positive values cannot be shown and are skipped.
func SaveConvergencePlot(series []IterationStats, path string) error {
	p := plot.New()
	p.Title.Text = "Convergence"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Squared displacement"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	maxPts := make(plotter.XYs, 0, len(series))
	meanPts := make(plotter.XYs, 0, len(series))
	for _, s := range series {
		if s.MaxDispSq > 0 {
			maxPts = append(maxPts, plotter.XY{X: float64(s.Iteration), Y: s.MaxDispSq})
		}
		if s.MeanDispSq > 0 {
			meanPts = append(meanPts, plotter.XY{X: float64(s.Iteration), Y: s.MeanDispSq})
		}
	}
	if len(maxPts) == 0 {
		return fmt.Errorf("plotting convergence: no positive displacement to plot")
	}

	for _, l := range []struct {
		name  string
		pts   plotter.XYs
		color color.Color
	}{
		{"max", maxPts, maxDispColor},
		{"mean", meanPts, meanDispColor},
	} {
		if len(l.pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(l.pts)
		if err != nil {
			return fmt.Errorf("plotting %s displacement: %w", l.name, err)
		}
		line.Color = l.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(l.name, line)
	}

	p.Legend.Top = true
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving convergence plot: %w", err)
	}
	return nil
}
