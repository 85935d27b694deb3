package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/summary"
)

// Plot dimensions.
const (
	plotWidth  = 6 * vg.Inch
	plotHeight = 4 * vg.Inch
)

var (
	earlyColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	lateColor   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	ribbonAlpha = color.RGBA{R: 128, G: 128, B: 128, A: 60}
)

// PlotSeries renders a mean time series with its confidence ribbon,
// split at splitTime into two labeled ranges.
func PlotSeries(path, title, yLabel string, sums []summary.Summary, splitTime float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time"
	p.Y.Label.Text = yLabel

	var early, late []summary.Summary
	for _, s := range sums {
		if s.Time <= splitTime {
			early = append(early, s)
		} else {
			late = append(late, s)
		}
	}
	if err := addRibbon(p, sums); err != nil {
		return err
	}
	if err := addLine(p, early, earlyColor, fmt.Sprintf("t ≤ %g", splitTime)); err != nil {
		return err
	}
	if err := addLine(p, late, lateColor, fmt.Sprintf("t > %g", splitTime)); err != nil {
		return err
	}

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}

// PlotCIF renders the mean cumulative incidence curve with its ribbon.
func PlotCIF(path string, sums []summary.Summary) error {
	p := plot.New()
	p.Title.Text = "Cumulative incidence"
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "CIF"
	p.Y.Min = 0

	if err := addRibbon(p, sums); err != nil {
		return err
	}
	if err := addLine(p, sums, earlyColor, "mean CIF"); err != nil {
		return err
	}
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}

// addLine draws the mean curve over the points with a present mean.
func addLine(p *plot.Plot, sums []summary.Summary, c color.Color, label string) error {
	var xys plotter.XYs
	for _, s := range sums {
		if m, ok := s.Mean.Float(); ok {
			xys = append(xys, plotter.XY{X: s.Time, Y: m})
		}
	}
	if len(xys) == 0 {
		return nil
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("build line: %w", err)
	}
	line.Color = c
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}

// addRibbon shades the 95% CI band over the points where both bounds
// are present.
func addRibbon(p *plot.Plot, sums []summary.Summary) error {
	var upper, lower plotter.XYs
	for _, s := range sums {
		u, uok := s.Upper.Float()
		l, lok := s.Lower.Float()
		if !uok || !lok {
			continue
		}
		upper = append(upper, plotter.XY{X: s.Time, Y: u})
		lower = append(lower, plotter.XY{X: s.Time, Y: l})
	}
	if len(upper) < 2 {
		return nil
	}
	band := make(plotter.XYs, 0, len(upper)+len(lower))
	band = append(band, upper...)
	for i := len(lower) - 1; i >= 0; i-- {
		band = append(band, lower[i])
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return fmt.Errorf("build ribbon: %w", err)
	}
	poly.Color = ribbonAlpha
	poly.LineStyle.Width = 0
	p.Add(poly)
	return nil
}
