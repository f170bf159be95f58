// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package filter

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot saves a scatter plot of the gene statistics
// using the log10 of the number of expressing cells
// and the log10 of the non-zero mean.
// Selected genes are drawn in red,
// and the cutoff values as lines.
//
// The format of the image is defined
// by the extension of the file name
// (for example ".png" or ".svg").
func Plot(name string, stats []Stat, cells int, p Param) error {
	var sel, rej plotter.XYs
	minY, maxY := math.MaxFloat64, -math.MaxFloat64
	maxX := 0.0
	for _, s := range stats {
		if s.NCells == 0 {
			continue
		}
		pt := plotter.XY{
			X: math.Log10(float64(s.NCells)),
			Y: math.Log10(s.NonZeroMean),
		}
		if pt.Y < minY {
			minY = pt.Y
		}
		if pt.Y > maxY {
			maxY = pt.Y
		}
		if pt.X > maxX {
			maxX = pt.X
		}
		if s.Selected {
			sel = append(sel, pt)
			continue
		}
		rej = append(rej, pt)
	}
	if len(sel)+len(rej) == 0 {
		return fmt.Errorf("filter plot: no expressed genes")
	}

	plt := plot.New()
	plt.X.Label.Text = "log10 number of cells"
	plt.Y.Label.Text = "log10 non-zero mean"

	if len(rej) > 0 {
		s, err := plotter.NewScatter(rej)
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = color.RGBA{160, 160, 160, 255}
		s.GlyphStyle.Radius = vg.Points(1)
		plt.Add(s)
		plt.Legend.Add("discarded", s)
	}
	if len(sel) > 0 {
		s, err := plotter.NewScatter(sel)
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = color.RGBA{204, 51, 17, 255}
		s.GlyphStyle.Radius = vg.Points(1)
		plt.Add(s)
		plt.Legend.Add("selected", s)
	}

	// cutoff lines
	cuts := []plotter.XYs{
		{{X: math.Log10(p.CellCount), Y: minY}, {X: math.Log10(p.CellCount), Y: maxY}},
		{{X: math.Log10(float64(cells) * p.CellPercentage), Y: minY}, {X: math.Log10(float64(cells) * p.CellPercentage), Y: maxY}},
		{{X: 0, Y: math.Log10(p.NonZeroMean)}, {X: maxX, Y: math.Log10(p.NonZeroMean)}},
	}
	for _, c := range cuts {
		if math.IsInf(c[0].X, 0) || math.IsInf(c[0].Y, 0) {
			continue
		}
		l, err := plotter.NewLine(c)
		if err != nil {
			return err
		}
		l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		plt.Add(l)
	}

	if err := plt.Save(6*vg.Inch, 4*vg.Inch, name); err != nil {
		return fmt.Errorf("filter plot: %v", err)
	}
	return nil
}
