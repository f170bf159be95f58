// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package optim

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Trace is the loss
// (the negative of the log posterior)
// at each epoch of a fit.
type Trace struct {
	Loss []float64
}

// Add adds the loss of a new epoch.
func (tr *Trace) Add(loss float64) {
	tr.Loss = append(tr.Loss, loss)
}

// Converged returns true if during the last epochs
// the relative change of the loss
// was always smaller than tol.
// If tol is zero,
// it always returns false.
func (tr *Trace) Converged(tol float64, epochs int) bool {
	if tol <= 0 || epochs <= 0 {
		return false
	}
	if len(tr.Loss) <= epochs {
		return false
	}

	last := tr.Loss[len(tr.Loss)-epochs-1:]
	for i := 1; i < len(last); i++ {
		d := math.Abs(last[i]-last[i-1]) / math.Max(math.Abs(last[i-1]), 1)
		if d >= tol {
			return false
		}
	}
	return true
}

// Last returns the loss of the last epoch.
func (tr *Trace) Last() float64 {
	if len(tr.Loss) == 0 {
		return math.NaN()
	}
	return tr.Loss[len(tr.Loss)-1]
}

// TSV writes the trace as a tab-delimited file
// with the fields "epoch" and "loss".
func (tr *Trace) TSV(w io.Writer) error {
	tab := csv.NewWriter(w)
	tab.Comma = '\t'
	tab.UseCRLF = true

	if err := tab.Write([]string{"epoch", "loss"}); err != nil {
		return fmt.Errorf("unable to write header: %v", err)
	}
	for i, l := range tr.Loss {
		row := []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(l, 'f', 6, 64),
		}
		if err := tab.Write(row); err != nil {
			return fmt.Errorf("when writing data: %v", err)
		}
	}

	tab.Flush()
	if err := tab.Error(); err != nil {
		return fmt.Errorf("when writing data: %v", err)
	}
	return nil
}

// Plot saves a plot of the loss by epoch.
// The first skip epochs are not drawn,
// as the initial loss is usually too large.
func (tr *Trace) Plot(name, title string, skip int) error {
	if skip >= len(tr.Loss) {
		skip = 0
	}
	if len(tr.Loss) == 0 {
		return fmt.Errorf("trace plot: empty trace")
	}

	xy := make(plotter.XYs, 0, len(tr.Loss)-skip)
	for i, l := range tr.Loss[skip:] {
		xy = append(xy, plotter.XY{X: float64(i + skip + 1), Y: l})
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "loss (-log posterior)"

	l, err := plotter.NewLine(xy)
	if err != nil {
		return err
	}
	p.Add(l)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, name); err != nil {
		return fmt.Errorf("trace plot: %v", err)
	}
	return nil
}
