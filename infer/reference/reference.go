// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package reference implements a negative binomial regression
// to estimate the reference expression signatures
// of a set of cell types
// from annotated single cell data.
//
// The count of gene g in cell c is modeled as
//
//	x_cg ~ NB(mu_cg, theta_g)
//	mu_cg = y_c * (w_kg + s_g)
//
// where k is the cell type of the cell,
// w_kg is the expression signature of gene g in cell type k,
// y_c is the detection efficiency of the cell,
// and s_g is an additive background of the gene.
// The model is fitted by maximizing the log posterior
// with gamma priors on all parameters.
package reference

import (
	"fmt"
	"io"
	"math"

	"github.com/js-arias/cell2loc/infer/optim"
	"github.com/js-arias/cell2loc/matrix"
	"github.com/js-arias/cell2loc/meta"
	"github.com/js-arias/cell2loc/nb"
)

// Priors of the model parameters.
var (
	// cell detection efficiency
	detectPrior = nb.GammaMean(1, 20)

	// per cell type expression
	sigPrior = nb.Gamma{Shape: 1, Rate: 1e-3}

	// additive background
	bgPrior = nb.GammaMean(0.01, 1)

	// overdispersion
	alphaPrior = nb.Gamma{Shape: 1, Rate: 3}
)

// Bounds of the log parameters.
const (
	minLog      = -20
	maxLog      = 20
	minLogAlpha = -6
	maxLogAlpha = 6
)

// Param are the parameters of a fit.
type Param struct {
	// Number of epochs.
	Epochs int

	// Learning rate of the optimizer.
	Rate float64

	// Number of parallel processes.
	// If zero,
	// it will use all available CPUs.
	CPU int

	// If Tol is greater than zero
	// the fit stops when the relative change of the loss
	// is smaller than Tol
	// during Patience epochs.
	Tol      float64
	Patience int

	// If defined,
	// the loss will be reported
	// into this writer.
	Log io.Writer
}

// DefaultParam returns the default parameters of a fit.
func DefaultParam() Param {
	return Param{
		Epochs:   250,
		Rate:     0.05,
		Patience: 100,
	}
}

// Model is a reference regression model.
type Model struct {
	genes   []string
	cells   []string
	factors []string

	fact   []int // cell type of each cell
	nCells int
	nGenes int

	x []float64 // counts in gene major order

	param []float64
	logY  []float64
	logW  []float64 // signatures in factor major order
	logS  []float64
	logA  []float64
}

// New creates a new model
// from a matrix of counts
// (cells as rows, genes as columns)
// and the cell type label of each cell.
func New(counts *matrix.Matrix, labels []string) (*Model, error) {
	nc, ng := counts.Dims()
	if nc == 0 || ng == 0 {
		return nil, fmt.Errorf("reference: empty count matrix")
	}
	if len(labels) != nc {
		return nil, fmt.Errorf("reference: got %d labels, want %d", len(labels), nc)
	}

	factors := meta.Categories(labels)
	fIdx := make(map[string]int, len(factors))
	for i, f := range factors {
		fIdx[f] = i
	}

	m := &Model{
		genes:   counts.Cols(),
		cells:   counts.Rows(),
		factors: factors,
		fact:    make([]int, nc),
		nCells:  nc,
		nGenes:  ng,
		x:       make([]float64, nc*ng),
	}
	for c, l := range labels {
		m.fact[c] = fIdx[l]
	}

	d := counts.Dense()
	for c := 0; c < nc; c++ {
		for g, v := range d.RawRowView(c) {
			if v < 0 || math.IsNaN(v) {
				return nil, fmt.Errorf("reference: cell %q: gene %q: invalid count %v", m.cells[c], m.genes[g], v)
			}
			m.x[g*nc+c] = v
		}
	}

	nf := len(factors)
	m.param = make([]float64, nc+nf*ng+2*ng)
	m.logY = m.param[:nc]
	m.logW = m.param[nc : nc+nf*ng]
	m.logS = m.param[nc+nf*ng : nc+nf*ng+ng]
	m.logA = m.param[nc+nf*ng+ng:]
	if err := m.init(counts); err != nil {
		return nil, err
	}
	return m, nil
}

// Init sets the starting values of the parameters.
// The cell detection is the total count of the cell
// relative to the mean total count,
// and the signatures are the mean of the normalized counts.
func (m *Model) init(counts *matrix.Matrix) error {
	totals := counts.RowSums()
	var mean float64
	for _, t := range totals {
		mean += t
	}
	mean /= float64(len(totals))
	if mean == 0 {
		return fmt.Errorf("reference: count matrix without counts")
	}

	y := make([]float64, m.nCells)
	for c, t := range totals {
		y[c] = math.Min(math.Max(t/mean, 0.05), 20)
		m.logY[c] = math.Log(y[c])
	}

	nf := len(m.factors)
	size := make([]float64, nf)
	for _, k := range m.fact {
		size[k]++
	}
	sum := make([]float64, nf)
	for g := 0; g < m.nGenes; g++ {
		clear(sum)
		xg := m.x[g*m.nCells : (g+1)*m.nCells]
		for c, v := range xg {
			sum[m.fact[c]] += v / y[c]
		}
		for k := range sum {
			w := sum[k] / size[k]
			m.logW[k*m.nGenes+g] = math.Log(math.Max(w, 1e-4))
		}
		m.logS[g] = math.Log(bgPrior.Shape / bgPrior.Rate)
		m.logA[g] = math.Log(0.5)
	}
	return nil
}

// Cells returns the names of the cells in the model.
func (m *Model) Cells() []string {
	return m.cells
}

// Detection returns the detection efficiency
// of each cell.
func (m *Model) Detection() []float64 {
	y := make([]float64, m.nCells)
	for c, l := range m.logY {
		y[c] = math.Exp(l)
	}
	return y
}

// Factors returns the cell types of the model.
func (m *Model) Factors() []string {
	return m.factors
}

// Genes returns the genes of the model.
func (m *Model) Genes() []string {
	return m.genes
}

// Signatures returns the expression signature of each cell type,
// as a matrix with genes as rows
// and cell types as columns.
func (m *Model) Signatures() *matrix.Matrix {
	sig := matrix.New(m.genes, m.factors)
	for k := range m.factors {
		for g := range m.genes {
			sig.Set(g, k, math.Exp(m.logW[k*m.nGenes+g]))
		}
	}
	return sig
}

// Fit optimizes the parameters of the model
// and returns the loss at each epoch.
func (m *Model) Fit(p Param) (optim.Trace, error) {
	var tr optim.Trace
	if p.Epochs <= 0 {
		return tr, nil
	}
	if p.Rate <= 0 {
		p.Rate = DefaultParam().Rate
	}

	e := newEpoch(m, p.CPU)
	defer e.close()

	every := p.Epochs / 10
	if every == 0 {
		every = 1
	}
	grad := make([]float64, len(m.param))
	adam := optim.NewAdam(len(m.param), p.Rate)
	for i := 1; i <= p.Epochs; i++ {
		ll := e.run(grad)
		loss := -ll
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return tr, fmt.Errorf("reference: epoch %d: invalid loss value", i)
		}
		tr.Add(loss)
		if p.Log != nil && (i%every == 0 || i == 1) {
			fmt.Fprintf(p.Log, "reference\tepoch %d\tloss %.6f\n", i, loss)
		}

		adam.Step(m.param, grad)
		optim.Clamp(m.logY, minLog, maxLog)
		optim.Clamp(m.logW, minLog, maxLog)
		optim.Clamp(m.logS, minLog, maxLog)
		optim.Clamp(m.logA, minLogAlpha, maxLogAlpha)

		if tr.Converged(p.Tol, p.Patience) {
			if p.Log != nil {
				fmt.Fprintf(p.Log, "reference\tconverged at epoch %d\tloss %.6f\n", i, loss)
			}
			break
		}
	}
	return tr, nil
}

// LogPosterior returns the log posterior
// (up to a constant)
// of the current parameters.
func (m *Model) LogPosterior() float64 {
	e := newEpoch(m, 1)
	defer e.close()
	return e.run(make([]float64, len(m.param)))
}
