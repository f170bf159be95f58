// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package spatial implements a model to map cell types
// into the spots of a spatial transcriptomics dataset,
// using the expression signatures of the cell types
// as fixed covariates.
//
// The count of gene g in spot s is modeled as
//
//	d_sg ~ NB(mu_sg, theta_g)
//	mu_sg = y_s * (m_g * sum_f w_sf * g_fg + s_g)
//
// where g_fg is the signature of cell type f for gene g,
// w_sf is the abundance of cell type f in spot s,
// y_s is the detection efficiency of the spot,
// m_g is the technology sensitivity of the gene,
// and s_g is an additive background of the gene.
// The model is fitted by maximizing the log posterior
// with gamma priors on all parameters,
// and the posterior of the abundances
// is approximated with a log-normal distribution.
package spatial

import (
	"fmt"
	"io"
	"math"

	"github.com/js-arias/cell2loc/infer/optim"
	"github.com/js-arias/cell2loc/matrix"
	"github.com/js-arias/cell2loc/nb"
)

// Priors of the gene parameters.
var (
	// technology sensitivity
	sensPrior = nb.GammaMean(0.5, 3)

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

// Prior are the hyperparameters of the spot priors.
type Prior struct {
	// Expected number of cells in each spot.
	CellsPerLocation float64

	// Shape and mean of the prior
	// of the spot detection efficiency.
	DetectionAlpha float64
	DetectionMean  float64
}

// DefaultPrior returns the default hyperparameters.
func DefaultPrior() Prior {
	return Prior{
		CellsPerLocation: 30,
		DetectionAlpha:   20,
		DetectionMean:    0.5,
	}
}

func (pr Prior) valid() bool {
	for _, v := range []float64{pr.CellsPerLocation, pr.DetectionAlpha, pr.DetectionMean} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

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
		Epochs:   30_000,
		Rate:     0.01,
		Tol:      1e-6,
		Patience: 100,
	}
}

// Model is a spatial mapping model.
type Model struct {
	spots   []string
	genes   []string
	factors []string

	nSpots int
	nGenes int
	nFact  int

	d   []float64 // counts in spot major order
	sig []float64 // signatures in gene major order

	wPrior nb.Gamma
	yPrior nb.Gamma

	param []float64
	logW  []float64 // abundances in spot major order
	logY  []float64
	logM  []float64
	logS  []float64
	logA  []float64

	// set when the starting abundances
	// were updated
	warmed bool
}

// New creates a new model
// from a matrix of counts
// (spots as rows, genes as columns)
// and a matrix of signatures
// (genes as rows, cell types as columns).
// The genes of both matrices must be the same,
// and in the same order.
func New(counts, signatures *matrix.Matrix, pr Prior) (*Model, error) {
	ns, ng := counts.Dims()
	if ns == 0 || ng == 0 {
		return nil, fmt.Errorf("spatial: empty count matrix")
	}
	sg, nf := signatures.Dims()
	if nf == 0 {
		return nil, fmt.Errorf("spatial: signatures without cell types")
	}
	if sg != ng {
		return nil, fmt.Errorf("spatial: got %d signature genes, want %d", sg, ng)
	}
	genes := counts.Cols()
	for i, g := range signatures.Rows() {
		if g != genes[i] {
			return nil, fmt.Errorf("spatial: signature gene %d: got %q, want %q", i, g, genes[i])
		}
	}
	if !pr.valid() {
		return nil, fmt.Errorf("spatial: invalid prior values: %+v", pr)
	}

	m := &Model{
		spots:   counts.Rows(),
		genes:   genes,
		factors: signatures.Cols(),
		nSpots:  ns,
		nGenes:  ng,
		nFact:   nf,
		d:       make([]float64, ns*ng),
		sig:     make([]float64, ng*nf),
		wPrior: nb.Gamma{
			Shape: 1,
			Rate:  float64(nf) / pr.CellsPerLocation,
		},
		yPrior: nb.GammaMean(pr.DetectionMean, pr.DetectionAlpha),
	}

	cd := counts.Dense()
	for s := 0; s < ns; s++ {
		for g, v := range cd.RawRowView(s) {
			if v < 0 || math.IsNaN(v) {
				return nil, fmt.Errorf("spatial: spot %q: gene %q: invalid count %v", m.spots[s], m.genes[g], v)
			}
		}
		copy(m.d[s*ng:(s+1)*ng], cd.RawRowView(s))
	}
	sd := signatures.Dense()
	for g := 0; g < ng; g++ {
		for f, v := range sd.RawRowView(g) {
			if v < 0 || math.IsNaN(v) {
				return nil, fmt.Errorf("spatial: signature %q: gene %q: invalid value %v", m.factors[f], m.genes[g], v)
			}
		}
		copy(m.sig[g*nf:(g+1)*nf], sd.RawRowView(g))
	}

	m.param = make([]float64, ns*nf+ns+3*ng)
	m.logW = m.param[:ns*nf]
	m.logY = m.param[ns*nf : ns*nf+ns]
	m.logM = m.param[ns*nf+ns : ns*nf+ns+ng]
	m.logS = m.param[ns*nf+ns+ng : ns*nf+ns+2*ng]
	m.logA = m.param[ns*nf+ns+2*ng:]
	if err := m.init(counts, pr); err != nil {
		return nil, err
	}
	return m, nil
}

// warmIter is the number of multiplicative updates
// used to set the starting abundances
// before the first fit.
const warmIter = 10

// Init sets the starting values of the parameters.
func (m *Model) init(counts *matrix.Matrix, pr Prior) error {
	totals := counts.RowSums()
	var mean float64
	for _, t := range totals {
		mean += t
	}
	mean /= float64(len(totals))
	if mean == 0 {
		return fmt.Errorf("spatial: count matrix without counts")
	}

	var sumSig float64
	for _, v := range m.sig {
		sumSig += v
	}
	if sumSig == 0 {
		return fmt.Errorf("spatial: signatures without expression")
	}

	m0 := sensPrior.Shape / sensPrior.Rate
	for s, t := range totals {
		y := pr.DetectionMean * math.Max(t/mean, 0.05)
		m.logY[s] = math.Log(y)
		w := math.Max(t/(y*m0*sumSig), 1e-3)
		for f := 0; f < m.nFact; f++ {
			m.logW[s*m.nFact+f] = math.Log(w)
		}
	}
	for g := range m.genes {
		m.logM[g] = math.Log(m0)
		m.logS[g] = math.Log(bgPrior.Shape / bgPrior.Rate)
		m.logA[g] = math.Log(0.5)
	}
	return nil
}

// Detection returns the detection efficiency
// of each spot.
func (m *Model) Detection() []float64 {
	y := make([]float64, m.nSpots)
	for s, l := range m.logY {
		y[s] = math.Exp(l)
	}
	return y
}

// Factors returns the cell types of the model.
func (m *Model) Factors() []string {
	return m.factors
}

// GeneLevel returns the technology sensitivity
// of each gene.
func (m *Model) GeneLevel() []float64 {
	v := make([]float64, m.nGenes)
	for g, l := range m.logM {
		v[g] = math.Exp(l)
	}
	return v
}

// Genes returns the genes of the model.
func (m *Model) Genes() []string {
	return m.genes
}

// MAP returns the current point estimate
// of the cell abundances,
// as a matrix with spots as rows
// and cell types as columns.
func (m *Model) MAP() *matrix.Matrix {
	ab := matrix.New(m.spots, m.factors)
	for s := range m.spots {
		for f := range m.factors {
			ab.Set(s, f, math.Exp(m.logW[s*m.nFact+f]))
		}
	}
	return ab
}

// Spots returns the spots of the model.
func (m *Model) Spots() []string {
	return m.spots
}

// Fit optimizes the parameters of the model
// and returns the loss at each epoch.
func (m *Model) Fit(p Param) (optim.Trace, error) {
	var tr optim.Trace

	e := newEpoch(m, p.CPU)
	defer e.close()
	if !m.warmed {
		e.warm(warmIter)
		m.warmed = true
	}

	if p.Epochs <= 0 {
		return tr, nil
	}
	if p.Rate <= 0 {
		p.Rate = DefaultParam().Rate
	}

	every := p.Epochs / 20
	if every == 0 {
		every = 1
	}
	grad := make([]float64, len(m.param))
	adam := optim.NewAdam(len(m.param), p.Rate)
	for i := 1; i <= p.Epochs; i++ {
		loss := -e.run(grad)
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return tr, fmt.Errorf("spatial: epoch %d: invalid loss value", i)
		}
		tr.Add(loss)
		if p.Log != nil && (i%every == 0 || i == 1) {
			fmt.Fprintf(p.Log, "spatial\tepoch %d\tloss %.6f\n", i, loss)
		}

		adam.Step(m.param, grad)
		optim.Clamp(m.logW, minLog, maxLog)
		optim.Clamp(m.logY, minLog, maxLog)
		optim.Clamp(m.logM, minLog, maxLog)
		optim.Clamp(m.logS, minLog, maxLog)
		optim.Clamp(m.logA, minLogAlpha, maxLogAlpha)

		if tr.Converged(p.Tol, p.Patience) {
			if p.Log != nil {
				fmt.Fprintf(p.Log, "spatial\tconverged at epoch %d\tloss %.6f\n", i, loss)
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
