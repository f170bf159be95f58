// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package pipeline implements the deconvolution
// of a spatial transcriptomics dataset
// into the abundance of the cell types
// of an annotated single cell reference.
//
// The steps of the pipeline are:
//
//  1. Remove the mitochondrial genes from the spatial data.
//  2. Select the reference genes
//     using the number of expressing cells
//     and the non-zero mean expression.
//  3. Fit the reference regression
//     to estimate the signature of each cell type.
//  4. Restrict the spatial data and the signatures
//     to the shared genes.
//  5. Fit the spatial mapping model.
//  6. Summarize the posterior of the abundances.
package pipeline

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/js-arias/cell2loc/filter"
	"github.com/js-arias/cell2loc/infer/optim"
	"github.com/js-arias/cell2loc/infer/reference"
	"github.com/js-arias/cell2loc/infer/spatial"
	"github.com/js-arias/cell2loc/matrix"
	"github.com/js-arias/cell2loc/meta"
	"github.com/js-arias/cell2loc/param"
	"github.com/js-arias/cell2loc/project"
)

// Options are the running options of a pipeline.
type Options struct {
	// Number of parallel processes.
	// If zero,
	// it will use all available CPUs.
	CPU int

	// If defined,
	// the progress of the pipeline
	// will be reported into this writer.
	Log io.Writer

	// If defined,
	// the gene filter and the loss traces
	// will be saved as plots
	// (in png format)
	// using this prefix.
	Plots string
}

// Reference is the result of the reference regression.
type Reference struct {
	// Statistics used to select the genes.
	Stats []filter.Stat

	// Signatures of each cell type
	// (genes as rows, cell types as columns).
	Signatures *matrix.Matrix

	Trace optim.Trace
}

// Mapping is the result of the spatial mapping.
type Mapping struct {
	// Genes shared by the spatial data
	// and the signatures.
	Genes []string

	Abundance *spatial.Abundance

	// Detection efficiency of each spot.
	Detection []float64

	Trace optim.Trace
}

// Result is the result of a complete pipeline.
type Result struct {
	// Expression of the mitochondrial genes
	// in the spatial data.
	Mito *matrix.Matrix

	Reference *Reference
	Mapping   *Mapping
}

func (o Options) logf(format string, a ...any) {
	if o.Log == nil {
		return
	}
	fmt.Fprintf(o.Log, format, a...)
}

func (o Options) cpu() int {
	if o.CPU <= 0 {
		return runtime.NumCPU()
	}
	return o.CPU
}

// FitReference selects the genes of a reference dataset
// (cells as rows, genes as columns)
// and fits the reference regression
// using the cell type annotations of the metadata.
func FitReference(ref *matrix.Matrix, tab *meta.Table, p *param.P, opt Options) (*Reference, error) {
	labels, err := tab.Labels(p.Label(), ref.Rows())
	if err != nil {
		return nil, err
	}

	cells, genes := ref.Dims()
	stats := filter.Genes(ref, p.Filter())
	sel := filter.Selected(stats)
	opt.logf("reference: %d cells, %d genes, %d selected genes\n", cells, genes, len(sel))
	if len(sel) == 0 {
		return nil, fmt.Errorf("reference: no gene passed the filter")
	}
	if opt.Plots != "" {
		name := opt.Plots + "-filter.png"
		if err := filter.Plot(name, stats, cells, p.Filter()); err != nil {
			return nil, err
		}
	}

	counts, err := ref.SelectCols(sel)
	if err != nil {
		return nil, err
	}
	m, err := reference.New(counts, labels)
	if err != nil {
		return nil, err
	}
	opt.logf("reference: %d cell types\n", len(m.Factors()))

	rp := p.Reference()
	rp.CPU = opt.cpu()
	rp.Log = opt.Log
	tr, err := m.Fit(rp)
	if err != nil {
		return nil, err
	}
	if opt.Plots != "" {
		if err := tr.Plot(opt.Plots+"-reference-loss.png", "reference regression", 10); err != nil {
			return nil, err
		}
	}

	return &Reference{
		Stats:      stats,
		Signatures: m.Signatures(),
		Trace:      tr,
	}, nil
}

// MapSpatial fits the spatial mapping model
// of a spatial dataset
// (spots as rows, genes as columns)
// using the signatures of the cell types
// (genes as rows, cell types as columns).
// Only the genes found in both matrices are used.
func MapSpatial(sp, sig *matrix.Matrix, p *param.P, opt Options) (*Mapping, error) {
	genes := matrix.Intersect(sig.Rows(), sp.Cols())
	opt.logf("spatial: %d spots, %d shared genes\n", len(sp.Rows()), len(genes))
	if len(genes) == 0 {
		return nil, fmt.Errorf("spatial: no shared genes with the signatures")
	}

	counts, err := sp.SelectCols(genes)
	if err != nil {
		return nil, err
	}
	gs, err := sig.SelectRows(genes)
	if err != nil {
		return nil, err
	}

	m, err := spatial.New(counts, gs, p.Prior())
	if err != nil {
		return nil, err
	}

	mp := p.Spatial()
	mp.CPU = opt.cpu()
	mp.Log = opt.Log
	tr, err := m.Fit(mp)
	if err != nil {
		return nil, err
	}
	if opt.Plots != "" {
		if err := tr.Plot(opt.Plots+"-spatial-loss.png", "spatial mapping", 100); err != nil {
			return nil, err
		}
	}

	ab := m.Posterior(p.Samples(), p.Seed(), p.Quantile())
	for _, x := range []*matrix.Matrix{ab.Mean, ab.SD, ab.Low, ab.High} {
		x.SetIndex(sp.Index())
	}

	return &Mapping{
		Genes:     genes,
		Abundance: ab,
		Detection: m.Detection(),
		Trace:     tr,
	}, nil
}

// Run runs the complete pipeline
// using the datasets of a project.
// The mitochondrial genes,
// the signatures,
// and the abundance estimates,
// are written in the files defined in the project.
func Run(prj *project.Project, p *param.P, opt Options) (*Result, error) {
	start := time.Now()

	sp, err := prj.Spatial()
	if err != nil {
		return nil, fmt.Errorf("pipeline: reading spatial data: %v", err)
	}
	ref, err := prj.Reference()
	if err != nil {
		return nil, fmt.Errorf("pipeline: reading reference data: %v", err)
	}
	tab, err := prj.Meta()
	if err != nil {
		return nil, fmt.Errorf("pipeline: reading cell metadata: %v", err)
	}

	kept, mito := filter.Mito(sp, p.MitoPrefix())
	_, nMito := mito.Dims()
	opt.logf("spatial: %d mitochondrial genes removed\n", nMito)
	if nMito > 0 && prj.Path(project.Mito) != "" {
		if err := prj.WriteMatrix(project.Mito, mito); err != nil {
			return nil, fmt.Errorf("pipeline: writing mitochondrial genes: %v", err)
		}
	}

	rr, err := FitReference(ref, tab, p, opt)
	if err != nil {
		return nil, fmt.Errorf("pipeline: reference regression: %v", err)
	}
	if prj.Path(project.Signatures) != "" {
		if err := prj.WriteMatrix(project.Signatures, rr.Signatures); err != nil {
			return nil, fmt.Errorf("pipeline: writing signatures: %v", err)
		}
	}

	mr, err := MapSpatial(kept, rr.Signatures, p, opt)
	if err != nil {
		return nil, fmt.Errorf("pipeline: spatial mapping: %v", err)
	}
	if err := prj.WriteMatrix(project.Abundance, mr.Abundance.Low); err != nil {
		return nil, fmt.Errorf("pipeline: writing abundances: %v", err)
	}
	opt.logf("pipeline: abundances written to %q (%s)\n", prj.Path(project.Abundance), time.Since(start).Round(time.Second))

	return &Result{
		Mito:      mito,
		Reference: rr,
		Mapping:   mr,
	}, nil
}

// WriteTrace writes a loss trace
// into a file.
func WriteTrace(name string, tr optim.Trace) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	if err := tr.TSV(f); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	return nil
}
