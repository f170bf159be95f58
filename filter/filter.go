// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package filter implements gene selection
// for expression matrices.
package filter

import (
	"strings"

	"github.com/js-arias/cell2loc/matrix"
)

// MitoPrefix is the default prefix
// of the mitochondrial gene symbols.
const MitoPrefix = "MT-"

// Mito splits a matrix into the non mitochondrial genes
// and the mitochondrial genes,
// i.e., the genes with a symbol that starts with the given prefix.
// The prefix is case sensitive.
func Mito(m *matrix.Matrix, prefix string) (kept, mito *matrix.Matrix) {
	if prefix == "" {
		prefix = MitoPrefix
	}

	var keep, mt []string
	for _, g := range m.Cols() {
		if strings.HasPrefix(g, prefix) {
			mt = append(mt, g)
			continue
		}
		keep = append(keep, g)
	}

	// names are taken from the matrix,
	// so selection never fails.
	kept, _ = m.SelectCols(keep)
	mito, _ = m.SelectCols(mt)
	return kept, mito
}

// Param are the cutoff values
// used to select genes.
type Param struct {
	// Minimum number of cells
	// in which a gene must be expressed.
	CellCount float64

	// Minimum fraction of cells
	// in which a gene must be expressed.
	CellPercentage float64

	// Minimum mean expression
	// in the cells with non-zero expression.
	NonZeroMean float64
}

// DefaultParam returns the cutoff values
// used in a deconvolution pipeline.
func DefaultParam() Param {
	return Param{
		CellCount:      5,
		CellPercentage: 0.03,
		NonZeroMean:    1.12,
	}
}

// Stat contains the statistics of a gene
// used to decide if the gene is selected.
type Stat struct {
	Gene string

	// Number of cells with expression
	// greater than zero.
	NCells int

	// Mean expression in the cells
	// with non-zero expression.
	NonZeroMean float64

	Selected bool
}

// Genes returns the selection statistics
// of each gene (column) of a matrix.
//
// A gene is selected if it is expressed
// in more than CellPercentage of the cells,
// or if it is expressed in more than CellCount cells
// and its non-zero mean is greater than NonZeroMean.
func Genes(m *matrix.Matrix, p Param) []Stat {
	rows, cols := m.Dims()
	count := make([]int, cols)
	sums := make([]float64, cols)
	if d := m.Dense(); d != nil {
		for i := 0; i < rows; i++ {
			for j, v := range d.RawRowView(i) {
				if v <= 0 {
					continue
				}
				count[j]++
				sums[j] += v
			}
		}
	}

	minCells := float64(rows) * p.CellPercentage
	stats := make([]Stat, cols)
	for j, g := range m.Cols() {
		s := Stat{
			Gene:   g,
			NCells: count[j],
		}
		if count[j] > 0 {
			s.NonZeroMean = sums[j] / float64(count[j])
		}

		nc := float64(count[j])
		if nc > minCells {
			s.Selected = true
		} else if nc > p.CellCount && s.NonZeroMean > p.NonZeroMean {
			s.Selected = true
		}
		stats[j] = s
	}
	return stats
}

// Selected returns the names of the selected genes.
func Selected(stats []Stat) []string {
	var genes []string
	for _, s := range stats {
		if !s.Selected {
			continue
		}
		genes = append(genes, s.Gene)
	}
	return genes
}
