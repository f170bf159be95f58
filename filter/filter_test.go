// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package filter_test

import (
	"math"
	"os"
	"reflect"
	"testing"

	"github.com/js-arias/cell2loc/filter"
	"github.com/js-arias/cell2loc/matrix"
)

func TestMito(t *testing.T) {
	m := matrix.New([]string{"s1", "s2"}, []string{"ACTB", "MT-CO1", "mt-Nd1", "MT-ND2"})
	m.Set(0, 1, 7)
	m.Set(1, 3, 4)

	kept, mito := filter.Mito(m, "")
	if cols := kept.Cols(); !reflect.DeepEqual(cols, []string{"ACTB", "mt-Nd1"}) {
		t.Errorf("kept genes: got %v", cols)
	}
	if cols := mito.Cols(); !reflect.DeepEqual(cols, []string{"MT-CO1", "MT-ND2"}) {
		t.Errorf("mito genes: got %v", cols)
	}
	if v := mito.At(0, 0); v != 7 {
		t.Errorf("mito value: got %.3f, want %.3f", v, 7.0)
	}
	if v := mito.At(1, 1); v != 4 {
		t.Errorf("mito value: got %.3f, want %.3f", v, 4.0)
	}

	// no mitochondrial genes
	kept, mito = filter.Mito(kept, "MT-")
	if _, c := mito.Dims(); c != 0 {
		t.Errorf("mito genes: got %d, want 0", c)
	}
	if _, c := kept.Dims(); c != 2 {
		t.Errorf("kept genes: got %d, want 2", c)
	}
}

// newCells returns a matrix of 100 cells,
// with the following genes:
//
//   - common: expressed in 10 cells (> 3%) with low values
//   - rare-high: expressed in 2 cells (< 3%) with high values
//   - rare-low: expressed in 2 cells with low values
//   - few-high: expressed in 6 cells (< 3% is false) with high values
//   - empty: never expressed
func newCells() *matrix.Matrix {
	cells := make([]string, 100)
	for i := range cells {
		cells[i] = "c" + string(rune('A'+i/26)) + string(rune('a'+i%26))
	}
	m := matrix.New(cells, []string{"common", "rare-high", "rare-low", "few-high", "empty"})
	for i := 0; i < 10; i++ {
		m.Set(i, 0, 1)
	}
	for i := 0; i < 2; i++ {
		m.Set(i, 1, 10)
		m.Set(i, 2, 1)
	}
	for i := 0; i < 6; i++ {
		m.Set(i, 3, 2)
	}
	return m
}

func TestGenes(t *testing.T) {
	m := newCells()

	p := filter.DefaultParam()
	p.CellPercentage = 0.08
	stats := filter.Genes(m, p)

	want := []filter.Stat{
		{Gene: "common", NCells: 10, NonZeroMean: 1, Selected: true},
		{Gene: "rare-high", NCells: 2, NonZeroMean: 10},
		{Gene: "rare-low", NCells: 2, NonZeroMean: 1},
		{Gene: "few-high", NCells: 6, NonZeroMean: 2, Selected: true},
		{Gene: "empty"},
	}
	for i, w := range want {
		g := stats[i]
		if g.Gene != w.Gene || g.NCells != w.NCells || g.Selected != w.Selected {
			t.Errorf("gene %q: got %+v, want %+v", w.Gene, g, w)
		}
		if math.Abs(g.NonZeroMean-w.NonZeroMean) > 1e-9 {
			t.Errorf("gene %q: non-zero mean: got %.6f, want %.6f", w.Gene, g.NonZeroMean, w.NonZeroMean)
		}
	}

	sel := filter.Selected(stats)
	if !reflect.DeepEqual(sel, []string{"common", "few-high"}) {
		t.Errorf("selected: got %v", sel)
	}

	// with 3% of 100 cells
	// common is selected as it is expressed in 10 cells
	stats = filter.Genes(m, filter.DefaultParam())
	sel = filter.Selected(stats)
	if !reflect.DeepEqual(sel, []string{"common", "few-high"}) {
		t.Errorf("default selected: got %v", sel)
	}
}

func TestPlot(t *testing.T) {
	m := newCells()
	p := filter.DefaultParam()
	stats := filter.Genes(m, p)

	name := "tmp-filter-plot-for-test.png"
	defer os.Remove(name)
	if err := filter.Plot(name, stats, 100, p); err != nil {
		t.Fatalf("unable to plot: %v", err)
	}
	if _, err := os.Stat(name); err != nil {
		t.Errorf("plot file: %v", err)
	}
}
