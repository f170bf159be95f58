// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package pipeline_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/js-arias/cell2loc/matrix"
	"github.com/js-arias/cell2loc/param"
	"github.com/js-arias/cell2loc/pipeline"
	"github.com/js-arias/cell2loc/project"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

var cellTypes = []string{"B cells", "Fibroblasts", "T cells"}

const (
	numGenes = 24
	perType  = 20
	numSpots = 12
)

// expression returns the expression level
// of a gene in a cell type.
func expression(g, f int) float64 {
	if g%len(cellTypes) == f {
		return 8
	}
	return 0.2
}

// writeData writes a synthetic deconvolution directory.
// Spot s is dominated by cell type s % 3.
func writeData(t testing.TB, dir string) {
	t.Helper()

	src := rand.NewSource(7)
	genes := make([]string, 0, numGenes+4)
	for g := 0; g < numGenes; g++ {
		genes = append(genes, fmt.Sprintf("gene-%02d", g))
	}
	// a gene never expressed in the reference
	genes = append(genes, "rare")
	mito := []string{"MT-CO1", "MT-ND1"}

	var cells []string
	var labels []string
	for f, ct := range cellTypes {
		for i := 0; i < perType; i++ {
			cells = append(cells, fmt.Sprintf("cell-%s-%02d", ct[:1], i))
			labels = append(labels, cellTypes[f])
		}
	}
	ref := matrix.New(cells, genes)
	for c := range cells {
		f := c / perType
		for g := 0; g < numGenes; g++ {
			p := distuv.Poisson{Lambda: expression(g, f), Src: src}
			ref.Set(c, g, p.Rand())
		}
	}
	writeMatrix(t, filepath.Join(dir, project.ReferenceFile), ref)

	var meta strings.Builder
	fmt.Fprintf(&meta, ",celltype,batch\n")
	for c, cell := range cells {
		fmt.Fprintf(&meta, "%s,%s,b1\n", cell, labels[c])
	}
	if err := os.WriteFile(filepath.Join(dir, project.MetaFile), []byte(meta.String()), 0o644); err != nil {
		t.Fatalf("unable to write metadata: %v", err)
	}

	spots := make([]string, numSpots)
	for s := range spots {
		spots[s] = fmt.Sprintf("%dx%d", s%4, s/4)
	}
	sp := matrix.New(spots, append(append([]string{}, genes...), mito...))
	for s := range spots {
		for g := 0; g < numGenes; g++ {
			var mu float64
			for f := range cellTypes {
				w := 1.0
				if s%len(cellTypes) == f {
					w = 20
				}
				mu += w * expression(g, f)
			}
			p := distuv.Poisson{Lambda: 0.5 * mu, Src: src}
			sp.Set(s, g, p.Rand())
		}
		// rare, MT-CO1, and MT-ND1
		sp.Set(s, numGenes, 3)
		sp.Set(s, numGenes+1, 7)
		sp.Set(s, numGenes+2, float64(s))
	}
	writeMatrix(t, filepath.Join(dir, project.SpatialFile), sp)
}

func writeMatrix(t testing.TB, name string, m *matrix.Matrix) {
	t.Helper()

	var buf bytes.Buffer
	if err := m.CSV(&buf); err != nil {
		t.Fatalf("unable to write %q: %v", name, err)
	}
	if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("unable to write %q: %v", name, err)
	}
}

func newParam(t testing.TB) *param.P {
	t.Helper()

	p := param.New("")
	values := map[param.Param]string{
		param.RefEpochs: "300",
		param.MapEpochs: "1500",
		param.MapRate:   "0.05",
		param.Samples:   "100",
	}
	for k, v := range values {
		if err := p.Set(k, v); err != nil {
			t.Fatalf("unable to set %s: %v", k, err)
		}
	}
	return p
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir)

	prj := project.FromDir(dir)
	var log bytes.Buffer
	res, err := pipeline.Run(prj, newParam(t), pipeline.Options{
		CPU: 2,
		Log: &log,
	})
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if log.Len() == 0 {
		t.Errorf("log: expecting progress output")
	}

	// mitochondrial genes
	if !reflect.DeepEqual(res.Mito.Cols(), []string{"MT-CO1", "MT-ND1"}) {
		t.Errorf("mito genes: got %v", res.Mito.Cols())
	}
	mito, err := prj.Mito()
	if err != nil {
		t.Fatalf("unable to read mito genes: %v", err)
	}
	if mito.At(3, 1) != 3 {
		t.Errorf("mito value: got %.6f, want %.6f", mito.At(3, 1), 3.0)
	}

	// gene filter
	for _, s := range res.Reference.Stats {
		if s.Gene == "rare" && s.Selected {
			t.Errorf("gene %q: should not be selected", s.Gene)
		}
	}
	for _, g := range res.Mapping.Genes {
		if strings.HasPrefix(g, "MT-") || g == "rare" {
			t.Errorf("shared genes: unexpected gene %q", g)
		}
	}
	if len(res.Mapping.Genes) != numGenes {
		t.Errorf("shared genes: got %d, want %d", len(res.Mapping.Genes), numGenes)
	}

	sig, err := prj.Signatures()
	if err != nil {
		t.Fatalf("unable to read signatures: %v", err)
	}
	if !reflect.DeepEqual(sig.Cols(), cellTypes) {
		t.Errorf("signature cell types: got %v, want %v", sig.Cols(), cellTypes)
	}

	// abundances
	ab, err := prj.Abundance()
	if err != nil {
		t.Fatalf("unable to read abundances: %v", err)
	}
	rows, cols := ab.Dims()
	if rows != numSpots || cols != len(cellTypes) {
		t.Fatalf("abundances: got %d x %d, want %d x %d", rows, cols, numSpots, len(cellTypes))
	}
	if !reflect.DeepEqual(ab.Cols(), cellTypes) {
		t.Errorf("abundance cell types: got %v, want %v", ab.Cols(), cellTypes)
	}
	for s, spot := range ab.Rows() {
		row := ab.Row(s)
		best := 0
		for f, v := range row {
			if v < 0 {
				t.Errorf("spot %q, cell type %q: negative abundance %.6f", spot, cellTypes[f], v)
			}
			if v > row[best] {
				best = f
			}
		}
		if want := s % len(cellTypes); best != want {
			t.Errorf("spot %q: dominant cell type %q, want %q", spot, cellTypes[best], cellTypes[want])
		}
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	writeData(t, dir)

	// without reference
	prj := project.FromDir(dir)
	prj.Add(project.Reference, filepath.Join(dir, "missing.csv"))
	if _, err := pipeline.Run(prj, newParam(t), pipeline.Options{}); err == nil {
		t.Errorf("expecting error on missing reference")
	}

	// unknown label column
	// keeps the previous abundances
	prev := []byte(",B cells\nspot,1.000000\n")
	abFile := filepath.Join(dir, project.AbundanceFile)
	if err := os.WriteFile(abFile, prev, 0o644); err != nil {
		t.Fatalf("unable to write abundances: %v", err)
	}
	p := newParam(t)
	if err := p.Set(param.Label, "annotation"); err != nil {
		t.Fatalf("unable to set label: %v", err)
	}
	if _, err := pipeline.Run(project.FromDir(dir), p, pipeline.Options{}); err == nil {
		t.Errorf("expecting error on unknown label column")
	}
	got, err := os.ReadFile(abFile)
	if err != nil {
		t.Fatalf("unable to read abundances: %v", err)
	}
	if !bytes.Equal(got, prev) {
		t.Errorf("abundances: file changed after a failed run: %q", got)
	}
}
