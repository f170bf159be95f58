// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package reference_test

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/js-arias/cell2loc/infer/reference"
	"github.com/js-arias/cell2loc/matrix"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

var genes = []string{"CD19", "CD3E", "ACTB", "LYZ", "MS4A1", "GAPDH"}

var truth = map[string][]float64{
	"B cells": {20, 1, 5, 0.5, 10, 2},
	"T cells": {1, 20, 5, 8, 0.5, 2},
}

func newCells(perType int) (*matrix.Matrix, []string) {
	src := rand.NewSource(1)

	var cells, labels []string
	for _, tp := range []string{"B cells", "T cells"} {
		for i := 0; i < perType; i++ {
			cells = append(cells, fmt.Sprintf("%s-%d", tp, i))
			labels = append(labels, tp)
		}
	}

	m := matrix.New(cells, genes)
	for c, l := range labels {
		for g, v := range truth[l] {
			p := distuv.Poisson{Lambda: v, Src: src}
			m.Set(c, g, p.Rand())
		}
	}
	return m, labels
}

func TestNew(t *testing.T) {
	m, labels := newCells(3)
	if _, err := reference.New(m, labels[1:]); err == nil {
		t.Errorf("expecting error on label mismatch")
	}

	bad, _ := newCells(3)
	bad.Set(0, 0, -1)
	if _, err := reference.New(bad, labels); err == nil {
		t.Errorf("expecting error on negative counts")
	}

	empty := matrix.New([]string{"c1"}, genes)
	if _, err := reference.New(empty, []string{"B cells"}); err == nil {
		t.Errorf("expecting error on matrix without counts")
	}

	mod, err := reference.New(m, labels)
	if err != nil {
		t.Fatalf("unable to build model: %v", err)
	}
	if f := mod.Factors(); !reflect.DeepEqual(f, []string{"B cells", "T cells"}) {
		t.Errorf("factors: got %v", f)
	}
	if g := mod.Genes(); !reflect.DeepEqual(g, genes) {
		t.Errorf("genes: got %v", g)
	}
}

func TestFit(t *testing.T) {
	m, labels := newCells(40)
	mod, err := reference.New(m, labels)
	if err != nil {
		t.Fatalf("unable to build model: %v", err)
	}

	var log bytes.Buffer
	p := reference.DefaultParam()
	p.Epochs = 500
	p.CPU = 2
	p.Log = &log
	tr, err := mod.Fit(p)
	if err != nil {
		t.Fatalf("unable to fit model: %v", err)
	}
	if len(tr.Loss) != p.Epochs {
		t.Errorf("trace: got %d epochs, want %d", len(tr.Loss), p.Epochs)
	}
	if tr.Last() >= tr.Loss[0] {
		t.Errorf("loss: last %.6f, first %.6f", tr.Last(), tr.Loss[0])
	}
	if log.Len() == 0 {
		t.Errorf("log: expecting progress output")
	}

	sig := mod.Signatures()
	if r, c := sig.Dims(); r != len(genes) || c != 2 {
		t.Fatalf("signatures: got %d x %d matrix", r, c)
	}
	for k, tp := range sig.Cols() {
		for g, want := range truth[tp] {
			if want < 5 {
				continue
			}
			got := sig.At(g, k)
			if math.Abs(got-want)/want > 0.25 {
				t.Errorf("signature %s, %s: got %.3f, want %.3f", tp, genes[g], got, want)
			}
		}
	}

	// markers
	if sig.At(0, 0) < 5*sig.At(0, 1) {
		t.Errorf("marker CD19: B cells %.3f, T cells %.3f", sig.At(0, 0), sig.At(0, 1))
	}
	if sig.At(1, 1) < 5*sig.At(1, 0) {
		t.Errorf("marker CD3E: T cells %.3f, B cells %.3f", sig.At(1, 1), sig.At(1, 0))
	}

	for c, y := range mod.Detection() {
		if y < 0.3 || y > 3 {
			t.Errorf("detection of cell %s: got %.3f", mod.Cells()[c], y)
		}
	}
}

func TestEarlyStop(t *testing.T) {
	m, labels := newCells(10)
	mod, err := reference.New(m, labels)
	if err != nil {
		t.Fatalf("unable to build model: %v", err)
	}

	p := reference.DefaultParam()
	p.Epochs = 5000
	p.Tol = 1e-3
	p.Patience = 5
	p.CPU = -1
	tr, err := mod.Fit(p)
	if err != nil {
		t.Fatalf("unable to fit model: %v", err)
	}
	if len(tr.Loss) >= p.Epochs {
		t.Errorf("early stop: fit run all %d epochs", len(tr.Loss))
	}
}
