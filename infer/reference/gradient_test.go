// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package reference

import (
	"math"
	"testing"

	"github.com/js-arias/cell2loc/matrix"
	"golang.org/x/exp/rand"
)

func TestGradient(t *testing.T) {
	cells := []string{"c1", "c2", "c3", "c4", "c5"}
	m := matrix.New(cells, []string{"g1", "g2", "g3"})
	counts := [][]float64{
		{3, 0, 12},
		{0, 1, 7},
		{5, 2, 0},
		{1, 9, 4},
		{0, 0, 21},
	}
	for c, r := range counts {
		for g, v := range r {
			m.Set(c, g, v)
		}
	}

	mod, err := New(m, []string{"a", "b", "a", "b", "a"})
	if err != nil {
		t.Fatalf("unable to build model: %v", err)
	}
	rnd := rand.New(rand.NewSource(7))
	for i := range mod.param {
		mod.param[i] += rnd.Float64() - 0.5
	}

	e := newEpoch(mod, 2)
	defer e.close()
	grad := make([]float64, len(mod.param))
	e.run(grad)

	const h = 1e-5
	tmp := make([]float64, len(mod.param))
	for i := range mod.param {
		v := mod.param[i]
		mod.param[i] = v + h
		up := e.run(tmp)
		mod.param[i] = v - h
		down := e.run(tmp)
		mod.param[i] = v

		num := (up - down) / (2 * h)
		if math.Abs(num-grad[i]) > 1e-4*math.Max(1, math.Abs(num)) {
			t.Errorf("param %d: got %.6f, want %.6f", i, grad[i], num)
		}
	}
}
