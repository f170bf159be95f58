// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package matrix_test

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/js-arias/cell2loc/matrix"
)

var spotData = `,ACTB,GAPDH,MT-CO1
spot_1,12,8,30
spot_2,0,3,11
# a comment
spot_3,5,0,9
`

func TestReadCSV(t *testing.T) {
	m, err := matrix.ReadCSV(strings.NewReader(spotData))
	if err != nil {
		t.Fatalf("unable to read data: %v", err)
	}
	testSpots(t, m)

	var w bytes.Buffer
	if err := m.CSV(&w); err != nil {
		t.Fatalf("unable to write data: %v", err)
	}
	t.Logf("output:\n%s\n", w.String())

	nm, err := matrix.ReadCSV(strings.NewReader(w.String()))
	if err != nil {
		t.Fatalf("unable to read written data: %v", err)
	}
	testSpots(t, nm)
}

func testSpots(t testing.TB, m *matrix.Matrix) {
	t.Helper()

	rows := []string{"spot_1", "spot_2", "spot_3"}
	if !reflect.DeepEqual(m.Rows(), rows) {
		t.Errorf("rows: got %v, want %v", m.Rows(), rows)
	}
	cols := []string{"ACTB", "GAPDH", "MT-CO1"}
	if !reflect.DeepEqual(m.Cols(), cols) {
		t.Errorf("cols: got %v, want %v", m.Cols(), cols)
	}

	want := [][]float64{
		{12, 8, 30},
		{0, 3, 11},
		{5, 0, 9},
	}
	for i, r := range want {
		if got := m.Row(i); !reflect.DeepEqual(got, r) {
			t.Errorf("row %s: got %v, want %v", rows[i], got, r)
		}
	}

	if got := m.RowSums(); !reflect.DeepEqual(got, []float64{50, 14, 14}) {
		t.Errorf("row sums: got %v", got)
	}
	if got := m.ColSums(); !reflect.DeepEqual(got, []float64{17, 11, 50}) {
		t.Errorf("col sums: got %v", got)
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"no columns":     "index\n",
		"no data":        ",A,B\n",
		"repeated col":   ",A,A\nx,1,2\n",
		"repeated row":   ",A,B\nx,1,2\nx,3,4\n",
		"missing field":  ",A,B\nx,1\n",
		"not a number":   ",A,B\nx,1,NA\n",
		"empty row name": ",A,B\n,1,2\n",
		"nan value":      ",A,B\nx,1,NaN\n",
		"infinite value": ",A,B\nx,+Inf,2\n",
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := matrix.ReadCSV(strings.NewReader(data)); err == nil {
				t.Errorf("expecting error")
			}
		})
	}
}

func TestReadCSVNotFinite(t *testing.T) {
	_, err := matrix.ReadCSV(strings.NewReader(",A,B\nx,1,2\ny,3,inf\n"))
	if err == nil {
		t.Fatalf("expecting error on infinite value")
	}
	msg := err.Error()
	if !strings.Contains(msg, "on row 3") || !strings.Contains(msg, `column "B"`) {
		t.Errorf("error message: got %q", msg)
	}
}

func TestSelect(t *testing.T) {
	m, err := matrix.ReadCSV(strings.NewReader(spotData))
	if err != nil {
		t.Fatalf("unable to read data: %v", err)
	}

	c, err := m.SelectCols([]string{"MT-CO1", "ACTB"})
	if err != nil {
		t.Fatalf("select cols: %v", err)
	}
	if got := c.Col(0); !reflect.DeepEqual(got, []float64{30, 11, 9}) {
		t.Errorf("select cols: column %q: got %v", c.Cols()[0], got)
	}
	if got := c.Col(1); !reflect.DeepEqual(got, []float64{12, 0, 5}) {
		t.Errorf("select cols: column %q: got %v", c.Cols()[1], got)
	}

	r, err := m.SelectRows([]string{"spot_3", "spot_1"})
	if err != nil {
		t.Fatalf("select rows: %v", err)
	}
	if got := r.Row(0); !reflect.DeepEqual(got, []float64{5, 0, 9}) {
		t.Errorf("select rows: row %q: got %v", r.Rows()[0], got)
	}

	if _, err := m.SelectCols([]string{"XIST"}); err == nil {
		t.Errorf("select cols: expecting error on unknown column")
	}
	if _, err := m.SelectRows([]string{"spot_9"}); err == nil {
		t.Errorf("select rows: expecting error on unknown row")
	}

	tr := m.Transpose()
	if !reflect.DeepEqual(tr.Rows(), m.Cols()) {
		t.Errorf("transpose: rows: got %v, want %v", tr.Rows(), m.Cols())
	}
	if v := tr.At(2, 0); v != 30 {
		t.Errorf("transpose: value: got %.3f, want %.3f", v, 30.0)
	}
}

func TestIntersect(t *testing.T) {
	a := []string{"GAPDH", "ACTB", "XIST", "ACTB"}
	b := []string{"CD3E", "XIST", "ACTB"}

	want := []string{"ACTB", "XIST"}
	if got := matrix.Intersect(a, b); !reflect.DeepEqual(got, want) {
		t.Errorf("intersect: got %v, want %v", got, want)
	}

	if got := matrix.Intersect(a, nil); len(got) != 0 {
		t.Errorf("intersect: got %v, want empty", got)
	}
}
