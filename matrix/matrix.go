// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package matrix implements labeled dense matrices
// for expression data.
//
// In a matrix,
// rows are observations
// (for example cells or spatial spots)
// and columns are variables
// (for example genes or cell types).
package matrix

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense matrix
// with named rows and columns.
type Matrix struct {
	index string

	rows   []string
	cols   []string
	rowIdx map[string]int
	colIdx map[string]int

	m *mat.Dense
}

// New creates a new matrix filled with zeros
// using the given row and column names.
func New(rows, cols []string) *Matrix {
	var m *mat.Dense
	if len(rows) > 0 && len(cols) > 0 {
		m = mat.NewDense(len(rows), len(cols), nil)
	}
	return newMatrix(rows, cols, m)
}

// FromDense creates a new matrix
// using a gonum dense matrix as the values.
// The dense matrix is not copied.
func FromDense(rows, cols []string, d *mat.Dense) (*Matrix, error) {
	r, c := d.Dims()
	if r != len(rows) {
		return nil, fmt.Errorf("matrix: got %d rows, want %d", len(rows), r)
	}
	if c != len(cols) {
		return nil, fmt.Errorf("matrix: got %d columns, want %d", len(cols), c)
	}
	return newMatrix(rows, cols, d), nil
}

func newMatrix(rows, cols []string, d *mat.Dense) *Matrix {
	m := &Matrix{
		rows:   slices.Clone(rows),
		cols:   slices.Clone(cols),
		rowIdx: make(map[string]int, len(rows)),
		colIdx: make(map[string]int, len(cols)),
		m:      d,
	}
	for i, r := range m.rows {
		m.rowIdx[r] = i
	}
	for i, c := range m.cols {
		m.colIdx[c] = i
	}
	return m
}

// At returns the value at a given row and column.
func (m *Matrix) At(r, c int) float64 {
	return m.m.At(r, c)
}

// Col returns a copy of the values
// in the indicated column.
func (m *Matrix) Col(j int) []float64 {
	if m.m == nil {
		return nil
	}
	return mat.Col(nil, j, m.m)
}

// ColIndex returns the index of a column name.
func (m *Matrix) ColIndex(name string) (int, bool) {
	i, ok := m.colIdx[name]
	return i, ok
}

// Cols returns the column names.
func (m *Matrix) Cols() []string {
	return m.cols
}

// ColSums returns the sum of each column.
func (m *Matrix) ColSums() []float64 {
	sums := make([]float64, len(m.cols))
	if m.m == nil {
		return sums
	}
	for i := range m.rows {
		floats.Add(sums, m.m.RawRowView(i))
	}
	return sums
}

// Dense returns the underlying gonum matrix.
// It returns nil if the matrix is empty.
func (m *Matrix) Dense() *mat.Dense {
	return m.m
}

// Dims returns the number of rows and columns.
func (m *Matrix) Dims() (r, c int) {
	return len(m.rows), len(m.cols)
}

// Index returns the name of the index column
// (i.e., the header of the row names).
func (m *Matrix) Index() string {
	return m.index
}

// Row returns a copy of the values
// in the indicated row.
func (m *Matrix) Row(i int) []float64 {
	if m.m == nil {
		return nil
	}
	return mat.Row(nil, i, m.m)
}

// RowIndex returns the index of a row name.
func (m *Matrix) RowIndex(name string) (int, bool) {
	i, ok := m.rowIdx[name]
	return i, ok
}

// Rows returns the row names.
func (m *Matrix) Rows() []string {
	return m.rows
}

// RowSums returns the sum of each row.
func (m *Matrix) RowSums() []float64 {
	sums := make([]float64, len(m.rows))
	if m.m == nil {
		return sums
	}
	for i := range m.rows {
		sums[i] = floats.Sum(m.m.RawRowView(i))
	}
	return sums
}

// SelectCols returns a new matrix
// with the indicated columns,
// in the given order.
func (m *Matrix) SelectCols(names []string) (*Matrix, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		j, ok := m.colIdx[n]
		if !ok {
			return nil, fmt.Errorf("matrix: unknown column %q", n)
		}
		idx[i] = j
	}

	nm := New(m.rows, names)
	nm.index = m.index
	if nm.m == nil {
		return nm, nil
	}
	for r := range m.rows {
		src := m.m.RawRowView(r)
		dst := nm.m.RawRowView(r)
		for i, j := range idx {
			dst[i] = src[j]
		}
	}
	return nm, nil
}

// SelectRows returns a new matrix
// with the indicated rows,
// in the given order.
func (m *Matrix) SelectRows(names []string) (*Matrix, error) {
	nm := New(names, m.cols)
	nm.index = m.index
	for i, n := range names {
		r, ok := m.rowIdx[n]
		if !ok {
			return nil, fmt.Errorf("matrix: unknown row %q", n)
		}
		if nm.m == nil {
			continue
		}
		copy(nm.m.RawRowView(i), m.m.RawRowView(r))
	}
	return nm, nil
}

// Set sets a value at a given row and column.
func (m *Matrix) Set(r, c int, v float64) {
	m.m.Set(r, c, v)
}

// SetIndex sets the name of the index column.
func (m *Matrix) SetIndex(name string) {
	m.index = name
}

// Transpose returns a new matrix
// in which rows and columns are swapped.
func (m *Matrix) Transpose() *Matrix {
	var d *mat.Dense
	if m.m != nil {
		d = mat.DenseCopyOf(m.m.T())
	}
	return newMatrix(m.cols, m.rows, d)
}

// Intersect returns the sorted set of names
// found in both a and b.
func Intersect(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, n := range b {
		in[n] = true
	}

	var s []string
	for _, n := range a {
		if !in[n] {
			continue
		}
		s = append(s, n)
	}
	slices.Sort(s)
	return slices.Compact(s)
}
