// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package meta implements categorical metadata
// for the observations
// (usually cells)
// of an expression matrix.
package meta

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Table is a table of categorical values
// associated with a set of observations.
type Table struct {
	index []string
	idx   map[string]int

	cols   []string
	fields map[string]int
	data   [][]string
}

// ReadCSV reads a metadata table
// from a comma-delimited file.
//
// The first column is used as the index
// (i.e., the name of each observation),
// any other column is read as a categorical variable.
// Column names are case insensitive.
//
// Here is an example file:
//
//	,celltype,sample
//	AAACCTGAGCGATAGC-1,B cells,s1
//	AAACCTGAGGAGTTTA-1,T cells,s1
//	AAACCTGCAAGCGAGT-1,Macrophages,s2
func ReadCSV(r io.Reader) (*Table, error) {
	tab := csv.NewReader(r)
	tab.Comment = '#'

	head, err := tab.Read()
	if err != nil {
		return nil, fmt.Errorf("while reading header: %v", err)
	}
	if len(head) < 2 {
		return nil, fmt.Errorf("header: expecting at least one column")
	}

	t := &Table{
		idx:    make(map[string]int),
		fields: make(map[string]int, len(head)),
	}
	for i, h := range head[1:] {
		h = strings.TrimSpace(h)
		k := strings.ToLower(h)
		if _, ok := t.fields[k]; ok {
			return nil, fmt.Errorf("header: repeated column %q", h)
		}
		t.fields[k] = i
		t.cols = append(t.cols, h)
	}

	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tab.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		name := strings.TrimSpace(row[0])
		if name == "" {
			return nil, fmt.Errorf("on row %d: empty index", ln)
		}
		if _, ok := t.idx[name]; ok {
			return nil, fmt.Errorf("on row %d: repeated index %q", ln, name)
		}
		t.idx[name] = len(t.index)
		t.index = append(t.index, name)

		vals := make([]string, len(row)-1)
		for i, v := range row[1:] {
			vals[i] = strings.TrimSpace(v)
		}
		t.data = append(t.data, vals)
	}
	return t, nil
}

// Column returns the values of a column,
// in index order.
func (t *Table) Column(name string) ([]string, error) {
	c, ok := t.fields[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("meta: unknown column %q", name)
	}

	vals := make([]string, len(t.index))
	for i, r := range t.data {
		vals[i] = r[c]
	}
	return vals, nil
}

// Columns returns the names of the metadata columns.
func (t *Table) Columns() []string {
	return t.cols
}

// Index returns the observation names.
func (t *Table) Index() []string {
	return t.index
}

// Labels returns the values of a column
// for the given observations.
func (t *Table) Labels(name string, obs []string) ([]string, error) {
	c, ok := t.fields[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("meta: unknown column %q", name)
	}

	labels := make([]string, len(obs))
	for i, o := range obs {
		r, ok := t.idx[o]
		if !ok {
			return nil, fmt.Errorf("meta: observation %q without metadata", o)
		}
		v := t.data[r][c]
		if v == "" {
			return nil, fmt.Errorf("meta: observation %q: empty value for %q", o, name)
		}
		labels[i] = v
	}
	return labels, nil
}

// Categories returns the sorted set of categories
// found in a set of labels.
func Categories(labels []string) []string {
	cats := slices.Clone(labels)
	slices.Sort(cats)
	return slices.Compact(cats)
}
