// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package matrix

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ReadCSV reads a matrix from a comma-delimited file.
//
// The first row is the header,
// the first field of the header is the name of the index
// (it can be empty),
// and the other fields are the column names.
// In each of the following rows,
// the first field is the row name,
// and the other fields are the values
// of the row at each column.
// Lines starting with '#' are ignored.
//
// Here is an example file:
//
//	,ACTB,GAPDH,MT-CO1
//	spot_1,12,8,30
//	spot_2,0,3,11
//	spot_3,5,0,9
func ReadCSV(r io.Reader) (*Matrix, error) {
	tab := csv.NewReader(r)
	tab.Comment = '#'
	tab.ReuseRecord = true

	head, err := tab.Read()
	if err != nil {
		return nil, fmt.Errorf("while reading header: %v", err)
	}
	if len(head) < 2 {
		return nil, fmt.Errorf("header: expecting at least one column")
	}
	index := strings.TrimSpace(head[0])
	cols := make([]string, 0, len(head)-1)
	seen := make(map[string]bool, len(head))
	for _, h := range head[1:] {
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, fmt.Errorf("header: empty column name")
		}
		if seen[h] {
			return nil, fmt.Errorf("header: repeated column %q", h)
		}
		seen[h] = true
		cols = append(cols, h)
	}

	var rows []string
	var data []float64
	inRows := make(map[string]bool)
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
			return nil, fmt.Errorf("on row %d: empty row name", ln)
		}
		if inRows[name] {
			return nil, fmt.Errorf("on row %d: repeated row %q", ln, name)
		}
		inRows[name] = true
		rows = append(rows, name)

		for i, v := range row[1:] {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("on row %d: column %q: %v", ln, cols[i], err)
			}
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("on row %d: column %q: invalid value %q", ln, cols[i], v)
			}
			data = append(data, f)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("without data")
	}

	m := newMatrix(rows, cols, mat.NewDense(len(rows), len(cols), data))
	m.index = index
	return m, nil
}

// CSV writes a matrix as a comma-delimited file.
func (m *Matrix) CSV(w io.Writer) error {
	tab := csv.NewWriter(w)

	// header
	header := make([]string, 0, len(m.cols)+1)
	header = append(header, m.index)
	header = append(header, m.cols...)
	if err := tab.Write(header); err != nil {
		return fmt.Errorf("unable to write header: %v", err)
	}

	row := make([]string, len(m.cols)+1)
	for i, r := range m.rows {
		row[0] = r
		for j := range m.cols {
			row[j+1] = strconv.FormatFloat(m.m.At(i, j), 'f', 6, 64)
		}
		if err := tab.Write(row); err != nil {
			return fmt.Errorf("when writing data: %v", err)
		}
	}

	tab.Flush()
	if err := tab.Error(); err != nil {
		return fmt.Errorf("when writing data: %v", err)
	}
	return nil
}
