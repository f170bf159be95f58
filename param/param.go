// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package param implements reading and writing
// of the parameters of a deconvolution pipeline.
package param

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/js-arias/cell2loc/filter"
	"github.com/js-arias/cell2loc/infer/reference"
	"github.com/js-arias/cell2loc/infer/spatial"
)

// Param is a keyword to identify
// the type of parameter in a parameter file.
type Param string

// Valid parameters
const (
	// MitoPrefix is the prefix of the mitochondrial genes.
	MitoPrefix Param = "mito-prefix"

	// Label is the column of the metadata
	// with the cell type annotations.
	Label Param = "label"

	// CellCount is the minimum number of cells
	// in which a gene must be expressed.
	CellCount Param = "cell-count"

	// CellPercentage is the minimum fraction of cells
	// in which a gene must be expressed.
	CellPercentage Param = "cell-percentage"

	// NonZeroMean is the minimum mean expression
	// in the cells with non-zero expression.
	NonZeroMean Param = "nonzero-mean"

	// RefEpochs is the number of epochs
	// of the reference regression.
	RefEpochs Param = "ref-epochs"

	// RefRate is the learning rate
	// of the reference regression.
	RefRate Param = "ref-rate"

	// MapEpochs is the number of epochs
	// of the spatial mapping.
	MapEpochs Param = "map-epochs"

	// MapRate is the learning rate
	// of the spatial mapping.
	MapRate Param = "map-rate"

	// CellsPerLocation is the expected number of cells
	// in each spot.
	CellsPerLocation Param = "cells-per-location"

	// DetectionAlpha is the shape of the prior
	// of the spot detection efficiency.
	DetectionAlpha Param = "detection-alpha"

	// DetectionMean is the mean of the prior
	// of the spot detection efficiency.
	DetectionMean Param = "detection-mean"

	// Samples is the number of posterior samples.
	Samples Param = "samples"

	// Quantile is the quantile
	// reported as the abundance estimate.
	Quantile Param = "quantile"

	// Seed is the seed of the random number generator.
	Seed Param = "seed"

	// Tol is the relative tolerance of the loss
	// used to stop the spatial mapping.
	Tol Param = "tol"

	// Patience is the number of epochs
	// that the change of the loss
	// must be below the tolerance.
	Patience Param = "patience"
)

// List is the list of valid parameters,
// in the order in which they are written.
var List = []Param{
	MitoPrefix,
	Label,
	CellCount,
	CellPercentage,
	NonZeroMean,
	RefEpochs,
	RefRate,
	MapEpochs,
	MapRate,
	CellsPerLocation,
	DetectionAlpha,
	DetectionMean,
	Samples,
	Quantile,
	Seed,
	Tol,
	Patience,
}

// P represents a collection of pipeline parameters.
type P struct {
	name string // file name

	mito  string
	label string

	filter filter.Param
	prior  spatial.Prior

	refEpochs int
	refRate   float64
	mapEpochs int
	mapRate   float64
	tol       float64
	patience  int

	samples  int
	quantile float64
	seed     uint64
}

// New creates a new parameter collection
// with the default values.
func New(name string) *P {
	ref := reference.DefaultParam()
	sp := spatial.DefaultParam()
	return &P{
		name:      name,
		mito:      filter.MitoPrefix,
		label:     "celltype",
		filter:    filter.DefaultParam(),
		prior:     spatial.DefaultPrior(),
		refEpochs: ref.Epochs,
		refRate:   ref.Rate,
		mapEpochs: sp.Epochs,
		mapRate:   sp.Rate,
		tol:       sp.Tol,
		patience:  sp.Patience,
		samples:   1000,
		quantile:  0.05,
		seed:      1,
	}
}

var header = []string{
	"parameter",
	"value",
}

// Read reads a parameter file from a TSV file.
//
// The TSV must contains the following fields:
//
//   - parameter, the name of the parameter
//   - value, the value of the parameter
//
// Parameters not defined in the file
// keep their default values.
//
// Here is an example file:
//
//	# cell2loc parameters
//	parameter	value
//	label	celltype
//	map-epochs	30000
//	cells-per-location	30
//	detection-alpha	20
func Read(name string) (*P, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := read(f, name)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return p, nil
}

func read(r io.Reader, name string) (*P, error) {
	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %v", err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.ToLower(strings.TrimSpace(h))
		fields[h] = i
	}
	for _, h := range header {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	p := New(name)
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "parameter"
		key := Param(strings.ToLower(strings.TrimSpace(row[fields[f]])))

		f = "value"
		if err := p.Set(key, row[fields[f]]); err != nil {
			return nil, fmt.Errorf("on row %d, field %q: %v", ln, f, err)
		}
	}
	return p, nil
}

// Name returns the name used for the parameter collection.
func (p *P) Name() string {
	return p.name
}

// SetName sets the name of a parameter collection.
func (p *P) SetName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	p.name = name
}

// Filter returns the cutoff values
// used to select the reference genes.
func (p *P) Filter() filter.Param {
	return p.filter
}

// Label returns the metadata column
// with the cell type annotations.
func (p *P) Label() string {
	return p.label
}

// MitoPrefix returns the prefix of the mitochondrial genes.
func (p *P) MitoPrefix() string {
	return p.mito
}

// Prior returns the hyperparameters
// of the spot priors.
func (p *P) Prior() spatial.Prior {
	return p.prior
}

// Quantile returns the quantile
// reported as the abundance estimate.
func (p *P) Quantile() float64 {
	return p.quantile
}

// Reference returns the parameters
// of the reference regression.
func (p *P) Reference() reference.Param {
	rp := reference.DefaultParam()
	rp.Epochs = p.refEpochs
	rp.Rate = p.refRate
	return rp
}

// Samples returns the number of posterior samples.
func (p *P) Samples() int {
	return p.samples
}

// Seed returns the seed
// of the random number generator.
func (p *P) Seed() uint64 {
	return p.seed
}

// Spatial returns the parameters
// of the spatial mapping.
func (p *P) Spatial() spatial.Param {
	sp := spatial.DefaultParam()
	sp.Epochs = p.mapEpochs
	sp.Rate = p.mapRate
	sp.Tol = p.tol
	sp.Patience = p.patience
	return sp
}

// Set sets the value of a parameter
// from a string.
func (p *P) Set(key Param, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case MitoPrefix, Label:
		if value == "" {
			return fmt.Errorf("empty %s value", key)
		}
		if key == MitoPrefix {
			p.mito = value
			return nil
		}
		p.label = value
		return nil
	case RefEpochs, MapEpochs, Samples, Patience:
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		return p.setInt(key, v)
	case Seed:
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		p.seed = v
		return nil
	case CellCount, CellPercentage, NonZeroMean,
		RefRate, MapRate,
		CellsPerLocation, DetectionAlpha, DetectionMean,
		Quantile, Tol:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		return p.setFloat(key, v)
	}
	return fmt.Errorf("unknown parameter %q", key)
}

func (p *P) setInt(key Param, v int) error {
	switch key {
	case RefEpochs:
		if v < 1 {
			return fmt.Errorf("invalid %s value: %d", key, v)
		}
		p.refEpochs = v
	case MapEpochs:
		if v < 1 {
			return fmt.Errorf("invalid %s value: %d", key, v)
		}
		p.mapEpochs = v
	case Samples:
		if v < 0 {
			return fmt.Errorf("invalid %s value: %d", key, v)
		}
		p.samples = v
	case Patience:
		if v < 1 {
			return fmt.Errorf("invalid %s value: %d", key, v)
		}
		p.patience = v
	}
	return nil
}

func (p *P) setFloat(key Param, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("invalid %s value: %g", key, v)
	}
	positive := func() error {
		if v <= 0 {
			return fmt.Errorf("invalid %s value: %g", key, v)
		}
		return nil
	}

	switch key {
	case CellCount:
		if v < 0 {
			return fmt.Errorf("invalid %s value: %g", key, v)
		}
		p.filter.CellCount = v
	case CellPercentage:
		if v < 0 || v > 1 {
			return fmt.Errorf("invalid %s value: %g", key, v)
		}
		p.filter.CellPercentage = v
	case NonZeroMean:
		if v < 0 {
			return fmt.Errorf("invalid %s value: %g", key, v)
		}
		p.filter.NonZeroMean = v
	case RefRate:
		if err := positive(); err != nil {
			return err
		}
		p.refRate = v
	case MapRate:
		if err := positive(); err != nil {
			return err
		}
		p.mapRate = v
	case CellsPerLocation:
		if err := positive(); err != nil {
			return err
		}
		p.prior.CellsPerLocation = v
	case DetectionAlpha:
		if err := positive(); err != nil {
			return err
		}
		p.prior.DetectionAlpha = v
	case DetectionMean:
		if err := positive(); err != nil {
			return err
		}
		p.prior.DetectionMean = v
	case Quantile:
		if v <= 0 || v >= 0.5 {
			return fmt.Errorf("invalid %s value: %g", key, v)
		}
		p.quantile = v
	case Tol:
		if v < 0 {
			return fmt.Errorf("invalid %s value: %g", key, v)
		}
		p.tol = v
	}
	return nil
}

// Value returns the value of a parameter
// as a string.
func (p *P) Value(key Param) string {
	switch key {
	case MitoPrefix:
		return p.mito
	case Label:
		return p.label
	case CellCount:
		return strconv.FormatFloat(p.filter.CellCount, 'g', -1, 64)
	case CellPercentage:
		return strconv.FormatFloat(p.filter.CellPercentage, 'g', -1, 64)
	case NonZeroMean:
		return strconv.FormatFloat(p.filter.NonZeroMean, 'g', -1, 64)
	case RefEpochs:
		return strconv.Itoa(p.refEpochs)
	case RefRate:
		return strconv.FormatFloat(p.refRate, 'g', -1, 64)
	case MapEpochs:
		return strconv.Itoa(p.mapEpochs)
	case MapRate:
		return strconv.FormatFloat(p.mapRate, 'g', -1, 64)
	case CellsPerLocation:
		return strconv.FormatFloat(p.prior.CellsPerLocation, 'g', -1, 64)
	case DetectionAlpha:
		return strconv.FormatFloat(p.prior.DetectionAlpha, 'g', -1, 64)
	case DetectionMean:
		return strconv.FormatFloat(p.prior.DetectionMean, 'g', -1, 64)
	case Samples:
		return strconv.Itoa(p.samples)
	case Quantile:
		return strconv.FormatFloat(p.quantile, 'g', -1, 64)
	case Seed:
		return strconv.FormatUint(p.seed, 10)
	case Tol:
		return strconv.FormatFloat(p.tol, 'g', -1, 64)
	case Patience:
		return strconv.Itoa(p.patience)
	}
	return ""
}

// Write writes a parameter collection into a file.
func (p *P) Write() (err error) {
	f, err := os.Create(p.name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	bw := bufio.NewWriter(f)
	fmt.Fprintf(bw, "# cell2loc parameters\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("on file %q: while writing header: %v", p.name, err)
	}
	for _, key := range List {
		row := []string{
			string(key),
			p.Value(key),
		}
		if err := tsv.Write(row); err != nil {
			return fmt.Errorf("on file %q: %v", p.name, err)
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("on file %q: while writing data: %v", p.name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("on file %q: while writing data: %v", p.name, err)
	}
	return nil
}
