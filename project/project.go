// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package project implements reading and writing
// of cell2loc project files.
//
// A cell2loc project is a tab-delimited file (TSV)
// used to store the different data files
// required by cell2loc commands.
package project

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Dataset is a keyword to identify
// the type of a dataset file in a project.
type Dataset string

// Valid dataset types.
const (
	// File for the abundance estimates
	// of each cell type in each spot.
	Abundance Dataset = "abundance"

	// File for the colors of the cell types
	// and zones.
	Colors Dataset = "colors"

	// File for the metadata of the reference cells.
	Meta Dataset = "meta"

	// File for the expression of the mitochondrial genes
	// in the spatial data.
	Mito Dataset = "mito"

	// File for the analysis parameters.
	Params Dataset = "params"

	// File for the single cell reference expression.
	Reference Dataset = "reference"

	// File for the reference signatures
	// of each cell type.
	Signatures Dataset = "signatures"

	// File for the spatial expression.
	Spatial Dataset = "spatial"

	// File for the tissue zones.
	Zones Dataset = "zones"
)

// Datasets is the list of valid datasets.
var Datasets = []Dataset{
	Abundance,
	Colors,
	Meta,
	Mito,
	Params,
	Reference,
	Signatures,
	Spatial,
	Zones,
}

// Valid returns true if the dataset
// is a valid dataset keyword.
func (set Dataset) Valid() bool {
	return slices.Contains(Datasets, set)
}

// File names used in a deconvolution directory.
const (
	SpatialFile    = "spE_data.csv"
	ReferenceFile  = "scRNA_data.csv"
	MetaFile       = "scRNA_meta.csv"
	AbundanceFile  = "cell2loc.csv"
	SignaturesFile = "cell2loc-signatures.csv"
	MitoFile       = "cell2loc-mito.csv"
	ProjectFile    = "cell2loc-project.tab"
)

// A Project represents a collection of paths
// for particular datasets.
type Project struct {
	name  string
	paths map[Dataset]string
}

// New creates a new empty project.
func New() *Project {
	return &Project{
		name:  "",
		paths: make(map[Dataset]string),
	}
}

// FromDir creates a new project
// with the files of a deconvolution directory.
// The project file is also set in the directory.
func FromDir(dir string) *Project {
	p := New()
	p.name = filepath.Join(dir, ProjectFile)
	p.paths[Spatial] = filepath.Join(dir, SpatialFile)
	p.paths[Reference] = filepath.Join(dir, ReferenceFile)
	p.paths[Meta] = filepath.Join(dir, MetaFile)
	p.paths[Abundance] = filepath.Join(dir, AbundanceFile)
	p.paths[Signatures] = filepath.Join(dir, SignaturesFile)
	p.paths[Mito] = filepath.Join(dir, MitoFile)
	return p
}

var header = []string{
	"dataset",
	"path",
}

// Read reads a project file from a TSV file.
//
// The TSV must contain the following fields:
//
//   - dataset, for the kind of file
//   - path, for the path of the file
//
// Each dataset must be one of the valid datasets,
// and can be defined only once.
//
// Here is an example file:
//
//	# cell2loc project files
//	dataset	path
//	spatial	data/spE_data.csv
//	reference	data/scRNA_data.csv
//	meta	data/scRNA_meta.csv
//	params	params.tab
func Read(name string) (*Project, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	p.name = name
	return p, nil
}

func read(r io.Reader) (*Project, error) {
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

	p := New()
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "dataset"
		set := Dataset(strings.ToLower(strings.TrimSpace(row[fields[f]])))
		if !set.Valid() {
			return nil, fmt.Errorf("on row %d: field %q: unknown dataset %q", ln, f, set)
		}
		if _, dup := p.paths[set]; dup {
			return nil, fmt.Errorf("on row %d: field %q: dataset %q already defined", ln, f, set)
		}

		f = "path"
		path := strings.TrimSpace(row[fields[f]])
		if path == "" {
			return nil, fmt.Errorf("on row %d: field %q: empty path for dataset %q", ln, f, set)
		}
		p.paths[set] = path
	}

	return p, nil
}

// Add adds a filepath of a dataset to a given project.
// It returns the previous value
// for the dataset.
func (p *Project) Add(set Dataset, path string) string {
	prev := p.paths[set]
	if path == "" {
		delete(p.paths, set)
		return prev
	}

	p.paths[set] = path
	return prev
}

// Name returns the project file name.
func (p *Project) Name() string {
	return p.name
}

// Path returns the path of the given dataset.
func (p *Project) Path(set Dataset) string {
	return p.paths[set]
}

// Sets returns the datasets defined on a project.
func (p *Project) Sets() []Dataset {
	var sets []Dataset
	for s := range p.paths {
		sets = append(sets, s)
	}
	slices.Sort(sets)
	return sets
}

// SetName sets the project file name.
func (p *Project) SetName(name string) {
	p.name = name
}

// Write writes a project into a file.
func (p *Project) Write() error {
	if p.name == "" {
		return fmt.Errorf("project without file name")
	}
	if err := replaceFile(p.name, p.tsv); err != nil {
		return fmt.Errorf("on file %q: %v", p.name, err)
	}
	return nil
}

func (p *Project) tsv(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# cell2loc project files\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}
	for _, s := range p.Sets() {
		if err := tsv.Write([]string{string(s), p.paths[s]}); err != nil {
			return err
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("while writing data: %v", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("while writing data: %v", err)
	}
	return nil
}

// ReplaceFile writes a file using a temporary file
// in the same directory,
// that replaces the destination file
// only when the whole content was written.
func replaceFile(name string, write func(io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+"-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, name)
}
