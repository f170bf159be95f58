// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package project

import (
	"fmt"
	"os"

	"github.com/js-arias/cell2loc/colorkey"
	"github.com/js-arias/cell2loc/matrix"
	"github.com/js-arias/cell2loc/meta"
	"github.com/js-arias/cell2loc/param"
	"github.com/js-arias/cell2loc/zones"
)

// Abundance reads the abundance estimates
// (spots as rows, cell types as columns)
// as defined in a project.
func (p *Project) Abundance() (*matrix.Matrix, error) {
	return p.readMatrix(Abundance, "abundances")
}

// Colors reads the color key
// as defined in a project.
// If no key is defined,
// it returns a default key for the given labels.
func (p *Project) Colors(labels []string) (*colorkey.Key, error) {
	name := p.Path(Colors)
	if name == "" {
		return colorkey.Default(labels), nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	k, err := colorkey.Read(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return k, nil
}

// Meta reads the metadata of the reference cells
// as defined in a project.
func (p *Project) Meta() (*meta.Table, error) {
	name := p.Path(Meta)
	if name == "" {
		return nil, fmt.Errorf("cell metadata not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := meta.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return t, nil
}

// Mito reads the expression of the mitochondrial genes
// as defined in a project.
func (p *Project) Mito() (*matrix.Matrix, error) {
	return p.readMatrix(Mito, "mitochondrial genes")
}

// Params reads the analysis parameters
// as defined in a project.
// If no parameters are defined,
// it returns the default parameters.
func (p *Project) Params() (*param.P, error) {
	name := p.Path(Params)
	if name == "" {
		return param.New(""), nil
	}
	return param.Read(name)
}

// Reference reads the single cell reference expression
// (cells as rows, genes as columns)
// as defined in a project.
func (p *Project) Reference() (*matrix.Matrix, error) {
	return p.readMatrix(Reference, "reference expression")
}

// Signatures reads the reference signatures
// (genes as rows, cell types as columns)
// as defined in a project.
func (p *Project) Signatures() (*matrix.Matrix, error) {
	return p.readMatrix(Signatures, "signatures")
}

// Spatial reads the spatial expression
// (spots as rows, genes as columns)
// as defined in a project.
func (p *Project) Spatial() (*matrix.Matrix, error) {
	return p.readMatrix(Spatial, "spatial expression")
}

// Zones reads the tissue zones
// as defined in a project.
func (p *Project) Zones() (*zones.Partition, error) {
	name := p.Path(Zones)
	if name == "" {
		return nil, fmt.Errorf("zones not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	z, err := zones.Read(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return z, nil
}

func (p *Project) readMatrix(set Dataset, desc string) (*matrix.Matrix, error) {
	name := p.Path(set)
	if name == "" {
		return nil, fmt.Errorf("%s not defined in project %q", desc, p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := matrix.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return m, nil
}

// WriteMatrix writes a matrix
// into the file of the given dataset.
// The dataset file is replaced
// only if the matrix was written without errors.
func (p *Project) WriteMatrix(set Dataset, m *matrix.Matrix) error {
	name := p.Path(set)
	if name == "" {
		return fmt.Errorf("dataset %q not defined in project %q", set, p.name)
	}
	if err := replaceFile(name, m.CSV); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	return nil
}
