// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package zones implements a partition of the spots
// of a spatial dataset into tissue zones,
// defined by the proportion of the cell types
// in each spot.
package zones

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/js-arias/cell2loc/matrix"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// A Zone is a set of spots
// with a similar composition of cell types.
type Zone struct {
	// ID of the zone,
	// starting at 1.
	ID int

	// Proportion of each cell type
	// at the center of the zone.
	// It is nil if the zone was read from a file.
	Center []float64

	// Spots assigned to the zone.
	Spots []string
}

// Label returns the label of the zone.
func (z Zone) Label() string {
	return "zone-" + strconv.Itoa(z.ID)
}

// Partition is a partition of spots into zones.
type Partition struct {
	cellTypes []string
	zones     []Zone
	spot      map[string]int
}

// Proportions returns a matrix of abundances
// scaled so the sum of each row is one.
// Rows without abundance are kept as zeros.
func Proportions(ab *matrix.Matrix) *matrix.Matrix {
	p := matrix.New(ab.Rows(), ab.Cols())
	for i, sum := range ab.RowSums() {
		if sum <= 0 {
			continue
		}
		for j, v := range ab.Row(i) {
			p.Set(i, j, v/sum)
		}
	}
	return p
}

// New partitions the spots of an abundance matrix
// (spots as rows, cell types as columns)
// into k zones,
// using k-means on the cell type proportions.
// As k-means starts from random centers,
// the clustering is repeated the indicated number of restarts,
// and the partition with the smallest sum of squares
// is returned.
func New(ab *matrix.Matrix, k, restarts int) (*Partition, error) {
	rows, cols := ab.Dims()
	if cols == 0 {
		return nil, fmt.Errorf("zones: abundance matrix without cell types")
	}
	if k < 1 {
		return nil, fmt.Errorf("zones: invalid number of zones: %d", k)
	}
	if k > rows {
		return nil, fmt.Errorf("zones: got %d spots, want at least %d", rows, k)
	}
	if restarts < 1 {
		restarts = 1
	}

	prop := Proportions(ab)
	obs := make(clusters.Observations, 0, rows)
	for i := 0; i < rows; i++ {
		obs = append(obs, clusters.Coordinates(prop.Row(i)))
	}

	km := kmeans.New()
	var best clusters.Clusters
	bestSS := math.Inf(1)
	for i := 0; i < restarts; i++ {
		cc, err := km.Partition(obs, k)
		if err != nil {
			return nil, fmt.Errorf("zones: %v", err)
		}
		ss := sumSquares(cc)
		if ss < bestSS {
			bestSS = ss
			best = cc
		}
	}

	// sort the zones by the dominant cell type
	// of the center
	slices.SortStableFunc(best, func(a, b clusters.Cluster) int {
		da, va := dominant(a.Center)
		db, vb := dominant(b.Center)
		if da != db {
			return da - db
		}
		if va > vb {
			return -1
		}
		if va < vb {
			return 1
		}
		return 0
	})

	p := &Partition{
		cellTypes: ab.Cols(),
		spot:      make(map[string]int, rows),
	}
	for i, c := range best {
		p.zones = append(p.zones, Zone{
			ID:     i + 1,
			Center: slices.Clone([]float64(c.Center)),
		})
	}
	for i, s := range ab.Rows() {
		z := best.Nearest(obs[i])
		p.zones[z].Spots = append(p.zones[z].Spots, s)
		p.spot[s] = z + 1
	}
	return p, nil
}

func sumSquares(cc clusters.Clusters) float64 {
	var ss float64
	for _, c := range cc {
		for _, o := range c.Observations {
			ss += o.Distance(c.Center)
		}
	}
	return ss
}

func dominant(center []float64) (int, float64) {
	var d int
	for i, v := range center {
		if v > center[d] {
			d = i
		}
	}
	if len(center) == 0 {
		return 0, 0
	}
	return d, center[d]
}

// CellTypes returns the cell types used
// to define the zone centers.
func (p *Partition) CellTypes() []string {
	return p.cellTypes
}

// Spots returns the spots of the partition.
func (p *Partition) Spots() []string {
	spots := make([]string, 0, len(p.spot))
	for s := range p.spot {
		spots = append(spots, s)
	}
	slices.Sort(spots)
	return spots
}

// Zone returns the zone ID of a spot.
func (p *Partition) Zone(spot string) (int, bool) {
	z, ok := p.spot[spot]
	return z, ok
}

// Zones returns the zones of the partition.
func (p *Partition) Zones() []Zone {
	return p.zones
}

// Read reads a zone file.
//
// A zone file is a tab-delimited file
// with the following required columns:
//
//	-spot	the spot identifier
//	-zone	the zone ID, a positive integer
//
// Here is an example of a zone file:
//
//	spot	zone
//	AAACAAGTATCTCCCA-1	1
//	AAACACCAATAACTGC-1	3
//	AAACAGAGCGACTCCT-1	1
func Read(r io.Reader) (*Partition, error) {
	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("while reading header: %v", err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.ToLower(strings.TrimSpace(h))
		fields[h] = i
	}
	for _, h := range []string{"spot", "zone"} {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	p := &Partition{
		spot: make(map[string]int),
	}
	var max int
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "spot"
		s := strings.TrimSpace(row[fields[f]])
		if s == "" {
			return nil, fmt.Errorf("on row %d: field %q: empty spot", ln, f)
		}
		if _, dup := p.spot[s]; dup {
			return nil, fmt.Errorf("on row %d: field %q: spot %q already defined", ln, f, s)
		}

		f = "zone"
		z, err := strconv.Atoi(strings.TrimSpace(row[fields[f]]))
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}
		if z < 1 {
			return nil, fmt.Errorf("on row %d: field %q: invalid zone %d", ln, f, z)
		}
		p.spot[s] = z
		if z > max {
			max = z
		}
	}

	p.zones = make([]Zone, max)
	for i := range p.zones {
		p.zones[i].ID = i + 1
	}
	for _, s := range p.Spots() {
		z := p.spot[s] - 1
		p.zones[z].Spots = append(p.zones[z].Spots, s)
	}
	return p, nil
}

// TSV writes the zone of each spot
// as a tab-delimited file.
func (p *Partition) TSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# cell2loc tissue zones\n")
	for _, z := range p.zones {
		if z.Center == nil {
			continue
		}
		fmt.Fprintf(bw, "# %s:", z.Label())
		for i, v := range z.Center {
			fmt.Fprintf(bw, " %s=%.3f", p.cellTypes[i], v)
		}
		fmt.Fprintf(bw, "\n")
	}

	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write([]string{"spot", "zone"}); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}
	for _, z := range p.zones {
		for _, s := range z.Spots {
			row := []string{
				s,
				strconv.Itoa(z.ID),
			}
			if err := tsv.Write(row); err != nil {
				return err
			}
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
