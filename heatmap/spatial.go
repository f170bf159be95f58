// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package heatmap

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/js-arias/cell2loc/colorkey"
)

// A Grid stores the position of the spots
// in a regular array.
type Grid struct {
	min, max image.Point
	spot     map[image.Point]string
}

// ParseGrid returns a grid from the spot names.
// Spot names must be in the form "<x>x<y>"
// or "<x>_<y>",
// where x and y are the column and row of the spot.
func ParseGrid(spots []string) (*Grid, error) {
	if len(spots) == 0 {
		return nil, fmt.Errorf("heatmap: empty spot list")
	}

	g := &Grid{
		spot: make(map[image.Point]string, len(spots)),
	}
	for i, s := range spots {
		p, err := parsePoint(s)
		if err != nil {
			return nil, fmt.Errorf("heatmap: spot %q: %v", s, err)
		}
		if prev, ok := g.spot[p]; ok {
			return nil, fmt.Errorf("heatmap: spot %q: same position as spot %q", s, prev)
		}
		g.spot[p] = s

		if i == 0 {
			g.min, g.max = p, p
			continue
		}
		g.min.X = min(g.min.X, p.X)
		g.min.Y = min(g.min.Y, p.Y)
		g.max.X = max(g.max.X, p.X)
		g.max.Y = max(g.max.Y, p.Y)
	}
	return g, nil
}

func parsePoint(s string) (image.Point, error) {
	sep := "x"
	if strings.Contains(s, "_") {
		sep = "_"
	}
	xs, ys, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), sep)
	if !ok {
		return image.Point{}, fmt.Errorf("without grid coordinates")
	}
	x, err := strconv.Atoi(xs)
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid column: %v", err)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid row: %v", err)
	}
	return image.Pt(x, y), nil
}

// Dims returns the number of columns and rows of the grid.
func (g *Grid) Dims() (cols, rows int) {
	return g.max.X - g.min.X + 1, g.max.Y - g.min.Y + 1
}

// Spot returns the spot at a given column and row
// of the grid.
func (g *Grid) Spot(col, row int) (string, bool) {
	s, ok := g.spot[image.Pt(col+g.min.X, row+g.min.Y)]
	return s, ok
}

// Map is an image of the spots of a grid.
// If Keys and Labels are defined,
// the spots are colored using the color of its label,
// otherwise,
// the spots are colored using a gradient
// on the Values.
type Map struct {
	Grid *Grid

	// Size in pixels of each spot.
	Size int

	// Values of each spot,
	// scaled between 0 and 1.
	Values map[string]float64

	// A Gradient color scheme
	Gradient Gradienter

	// Label of each spot
	// and the color key of the labels.
	Labels map[string]string
	Keys   *colorkey.Key

	cols int
	rows int
}

// Format sets the default options of the map.
func (m *Map) Format() {
	if m.Size < 1 {
		m.Size = 10
	}
	if m.Gradient == nil {
		m.Gradient = RainbowPurpleToRed{}
	}
	m.cols, m.rows = m.Grid.Dims()
}

func (m *Map) ColorModel() color.Model { return color.RGBAModel }
func (m *Map) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.cols*m.Size, m.rows*m.Size)
}
func (m *Map) At(x, y int) color.Color {
	s, ok := m.Grid.Spot(x/m.Size, y/m.Size)
	if !ok {
		return Background
	}

	if m.Keys != nil {
		l, ok := m.Labels[s]
		if !ok {
			return Background
		}
		if c, ok := m.Keys.Color(l); ok {
			return c
		}
		return Background
	}

	v, ok := m.Values[s]
	if !ok {
		return Background
	}
	return m.Gradient.Gradient(v)
}

// Scale returns the values of a column of an abundance matrix,
// as a map of spots to values scaled by the maximum
// of the column.
func Scale(spots []string, values []float64) map[string]float64 {
	var mx float64
	for _, v := range values {
		mx = max(mx, v)
	}
	sc := make(map[string]float64, len(spots))
	for i, s := range spots {
		if mx == 0 {
			sc[s] = 0
			continue
		}
		sc[s] = values[i] / mx
	}
	return sc
}
