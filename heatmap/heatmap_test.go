// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package heatmap_test

import (
	"image"
	"image/color"
	"reflect"
	"testing"

	"github.com/js-arias/cell2loc/colorkey"
	"github.com/js-arias/cell2loc/heatmap"
	"github.com/js-arias/cell2loc/matrix"
)

func newAbundance() *matrix.Matrix {
	ab := matrix.New([]string{"0x0", "1x0", "0x1", "2x2"}, []string{"B cells", "T cells"})
	vals := [][]float64{
		{10, 0},
		{5, 1},
		{0, 2},
		{2.5, 0.5},
	}
	for i, r := range vals {
		for j, v := range r {
			ab.Set(i, j, v)
		}
	}
	return ab
}

func TestImage(t *testing.T) {
	ab := newAbundance()
	img := &heatmap.Image{
		Data:      ab,
		Size:      3,
		PerColumn: true,
		Gradient:  heatmap.LightGrayScale{},
	}
	img.Format()

	if b := img.Bounds(); b != image.Rect(0, 0, 6, 12) {
		t.Errorf("bounds: got %v, want %v", b, image.Rect(0, 0, 6, 12))
	}

	g := heatmap.LightGrayScale{}
	tests := []struct {
		x, y int
		want color.Color
	}{
		{0, 0, g.Gradient(1)},
		{2, 2, g.Gradient(1)},
		{0, 3, g.Gradient(0.5)},
		{3, 3, g.Gradient(0.5)},
		{4, 7, g.Gradient(1)},
		{0, 11, g.Gradient(0.25)},
		{10, 10, heatmap.Background},
	}
	for _, test := range tests {
		if c := img.At(test.x, test.y); !reflect.DeepEqual(c, test.want) {
			t.Errorf("pixel %d, %d: got %v, want %v", test.x, test.y, c, test.want)
		}
	}
}

func TestParseGrid(t *testing.T) {
	g, err := heatmap.ParseGrid([]string{"3x4", "4x4", "3_6"})
	if err != nil {
		t.Fatalf("unable to parse grid: %v", err)
	}
	if c, r := g.Dims(); c != 2 || r != 3 {
		t.Errorf("dims: got %d x %d, want 2 x 3", c, r)
	}
	if s, ok := g.Spot(0, 2); !ok || s != "3_6" {
		t.Errorf("spot 0, 2: got %q, want %q", s, "3_6")
	}
	if s, ok := g.Spot(1, 1); ok {
		t.Errorf("spot 1, 1: unexpected spot %q", s)
	}

	for _, spots := range [][]string{
		{},
		{"AAACAAGTATCTCCCA-1"},
		{"3x4", "3_4"},
		{"3xa"},
	} {
		if _, err := heatmap.ParseGrid(spots); err == nil {
			t.Errorf("spots %v: expecting error", spots)
		}
	}
}

func TestMap(t *testing.T) {
	ab := newAbundance()
	grid, err := heatmap.ParseGrid(ab.Rows())
	if err != nil {
		t.Fatalf("unable to parse grid: %v", err)
	}

	g := heatmap.Iridescent{}
	m := &heatmap.Map{
		Grid:     grid,
		Size:     2,
		Values:   heatmap.Scale(ab.Rows(), ab.Col(0)),
		Gradient: g,
	}
	m.Format()
	if b := m.Bounds(); b != image.Rect(0, 0, 6, 6) {
		t.Errorf("bounds: got %v, want %v", b, image.Rect(0, 0, 6, 6))
	}
	if c := m.At(0, 0); !reflect.DeepEqual(c, g.Gradient(1)) {
		t.Errorf("spot 0x0: got %v, want %v", c, g.Gradient(1))
	}
	if c := m.At(2, 1); !reflect.DeepEqual(c, g.Gradient(0.5)) {
		t.Errorf("spot 1x0: got %v, want %v", c, g.Gradient(0.5))
	}
	if c := m.At(3, 3); !reflect.DeepEqual(c, heatmap.Background) {
		t.Errorf("empty spot: got %v, want %v", c, heatmap.Background)
	}

	keys := colorkey.New()
	keys.Set("zone-1", color.RGBA{0, 84, 119, 255})
	zm := &heatmap.Map{
		Grid: grid,
		Labels: map[string]string{
			"0x0": "zone-1",
			"2x2": "zone-2",
		},
		Keys: keys,
	}
	zm.Format()
	want, _ := keys.Color("zone-1")
	if c := zm.At(1, 1); !reflect.DeepEqual(c, want) {
		t.Errorf("zone spot: got %v, want %v", c, want)
	}
	if c := zm.At(25, 25); !reflect.DeepEqual(c, heatmap.Background) {
		t.Errorf("undefined zone: got %v, want %v", c, heatmap.Background)
	}
}

func TestGradientByName(t *testing.T) {
	for _, name := range []string{"gray", "Incandescent", "iridescent", "rainbow"} {
		if _, err := heatmap.GradientByName(name); err != nil {
			t.Errorf("gradient %q: %v", name, err)
		}
	}
	if _, err := heatmap.GradientByName("viridis"); err == nil {
		t.Errorf("gradient %q: expecting error", "viridis")
	}
}
