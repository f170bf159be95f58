// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package heatmap implements images
// for cell abundance matrices:
// a heatmap of spots by cell types,
// and maps of the spots
// when spot names carry grid coordinates.
package heatmap

import (
	"image"
	"image/color"

	"github.com/js-arias/cell2loc/matrix"
)

// Background is the color used for undefined pixels.
var Background = color.RGBA{211, 211, 211, 255}

// Image is a heatmap of an abundance matrix,
// with spots as rows
// and cell types as columns.
type Image struct {
	// Abundance matrix.
	Data *matrix.Matrix

	// Size in pixels of each cell of the heatmap.
	Size int

	// If PerColumn is true,
	// values are scaled by the maximum of each column,
	// otherwise,
	// by the maximum of the whole matrix.
	PerColumn bool

	// A Gradient color scheme
	Gradient Gradienter

	max  []float64
	rows int
	cols int
}

// Format sets the scale of the values
// and the default options of the image.
func (i *Image) Format() {
	if i.Size < 1 {
		i.Size = 4
	}
	if i.Gradient == nil {
		i.Gradient = RainbowPurpleToRed{}
	}

	i.rows, i.cols = i.Data.Dims()
	i.max = make([]float64, i.cols)
	var gMax float64
	for c := 0; c < i.cols; c++ {
		for _, v := range i.Data.Col(c) {
			if v > i.max[c] {
				i.max[c] = v
			}
		}
		if i.max[c] > gMax {
			gMax = i.max[c]
		}
	}
	if !i.PerColumn {
		for c := range i.max {
			i.max[c] = gMax
		}
	}
}

func (i *Image) ColorModel() color.Model { return color.RGBAModel }
func (i *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.cols*i.Size, i.rows*i.Size)
}
func (i *Image) At(x, y int) color.Color {
	r := y / i.Size
	c := x / i.Size
	if r < 0 || r >= i.rows || c < 0 || c >= i.cols {
		return Background
	}
	if i.max[c] == 0 {
		return i.Gradient.Gradient(0)
	}
	return i.Gradient.Gradient(i.Data.At(r, c) / i.max[c])
}
