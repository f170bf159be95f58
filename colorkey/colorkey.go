// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package colorkey implements a simple color key
// for cell types and spatial zones.
package colorkey

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"image/color"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Key stores the color of each label.
type Key struct {
	color map[string]color.RGBA
}

// New creates a new empty key.
func New() *Key {
	return &Key{
		color: make(map[string]color.RGBA),
	}
}

// Default returns a key for a set of labels,
// with colors evenly spaced in the hue
// of the HCL color space.
func Default(labels []string) *Key {
	k := New()
	if len(labels) == 0 {
		return k
	}

	step := 360 / float64(len(labels))
	for i, l := range labels {
		// alternate luminance
		// so neighbor labels are easy to tell apart
		lum := 0.65
		if i%2 == 1 {
			lum = 0.45
		}
		c := colorful.Hcl(float64(i)*step, 0.6, lum).Clamped()
		r, g, b := c.RGB255()
		k.color[l] = color.RGBA{r, g, b, 255}
	}
	return k
}

// Color returns the color associated with a given label.
// If no color is defined for the label,
// it will return transparent black.
func (k *Key) Color(label string) (color.Color, bool) {
	c, ok := k.color[label]
	if !ok {
		return color.RGBA{0, 0, 0, 0}, false
	}
	return c, true
}

// Labels returns the labels with a defined color.
func (k *Key) Labels() []string {
	labels := make([]string, 0, len(k.color))
	for l := range k.color {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	return labels
}

// Set sets the color of a label.
func (k *Key) Set(label string, c color.Color) {
	cf, _ := colorful.MakeColor(c)
	r, g, b := cf.Clamped().RGB255()
	k.color[label] = color.RGBA{r, g, b, 255}
}

// Read reads a key file used to define the colors
// of a set of labels.
//
// A key file is a tab-delimited file
// with the following required columns:
//
//	-label	the cell type or zone
//	-color	an RGB value separated by commas,
//		for example "125,132,148".
//
// Any other columns, will be ignored.
// Here is an example of a key file:
//
//	label	color	comment
//	B cells	0, 84, 119
//	Fibroblasts	251, 236, 93	stromal
//	T cells	229, 229, 224
func Read(r io.Reader) (*Key, error) {
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
	for _, h := range []string{"label", "color"} {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	k := New()
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "label"
		label := strings.TrimSpace(row[fields[f]])
		if label == "" {
			return nil, fmt.Errorf("on row %d: field %q: empty label", ln, f)
		}

		f = "color"
		val := strings.Split(row[fields[f]], ",")
		if len(val) != 3 {
			return nil, fmt.Errorf("on row %d: field %q: found %d values, want 3", ln, f, len(val))
		}
		var rgb [3]uint8
		for i, name := range []string{"red", "green", "blue"} {
			v, err := strconv.Atoi(strings.TrimSpace(val[i]))
			if err != nil {
				return nil, fmt.Errorf("on row %d: field %q [%s value]: %v", ln, f, name, err)
			}
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("on row %d: field %q [%s value]: invalid value %d", ln, f, name, v)
			}
			rgb[i] = uint8(v)
		}
		k.color[label] = color.RGBA{rgb[0], rgb[1], rgb[2], 255}
	}
	return k, nil
}

// TSV writes a key file.
func (k *Key) TSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# cell2loc color key\n")
	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write([]string{"label", "color"}); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}
	for _, l := range k.Labels() {
		c := k.color[l]
		row := []string{
			l,
			fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B),
		}
		if err := tsv.Write(row); err != nil {
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
