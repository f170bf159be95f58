// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package colorkey_test

import (
	"bytes"
	"image/color"
	"reflect"
	"strings"
	"testing"

	"github.com/js-arias/cell2loc/colorkey"
)

func TestDefault(t *testing.T) {
	labels := []string{"B cells", "Fibroblasts", "T cells", "Macrophages"}
	k := colorkey.Default(labels)

	seen := make(map[color.Color]string)
	for _, l := range labels {
		c, ok := k.Color(l)
		if !ok {
			t.Fatalf("label %q: undefined color", l)
		}
		if _, _, _, a := c.RGBA(); a != 0xffff {
			t.Errorf("label %q: color %v is not opaque", l, c)
		}
		if prev, ok := seen[c]; ok {
			t.Errorf("label %q: same color as %q", l, prev)
		}
		seen[c] = l
	}

	if _, ok := k.Color("NK cells"); ok {
		t.Errorf("label %q: unexpected color", "NK cells")
	}
}

func TestTSV(t *testing.T) {
	k := colorkey.New()
	k.Set("B cells", color.RGBA{0, 84, 119, 255})
	k.Set("T cells", color.RGBA{251, 236, 93, 255})
	k.Set("zone 1", color.RGBA{229, 229, 224, 255})

	var buf bytes.Buffer
	if err := k.TSV(&buf); err != nil {
		t.Fatalf("unable to write key: %v", err)
	}

	nk, err := colorkey.Read(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("unable to read key: %v", err)
	}
	if !reflect.DeepEqual(nk.Labels(), k.Labels()) {
		t.Errorf("labels: got %v, want %v", nk.Labels(), k.Labels())
	}
	for _, l := range k.Labels() {
		want, _ := k.Color(l)
		got, _ := nk.Color(l)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("label %q: got %v, want %v", l, got, want)
		}
	}
}

func TestReadErrors(t *testing.T) {
	tests := map[string]string{
		"no color":   "label\tkey\nB cells\t1\n",
		"few values": "label\tcolor\nB cells\t1,2\n",
		"bad value":  "label\tcolor\nB cells\t1,2,300\n",
		"no number":  "label\tcolor\nB cells\t1,green,3\n",
		"no label":   "label\tcolor\n\t1,2,3\n",
	}
	for name, in := range tests {
		if _, err := colorkey.Read(strings.NewReader(in)); err == nil {
			t.Errorf("%s: expecting error", name)
		}
	}
}
