// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package param_test

import (
	"os"
	"reflect"
	"testing"

	"github.com/js-arias/cell2loc/param"
)

func TestParam(t *testing.T) {
	name := "tmp-cell2loc-parameters-for-test.tab"
	p := param.New(name)
	testParam(t, p, nil)

	values := map[param.Param]string{
		param.Label:            "annotation",
		param.MitoPrefix:       "mt-",
		param.CellCount:        "10",
		param.CellPercentage:   "0.05",
		param.NonZeroMean:      "1.5",
		param.RefEpochs:        "500",
		param.RefRate:          "0.02",
		param.MapEpochs:        "1000",
		param.MapRate:          "0.005",
		param.CellsPerLocation: "8",
		param.DetectionAlpha:   "200",
		param.DetectionMean:    "0.25",
		param.Samples:          "100",
		param.Quantile:         "0.1",
		param.Seed:             "42",
		param.Tol:              "0.0001",
		param.Patience:         "50",
	}
	for k, v := range values {
		if err := p.Set(k, v); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	for k, v := range values {
		if got := p.Value(k); got != v {
			t.Errorf("value %s: got %q, want %q", k, got, v)
		}
	}

	defer os.Remove(name)
	if err := p.Write(); err != nil {
		t.Fatalf("error when writing data: %v", err)
	}

	np, err := param.Read(name)
	if err != nil {
		t.Fatalf("error when reading data: %v", err)
	}
	testParam(t, np, p)

	if np.Label() != "annotation" {
		t.Errorf("label: got %q, want %q", np.Label(), "annotation")
	}
	if sp := np.Spatial(); sp.Epochs != 1000 || sp.Patience != 50 {
		t.Errorf("spatial: got %+v", sp)
	}
	if pr := np.Prior(); pr.CellsPerLocation != 8 || pr.DetectionAlpha != 200 {
		t.Errorf("prior: got %+v", pr)
	}
	if fp := np.Filter(); fp.CellCount != 10 || fp.NonZeroMean != 1.5 {
		t.Errorf("filter: got %+v", fp)
	}
}

func testParam(t testing.TB, p, want *param.P) {
	t.Helper()

	if want == nil {
		want = param.New(p.Name())
	}
	if p.Name() != want.Name() {
		t.Errorf("name: got %q, want %q", p.Name(), want.Name())
	}
	if p.MitoPrefix() != want.MitoPrefix() {
		t.Errorf("mito prefix: got %q, want %q", p.MitoPrefix(), want.MitoPrefix())
	}
	if p.Label() != want.Label() {
		t.Errorf("label: got %q, want %q", p.Label(), want.Label())
	}
	if !reflect.DeepEqual(p.Filter(), want.Filter()) {
		t.Errorf("filter: got %+v, want %+v", p.Filter(), want.Filter())
	}
	if !reflect.DeepEqual(p.Prior(), want.Prior()) {
		t.Errorf("prior: got %+v, want %+v", p.Prior(), want.Prior())
	}
	if !reflect.DeepEqual(p.Reference(), want.Reference()) {
		t.Errorf("reference: got %+v, want %+v", p.Reference(), want.Reference())
	}
	if !reflect.DeepEqual(p.Spatial(), want.Spatial()) {
		t.Errorf("spatial: got %+v, want %+v", p.Spatial(), want.Spatial())
	}
	if p.Samples() != want.Samples() {
		t.Errorf("samples: got %d, want %d", p.Samples(), want.Samples())
	}
	if p.Quantile() != want.Quantile() {
		t.Errorf("quantile: got %g, want %g", p.Quantile(), want.Quantile())
	}
	if p.Seed() != want.Seed() {
		t.Errorf("seed: got %d, want %d", p.Seed(), want.Seed())
	}
}

func TestSetErrors(t *testing.T) {
	p := param.New("params.tab")

	tests := map[string]struct {
		key   param.Param
		value string
	}{
		"unknown":         {"steps", "10"},
		"empty label":     {param.Label, " "},
		"empty prefix":    {param.MitoPrefix, ""},
		"no number":       {param.MapEpochs, "many"},
		"zero epochs":     {param.RefEpochs, "0"},
		"negative rate":   {param.MapRate, "-0.1"},
		"percentage":      {param.CellPercentage, "1.5"},
		"quantile":        {param.Quantile, "0.5"},
		"negative seed":   {param.Seed, "-1"},
		"negative tol":    {param.Tol, "-1e-6"},
		"zero cells":      {param.CellsPerLocation, "0"},
		"negative counts": {param.CellCount, "-1"},
		"nan quantile":    {param.Quantile, "NaN"},
		"nan rate":        {param.MapRate, "NaN"},
		"nan cells":       {param.CellsPerLocation, "nan"},
		"nan tol":         {param.Tol, "NaN"},
		"inf tol":         {param.Tol, "Inf"},
		"inf mean":        {param.NonZeroMean, "+Inf"},
		"inf alpha":       {param.DetectionAlpha, "Inf"},
	}
	for name, test := range tests {
		if err := p.Set(test.key, test.value); err == nil {
			t.Errorf("%s: expecting error for %s = %q", name, test.key, test.value)
		}
	}
}
