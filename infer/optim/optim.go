// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package optim implements the gradient optimizer
// used to fit the expression models,
// and the record of the loss during the fit.
package optim

import "math"

// Adam is an adaptive moment estimation optimizer
// (Kingma & Ba 2015, arXiv:1412.6980).
// It climbs the gradient,
// so it maximizes the objective function.
type Adam struct {
	Rate  float64
	Beta1 float64
	Beta2 float64
	Eps   float64

	m, v []float64
	t    int
}

// NewAdam returns a new optimizer
// for n parameters,
// with the given learning rate.
func NewAdam(n int, rate float64) *Adam {
	return &Adam{
		Rate:  rate,
		Beta1: 0.9,
		Beta2: 0.999,
		Eps:   1e-8,
		m:     make([]float64, n),
		v:     make([]float64, n),
	}
}

// Step updates the parameters
// using the given gradient.
func (a *Adam) Step(param, grad []float64) {
	a.t++
	c1 := 1 - math.Pow(a.Beta1, float64(a.t))
	c2 := 1 - math.Pow(a.Beta2, float64(a.t))
	for i, g := range grad {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			continue
		}
		a.m[i] = a.Beta1*a.m[i] + (1-a.Beta1)*g
		a.v[i] = a.Beta2*a.v[i] + (1-a.Beta2)*g*g
		mh := a.m[i] / c1
		vh := a.v[i] / c2
		param[i] += a.Rate * mh / (math.Sqrt(vh) + a.Eps)
	}
}

// Clamp restricts the values of a parameter slice
// into the [min, max] interval.
func Clamp(param []float64, min, max float64) {
	for i, p := range param {
		if p < min {
			param[i] = min
		}
		if p > max {
			param[i] = max
		}
	}
}
