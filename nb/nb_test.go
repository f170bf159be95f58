// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package nb_test

import (
	"math"
	"testing"

	"github.com/js-arias/cell2loc/nb"
)

func TestLogProb(t *testing.T) {
	// with theta = 1
	// the negative binomial is a geometric distribution
	// P(x) = (1/(1+mu)) * (mu/(1+mu))^x
	tests := []struct {
		x, mu float64
	}{
		{0, 1},
		{3, 2},
		{10, 0.5},
	}
	for _, tc := range tests {
		p := 1 / (1 + tc.mu)
		want := math.Log(p) + tc.x*math.Log(1-p)
		got := nb.LogProb(tc.x, tc.mu, 1)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("x = %.0f, mu = %.3f: got %.6f, want %.6f", tc.x, tc.mu, got, want)
		}
	}

	// sum of probabilities
	var sum float64
	for x := 0; x < 2000; x++ {
		sum += math.Exp(nb.LogProb(float64(x), 7.5, 2.3))
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("sum of probabilities: got %.6f, want 1", sum)
	}
}

func TestDerivatives(t *testing.T) {
	const h = 1e-6
	tests := []struct {
		x, mu, theta float64
	}{
		{0, 1.3, 0.7},
		{4, 2.1, 5},
		{12, 20, 1.5},
	}
	for _, tc := range tests {
		lm := math.Log(tc.mu)
		num := (nb.LogProb(tc.x, math.Exp(lm+h), tc.theta) - nb.LogProb(tc.x, math.Exp(lm-h), tc.theta)) / (2 * h)
		if got := nb.DLogMu(tc.x, tc.mu, tc.theta); math.Abs(got-num) > 1e-5 {
			t.Errorf("dLogMu: x = %.0f: got %.6f, want %.6f", tc.x, got, num)
		}

		num = (nb.LogProb(tc.x, tc.mu, tc.theta+h) - nb.LogProb(tc.x, tc.mu, tc.theta-h)) / (2 * h)
		if got := nb.DTheta(tc.x, tc.mu, tc.theta); math.Abs(got-num) > 1e-5 {
			t.Errorf("dTheta: x = %.0f: got %.6f, want %.6f", tc.x, got, num)
		}
	}
}

func TestFisher(t *testing.T) {
	// the expected information is the variance of the score
	mu, theta := 3.0, 2.0
	var mean, v float64
	for x := 0; x < 2000; x++ {
		p := math.Exp(nb.LogProb(float64(x), mu, theta))
		s := nb.DLogMu(float64(x), mu, theta)
		mean += p * s
		v += p * s * s
	}
	if math.Abs(mean) > 1e-6 {
		t.Errorf("mean score: got %.6f, want 0", mean)
	}
	if got := nb.FisherLogMu(mu, theta); math.Abs(got-v) > 1e-6 {
		t.Errorf("fisher: got %.6f, want %.6f", got, v)
	}
}

func TestGamma(t *testing.T) {
	g := nb.GammaMean(0.5, 20)
	if math.Abs(g.Rate-40) > 1e-12 {
		t.Errorf("rate: got %.6f, want %.6f", g.Rate, 40.0)
	}

	const h = 1e-6
	for _, lx := range []float64{-2, -0.7, 0, 1.5} {
		num := (g.LogPrior(lx+h) - g.LogPrior(lx-h)) / (2 * h)
		if got := g.Grad(lx); math.Abs(got-num) > 1e-4 {
			t.Errorf("grad at %.3f: got %.6f, want %.6f", lx, got, num)
		}
		num = -(g.Grad(lx+h) - g.Grad(lx-h)) / (2 * h)
		if got := g.Curvature(lx); math.Abs(got-num) > 1e-4 {
			t.Errorf("curvature at %.3f: got %.6f, want %.6f", lx, got, num)
		}
	}

	// the prior is maximum at log(shape/rate)
	best := math.Log(g.Shape / g.Rate)
	if math.Abs(g.Grad(best)) > 1e-9 {
		t.Errorf("grad at mode: got %.6f, want 0", g.Grad(best))
	}
}

func TestTheta(t *testing.T) {
	if got := nb.Theta(math.Log(0.5)); math.Abs(got-4) > 1e-9 {
		t.Errorf("theta: got %.6f, want %.6f", got, 4.0)
	}
}
