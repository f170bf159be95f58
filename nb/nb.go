// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package nb implements the negative binomial likelihood
// and the gamma priors
// used by the expression models.
//
// The negative binomial is parameterized
// by its mean (mu)
// and its shape or inverse dispersion (theta),
// so the variance is mu + mu^2/theta.
//
// Model parameters are optimized in log space,
// so the derivatives are given with respect to the log
// of the parameter.
package nb

import (
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// LogProb returns the log probability of the count x.
func LogProb(x, mu, theta float64) float64 {
	lp := theta * (math.Log(theta) - math.Log(theta+mu))
	if x == 0 {
		return lp
	}
	lp += lgammaRatio(x, theta) - lgammaFact(x)
	lp += x * (math.Log(mu) - math.Log(theta+mu))
	return lp
}

// DLogMu returns the derivative of the log probability
// with respect to the log of the mean.
func DLogMu(x, mu, theta float64) float64 {
	return theta * (x - mu) / (theta + mu)
}

// DTheta returns the derivative of the log probability
// with respect to the shape parameter.
func DTheta(x, mu, theta float64) float64 {
	return digammaDiff(x, theta) + math.Log(theta) - math.Log(theta+mu) + (mu-x)/(theta+mu)
}

// FisherLogMu returns the expected information
// of the log of the mean.
func FisherLogMu(mu, theta float64) float64 {
	return mu * theta / (theta + mu)
}

// Theta returns the shape parameter
// from the log of the overdispersion coefficient alpha,
// with theta = 1/alpha^2.
func Theta(logAlpha float64) float64 {
	return math.Exp(-2 * logAlpha)
}

// Gamma is a gamma prior
// on a positive parameter
// that is optimized in log space.
type Gamma struct {
	Shape float64
	Rate  float64
}

// GammaMean returns a gamma prior
// with a given mean and shape.
func GammaMean(mean, shape float64) Gamma {
	return Gamma{
		Shape: shape,
		Rate:  shape / mean,
	}
}

// LogPrior returns the log prior density
// of the log of the parameter
// (it includes the jacobian of the transformation).
func (g Gamma) LogPrior(logX float64) float64 {
	d := distuv.Gamma{
		Alpha: g.Shape,
		Beta:  g.Rate,
	}
	return d.LogProb(math.Exp(logX)) + logX
}

// Grad returns the derivative of the log prior
// with respect to the log of the parameter.
func (g Gamma) Grad(logX float64) float64 {
	return g.Shape - g.Rate*math.Exp(logX)
}

// Curvature returns the negative of the second derivative
// of the log prior,
// with respect to the log of the parameter.
func (g Gamma) Curvature(logX float64) float64 {
	return g.Rate * math.Exp(logX)
}

// smallCount is the largest count
// for which the gamma function ratios
// are calculated as finite sums.
const smallCount = 8

var logFact [smallCount + 1]float64

func init() {
	for i := 2; i <= smallCount; i++ {
		logFact[i] = logFact[i-1] + math.Log(float64(i))
	}
}

func small(x float64) (int, bool) {
	if x < 0 || x > smallCount || x != math.Trunc(x) {
		return 0, false
	}
	return int(x), true
}

// lgammaFact returns log Γ(x+1).
func lgammaFact(x float64) float64 {
	if n, ok := small(x); ok {
		return logFact[n]
	}
	v, _ := math.Lgamma(x + 1)
	return v
}

// lgammaRatio returns log Γ(x+θ) - log Γ(θ).
func lgammaRatio(x, theta float64) float64 {
	if n, ok := small(x); ok {
		var s float64
		for i := 0; i < n; i++ {
			s += math.Log(theta + float64(i))
		}
		return s
	}
	a, _ := math.Lgamma(x + theta)
	b, _ := math.Lgamma(theta)
	return a - b
}

// digammaDiff returns ψ(x+θ) - ψ(θ).
func digammaDiff(x, theta float64) float64 {
	if n, ok := small(x); ok {
		var s float64
		for i := 0; i < n; i++ {
			s += 1 / (theta + float64(i))
		}
		return s
	}
	return mathext.Digamma(x+theta) - mathext.Digamma(theta)
}
