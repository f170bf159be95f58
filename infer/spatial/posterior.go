// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package spatial

import (
	"math"
	"runtime"
	"slices"
	"sync"

	"github.com/js-arias/cell2loc/matrix"
	"github.com/js-arias/cell2loc/nb"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Abundance is a summary of the posterior
// of the cell abundances.
// Each matrix has spots as rows
// and cell types as columns.
type Abundance struct {
	// Quantile used for the Low estimate,
	// the High estimate uses 1 - Quantile.
	Quantile float64

	Mean *matrix.Matrix
	SD   *matrix.Matrix
	Low  *matrix.Matrix
	High *matrix.Matrix
}

// Names of the abundance summaries.
const (
	MeanName = "means_cell_abundance_w_sf"
	SDName   = "stds_cell_abundance_w_sf"
	LowName  = "q05_cell_abundance_w_sf"
	HighName = "q95_cell_abundance_w_sf"
)

// Posterior approximates the posterior of the abundances
// with a log-normal distribution,
// centered at the current log abundance,
// and with the scale given by the expected information
// of the log abundance.
//
// If samples is greater than zero,
// the summaries are calculated from random samples
// of the approximation,
// otherwise they are calculated analytically.
// The quantile q is used for the low estimate
// (usually 0.05).
func (m *Model) Posterior(samples int, seed uint64, q float64) *Abundance {
	sigma := m.scale()

	ab := &Abundance{
		Quantile: q,
		Mean:     matrix.New(m.spots, m.factors),
		SD:       matrix.New(m.spots, m.factors),
		Low:      matrix.New(m.spots, m.factors),
		High:     matrix.New(m.spots, m.factors),
	}

	src := rand.NewSource(seed)
	buf := make([]float64, samples)
	for s := range m.spots {
		for f := range m.factors {
			i := s*m.nFact + f
			ln := distuv.LogNormal{
				Mu:    m.logW[i],
				Sigma: sigma[i],
				Src:   src,
			}

			if samples <= 0 {
				ab.Mean.Set(s, f, ln.Mean())
				ab.SD.Set(s, f, ln.StdDev())
				ab.Low.Set(s, f, ln.Quantile(q))
				ab.High.Set(s, f, ln.Quantile(1-q))
				continue
			}

			for j := range buf {
				buf[j] = ln.Rand()
			}
			mean, sd := stat.MeanStdDev(buf, nil)
			slices.Sort(buf)
			ab.Mean.Set(s, f, mean)
			ab.SD.Set(s, f, sd)
			ab.Low.Set(s, f, stat.Quantile(q, stat.Empirical, buf, nil))
			ab.High.Set(s, f, stat.Quantile(1-q, stat.Empirical, buf, nil))
		}
	}
	return ab
}

// Scale returns the standard deviation
// of the log abundances,
// as the inverse of the square root
// of the expected information.
func (m *Model) scale() []float64 {
	sigma := make([]float64, len(m.logW))

	sens := make([]float64, m.nGenes)
	bg := make([]float64, m.nGenes)
	theta := make([]float64, m.nGenes)
	for g := range m.genes {
		sens[g] = math.Exp(m.logM[g])
		bg[g] = math.Exp(m.logS[g])
		theta[g] = nb.Theta(m.logA[g])
	}

	cpu := runtime.NumCPU()
	size := (m.nSpots + cpu - 1) / cpu
	var wg sync.WaitGroup
	for start := 0; start < m.nSpots; start += size {
		end := min(start+size, m.nSpots)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()

			nf := m.nFact
			w := make([]float64, nf)
			info := make([]float64, nf)
			for s := start; s < end; s++ {
				y := math.Exp(m.logY[s])
				lw := m.logW[s*nf : (s+1)*nf]
				for f, l := range lw {
					w[f] = math.Exp(l)
					info[f] = m.wPrior.Curvature(l)
				}
				for g := range m.genes {
					sg := m.sig[g*nf : (g+1)*nf]
					var z float64
					for f, v := range sg {
						z += w[f] * v
					}
					mu := y * (sens[g]*z + bg[g])
					fi := nb.FisherLogMu(mu, theta[g])
					for f, v := range sg {
						// derivative of log mu
						// with respect to log w
						d := y * sens[g] * w[f] * v / mu
						info[f] += d * d * fi
					}
				}
				for f := range lw {
					sigma[s*nf+f] = 1 / math.Sqrt(info[f])
				}
			}
		}(start, end)
	}
	wg.Wait()
	return sigma
}
