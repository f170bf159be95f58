// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package spatial

import (
	"math"
	"runtime"
	"sync"

	"github.com/js-arias/cell2loc/nb"
)

type spotChanType struct {
	start, end int

	// if warm is set,
	// the job is a multiplicative update
	// of the abundances
	warm int

	// per gene gradients,
	// accumulated over the spots of the block
	mGrad []float64
	sGrad []float64
	aGrad []float64

	logLike float64

	e    *epoch
	grad []float64

	wg *sync.WaitGroup
}

// An epoch holds the goroutines
// used to evaluate the log posterior
// and its gradient.
type epoch struct {
	m      *Model
	blocks []*spotChanType
	ch     chan *spotChanType

	// gene parameters in natural scale
	sens  []float64
	bg    []float64
	theta []float64
}

func newEpoch(m *Model, cpu int) *epoch {
	if cpu <= 0 {
		cpu = runtime.NumCPU()
	}

	e := &epoch{
		m:     m,
		ch:    make(chan *spotChanType, cpu*2),
		sens:  make([]float64, m.nGenes),
		bg:    make([]float64, m.nGenes),
		theta: make([]float64, m.nGenes),
	}
	for i := 0; i < cpu; i++ {
		go runSpots(e.ch)
	}

	nBlocks := min(cpu*4, m.nSpots)
	size := (m.nSpots + nBlocks - 1) / nBlocks
	for start := 0; start < m.nSpots; start += size {
		end := min(start+size, m.nSpots)
		e.blocks = append(e.blocks, &spotChanType{
			start: start,
			end:   end,
			mGrad: make([]float64, m.nGenes),
			sGrad: make([]float64, m.nGenes),
			aGrad: make([]float64, m.nGenes),
			e:     e,
		})
	}
	return e
}

func (e *epoch) close() {
	close(e.ch)
}

func (e *epoch) setGenes() {
	m := e.m
	for g := range m.genes {
		e.sens[g] = math.Exp(m.logM[g])
		e.bg[g] = math.Exp(m.logS[g])
		e.theta[g] = nb.Theta(m.logA[g])
	}
}

func (e *epoch) send(grad []float64, warm int) {
	var wg sync.WaitGroup
	for _, b := range e.blocks {
		wg.Add(1)
		b.grad = grad
		b.warm = warm
		b.wg = &wg
		e.ch <- b
	}
	wg.Wait()
}

// Warm updates the abundances
// using multiplicative updates
// of a Poisson factorization
// with the gene and spot parameters fixed.
func (e *epoch) warm(iter int) {
	e.setGenes()
	e.send(nil, iter)
}

// Run evaluates the log posterior
// and stores the gradient in grad.
func (e *epoch) run(grad []float64) float64 {
	m := e.m
	e.setGenes()
	e.send(grad, 0)

	ng := m.nGenes
	off := m.nSpots*m.nFact + m.nSpots
	mGrad := grad[off : off+ng]
	sGrad := grad[off+ng : off+2*ng]
	aGrad := grad[off+2*ng:]

	var logLike float64
	for g := range m.genes {
		var gm, gs, ga float64
		for _, b := range e.blocks {
			gm += b.mGrad[g]
			gs += b.sGrad[g]
			ga += b.aGrad[g]
		}
		mGrad[g] = gm + sensPrior.Grad(m.logM[g])
		sGrad[g] = gs + bgPrior.Grad(m.logS[g])

		// theta = alpha^-2
		aGrad[g] = -2*e.theta[g]*ga + alphaPrior.Grad(m.logA[g])

		logLike += sensPrior.LogPrior(m.logM[g])
		logLike += bgPrior.LogPrior(m.logS[g])
		logLike += alphaPrior.LogPrior(m.logA[g])
	}
	for _, b := range e.blocks {
		logLike += b.logLike
	}
	return logLike
}

func runSpots(ch chan *spotChanType) {
	for b := range ch {
		if b.warm > 0 {
			b.e.m.warmSpots(b)
		} else {
			b.logLike = b.e.m.spotsLogLike(b)
		}
		b.wg.Done()
	}
}

// SpotsLogLike calculates the log posterior of a block of spots,
// including the spot parameter priors.
func (m *Model) spotsLogLike(b *spotChanType) float64 {
	clear(b.mGrad)
	clear(b.sGrad)
	clear(b.aGrad)

	e := b.e
	nf := m.nFact
	ng := m.nGenes
	w := make([]float64, nf)
	gw := make([]float64, nf)
	wGrad := b.grad[:m.nSpots*nf]
	yGrad := b.grad[m.nSpots*nf : m.nSpots*nf+m.nSpots]

	var logLike float64
	for s := b.start; s < b.end; s++ {
		y := math.Exp(m.logY[s])
		lw := m.logW[s*nf : (s+1)*nf]
		for f, l := range lw {
			w[f] = math.Exp(l)
		}
		clear(gw)

		var gy float64
		ds := m.d[s*ng : (s+1)*ng]
		for g, x := range ds {
			sg := m.sig[g*nf : (g+1)*nf]
			var z float64
			for f, v := range sg {
				z += w[f] * v
			}
			sens := e.sens[g]
			u := sens*z + e.bg[g]
			mu := y * u
			theta := e.theta[g]

			logLike += nb.LogProb(x, mu, theta)
			r := nb.DLogMu(x, mu, theta)
			gy += r
			q := r * sens / u
			for f, v := range sg {
				gw[f] += q * v
			}
			b.mGrad[g] += q * z
			b.sGrad[g] += r * e.bg[g] / u
			b.aGrad[g] += nb.DTheta(x, mu, theta)
		}

		for f, l := range lw {
			wGrad[s*nf+f] = w[f]*gw[f] + m.wPrior.Grad(l)
			logLike += m.wPrior.LogPrior(l)
		}
		yGrad[s] = gy + m.yPrior.Grad(m.logY[s])
		logLike += m.yPrior.LogPrior(m.logY[s])
	}
	return logLike
}

// WarmSpots runs the multiplicative updates
// on a block of spots.
func (m *Model) warmSpots(b *spotChanType) {
	e := b.e
	nf := m.nFact
	ng := m.nGenes

	w := make([]float64, nf)
	num := make([]float64, nf)
	den := make([]float64, nf)
	for g := 0; g < ng; g++ {
		for f, v := range m.sig[g*nf : (g+1)*nf] {
			den[f] += v * e.sens[g]
		}
	}

	for s := b.start; s < b.end; s++ {
		y := math.Exp(m.logY[s])
		lw := m.logW[s*nf : (s+1)*nf]
		for f, l := range lw {
			w[f] = math.Exp(l)
		}
		ds := m.d[s*ng : (s+1)*ng]
		for i := 0; i < b.warm; i++ {
			clear(num)
			for g, x := range ds {
				if x == 0 {
					continue
				}
				sg := m.sig[g*nf : (g+1)*nf]
				var z float64
				for f, v := range sg {
					z += w[f] * v
				}
				mu := y * (e.sens[g]*z + e.bg[g])
				for f, v := range sg {
					num[f] += x * v * e.sens[g] / mu
				}
			}
			for f := range w {
				if den[f] == 0 {
					continue
				}
				w[f] *= num[f] / den[f]
			}
		}
		for f := range lw {
			lw[f] = math.Log(math.Max(w[f], 1e-3))
		}
	}
}
