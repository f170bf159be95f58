// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package reference

import (
	"math"
	"runtime"
	"sync"

	"github.com/js-arias/cell2loc/nb"
)

type geneChanType struct {
	start, end int

	// per cell gradient of the detection,
	// accumulated over the genes of the block
	yGrad []float64

	logLike float64

	y    []float64
	grad []float64
	m    *Model

	wg *sync.WaitGroup
}

// An epoch holds the goroutines
// used to evaluate the log posterior
// and its gradient.
type epoch struct {
	m      *Model
	blocks []*geneChanType
	y      []float64
	ch     chan *geneChanType
}

func newEpoch(m *Model, cpu int) *epoch {
	if cpu <= 0 {
		cpu = runtime.NumCPU()
	}

	e := &epoch{
		m:  m,
		y:  make([]float64, m.nCells),
		ch: make(chan *geneChanType, cpu*2),
	}
	for i := 0; i < cpu; i++ {
		go runGenes(e.ch)
	}

	nBlocks := min(cpu*4, m.nGenes)
	size := (m.nGenes + nBlocks - 1) / nBlocks
	for start := 0; start < m.nGenes; start += size {
		end := min(start+size, m.nGenes)
		e.blocks = append(e.blocks, &geneChanType{
			start: start,
			end:   end,
			yGrad: make([]float64, m.nCells),
			y:     e.y,
			m:     m,
		})
	}
	return e
}

func (e *epoch) close() {
	close(e.ch)
}

// Run evaluates the log posterior
// and stores the gradient in grad.
func (e *epoch) run(grad []float64) float64 {
	m := e.m
	for c, l := range m.logY {
		e.y[c] = math.Exp(l)
	}

	var wg sync.WaitGroup
	for _, b := range e.blocks {
		wg.Add(1)
		b.grad = grad
		b.wg = &wg
		e.ch <- b
	}
	wg.Wait()

	var logLike float64
	yGrad := grad[:m.nCells]
	for c, l := range m.logY {
		yGrad[c] = detectPrior.Grad(l)
		logLike += detectPrior.LogPrior(l)
	}
	for _, b := range e.blocks {
		logLike += b.logLike
		for c, v := range b.yGrad {
			yGrad[c] += v
		}
	}
	return logLike
}

func runGenes(ch chan *geneChanType) {
	for b := range ch {
		b.logLike = b.m.genesLogLike(b)
		b.wg.Done()
	}
}

// GenesLogLike calculates the log posterior of a block of genes,
// including the gene parameter priors.
func (m *Model) genesLogLike(b *geneChanType) float64 {
	clear(b.yGrad)

	nf := len(m.factors)
	w := make([]float64, nf)
	gw := make([]float64, nf)

	nc := m.nCells
	wGrad := b.grad[nc : nc+nf*m.nGenes]
	sGrad := b.grad[nc+nf*m.nGenes : nc+nf*m.nGenes+m.nGenes]
	aGrad := b.grad[nc+nf*m.nGenes+m.nGenes:]

	var logLike float64
	for g := b.start; g < b.end; g++ {
		theta := nb.Theta(m.logA[g])
		s := math.Exp(m.logS[g])
		for k := range w {
			w[k] = math.Exp(m.logW[k*m.nGenes+g])
		}
		clear(gw)

		var gs, ga float64
		xg := m.x[g*nc : (g+1)*nc]
		for c, x := range xg {
			k := m.fact[c]
			u := w[k] + s
			mu := b.y[c] * u

			logLike += nb.LogProb(x, mu, theta)
			r := nb.DLogMu(x, mu, theta)
			b.yGrad[c] += r
			gw[k] += r / u
			gs += r / u
			ga += nb.DTheta(x, mu, theta)
		}

		for k := range w {
			i := k*m.nGenes + g
			wGrad[i] = w[k]*gw[k] + sigPrior.Grad(m.logW[i])
			logLike += sigPrior.LogPrior(m.logW[i])
		}
		sGrad[g] = s*gs + bgPrior.Grad(m.logS[g])
		logLike += bgPrior.LogPrior(m.logS[g])

		// theta = alpha^-2
		aGrad[g] = -2*theta*ga + alphaPrior.Grad(m.logA[g])
		logLike += alphaPrior.LogPrior(m.logA[g])
	}
	return logLike
}
