// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package fit implements a command to fit
// the spatial mapping model
// and store the cell type abundances.
package fit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/js-arias/cell2loc/filter"
	"github.com/js-arias/cell2loc/infer/spatial"
	"github.com/js-arias/cell2loc/matrix"
	"github.com/js-arias/cell2loc/pipeline"
	"github.com/js-arias/cell2loc/project"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: `fit [--cpu <number>] [-o|--output <file>]
	[--all] [--trace <file>] <project-file>`,
	Short: "estimate the cell type abundances",
	Long: `
Command fit reads the spatial expression and the cell type signatures of a
project, and fits the spatial mapping model to estimate the abundance of each
cell type in each spot.

The argument of the command is the name of the project file.

Before the fit, the mitochondrial genes are removed from the spatial data and
stored in the file defined in the project, or the file "cell2loc-mito.csv" in
the directory of the project. Only the genes shared by the spatial data and
the signatures are used in the fit.

The abundances, as the posterior quantile defined in the parameters (by
default, the 5% quantile), are stored in the file defined in the project. If
no file is defined, the file "cell2loc.csv" in the directory of the project
will be used. Use the flag --output, or -o, to define a different file. The
abundance file will be added to the project.

If the flag --all is defined, the posterior mean, standard deviation, and
the upper quantile will be stored in files using the name of the output file
as prefix.

If the flag --trace is defined, the loss of each epoch will be stored in the
indicated file.

By default, all available CPUs will be used. Use the flag --cpu to use a
different number of CPUs.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var numCPU int
var allFlag bool
var outFile string
var traceFile string

func setFlags(c *command.Command) {
	c.Flags().IntVar(&numCPU, "cpu", 0, "")
	c.Flags().BoolVar(&allFlag, "all", false, "")
	c.Flags().StringVar(&outFile, "output", "", "")
	c.Flags().StringVar(&outFile, "o", "", "")
	c.Flags().StringVar(&traceFile, "trace", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	dir := filepath.Dir(args[0])

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}
	pm, err := p.Params()
	if err != nil {
		return err
	}
	sp, err := p.Spatial()
	if err != nil {
		return err
	}
	sig, err := p.Signatures()
	if err != nil {
		return err
	}

	kept, mito := filter.Mito(sp, pm.MitoPrefix())
	if _, n := mito.Dims(); n > 0 {
		if p.Path(project.Mito) == "" {
			p.Add(project.Mito, filepath.Join(dir, project.MitoFile))
		}
		if err := p.WriteMatrix(project.Mito, mito); err != nil {
			return err
		}
		fmt.Fprintf(c.Stderr(), "spatial: %d mitochondrial genes removed\n", n)
	}

	mr, err := pipeline.MapSpatial(kept, sig, pm, pipeline.Options{
		CPU: numCPU,
		Log: c.Stderr(),
	})
	if err != nil {
		return err
	}

	if outFile == "" {
		outFile = p.Path(project.Abundance)
	}
	if outFile == "" {
		outFile = filepath.Join(dir, project.AbundanceFile)
	}
	p.Add(project.Abundance, outFile)
	if err := p.WriteMatrix(project.Abundance, mr.Abundance.Low); err != nil {
		return err
	}
	if err := p.Write(); err != nil {
		return err
	}

	if allFlag {
		prefix := strings.TrimSuffix(outFile, filepath.Ext(outFile))
		for _, s := range []struct {
			name string
			m    *matrix.Matrix
		}{
			{spatial.MeanName, mr.Abundance.Mean},
			{spatial.SDName, mr.Abundance.SD},
			{spatial.HighName, mr.Abundance.High},
		} {
			name := prefix + "-" + s.name + ".csv"
			if err := writeMatrix(name, s.m); err != nil {
				return err
			}
		}
	}

	if traceFile != "" {
		if err := pipeline.WriteTrace(traceFile, mr.Trace); err != nil {
			return err
		}
	}
	return nil
}

func writeMatrix(name string, m *matrix.Matrix) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	if err := m.CSV(f); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	return nil
}
