// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package fit implements a command to fit
// the reference regression
// and store the cell type signatures.
package fit

import (
	"path/filepath"

	"github.com/js-arias/cell2loc/pipeline"
	"github.com/js-arias/cell2loc/project"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: `fit [--cpu <number>] [-o|--output <file>]
	[--trace <file>] <project-file>`,
	Short: "estimate the cell type signatures",
	Long: `
Command fit reads the single cell reference and the cell metadata of a
project, selects the reference genes, and fits a negative binomial regression
to estimate the expression signature of each cell type.

The argument of the command is the name of the project file.

The signatures are stored in the file defined in the project. If no file is
defined, the file "cell2loc-signatures.csv" in the directory of the project
will be used. Use the flag --output, or -o, to define a different file. The
signature file will be added to the project.

The parameters of the analysis (the metadata column with the cell types, the
gene filter, and the number of epochs) are taken from the project. See
'cell2loc help param-files'.

If the flag --trace is defined, the loss of each epoch will be stored in the
indicated file.

By default, all available CPUs will be used. Use the flag --cpu to use a
different number of CPUs.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var numCPU int
var outFile string
var traceFile string

func setFlags(c *command.Command) {
	c.Flags().IntVar(&numCPU, "cpu", 0, "")
	c.Flags().StringVar(&outFile, "output", "", "")
	c.Flags().StringVar(&outFile, "o", "", "")
	c.Flags().StringVar(&traceFile, "trace", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}
	pm, err := p.Params()
	if err != nil {
		return err
	}
	ref, err := p.Reference()
	if err != nil {
		return err
	}
	tab, err := p.Meta()
	if err != nil {
		return err
	}

	rr, err := pipeline.FitReference(ref, tab, pm, pipeline.Options{
		CPU: numCPU,
		Log: c.Stderr(),
	})
	if err != nil {
		return err
	}

	if outFile == "" {
		outFile = p.Path(project.Signatures)
	}
	if outFile == "" {
		outFile = filepath.Join(filepath.Dir(args[0]), project.SignaturesFile)
	}
	p.Add(project.Signatures, outFile)
	if err := p.WriteMatrix(project.Signatures, rr.Signatures); err != nil {
		return err
	}
	if err := p.Write(); err != nil {
		return err
	}

	if traceFile != "" {
		if err := pipeline.WriteTrace(traceFile, rr.Trace); err != nil {
			return err
		}
	}
	return nil
}
