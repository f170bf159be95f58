// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package run implements a command to run
// the complete deconvolution pipeline
// on a data directory.
package run

import (
	"io"
	"path/filepath"

	"github.com/js-arias/cell2loc/param"
	"github.com/js-arias/cell2loc/pipeline"
	"github.com/js-arias/cell2loc/project"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: `run [--param <param-file>] [--cpu <number>]
	[--plots] [--quiet] <directory>`,
	Short: "run the deconvolution pipeline",
	Long: `
Command run reads the spatial and single cell data of a directory, and
estimates the abundance of each cell type in each spot.

The argument of the command is the name of the directory. The directory must
contain the following files:

	spE_data.csv    the spatial expression (spots as rows, genes as
	                columns).
	scRNA_data.csv  the single cell reference expression (cells as rows,
	                genes as columns).
	scRNA_meta.csv  the metadata of the reference cells, with a "celltype"
	                column.

The genes with a name starting with "MT-" are removed from the spatial data
and stored in the file "cell2loc-mito.csv". The genes of the reference are
filtered, and a reference regression is used to estimate the signature of
each cell type, stored in the file "cell2loc-signatures.csv". Then the
spatial data is mapped using the genes shared with the signatures.

The result is stored in the file "cell2loc.csv", with one row per spot and
one column per cell type, with the 5% quantile of the posterior of the
abundance of each cell type. The loss of each fit is stored in the files
"cell2loc-reference-loss.tab" and "cell2loc-spatial-loss.tab", and a project
file "cell2loc-project.tab" is created in the directory, so the results can
be used with other cell2loc commands.

By default, the default parameters are used. Use the flag --param to define
a parameter file. See 'cell2loc help param-files' for the format of the
file.

If the flag --plots is defined, the gene filter and the losses will be drawn
as images in the directory.

By default, the progress of the analysis is printed in the standard error.
Use the flag --quiet to suppress the output.

By default, all available CPUs will be used. Use the flag --cpu to use a
different number of CPUs.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var numCPU int
var paramFile string
var plotsFlag bool
var quietFlag bool

func setFlags(c *command.Command) {
	c.Flags().IntVar(&numCPU, "cpu", 0, "")
	c.Flags().StringVar(&paramFile, "param", "", "")
	c.Flags().BoolVar(&plotsFlag, "plots", false, "")
	c.Flags().BoolVar(&quietFlag, "quiet", false, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting data directory")
	}
	dir := args[0]

	p := project.FromDir(dir)
	pm := param.New("")
	if paramFile != "" {
		var err error
		pm, err = param.Read(paramFile)
		if err != nil {
			return err
		}
		p.Add(project.Params, paramFile)
	}

	opt := pipeline.Options{
		CPU: numCPU,
		Log: c.Stderr(),
	}
	if quietFlag {
		opt.Log = io.Discard
	}
	if plotsFlag {
		opt.Plots = filepath.Join(dir, "cell2loc")
	}

	res, err := pipeline.Run(p, pm, opt)
	if err != nil {
		return err
	}

	if err := pipeline.WriteTrace(filepath.Join(dir, "cell2loc-reference-loss.tab"), res.Reference.Trace); err != nil {
		return err
	}
	if err := pipeline.WriteTrace(filepath.Join(dir, "cell2loc-spatial-loss.tab"), res.Mapping.Trace); err != nil {
		return err
	}

	if _, n := res.Mito.Dims(); n == 0 {
		p.Add(project.Mito, "")
	}
	if err := p.Write(); err != nil {
		return err
	}
	return nil
}
