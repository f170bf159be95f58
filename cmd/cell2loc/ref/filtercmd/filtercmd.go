// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package filtercmd implements a command to print
// the gene selection statistics
// of the single cell reference.
package filtercmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/js-arias/cell2loc/filter"
	"github.com/js-arias/cell2loc/project"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: `filter [--plot <image-file>] [--selected]
	<project-file>`,
	Short: "print gene selection statistics",
	Long: `
Command filter reads the single cell reference of a project and prints the
statistics used to select the genes into the standard output.

The argument of the command is the name of the project file.

The output is a tab-delimited table with the following columns:

	gene      the gene name
	n-cells   the number of cells that express the gene
	nonzero   the mean expression in the cells that express the gene
	selected  "true" if the gene is selected

The cutoff values are taken from the parameters of the project. See
'cell2loc help param-files'.

If the flag --selected is defined, only the selected genes will be printed.

If the flag --plot is defined, a scatter plot of the log10 number of cells
and the log10 non-zero mean will be saved in the indicated file. The format
of the image is defined by the file extension (for example ".png" or
".svg").
	`,
	SetFlags: setFlags,
	Run:      run,
}

var plotFile string
var selFlag bool

func setFlags(c *command.Command) {
	c.Flags().StringVar(&plotFile, "plot", "", "")
	c.Flags().BoolVar(&selFlag, "selected", false, "")
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

	stats := filter.Genes(ref, pm.Filter())
	cells, genes := ref.Dims()
	fmt.Fprintf(c.Stderr(), "# %d cells, %d genes, %d selected\n", cells, genes, len(filter.Selected(stats)))

	if plotFile != "" {
		if err := filter.Plot(plotFile, stats, cells, pm.Filter()); err != nil {
			return err
		}
	}

	if err := writeStats(c.Stdout(), stats); err != nil {
		return err
	}
	return nil
}

func writeStats(w io.Writer, stats []filter.Stat) error {
	tsv := csv.NewWriter(w)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write([]string{"gene", "n-cells", "nonzero", "selected"}); err != nil {
		return err
	}
	for _, s := range stats {
		if selFlag && !s.Selected {
			continue
		}
		row := []string{
			s.Gene,
			strconv.Itoa(s.NCells),
			strconv.FormatFloat(s.NonZeroMean, 'f', 6, 64),
			strconv.FormatBool(s.Selected),
		}
		if err := tsv.Write(row); err != nil {
			return err
		}
	}
	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("while writing data: %v", err)
	}
	return nil
}
