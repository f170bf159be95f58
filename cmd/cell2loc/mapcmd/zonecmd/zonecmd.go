// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package zonecmd implements a command to partition
// the spots into tissue zones.
package zonecmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/js-arias/cell2loc/project"
	"github.com/js-arias/cell2loc/zones"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: `zones [-k <value>] [--restarts <value>]
	[-o|--output <file>] <project-file>`,
	Short: "partition the spots into tissue zones",
	Long: `
Command zones reads the abundances of a project and partitions the spots into
tissue zones, using k-means over the proportion of each cell type in each
spot.

The argument of the command is the name of the project file.

By default, 5 zones are defined. Use the flag -k to define a different number
of zones. As k-means starts from random centers, the clustering is repeated
10 times and the partition with the smallest sum of squares is kept. Use the
flag --restarts to define a different number of repetitions.

Zones are sorted by the dominant cell type of its center. The center of each
zone is printed in the standard output.

The zones are stored in the file defined in the project. If no file is
defined, the file "cell2loc-zones.tab" in the directory of the project will be
used. Use the flag --output, or -o, to define a different file. The zone file
will be added to the project.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var kFlag int
var restarts int
var outFile string

func setFlags(c *command.Command) {
	c.Flags().IntVar(&kFlag, "k", 5, "")
	c.Flags().IntVar(&restarts, "restarts", 10, "")
	c.Flags().StringVar(&outFile, "output", "", "")
	c.Flags().StringVar(&outFile, "o", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	if kFlag < 1 {
		return c.UsageError(fmt.Sprintf("invalid number of zones: %d", kFlag))
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}
	ab, err := p.Abundance()
	if err != nil {
		return err
	}

	z, err := zones.New(ab, kFlag, restarts)
	if err != nil {
		return err
	}

	if outFile == "" {
		outFile = p.Path(project.Zones)
	}
	if outFile == "" {
		outFile = filepath.Join(filepath.Dir(args[0]), "cell2loc-zones.tab")
	}
	if err := writeZones(outFile, z); err != nil {
		return err
	}
	p.Add(project.Zones, outFile)
	if err := p.Write(); err != nil {
		return err
	}

	printCenters(c.Stdout(), z)
	return nil
}

func writeZones(name string, z *zones.Partition) (err error) {
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

	if err := z.TSV(f); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	return nil
}

func printCenters(w io.Writer, z *zones.Partition) {
	fmt.Fprintf(w, "zone\tspots\t%s\n", strings.Join(z.CellTypes(), "\t"))
	for _, zn := range z.Zones() {
		fmt.Fprintf(w, "%s\t%d", zn.Label(), len(zn.Spots))
		for _, v := range zn.Center {
			fmt.Fprintf(w, "\t%.3f", v)
		}
		fmt.Fprintf(w, "\n")
	}
}
