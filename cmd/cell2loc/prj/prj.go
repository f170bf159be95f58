// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package prj implements a command to create a project
// or print the basic information of a project.
package prj

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/js-arias/cell2loc/matrix"
	"github.com/js-arias/cell2loc/meta"
	"github.com/js-arias/cell2loc/project"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: `prj [--dir <directory>]
	[--add <dataset> --file <file-name>]
	<project-file>`,
	Short: "create or print information about a project",
	Long: `
Command prj reads a cell2loc project and prints the information of the
different project elements into the standard output.

The argument of the command is the name of the project file.

If the flag --dir is defined, a new project will be created using the files of
the indicated directory ("spE_data.csv", "scRNA_data.csv", and
"scRNA_meta.csv"). The outputs of the analysis will be also set in the same
directory.

To add or replace a dataset of the project, use the flag --add with the
dataset keyword, and the flag --file with the file name. If the file name is
empty, the dataset will be removed from the project. See
'cell2loc help projects' for the valid dataset keywords.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var dirFlag string
var addFlag string
var fileFlag string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&dirFlag, "dir", "", "")
	c.Flags().StringVar(&addFlag, "add", "", "")
	c.Flags().StringVar(&fileFlag, "file", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	if dirFlag != "" {
		st, err := os.Stat(dirFlag)
		if err != nil {
			return err
		}
		if !st.IsDir() {
			return fmt.Errorf("%q is not a directory", dirFlag)
		}
		p := project.FromDir(dirFlag)
		p.SetName(args[0])
		if err := p.Write(); err != nil {
			return err
		}
		return nil
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	if addFlag != "" {
		set := project.Dataset(addFlag)
		if !set.Valid() {
			return c.UsageError(fmt.Sprintf("unknown dataset %q", addFlag))
		}
		p.Add(set, fileFlag)
		if err := p.Write(); err != nil {
			return err
		}
		return nil
	}

	for _, s := range []struct {
		set  project.Dataset
		desc string
	}{
		{project.Spatial, "Spatial expression"},
		{project.Reference, "Reference expression"},
		{project.Signatures, "Signatures"},
		{project.Abundance, "Abundances"},
		{project.Mito, "Mitochondrial genes"},
	} {
		name := p.Path(s.set)
		if name == "" {
			continue
		}
		if err := printMatrix(c.Stdout(), s.desc, name); err != nil {
			return err
		}
	}

	if name := p.Path(project.Meta); name != "" {
		if err := printMeta(c.Stdout(), p); err != nil {
			return err
		}
	}

	if name := p.Path(project.Params); name != "" {
		fmt.Fprintf(c.Stdout(), "Parameters:\n")
		fmt.Fprintf(c.Stdout(), "\tfile: %s\n\n", name)
	}

	if name := p.Path(project.Zones); name != "" {
		z, err := p.Zones()
		if err != nil {
			return err
		}
		fmt.Fprintf(c.Stdout(), "Tissue zones:\n")
		fmt.Fprintf(c.Stdout(), "\tfile: %s\n", name)
		fmt.Fprintf(c.Stdout(), "\tspots: %d\n", len(z.Spots()))
		fmt.Fprintf(c.Stdout(), "\tzones: %d\n\n", len(z.Zones()))
	}

	if name := p.Path(project.Colors); name != "" {
		fmt.Fprintf(c.Stdout(), "Color key:\n")
		fmt.Fprintf(c.Stdout(), "\tfile: %s\n\n", name)
	}
	return nil
}

func printMatrix(w io.Writer, desc, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	m, err := matrix.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	rows, cols := m.Dims()

	fmt.Fprintf(w, "%s:\n", desc)
	fmt.Fprintf(w, "\tfile: %s\n", name)
	fmt.Fprintf(w, "\trows: %d\n", rows)
	fmt.Fprintf(w, "\tcolumns: %d\n", cols)
	fmt.Fprintf(w, "\n")
	return nil
}

func printMeta(w io.Writer, p *project.Project) error {
	t, err := p.Meta()
	if err != nil {
		return err
	}
	prm, err := p.Params()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Cell metadata:\n")
	fmt.Fprintf(w, "\tfile: %s\n", filepath.Clean(p.Path(project.Meta)))
	fmt.Fprintf(w, "\tcells: %d\n", len(t.Index()))
	col, err := t.Column(prm.Label())
	if err != nil {
		fmt.Fprintf(w, "\tcell types: column %q not found\n\n", prm.Label())
		return nil
	}
	fmt.Fprintf(w, "\tcell types: %d\n", len(meta.Categories(col)))
	fmt.Fprintf(w, "\n")
	return nil
}
