// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package paramcmd implements a command to manage
// the parameters of an analysis.
package paramcmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/js-arias/cell2loc/param"
	"github.com/js-arias/cell2loc/project"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: `param [--add <param-file>] [--file <file-name>]
	[--set <parameter>=<value>[,<parameter>=<value>...]]
	<project-file>`,
	Short: "manage analysis parameters",
	Long: `
Command param manages the parameters of the analysis defined for a cell2loc
project. These parameters define the gene filter, the number of epochs of
each fit, the priors of the spatial mapping, and the posterior summaries.

The argument of the command is the name of the project file.

By default, the command will print the currently defined parameters.

If the flag --add is defined, it will use the indicated file for the
parameters.

To change the value of one or more parameters, use the flag --set with a
comma-separated list of parameter and value pairs, for example
"cells-per-location=8,detection-alpha=200". See 'cell2loc help param-files'
for the valid parameters.

By default, any change on the parameters will be stored in the current
parameters file. If no file is defined, the file "cell2loc-params.tab" will be
created in the directory of the project. Use the flag --file to define a new
parameters file.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var addFile string
var paramFile string
var setFlag string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&addFile, "add", "", "")
	c.Flags().StringVar(&paramFile, "file", "", "")
	c.Flags().StringVar(&setFlag, "set", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	if addFile != "" {
		if _, err := param.Read(addFile); err != nil {
			return err
		}
		p.Add(project.Params, addFile)
		if err := p.Write(); err != nil {
			return err
		}
		return nil
	}

	pm, err := p.Params()
	if err != nil {
		return err
	}
	if pm.Name() == "" {
		pm.SetName(filepath.Join(filepath.Dir(args[0]), "cell2loc-params.tab"))
	}
	if paramFile != "" {
		pm.SetName(paramFile)
	}

	ed := false
	if setFlag != "" {
		for _, kv := range strings.Split(setFlag, ",") {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				msg := fmt.Sprintf("invalid --set value %q: expecting <parameter>=<value>", kv)
				return c.UsageError(msg)
			}
			key := param.Param(strings.ToLower(strings.TrimSpace(k)))
			if err := pm.Set(key, v); err != nil {
				return fmt.Errorf("parameter %q: %v", key, err)
			}
		}
		ed = true
	}

	if !ed && paramFile == "" {
		printParams(c.Stdout(), pm)
		return nil
	}

	if err := pm.Write(); err != nil {
		return err
	}
	if p.Path(project.Params) != pm.Name() {
		p.Add(project.Params, pm.Name())
		if err := p.Write(); err != nil {
			return err
		}
	}
	return nil
}

func printParams(w io.Writer, pm *param.P) {
	fmt.Fprintf(w, "file: %s\n", pm.Name())
	for _, k := range param.List {
		fmt.Fprintf(w, "%-20s %s\n", k, pm.Value(k))
	}
}
