// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Cell2loc is a tool to map the cell types
// of an annotated single cell reference
// into the spots of a spatial transcriptomics dataset.
package main

import (
	"github.com/js-arias/cell2loc/cmd/cell2loc/mapcmd"
	"github.com/js-arias/cell2loc/cmd/cell2loc/paramcmd"
	"github.com/js-arias/cell2loc/cmd/cell2loc/prj"
	"github.com/js-arias/cell2loc/cmd/cell2loc/ref"
	"github.com/js-arias/cell2loc/cmd/cell2loc/run"
	"github.com/js-arias/command"
)

var app = &command.Command{
	Usage: "cell2loc <command> [<argument>...]",
	Short: "a tool for cell type deconvolution of spatial transcriptomics",
}

func init() {
	app.Add(run.Command)
	app.Add(prj.Command)
	app.Add(paramcmd.Command)
	app.Add(ref.Command)
	app.Add(mapcmd.Command)
}

func main() {
	app.Main()
}
