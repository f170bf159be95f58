// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package ref is a metapackage for commands
// that deal with the single cell reference.
package ref

import (
	"github.com/js-arias/cell2loc/cmd/cell2loc/ref/filtercmd"
	"github.com/js-arias/cell2loc/cmd/cell2loc/ref/fit"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: "ref <command> [<argument>...]",
	Short: "commands for the single cell reference",
}

func init() {
	Command.Add(filtercmd.Command)
	Command.Add(fit.Command)
}
