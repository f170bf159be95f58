// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package mapcmd is a metapackage for commands
// that deal with the spatial mapping.
package mapcmd

import (
	"github.com/js-arias/cell2loc/cmd/cell2loc/mapcmd/fit"
	"github.com/js-arias/cell2loc/cmd/cell2loc/mapcmd/imgcmd"
	"github.com/js-arias/cell2loc/cmd/cell2loc/mapcmd/zonecmd"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: "map <command> [<argument>...]",
	Short: "commands for the spatial mapping",
}

func init() {
	Command.Add(fit.Command)
	Command.Add(imgcmd.Command)
	Command.Add(zonecmd.Command)
}
