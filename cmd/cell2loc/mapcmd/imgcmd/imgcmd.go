// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package imgcmd implements a command to draw
// the cell type abundances.
package imgcmd

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/js-arias/cell2loc/heatmap"
	"github.com/js-arias/cell2loc/project"
	"github.com/js-arias/cell2loc/zones"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: `image [--size <value>] [--scale <color-scale>]
	[--global] [--key <key-file>]
	[-o|--output <file-prefix>] <project-file>`,
	Short: "draw cell type abundances",
	Long: `
Command image reads the abundances of a project and draws them as images.

The argument of the command is the name of the project file.

A heatmap, with spots as rows and cell types as columns, is always drawn. If
the spot names are in the form "<x>x<y>" or "<x>_<y>", a map of the spots is
drawn for each cell type. If the project has tissue zones, a map of the zones
is also drawn.

By default, the abundances of each cell type are scaled by the maximum of the
cell type. If the flag --global is defined, the abundances are scaled by the
maximum of the whole matrix.

By default, the output images will have the abundance file name as a prefix.
To change the prefix, use the flag --output or -o. The suffix of the file
will be "heatmap", the cell type, or "zones".

By default, each spot in a map will be 10 pixels wide, and each cell of the
heatmap 4 pixels wide. Use the flag --size to define a different size for
both images.

By default, a rainbow color scale will be used, other color scales can be
defined using the --scale flag. Valid scale values are mostly based on Paul
Tol color scales:

	- iridescent  <https://personal.sron.nl/~pault/#fig:scheme_iridescent>
	- rainbow     default value (from purple to red)
	        <https://personal.sron.nl/~pault/#fig:scheme_rainbow_smooth>
	- incandescent
		<https://personal.sron.nl/~pault/#fig:scheme_incandescent>
	- gray         a gray scale from light gray to black.

The zone map uses the color key defined in the project. If no key is defined,
a default key will be used. Use the flag --key to add a color key file to the
project. See 'cell2loc help color-keys' for the format of the file.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var sizeFlag int
var globalFlag bool
var keyFile string
var outPrefix string
var scale string

func setFlags(c *command.Command) {
	c.Flags().IntVar(&sizeFlag, "size", 0, "")
	c.Flags().BoolVar(&globalFlag, "global", false, "")
	c.Flags().StringVar(&keyFile, "key", "", "")
	c.Flags().StringVar(&outPrefix, "output", "", "")
	c.Flags().StringVar(&outPrefix, "o", "", "")
	c.Flags().StringVar(&scale, "scale", "rainbow", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	gradient, err := heatmap.GradientByName(scale)
	if err != nil {
		return c.UsageError(err.Error())
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}
	if keyFile != "" {
		p.Add(project.Colors, keyFile)
		if _, err := p.Colors(nil); err != nil {
			return err
		}
		if err := p.Write(); err != nil {
			return err
		}
	}

	ab, err := p.Abundance()
	if err != nil {
		return err
	}
	if outPrefix == "" {
		name := p.Path(project.Abundance)
		outPrefix = strings.TrimSuffix(name, filepath.Ext(name))
	}

	hm := &heatmap.Image{
		Data:      ab,
		Size:      sizeFlag,
		PerColumn: !globalFlag,
		Gradient:  gradient,
	}
	hm.Format()
	if err := writeImage(outPrefix+"-heatmap.png", hm); err != nil {
		return err
	}

	grid, err := heatmap.ParseGrid(ab.Rows())
	if err != nil {
		fmt.Fprintf(c.Stderr(), "WARNING: spot maps not drawn: %v\n", err)
		return nil
	}

	_, cols := ab.Dims()
	var gMax float64
	for j := 0; j < cols; j++ {
		for _, v := range ab.Col(j) {
			gMax = max(gMax, v)
		}
	}
	for j, ct := range ab.Cols() {
		vals := heatmap.Scale(ab.Rows(), ab.Col(j))
		if globalFlag && gMax > 0 {
			for i, s := range ab.Rows() {
				vals[s] = ab.At(i, j) / gMax
			}
		}
		m := &heatmap.Map{
			Grid:     grid,
			Size:     sizeFlag,
			Values:   vals,
			Gradient: gradient,
		}
		m.Format()
		name := fmt.Sprintf("%s-%s.png", outPrefix, fileName(ct))
		if err := writeImage(name, m); err != nil {
			return err
		}
	}

	if p.Path(project.Zones) == "" {
		return nil
	}
	z, err := p.Zones()
	if err != nil {
		return err
	}
	if err := zoneMap(p, z, grid); err != nil {
		return err
	}
	return nil
}

func zoneMap(p *project.Project, z *zones.Partition, grid *heatmap.Grid) error {
	var labels []string
	for _, zn := range z.Zones() {
		labels = append(labels, zn.Label())
	}
	keys, err := p.Colors(labels)
	if err != nil {
		return err
	}

	spotLabel := make(map[string]string)
	for _, zn := range z.Zones() {
		for _, s := range zn.Spots {
			spotLabel[s] = zn.Label()
		}
	}
	m := &heatmap.Map{
		Grid:   grid,
		Size:   sizeFlag,
		Labels: spotLabel,
		Keys:   keys,
	}
	m.Format()
	return writeImage(outPrefix+"-zones.png", m)
}

// FileName returns a cell type name
// that can be used as part of a file name.
func fileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

func writeImage(name string, m image.Image) (err error) {
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

	if err := png.Encode(f, m); err != nil {
		return fmt.Errorf("when encoding image file %q: %v", name, err)
	}
	return nil
}
