// Copyright © 2026 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package main

import "github.com/js-arias/command"

func init() {
	app.Add(colorKeyGuide)
	app.Add(matrixFilesGuide)
	app.Add(paramFilesGuide)
	app.Add(projectsGuide)
}

var projectsGuide = &command.Command{
	Usage: "projects",
	Short: "about project files",
	Long: `
Cell2loc requires several files to read and process expression data. To
reduce the burden of keeping track of many files, a single project file is
used to hold the reference of all files required in the analysis. This guide
explains the structure of the file, but most of the time, the best and most
secure way to edit or view this file is by using cell2loc commands.

A project file is a tab-delimited file with the following fields:

	- dataset  for the kind of file
	- path     for the path of the file

Here is an example file:

	# cell2loc project files
	dataset	path
	meta	data/scRNA_meta.csv
	reference	data/scRNA_data.csv
	spatial	data/spE_data.csv

The valid file types are:

- Spatial expression. Defined by the dataset keyword "spatial". This file
  contains the counts of each gene (columns) in each spot (rows) as a
  comma-delimited file.
- Reference expression. Defined by the dataset keyword "reference". This file
  contains the counts of each gene (columns) in each cell (rows) of a single
  cell dataset as a comma-delimited file.
- Cell metadata. Defined by the dataset keyword "meta". This file contains
  the annotations of the reference cells, including the cell type, as a
  comma-delimited file.
- Parameters. Defined by the dataset keyword "params". This file contains the
  parameters of the analysis. The recommended way to set the parameters is by
  using the command 'cell2loc param'.
- Signatures. Defined by the dataset keyword "signatures". This file contains
  the expression signature of each cell type (columns) for each gene (rows).
  It is created by the command 'cell2loc ref fit'.
- Abundances. Defined by the dataset keyword "abundance". This file contains
  the estimated abundance of each cell type (columns) in each spot (rows). It
  is created by the command 'cell2loc map fit'.
- Mitochondrial genes. Defined by the dataset keyword "mito". This file
  contains the counts of the mitochondrial genes removed from the spatial
  data.
- Tissue zones. Defined by the dataset keyword "zones". This file contains
  the zone of each spot. It is created by the command 'cell2loc map zones'.
- Color keys. Defined by the dataset keyword "colors". This file contains the
  colors used for cell types and zones.

A project for a directory with the files "spE_data.csv", "scRNA_data.csv",
and "scRNA_meta.csv" can be created with the command 'cell2loc prj --dir'.
	`,
}

var matrixFilesGuide = &command.Command{
	Usage: "matrix-files",
	Short: "about expression and abundance files",
	Long: `
Expression matrices, signatures, and abundances are stored as comma-delimited
files. The first row is the header, with the name of the index column
(possibly empty) followed by the names of the columns (for example genes or
cell types). Each of the other rows contains the name of the row (for example
a spot or a cell) followed by its values. Lines starting with '#' are ignored.

Here is an example of a spatial expression file:

	,ACTB,CD3E,MT-CO1,MS4A1
	AAACAAGTATCTCCCA-1,52,0,14,3
	AAACACCAATAACTGC-1,41,7,9,0

Values must be numbers: empty and NA values are not allowed. Row and column
names must be unique.

The cell metadata file is also a comma-delimited file, with the cell names in
the first column, and one or more categorical columns. One of these columns,
by default "celltype", must contain the cell type of each cell:

	,celltype,sample
	AAACCTGAGCGATAGC-1,B cells,s1
	AAACCTGAGGAGTTTA-1,T cells,s1

If spot names are in the form "<x>x<y>" or "<x>_<y>", where x and y are the
column and row of the spot in a regular array, the command 'cell2loc map
image' can draw maps of the abundances.
	`,
}

var paramFilesGuide = &command.Command{
	Usage: "param-files",
	Short: "about parameter files",
	Long: `
The parameters of an analysis are stored in a tab-delimited file with the
following fields:

	- parameter  the name of the parameter
	- value      the value of the parameter

Here is an example file:

	# cell2loc parameters
	parameter	value
	label	celltype
	map-epochs	30000
	cells-per-location	30
	detection-alpha	20

Parameters not defined in the file use their default values. The valid
parameters are:

	mito-prefix         prefix of the mitochondrial genes. Default "MT-".
	label               column of the metadata with the cell types.
	                    Default "celltype".
	cell-count          minimum number of cells expressing a gene.
	                    Default 5.
	cell-percentage     minimum fraction of cells expressing a gene.
	                    Default 0.03.
	nonzero-mean        minimum mean expression in the expressing cells.
	                    Default 1.12.
	ref-epochs          epochs of the reference regression. Default 250.
	ref-rate            learning rate of the reference regression.
	                    Default 0.05.
	map-epochs          epochs of the spatial mapping. Default 30000.
	map-rate            learning rate of the spatial mapping. Default 0.01.
	cells-per-location  expected number of cells per spot. Default 30.
	detection-alpha     shape of the prior of the spot detection
	                    efficiency. Default 20.
	detection-mean      mean of the prior of the spot detection
	                    efficiency. Default 0.5.
	samples             number of posterior samples. If 0, the posterior
	                    summaries are calculated analytically.
	                    Default 1000.
	quantile            quantile reported as the abundance estimate.
	                    Default 0.05.
	seed                seed of the random number generator. Default 1.
	tol                 relative tolerance of the loss used to stop the
	                    spatial mapping. If 0, all epochs are used.
	                    Default 1e-06.
	patience            number of epochs that the loss change must be
	                    below the tolerance. Default 100.

A gene of the reference is selected if it is expressed in more than
cell-percentage of the cells, or if it is expressed in more than cell-count
cells and its non-zero mean is greater than nonzero-mean.

In a cell2loc project, the file that contains the parameters is indicated
with the "params" keyword.
	`,
}

var colorKeyGuide = &command.Command{
	Usage: "color-keys",
	Short: "about color key files",
	Long: `
A color key file defines the colors used to draw cell types and tissue zones.
It is a tab-delimited file with the following columns:

	-label	the cell type or zone (zones are labeled "zone-<ID>").
	-color	an RGB value separated by commas, for example "125,132,148".

Any other columns will be ignored. Here is an example of a key file:

	label	color	comment
	B cells	0, 84, 119
	Fibroblasts	251, 236, 93	stromal
	zone-1	229, 229, 224

If no color key is defined in a project, colors will be evenly spaced in the
hue of the HCL color space.

In a cell2loc project, the file that contains the color key is indicated with
the "colors" keyword.
	`,
}
