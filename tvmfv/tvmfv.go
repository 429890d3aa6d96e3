/*
Copyright © 2017 the Inflow authors.
This file is part of Inflow.

Inflow is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Inflow is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Inflow.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package tvmfv writes inflow data in the boundary data layout read by
// OpenFOAM's timeVaryingMappedFixedValue boundary condition.
package tvmfv

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spatialmodel/inflow"
	"github.com/spatialmodel/inflow/foamfile"
)

// Writer writes the points of the inflow patch to
// <dir>/constant/boundaryData/<patch>/points and the velocity of each
// time-step to <label>/U in the same directory. It is safe for concurrent
// use on distinct time-steps.
type Writer struct {
	dir     string
	xOrigin float64
}

// New returns a Writer for the patch patchName of the case at casePath.
// Points are written at streamwise position xOrigin.
func New(casePath, patchName string, xOrigin float64) *Writer {
	return &Writer{
		dir:     filepath.Join(casePath, "constant", "boundaryData", patchName),
		xOrigin: xOrigin,
	}
}

// Dir returns the boundary data directory of the patch.
func (w *Writer) Dir() string { return w.dir }

// WriteGrid writes the points of the grid, ordered by wall-normal and
// then spanwise index.
func (w *Writer) WriteGrid(g *inflow.Grid) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("tvmfv: %w", err)
	}
	points := make([][3]float64, 0, g.NPoints())
	for i := range g.Y {
		for j := range g.Y[i] {
			points = append(points, [3]float64{w.xOrigin, g.Y[i][j], g.Z[i][j]})
		}
	}
	return foamfile.WriteVectorFile(filepath.Join(w.dir, "points"), points)
}

// WriteSnapshot writes the velocity of one time-step to <label>/U.
func (w *Writer) WriteSnapshot(_ int, label string, _ float64, s *inflow.Snapshot) error {
	dir := filepath.Join(w.dir, label)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("tvmfv: %w", err)
	}
	ny, nz := s.Dims()
	u := make([][3]float64, 0, ny*nz)
	for i := range s.UX {
		for j := range s.UX[i] {
			u = append(u, [3]float64{s.UX[i][j], s.UY[i][j], s.UZ[i][j]})
		}
	}
	return foamfile.WriteVectorFile(filepath.Join(dir, "U"), u)
}

// Close is a no-op; every file is closed once written.
func (w *Writer) Close() error { return nil }
