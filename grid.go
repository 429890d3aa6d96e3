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

package inflow

import "fmt"

// Grid holds the face-centre coordinates of a structured sampling plane.
// Y[i][j] and Z[i][j] are the wall-normal and spanwise coordinates of
// the point with wall-normal index i and spanwise index j.
type Grid struct {
	Y, Z [][]float64
}

// NewGrid returns a zero-valued grid with ny wall-normal and nz spanwise points.
func NewGrid(ny, nz int) *Grid {
	return &Grid{Y: newArray(ny, nz), Z: newArray(ny, nz)}
}

func newArray(ny, nz int) [][]float64 {
	a := make([][]float64, ny)
	for i := range a {
		a[i] = make([]float64, nz)
	}
	return a
}

// Dims returns the number of wall-normal and spanwise points.
func (g *Grid) Dims() (ny, nz int) {
	if len(g.Y) == 0 {
		return 0, 0
	}
	return len(g.Y), len(g.Y[0])
}

// NPoints returns the total number of points in the grid.
func (g *Grid) NPoints() int {
	ny, nz := g.Dims()
	return ny * nz
}

// WallNormal returns the wall-normal coordinates of the first spanwise column.
func (g *Grid) WallNormal() []float64 {
	y := make([]float64, len(g.Y))
	for i, row := range g.Y {
		y[i] = row[0]
	}
	return y
}

// Spanwise returns the spanwise coordinates of the first wall-normal row.
func (g *Grid) Spanwise() []float64 {
	if len(g.Z) == 0 {
		return nil
	}
	z := make([]float64, len(g.Z[0]))
	copy(z, g.Z[0])
	return z
}

// Validate checks that the grid is rectangular and that Y does not
// decrease along the wall-normal index.
func (g *Grid) Validate() error {
	ny, nz := g.Dims()
	if ny == 0 || nz == 0 {
		return fmt.Errorf("inflow: empty grid")
	}
	if len(g.Z) != ny {
		return fmt.Errorf("inflow: grid Y has %d rows but Z has %d", ny, len(g.Z))
	}
	for i := 0; i < ny; i++ {
		if len(g.Y[i]) != nz || len(g.Z[i]) != nz {
			return fmt.Errorf("inflow: grid row %d is not of length %d", i, nz)
		}
		if i == 0 {
			continue
		}
		for j := 0; j < nz; j++ {
			if g.Y[i][j] < g.Y[i-1][j] {
				return fmt.Errorf("inflow: grid Y decreases between rows %d and %d at column %d", i-1, i, j)
			}
		}
	}
	return nil
}

// Snapshot holds the three velocity components on a grid at one time.
type Snapshot struct {
	UX, UY, UZ [][]float64
}

// NewSnapshot returns a zero-valued snapshot of shape (ny, nz).
func NewSnapshot(ny, nz int) *Snapshot {
	return &Snapshot{UX: newArray(ny, nz), UY: newArray(ny, nz), UZ: newArray(ny, nz)}
}

// Dims returns the shape of the snapshot.
func (s *Snapshot) Dims() (ny, nz int) {
	if len(s.UX) == 0 {
		return 0, 0
	}
	return len(s.UX), len(s.UX[0])
}

func (s *Snapshot) components() [3][][]float64 {
	return [3][][]float64{s.UX, s.UY, s.UZ}
}

// SubtractMean removes the mean profile p from the streamwise and
// wall-normal components, leaving the fluctuations.
func (s *Snapshot) SubtractMean(p *Profile) {
	for i := range s.UX {
		for j := range s.UX[i] {
			s.UX[i][j] -= p.UX[i]
			s.UY[i][j] -= p.UY[i]
		}
	}
}

// AddMean adds a rescaled mean profile (streamwise, wall-normal) to every
// spanwise column.
func (s *Snapshot) AddMean(mean [][2]float64) {
	for i := range s.UX {
		for j := range s.UX[i] {
			s.UX[i][j] += mean[i][0]
			s.UY[i][j] += mean[i][1]
		}
	}
}

// Profile is a mean velocity profile along the wall-normal direction.
// A profile read without a wall-normal column has UY set to zero.
type Profile struct {
	Y, UX, UY []float64
}

// Len returns the number of points in the profile.
func (p *Profile) Len() int { return len(p.Y) }
