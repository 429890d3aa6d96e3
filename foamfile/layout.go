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

package foamfile

import (
	"fmt"
	"math"
	"sort"

	"github.com/spatialmodel/inflow"
)

// Layout maps the unordered face list of a sampled surface onto a
// structured grid ordered by increasing wall-normal and then spanwise
// coordinate.
type Layout struct {
	NY, NZ int

	// index[i][j] is the position in the face list of the point with
	// wall-normal index i and spanwise index j.
	index [][]int
}

// NewLayout sorts the face centres points by their y and then z
// coordinates and returns the layout and the resulting grid. The points
// must form a structured grid: every wall-normal row must hold the same
// number of points, all at one y.
func NewLayout(points [][3]float64) (*Layout, *inflow.Grid, error) {
	n := len(points)
	if n == 0 {
		return nil, nil, fmt.Errorf("foamfile: no points")
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return points[order[a]][1] < points[order[b]][1]
	})

	y0 := points[order[0]][1]
	tol := 1e-10 * math.Max(1, math.Abs(y0))
	nz := 0
	for nz < n && math.Abs(points[order[nz]][1]-y0) <= tol {
		nz++
	}
	if n%nz != 0 {
		return nil, nil, fmt.Errorf("foamfile: %d points cannot be arranged in rows of %d", n, nz)
	}
	l := &Layout{NY: n / nz, NZ: nz, index: make([][]int, n/nz)}
	g := inflow.NewGrid(l.NY, l.NZ)
	for i := range l.index {
		row := order[i*nz : (i+1)*nz]
		yRow := points[row[0]][1]
		tol := 1e-10 * math.Max(1, math.Abs(yRow))
		if i > 0 && math.Abs(yRow-g.Y[i-1][0]) <= tol {
			return nil, nil, fmt.Errorf("foamfile: row %d holds more than %d points at y = %g", i-1, nz, yRow)
		}
		for _, k := range row[1:] {
			if math.Abs(points[k][1]-yRow) > tol {
				return nil, nil, fmt.Errorf("foamfile: row %d mixes y = %g and y = %g; the points are not a structured grid",
					i, yRow, points[k][1])
			}
		}
		sort.SliceStable(row, func(a, b int) bool {
			return points[row[a]][2] < points[row[b]][2]
		})
		l.index[i] = row
		for j, k := range row {
			g.Y[i][j] = points[k][1]
			g.Z[i][j] = points[k][2]
		}
	}
	return l, g, nil
}

// Apply arranges a face list of velocity vectors onto the structured grid.
func (l *Layout) Apply(u [][3]float64) (*inflow.Snapshot, error) {
	if len(u) != l.NY*l.NZ {
		return nil, fmt.Errorf("foamfile: field has %d values but the grid has %d points", len(u), l.NY*l.NZ)
	}
	s := inflow.NewSnapshot(l.NY, l.NZ)
	for i, row := range l.index {
		for j, k := range row {
			s.UX[i][j] = u[k][0]
			s.UY[i][j] = u[k][1]
			s.UZ[i][j] = u[k][2]
		}
	}
	return s, nil
}

// ReadGrid reads the face centres in the named file and returns them as a
// structured grid.
func ReadGrid(path string) (*inflow.Grid, error) {
	points, err := ReadVectorFile(path)
	if err != nil {
		return nil, err
	}
	_, g, err := NewLayout(points)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return g, nil
}
