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

package h5db

import (
	"fmt"

	"github.com/spatialmodel/inflow"
	"gonum.org/v1/hdf5"
)

// InflowWriter writes a generated inflow database to a single HDF5 file.
// It is safe for concurrent use on distinct time-steps.
type InflowWriter struct {
	f                      *hdf5.File
	points, time, velocity *hdf5.Dataset
	nSteps, nPoints        int
	xOrigin                float64
	closed                 bool
}

// CreateInflow creates an inflow database at path, overwriting any
// existing file, sized for nSteps time-steps on nPoints points. Points
// are written at streamwise position xOrigin.
func CreateInflow(path string, nSteps, nPoints int, xOrigin float64) (*InflowWriter, error) {
	h5mu.Lock()
	defer h5mu.Unlock()
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, fmt.Errorf("h5db: creating %s: %w", path, err)
	}
	w := &InflowWriter{f: f, nSteps: nSteps, nPoints: nPoints, xOrigin: xOrigin}
	if w.points, err = createDataset(f, "points", nPoints, 3); err == nil {
		if w.time, err = createDataset(f, "time", nSteps, 1); err == nil {
			w.velocity, err = createDataset(f, "velocity", nSteps, nPoints, 3)
		}
	}
	if err != nil {
		w.close()
		return nil, err
	}
	return w, nil
}

// WriteGrid writes the points of the grid, ordered by wall-normal and
// then spanwise index.
func (w *InflowWriter) WriteGrid(g *inflow.Grid) error {
	if g.NPoints() != w.nPoints {
		return fmt.Errorf("h5db: grid has %d points but the database was created for %d", g.NPoints(), w.nPoints)
	}
	data := make([]float64, 0, 3*w.nPoints)
	for i := range g.Y {
		for j := range g.Y[i] {
			data = append(data, w.xOrigin, g.Y[i][j], g.Z[i][j])
		}
	}
	h5mu.Lock()
	defer h5mu.Unlock()
	if err := w.points.Write(&data); err != nil {
		return fmt.Errorf("h5db: writing points: %w", err)
	}
	return nil
}

// WriteSnapshot writes time t and the velocity of time-step index.
func (w *InflowWriter) WriteSnapshot(index int, label string, t float64, s *inflow.Snapshot) error {
	if index < 0 || index >= w.nSteps {
		return fmt.Errorf("h5db: time-step %d out of range [0, %d)", index, w.nSteps)
	}
	ny, nz := s.Dims()
	if ny*nz != w.nPoints {
		return fmt.Errorf("h5db: time-step %s has %d points, want %d", label, ny*nz, w.nPoints)
	}
	data := make([]float64, 0, 3*w.nPoints)
	for i := range s.UX {
		for j := range s.UX[i] {
			data = append(data, s.UX[i][j], s.UY[i][j], s.UZ[i][j])
		}
	}
	h5mu.Lock()
	defer h5mu.Unlock()
	if err := writeSlab(w.time, []float64{t}, []int{index, 0}, []int{1, 1}); err != nil {
		return fmt.Errorf("h5db: writing time %s: %w", label, err)
	}
	if err := writeSlab(w.velocity, data, []int{index, 0, 0}, []int{1, w.nPoints, 3}); err != nil {
		return fmt.Errorf("h5db: writing velocity at time %s: %w", label, err)
	}
	return nil
}

// Close closes the database. Calling Close more than once has no effect.
func (w *InflowWriter) Close() error {
	h5mu.Lock()
	defer h5mu.Unlock()
	return w.close()
}

func (w *InflowWriter) close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	var open []closer
	open = append(open, w.f)
	for _, ds := range []*hdf5.Dataset{w.points, w.time, w.velocity} {
		if ds != nil {
			open = append(open, ds)
		}
	}
	return closeAll(open)
}
