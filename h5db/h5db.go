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

// Package h5db stores precursor and inflow databases in HDF5 files.
//
// A precursor archive holds the groups
//
//	points:   pointsY, pointsZ (NY, NZ)
//	velocity: uMeanX, uMeanY (NY), times (NT), uX, uY, uZ (NT, NY, NZ)
//
// and the int64 root attributes nPointsY, nPointsZ and nPoints.
//
// An inflow database holds the datasets points (N, 3), time (NT, 1) and
// velocity (NT, N, 3), where N is the number of points of the inflow plane.
package h5db

import (
	"fmt"
	"sync"

	"gonum.org/v1/hdf5"
)

// h5mu serializes every call into the HDF5 library, which keeps global
// state and is not re-entrant. All files of the package share it.
var h5mu sync.Mutex

// location is an HDF5 file or group.
type location interface {
	CreateDataset(name string, dtype *hdf5.Datatype, dspace *hdf5.Dataspace) (*hdf5.Dataset, error)
	OpenDataset(name string) (*hdf5.Dataset, error)
}

func dims(d []int) []uint {
	u := make([]uint, len(d))
	for i, v := range d {
		u[i] = uint(v)
	}
	return u
}

// createDataset creates a float64 dataset of the given shape.
func createDataset(loc location, name string, shape ...int) (*hdf5.Dataset, error) {
	space, err := hdf5.CreateSimpleDataspace(dims(shape), nil)
	if err != nil {
		return nil, fmt.Errorf("h5db: creating dataspace for %s: %w", name, err)
	}
	defer space.Close()
	ds, err := loc.CreateDataset(name, hdf5.T_NATIVE_DOUBLE, space)
	if err != nil {
		return nil, fmt.Errorf("h5db: creating dataset %s: %w", name, err)
	}
	return ds, nil
}

// writeDataset creates a float64 dataset of the given shape holding data
// in row-major order.
func writeDataset(loc location, name string, data []float64, shape ...int) error {
	ds, err := createDataset(loc, name, shape...)
	if err != nil {
		return err
	}
	if err = ds.Write(&data); err != nil {
		ds.Close()
		return fmt.Errorf("h5db: writing %s: %w", name, err)
	}
	return ds.Close()
}

// readDataset reads a whole float64 dataset and returns its data in
// row-major order and its shape.
func readDataset(loc location, name string) ([]float64, []int, error) {
	ds, err := loc.OpenDataset(name)
	if err != nil {
		return nil, nil, fmt.Errorf("h5db: opening dataset %s: %w", name, err)
	}
	defer ds.Close()
	space := ds.Space()
	defer space.Close()
	d, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, nil, fmt.Errorf("h5db: dataset %s: %w", name, err)
	}
	shape := make([]int, len(d))
	n := 1
	for i, v := range d {
		shape[i] = int(v)
		n *= int(v)
	}
	data := make([]float64, n)
	if err = ds.Read(&data); err != nil {
		return nil, nil, fmt.Errorf("h5db: reading %s: %w", name, err)
	}
	return data, shape, nil
}

// writeSlab writes data to the block of ds starting at offset with extent
// count.
func writeSlab(ds *hdf5.Dataset, data []float64, offset, count []int) error {
	file := ds.Space()
	defer file.Close()
	if err := file.SelectHyperslab(dims(offset), nil, dims(count), nil); err != nil {
		return err
	}
	mem, err := hdf5.CreateSimpleDataspace(dims(count), nil)
	if err != nil {
		return err
	}
	defer mem.Close()
	return ds.WriteSubset(&data, mem, file)
}

// readSlab reads the block of ds starting at offset with extent count
// into data.
func readSlab(ds *hdf5.Dataset, data []float64, offset, count []int) error {
	file := ds.Space()
	defer file.Close()
	if err := file.SelectHyperslab(dims(offset), nil, dims(count), nil); err != nil {
		return err
	}
	mem, err := hdf5.CreateSimpleDataspace(dims(count), nil)
	if err != nil {
		return err
	}
	defer mem.Close()
	return ds.ReadSubset(&data, mem, file)
}

func writeInt64Attr(g *hdf5.Group, name string, v int64) error {
	space, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return fmt.Errorf("h5db: attribute %s: %w", name, err)
	}
	defer space.Close()
	attr, err := g.CreateAttribute(name, hdf5.T_NATIVE_INT64, space)
	if err != nil {
		return fmt.Errorf("h5db: creating attribute %s: %w", name, err)
	}
	defer attr.Close()
	if err = attr.Write(&v, hdf5.T_NATIVE_INT64); err != nil {
		return fmt.Errorf("h5db: writing attribute %s: %w", name, err)
	}
	return nil
}

func readInt64Attr(g *hdf5.Group, name string) (int64, error) {
	attr, err := g.OpenAttribute(name)
	if err != nil {
		return 0, fmt.Errorf("h5db: opening attribute %s: %w", name, err)
	}
	defer attr.Close()
	var v int64
	if err = attr.Read(&v, hdf5.T_NATIVE_INT64); err != nil {
		return 0, fmt.Errorf("h5db: reading attribute %s: %w", name, err)
	}
	return v, nil
}

// closer is an HDF5 object that must be closed.
type closer interface {
	Close() error
}

// closeAll closes objs in reverse order and returns the first error.
func closeAll(objs []closer) error {
	var first error
	for i := len(objs) - 1; i >= 0; i-- {
		if err := objs[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
