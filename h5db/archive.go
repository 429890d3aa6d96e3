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
	"strconv"

	"github.com/spatialmodel/inflow"
	"gonum.org/v1/hdf5"
)

// Archive is a precursor database in a single HDF5 file. An Archive
// returned by Create is an inflow.ArchiveWriter and one returned by Open
// is an inflow.Reader. Both are safe for concurrent use with each other
// and with an InflowWriter.
type Archive struct {
	f                *hdf5.File
	root             *hdf5.Group
	points, velocity *hdf5.Group
	uX, uY, uZ       *hdf5.Dataset
	open             []closer
	closed           bool

	nTimes, ny, nz int

	// Set by Open.
	times []string
	grid  *inflow.Grid
	mean  *inflow.Profile
}

// Create creates a new archive at path, overwriting any existing file,
// with velocity datasets sized for nTimes snapshots on an ny by nz grid.
func Create(path string, nTimes, ny, nz int) (*Archive, error) {
	h5mu.Lock()
	defer h5mu.Unlock()
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, fmt.Errorf("h5db: creating %s: %w", path, err)
	}
	a := &Archive{f: f, open: []closer{f}, nTimes: nTimes, ny: ny, nz: nz}
	if err = a.create(); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) create() error {
	var err error
	if a.root, err = a.f.OpenGroup("/"); err != nil {
		return fmt.Errorf("h5db: opening root group: %w", err)
	}
	a.open = append(a.open, a.root)
	if a.points, err = a.f.CreateGroup("points"); err != nil {
		return fmt.Errorf("h5db: creating group points: %w", err)
	}
	a.open = append(a.open, a.points)
	if a.velocity, err = a.f.CreateGroup("velocity"); err != nil {
		return fmt.Errorf("h5db: creating group velocity: %w", err)
	}
	a.open = append(a.open, a.velocity)
	for _, d := range []struct {
		name string
		ds   **hdf5.Dataset
	}{{"uX", &a.uX}, {"uY", &a.uY}, {"uZ", &a.uZ}} {
		if *d.ds, err = createDataset(a.velocity, d.name, a.nTimes, a.ny, a.nz); err != nil {
			return err
		}
		a.open = append(a.open, *d.ds)
	}
	return nil
}

// Open opens the archive at path for reading and reads its grid, mean
// profile and time values.
func Open(path string) (*Archive, error) {
	h5mu.Lock()
	defer h5mu.Unlock()
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("h5db: opening %s: %w", path, err)
	}
	a := &Archive{f: f, open: []closer{f}}
	if err = a.load(); err != nil {
		a.close()
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return a, nil
}

func (a *Archive) load() error {
	var err error
	if a.root, err = a.f.OpenGroup("/"); err != nil {
		return fmt.Errorf("h5db: opening root group: %w", err)
	}
	a.open = append(a.open, a.root)
	ny, err := readInt64Attr(a.root, "nPointsY")
	if err != nil {
		return err
	}
	nz, err := readInt64Attr(a.root, "nPointsZ")
	if err != nil {
		return err
	}
	n, err := readInt64Attr(a.root, "nPoints")
	if err != nil {
		return err
	}
	if n != ny*nz {
		return fmt.Errorf("h5db: nPoints %d is not nPointsY*nPointsZ (%d*%d)", n, ny, nz)
	}
	a.ny, a.nz = int(ny), int(nz)

	if a.points, err = a.f.OpenGroup("points"); err != nil {
		return fmt.Errorf("h5db: opening group points: %w", err)
	}
	a.open = append(a.open, a.points)
	if a.velocity, err = a.f.OpenGroup("velocity"); err != nil {
		return fmt.Errorf("h5db: opening group velocity: %w", err)
	}
	a.open = append(a.open, a.velocity)

	a.grid = inflow.NewGrid(a.ny, a.nz)
	for _, d := range []struct {
		name string
		dst  [][]float64
	}{{"pointsY", a.grid.Y}, {"pointsZ", a.grid.Z}} {
		data, shape, err := readDataset(a.points, d.name)
		if err != nil {
			return err
		}
		if len(shape) != 2 || shape[0] != a.ny || shape[1] != a.nz {
			return fmt.Errorf("h5db: dataset %s has shape %v, want [%d %d]", d.name, shape, a.ny, a.nz)
		}
		unflatten(data, d.dst)
	}

	a.mean = &inflow.Profile{Y: a.grid.WallNormal()}
	if a.mean.UX, _, err = readDataset(a.velocity, "uMeanX"); err != nil {
		return err
	}
	if a.mean.UY, _, err = readDataset(a.velocity, "uMeanY"); err != nil {
		return err
	}
	times, _, err := readDataset(a.velocity, "times")
	if err != nil {
		return err
	}
	a.nTimes = len(times)
	a.times = make([]string, len(times))
	for i, t := range times {
		a.times[i] = strconv.FormatFloat(t, 'g', -1, 64)
	}

	for _, d := range []struct {
		name string
		ds   **hdf5.Dataset
	}{{"uX", &a.uX}, {"uY", &a.uY}, {"uZ", &a.uZ}} {
		if *d.ds, err = a.velocity.OpenDataset(d.name); err != nil {
			return fmt.Errorf("h5db: opening dataset %s: %w", d.name, err)
		}
		a.open = append(a.open, *d.ds)
	}
	return nil
}

func flatten(a [][]float64) []float64 {
	var out []float64
	for _, row := range a {
		out = append(out, row...)
	}
	return out
}

func unflatten(data []float64, dst [][]float64) {
	k := 0
	for _, row := range dst {
		k += copy(row, data[k:])
	}
}

// Shape returns the number of snapshots and the grid dimensions.
func (a *Archive) Shape() (nTimes, ny, nz int) { return a.nTimes, a.ny, a.nz }

// WriteGrid writes the grid points and the grid size attributes.
func (a *Archive) WriteGrid(g *inflow.Grid) error {
	ny, nz := g.Dims()
	if ny != a.ny || nz != a.nz {
		return fmt.Errorf("h5db: grid is %d by %d but the archive was created for %d by %d", ny, nz, a.ny, a.nz)
	}
	h5mu.Lock()
	defer h5mu.Unlock()
	if err := writeDataset(a.points, "pointsY", flatten(g.Y), ny, nz); err != nil {
		return err
	}
	if err := writeDataset(a.points, "pointsZ", flatten(g.Z), ny, nz); err != nil {
		return err
	}
	for _, attr := range []struct {
		name string
		v    int
	}{{"nPointsY", ny}, {"nPointsZ", nz}, {"nPoints", ny * nz}} {
		if err := writeInt64Attr(a.root, attr.name, int64(attr.v)); err != nil {
			return err
		}
	}
	return nil
}

// WriteMean writes the mean velocity profile.
func (a *Archive) WriteMean(p *inflow.Profile) error {
	h5mu.Lock()
	defer h5mu.Unlock()
	if err := writeDataset(a.velocity, "uMeanX", p.UX, p.Len()); err != nil {
		return err
	}
	return writeDataset(a.velocity, "uMeanY", p.UY, p.Len())
}

// WriteTimes writes the time values of the snapshots.
func (a *Archive) WriteTimes(times []float64) error {
	if len(times) != a.nTimes {
		return fmt.Errorf("h5db: %d times for an archive of %d snapshots", len(times), a.nTimes)
	}
	h5mu.Lock()
	defer h5mu.Unlock()
	return writeDataset(a.velocity, "times", times, len(times))
}

// WriteSnapshot writes the velocity of snapshot index.
func (a *Archive) WriteSnapshot(index int, label string, _ float64, s *inflow.Snapshot) error {
	if index < 0 || index >= a.nTimes {
		return fmt.Errorf("h5db: snapshot index %d out of range [0, %d)", index, a.nTimes)
	}
	if ny, nz := s.Dims(); ny != a.ny || nz != a.nz {
		return fmt.Errorf("h5db: snapshot %s is %d by %d, want %d by %d", label, ny, nz, a.ny, a.nz)
	}
	h5mu.Lock()
	defer h5mu.Unlock()
	offset, count := []int{index, 0, 0}, []int{1, a.ny, a.nz}
	for _, c := range []struct {
		ds   *hdf5.Dataset
		data [][]float64
	}{{a.uX, s.UX}, {a.uY, s.UY}, {a.uZ, s.UZ}} {
		if err := writeSlab(c.ds, flatten(c.data), offset, count); err != nil {
			return fmt.Errorf("h5db: writing snapshot %s: %w", label, err)
		}
	}
	return nil
}

// Times returns the time labels of the stored snapshots.
func (a *Archive) Times() []string { return a.times }

// ReadGrid returns the grid points.
func (a *Archive) ReadGrid() (*inflow.Grid, error) {
	if a.grid == nil {
		return nil, fmt.Errorf("h5db: archive not opened for reading")
	}
	return a.grid, nil
}

// ReadMean returns the mean velocity profile.
func (a *Archive) ReadMean() (*inflow.Profile, error) {
	if a.mean == nil {
		return nil, fmt.Errorf("h5db: archive not opened for reading")
	}
	return a.mean, nil
}

// ReadSnapshot reads the velocity of snapshot i.
func (a *Archive) ReadSnapshot(i int) (*inflow.Snapshot, error) {
	if i < 0 || i >= a.nTimes {
		return nil, fmt.Errorf("h5db: snapshot index %d out of range [0, %d)", i, a.nTimes)
	}
	s := inflow.NewSnapshot(a.ny, a.nz)
	buf := make([]float64, a.ny*a.nz)
	offset, count := []int{i, 0, 0}, []int{1, a.ny, a.nz}
	h5mu.Lock()
	defer h5mu.Unlock()
	for _, c := range []struct {
		ds  *hdf5.Dataset
		dst [][]float64
	}{{a.uX, s.UX}, {a.uY, s.UY}, {a.uZ, s.UZ}} {
		if err := readSlab(c.ds, buf, offset, count); err != nil {
			return nil, fmt.Errorf("h5db: reading snapshot %d: %w", i, err)
		}
		unflatten(buf, c.dst)
	}
	return s, nil
}

// Close closes the archive. Calling Close more than once has no effect.
func (a *Archive) Close() error {
	h5mu.Lock()
	defer h5mu.Unlock()
	return a.close()
}

func (a *Archive) close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	return closeAll(a.open)
}
