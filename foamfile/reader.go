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
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spatialmodel/inflow"
)

// Options configures how a foamFile precursor database is read.
type Options struct {
	// MeanFile is the path to the mean velocity profile.
	MeanFile string

	// Pad adds a row at the wall and a row at the top of the grid, at the
	// first and last wall-normal coordinate of the mean profile. The
	// velocity in the added rows is the mean velocity there.
	Pad bool
}

// Reader reads a precursor database stored as an OpenFOAM sampled surface
// at <case>/postProcessing/sampledSurface/<time>/<surface>. It is safe
// for concurrent use.
type Reader struct {
	dir     string
	surface string
	pad     bool
	times   []string
	layout  *Layout
	grid    *inflow.Grid
	mean    *inflow.Profile
}

// Open lists the time-steps of the sampled surface in the case at
// casePath and reads its points and mean profile.
func Open(casePath, surface string, o Options) (*Reader, error) {
	r := &Reader{
		dir:     filepath.Join(casePath, "postProcessing", "sampledSurface"),
		surface: surface,
		pad:     o.Pad,
	}
	var err error
	if r.times, err = ListTimes(r.dir); err != nil {
		return nil, err
	}
	if len(r.times) == 0 {
		return nil, &inflow.DataRangeError{Quantity: "precursor times", Msg: "no time directories in " + r.dir}
	}
	if o.MeanFile == "" {
		return nil, &inflow.ConfigurationError{Key: "uMeanFile", Msg: "is not specified"}
	}
	if r.mean, err = ReadProfileFile(o.MeanFile); err != nil {
		return nil, err
	}
	points, err := ReadVectorFile(filepath.Join(r.dir, r.times[0], surface, "faceCentres"))
	if err != nil {
		return nil, err
	}
	if r.layout, r.grid, err = NewLayout(points); err != nil {
		return nil, err
	}
	if r.pad {
		r.grid = r.padGrid(r.grid)
	}
	return r, nil
}

// ListTimes returns the names of the subdirectories of dir that are
// numbers, sorted in increasing numerical order.
func ListTimes(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("foamfile: %w", err)
	}
	type time struct {
		label string
		t     float64
	}
	var times []time
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		t, err := strconv.ParseFloat(e.Name(), 64)
		if err != nil {
			continue
		}
		times = append(times, time{label: e.Name(), t: t})
	}
	sort.Slice(times, func(i, j int) bool { return times[i].t < times[j].t })
	labels := make([]string, len(times))
	for i, t := range times {
		labels[i] = t.label
	}
	return labels, nil
}

func (r *Reader) padGrid(g *inflow.Grid) *inflow.Grid {
	ny, nz := g.Dims()
	p := inflow.NewGrid(ny+2, nz)
	for i := 0; i < ny; i++ {
		copy(p.Y[i+1], g.Y[i])
		copy(p.Z[i+1], g.Z[i])
	}
	copy(p.Z[0], g.Z[0])
	copy(p.Z[ny+1], g.Z[ny-1])
	for j := 0; j < nz; j++ {
		p.Y[0][j] = r.mean.Y[0]
		p.Y[ny+1][j] = r.mean.Y[r.mean.Len()-1]
	}
	return p
}

// Times returns the time labels of the database.
func (r *Reader) Times() []string { return r.times }

// ReadGrid returns the grid of the sampled surface.
func (r *Reader) ReadGrid() (*inflow.Grid, error) { return r.grid, nil }

// ReadMean returns the mean velocity profile.
func (r *Reader) ReadMean() (*inflow.Profile, error) { return r.mean, nil }

// ReadSnapshot reads the velocity at time index i.
func (r *Reader) ReadSnapshot(i int) (*inflow.Snapshot, error) {
	if i < 0 || i >= len(r.times) {
		return nil, fmt.Errorf("foamfile: time index %d out of range [0, %d)", i, len(r.times))
	}
	u, err := ReadVectorFile(filepath.Join(r.dir, r.times[i], r.surface, "vectorField", "U"))
	if err != nil {
		return nil, err
	}
	s, err := r.layout.Apply(u)
	if err != nil {
		return nil, fmt.Errorf("%v (time %s)", err, r.times[i])
	}
	if !r.pad {
		return s, nil
	}
	ny, nz := s.Dims()
	p := inflow.NewSnapshot(ny+2, nz)
	for k := 0; k < ny; k++ {
		p.UX[k+1], p.UY[k+1], p.UZ[k+1] = s.UX[k], s.UY[k], s.UZ[k]
	}
	last := r.mean.Len() - 1
	for j := 0; j < nz; j++ {
		p.UX[0][j], p.UY[0][j] = r.mean.UX[0], r.mean.UY[0]
		p.UX[ny+1][j], p.UY[ny+1][j] = r.mean.UX[last], r.mean.UY[last]
	}
	return p, nil
}

// Close is a no-op; files are opened and closed on every read.
func (r *Reader) Close() error { return nil }
