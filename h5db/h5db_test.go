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
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spatialmodel/inflow"
	"gonum.org/v1/hdf5"
)

func testData(ny, nz, nt int) (*inflow.Grid, *inflow.Profile, []*inflow.Snapshot) {
	g := inflow.NewGrid(ny, nz)
	p := &inflow.Profile{Y: make([]float64, ny), UX: make([]float64, ny), UY: make([]float64, ny)}
	for i := 0; i < ny; i++ {
		p.Y[i] = float64(i) * 0.1
		p.UX[i] = float64(i)
		p.UY[i] = -0.01 * float64(i)
		for j := 0; j < nz; j++ {
			g.Y[i][j] = p.Y[i]
			g.Z[i][j] = float64(j) * 0.2
		}
	}
	var snaps []*inflow.Snapshot
	for k := 0; k < nt; k++ {
		s := inflow.NewSnapshot(ny, nz)
		for i := 0; i < ny; i++ {
			for j := 0; j < nz; j++ {
				s.UX[i][j] = float64(100*k + 10*i + j)
				s.UY[i][j] = -float64(k)
				s.UZ[i][j] = float64(j)
			}
		}
		snaps = append(snaps, s)
	}
	return g, p, snaps
}

func TestArchive(t *testing.T) {
	const ny, nz, nt = 4, 3, 5
	path := filepath.Join(t.TempDir(), "precursor.hdf5")
	g, p, snaps := testData(ny, nz, nt)

	a, err := Create(path, nt, ny, nz)
	if err != nil {
		t.Fatal(err)
	}
	if err = a.WriteGrid(g); err != nil {
		t.Fatal(err)
	}
	if err = a.WriteMean(p); err != nil {
		t.Fatal(err)
	}
	if err = a.WriteTimes([]float64{1, 1.5, 2, 2.5, 3}); err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	errs := make([]error, nt)
	for k := range snaps {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			errs[k] = a.WriteSnapshot(k, "", 0, snaps[k])
		}(k)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if err = a.WriteSnapshot(nt, "", 0, snaps[0]); err == nil {
		t.Error("expected an error for an out of range snapshot")
	}
	if err = a.Close(); err != nil {
		t.Fatal(err)
	}
	if err = a.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if n, y, z := r.Shape(); n != nt || y != ny || z != nz {
		t.Errorf("shape (%d, %d, %d)", n, y, z)
	}
	times := r.Times()
	if len(times) != nt || times[1] != "1.5" || times[4] != "3" {
		t.Errorf("times %v", times)
	}
	rg, err := r.ReadGrid()
	if err != nil {
		t.Fatal(err)
	}
	rp, err := r.ReadMean()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < ny; i++ {
		if rp.UX[i] != p.UX[i] || rp.UY[i] != p.UY[i] || rp.Y[i] != p.Y[i] {
			t.Errorf("mean profile point %d", i)
		}
		for j := 0; j < nz; j++ {
			if rg.Y[i][j] != g.Y[i][j] || rg.Z[i][j] != g.Z[i][j] {
				t.Errorf("grid point (%d, %d)", i, j)
			}
		}
	}
	for k := 0; k < nt; k++ {
		s, err := r.ReadSnapshot(k)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < ny; i++ {
			for j := 0; j < nz; j++ {
				if s.UX[i][j] != snaps[k].UX[i][j] || s.UY[i][j] != snaps[k].UY[i][j] || s.UZ[i][j] != snaps[k].UZ[i][j] {
					t.Errorf("snapshot %d point (%d, %d): (%g, %g, %g)", k, i, j, s.UX[i][j], s.UY[i][j], s.UZ[i][j])
				}
			}
		}
	}
}

func TestArchiveGridMismatch(t *testing.T) {
	a, err := Create(filepath.Join(t.TempDir(), "a.hdf5"), 1, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if err := a.WriteGrid(inflow.NewGrid(3, 2)); err == nil {
		t.Error("expected an error for a grid of the wrong size")
	}
}

func TestInflowWriter(t *testing.T) {
	const ny, nz, nt = 3, 2, 4
	path := filepath.Join(t.TempDir(), "inflow.hdf5")
	g, _, snaps := testData(ny, nz, nt)
	w, err := CreateInflow(path, nt, ny*nz, 7)
	if err != nil {
		t.Fatal(err)
	}
	if err = w.WriteGrid(g); err != nil {
		t.Fatal(err)
	}
	for k := nt - 1; k >= 0; k-- {
		if err = w.WriteSnapshot(k, "", 0.5*float64(k), snaps[k]); err != nil {
			t.Fatal(err)
		}
	}
	if err = w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	points, shape, err := readDataset(f, "points")
	if err != nil {
		t.Fatal(err)
	}
	if len(shape) != 2 || shape[0] != ny*nz || shape[1] != 3 {
		t.Fatalf("points shape %v", shape)
	}
	// Point 3 is (i=1, j=1).
	if points[9] != 7 || points[10] != g.Y[1][1] || points[11] != g.Z[1][1] {
		t.Errorf("point 3 = %v", points[9:12])
	}
	times, shape, err := readDataset(f, "time")
	if err != nil {
		t.Fatal(err)
	}
	if len(shape) != 2 || shape[0] != nt || shape[1] != 1 {
		t.Errorf("time shape %v", shape)
	}
	for k, tv := range times {
		if tv != 0.5*float64(k) {
			t.Errorf("time %d = %g", k, tv)
		}
	}
	vel, shape, err := readDataset(f, "velocity")
	if err != nil {
		t.Fatal(err)
	}
	if len(shape) != 3 || shape[0] != nt || shape[1] != ny*nz || shape[2] != 3 {
		t.Fatalf("velocity shape %v", shape)
	}
	for k := 0; k < nt; k++ {
		for i := 0; i < ny; i++ {
			for j := 0; j < nz; j++ {
				o := 3 * (k*ny*nz + i*nz + j)
				if vel[o] != snaps[k].UX[i][j] || vel[o+1] != snaps[k].UY[i][j] || vel[o+2] != snaps[k].UZ[i][j] {
					t.Errorf("velocity %d (%d, %d) = %v", k, i, j, vel[o:o+3])
				}
			}
		}
	}
}

// writeArchive creates a complete archive at path.
func writeArchive(t *testing.T, path string, g *inflow.Grid, p *inflow.Profile, snaps []*inflow.Snapshot) {
	ny, nz := g.Dims()
	a, err := Create(path, len(snaps), ny, nz)
	if err != nil {
		t.Fatal(err)
	}
	if err = a.WriteGrid(g); err != nil {
		t.Fatal(err)
	}
	if err = a.WriteMean(p); err != nil {
		t.Fatal(err)
	}
	times := make([]float64, len(snaps))
	for k := range times {
		times[k] = float64(k)
	}
	if err = a.WriteTimes(times); err != nil {
		t.Fatal(err)
	}
	for k, s := range snaps {
		if err = a.WriteSnapshot(k, "", 0, s); err != nil {
			t.Fatal(err)
		}
	}
	if err = a.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestLibraryLockSharedByFiles(t *testing.T) {
	const ny, nz, nt = 3, 2, 6
	dir := t.TempDir()
	g, p, snaps := testData(ny, nz, nt)
	writeArchive(t, filepath.Join(dir, "precursor.hdf5"), g, p, snaps)

	r, err := Open(filepath.Join(dir, "precursor.hdf5"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	w, err := CreateInflow(filepath.Join(dir, "inflow.hdf5"), nt, ny*nz, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	// A read from one file must wait while another file holds the library.
	h5mu.Lock()
	done := make(chan error, 2)
	go func() {
		_, err := r.ReadSnapshot(0)
		done <- err
	}()
	go func() {
		done <- w.WriteSnapshot(0, "0", 0, snaps[0])
	}()
	select {
	case <-done:
		h5mu.Unlock()
		t.Fatal("HDF5 call ran while the library lock was held")
	case <-time.After(50 * time.Millisecond):
	}
	h5mu.Unlock()
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}

	// Concurrent reads and writes across the two files.
	var wg sync.WaitGroup
	errs := make([]error, 2*nt)
	for k := 0; k < nt; k++ {
		wg.Add(2)
		go func(k int) {
			defer wg.Done()
			s, err := r.ReadSnapshot(k)
			if err == nil && s.UX[1][1] != snaps[k].UX[1][1] {
				err = fmt.Errorf("snapshot %d UX = %g", k, s.UX[1][1])
			}
			errs[2*k] = err
		}(k)
		go func(k int) {
			defer wg.Done()
			errs[2*k+1] = w.WriteSnapshot(k, "", float64(k), snaps[k])
		}(k)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
}
