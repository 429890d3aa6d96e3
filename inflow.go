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

// Package inflow generates synthetic turbulent inflow boundary conditions
// from a precursor boundary-layer simulation using Lund et al.'s rescaling
// method, and converts precursor databases into a single archive.
package inflow

// Version is the version of this software.
const Version = "1.0.0"

// Reader provides access to a precursor database: a structured sampling
// grid, a mean velocity profile and a series of velocity snapshots.
// Implementations must be safe for concurrent use.
type Reader interface {
	// Times returns the time labels of the stored snapshots, sorted
	// in increasing numerical order.
	Times() []string

	// ReadGrid returns the sampling grid.
	ReadGrid() (*Grid, error)

	// ReadMean returns the mean velocity profile. Its length matches the
	// wall-normal size of the grid.
	ReadMean() (*Profile, error)

	// ReadSnapshot returns the velocity at time index i of Times().
	ReadSnapshot(i int) (*Snapshot, error)

	Close() error
}

// Writer is a sink for generated inflow data. WriteSnapshot may be called
// concurrently for different indices.
type Writer interface {
	// WriteGrid writes the points of the inflow plane.
	WriteGrid(g *Grid) error

	// WriteSnapshot writes the velocity of time-step index, which is
	// labelled label and corresponds to time t.
	WriteSnapshot(index int, label string, t float64, s *Snapshot) error

	Close() error
}

// WriterFactory creates the Writer for a run once the shape of the output
// is known: the grid that will be written and the number of time-steps.
type WriterFactory func(g *Grid, nSteps int) (Writer, error)
