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

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ArchiveWriter is a Writer that also stores the mean profile and the time
// values of the series it holds.
type ArchiveWriter interface {
	Writer
	WriteMean(p *Profile) error
	WriteTimes(times []float64) error
}

// ArchiveFactory creates an ArchiveWriter sized for nTimes snapshots on
// the grid g.
type ArchiveFactory func(g *Grid, nTimes int) (ArchiveWriter, error)

// ConvertConfig holds the inputs of a database conversion.
type ConvertConfig struct {
	// Precursor is the database to convert.
	Precursor Reader

	// Create creates the output archive.
	Create ArchiveFactory

	// NProcs is the number of concurrent workers.
	NProcs int
}

// Convert copies the grid, mean profile and every snapshot of a precursor
// database into a single archive. The time-steps are divided among
// cfg.NProcs workers, each of which writes its own chunk.
func Convert(ctx context.Context, cfg ConvertConfig, log logrus.FieldLogger) (err error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.NProcs < 1 {
		return &ConfigurationError{Key: "nProcs", Value: fmt.Sprint(cfg.NProcs), Msg: "must be at least 1"}
	}
	r := cfg.Precursor
	labels := r.Times()
	if len(labels) == 0 {
		return &DataRangeError{Quantity: "precursor times", Msg: "the precursor database holds no time-steps"}
	}
	times := make([]float64, len(labels))
	for i, l := range labels {
		if times[i], err = strconv.ParseFloat(l, 64); err != nil {
			return fmt.Errorf("inflow: invalid time label %q: %w", l, err)
		}
	}
	g, err := r.ReadGrid()
	if err != nil {
		return fmt.Errorf("inflow: reading grid: %w", err)
	}
	mean, err := r.ReadMean()
	if err != nil {
		return fmt.Errorf("inflow: reading mean profile: %w", err)
	}
	ny, nz := g.Dims()
	if ny != mean.Len() {
		return &GridMismatchError{GridPoints: ny, ProfilePoints: mean.Len()}
	}
	log.WithFields(logrus.Fields{
		"times":  len(times),
		"ny":     ny,
		"nz":     nz,
		"tFirst": labels[0],
		"tLast":  labels[len(labels)-1],
	}).Info("converting precursor database")

	w, err := cfg.Create(g, len(times))
	if err != nil {
		return fmt.Errorf("inflow: creating archive: %w", err)
	}
	defer func() {
		if cerr := w.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("inflow: closing archive: %w", cerr)
		}
	}()
	if err = w.WriteGrid(g); err != nil {
		return fmt.Errorf("inflow: writing grid: %w", err)
	}
	if err = w.WriteMean(mean); err != nil {
		return fmt.Errorf("inflow: writing mean profile: %w", err)
	}
	if err = w.WriteTimes(times); err != nil {
		return fmt.Errorf("inflow: writing times: %w", err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	for rank := 0; rank < cfg.NProcs; rank++ {
		proc := Proc{Rank: rank, Size: cfg.NProcs}
		eg.Go(func() error {
			begin, end := proc.Range(len(times))
			for i := begin; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				reportProgress(log, proc, i, begin, end, 5, "converting")
				s, err := r.ReadSnapshot(i)
				if err != nil {
					return fmt.Errorf("inflow: reading time %s: %w", labels[i], err)
				}
				if err = w.WriteSnapshot(i, labels[i], times[i], s); err != nil {
					return fmt.Errorf("inflow: writing time %s: %w", labels[i], err)
				}
			}
			log.WithFields(logrus.Fields{"proc": proc.String(), "steps": end - begin}).Debug("converted chunk")
			return nil
		})
	}
	return eg.Wait()
}
