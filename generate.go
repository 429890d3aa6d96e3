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
	"math"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// State is the life-cycle stage of a Generator.
type State int

const (
	// Initializing is the state of a new Generator.
	Initializing State = iota
	// Streaming is entered once the parameters and the rescaled mean
	// profile have been computed and the inflow grid has been written.
	Streaming
	// Finalizing is entered once all output time-steps have been
	// processed or a worker has failed.
	Finalizing
	// Done is entered once the writer has been closed.
	Done
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Streaming:
		return "streaming"
	case Finalizing:
		return "finalizing"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// GeneratorConfig holds the configuration of an inflow generation run.
type GeneratorConfig struct {
	Physical PhysicalConfig

	// Dt is the output time-step and T0 and TEnd the first and last
	// output times.
	Dt, T0, TEnd float64

	// TPrecision is the number of decimals in the time labels.
	TPrecision int
}

// Validate checks the time stepping of the configuration.
func (c GeneratorConfig) Validate() error {
	if !(c.Dt > 0) {
		return &ConfigurationError{Key: "dt", Value: fmt.Sprint(c.Dt), Msg: "must be positive"}
	}
	if c.TEnd < c.T0 {
		return &ConfigurationError{Key: "tEnd", Value: fmt.Sprint(c.TEnd), Msg: "must not be less than t0"}
	}
	if c.TPrecision < 0 {
		return &ConfigurationError{Key: "tPrecision", Value: fmt.Sprint(c.TPrecision), Msg: "must not be negative"}
	}
	return c.Physical.Validate()
}

// NumSteps returns the number of output time-steps from t0 to tEnd
// inclusive with spacing dt. The last step is never later than tEnd.
func NumSteps(t0, tEnd, dt float64) int {
	return int(math.Floor((tEnd-t0)/dt+stepTolerance)) + 1
}

// stepTolerance absorbs rounding error in (tEnd-t0)/dt.
const stepTolerance = 1e-9

// Generator produces an inflow database by rescaling the snapshots of a
// precursor database.
type Generator struct {
	cfg       GeneratorConfig
	prec      Reader
	inflGrid  *Grid
	newWriter WriterFactory

	// Log receives status messages.
	Log logrus.FieldLogger

	state    State
	times    []string
	precGrid *Grid
	precZ    []float64
	mean     *Profile
	params   *Params
	meanInfl [][2]float64

	w         Writer
	closeOnce sync.Once
	closeErr  error
}

// NewGenerator returns a Generator that rescales the snapshots of prec
// onto inflGrid and writes them to the Writer created by newWriter.
// If log is nil the standard logger is used.
func NewGenerator(cfg GeneratorConfig, prec Reader, inflGrid *Grid, newWriter WriterFactory, log logrus.FieldLogger) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := inflGrid.Validate(); err != nil {
		return nil, fmt.Errorf("inflow: inflow grid: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Generator{
		cfg:       cfg,
		prec:      prec,
		inflGrid:  inflGrid,
		newWriter: newWriter,
		Log:       log,
	}, nil
}

// State returns the current state of the generator.
func (g *Generator) State() State { return g.state }

// Params returns the boundary-layer parameters, or nil before Initialize.
func (g *Generator) Params() *Params { return g.params }

// Mean returns the precursor mean profile, or nil before Initialize.
func (g *Generator) Mean() *Profile { return g.mean }

// MeanInflow returns the rescaled mean profile, or nil before Initialize.
func (g *Generator) MeanInflow() [][2]float64 { return g.meanInfl }

// NSteps returns the number of output time-steps.
func (g *Generator) NSteps() int {
	return NumSteps(g.cfg.T0, g.cfg.TEnd, g.cfg.Dt)
}

// Label returns the label and the time of output time-step p. The time
// is rounded to the precision of the label.
func (g *Generator) Label(p int) (string, float64) {
	t := g.cfg.T0 + float64(p)*g.cfg.Dt
	label := strconv.FormatFloat(t, 'f', g.cfg.TPrecision, 64)
	t, _ = strconv.ParseFloat(label, 64)
	return label, t
}

// Initialize reads the precursor grid and mean profile, computes the
// rescaling parameters and the rescaled mean profile, creates the writer
// and writes the inflow grid.
func (g *Generator) Initialize() error {
	if g.state != Initializing {
		return fmt.Errorf("inflow: cannot initialize a generator in state %v", g.state)
	}
	g.times = g.prec.Times()
	if len(g.times) == 0 {
		return &DataRangeError{Quantity: "precursor times", Msg: "the precursor database holds no time-steps"}
	}
	var err error
	if g.precGrid, err = g.prec.ReadGrid(); err != nil {
		return fmt.Errorf("inflow: reading precursor grid: %w", err)
	}
	if err = g.precGrid.Validate(); err != nil {
		return fmt.Errorf("inflow: precursor grid: %w", err)
	}
	if g.mean, err = g.prec.ReadMean(); err != nil {
		return fmt.Errorf("inflow: reading precursor mean profile: %w", err)
	}
	if ny, _ := g.precGrid.Dims(); ny != g.mean.Len() {
		return &GridMismatchError{GridPoints: ny, ProfilePoints: g.mean.Len()}
	}
	g.precZ = g.precGrid.Spanwise()

	g.params, err = ComputeParams(g.cfg.Physical, g.mean, g.precGrid.WallNormal(), g.inflGrid.WallNormal())
	if err != nil {
		return err
	}
	p := g.params
	g.Log.WithFields(logrus.Fields{
		"delta99Precursor": p.Delta99Precursor,
		"uTauPrecursor":    p.UTauPrecursor,
		"reTauPrecursor":   p.ReTauPrecursor,
		"U0":               p.U0,
	}).Info("precursor boundary layer")
	if g.cfg.Physical.ComputeUTauInflow {
		g.Log.WithFields(logrus.Fields{
			"reDelta99": p.ReDeltaInflow,
			"cf":        p.CfInflow,
			"uTau":      p.UTauInflow,
		}).Info("computed inflow friction velocity from skin friction correlation")
	}
	if p.ExceedsPrecursor() {
		g.Log.WithFields(logrus.Fields{
			"reTauInflow":    p.ReTauInflow,
			"reTauPrecursor": p.ReTauPrecursor,
		}).Warn("the inflow friction Reynolds number is larger than the precursor's")
	}

	g.meanInfl = RescaleMean(g.mean, p)
	ux := make([]float64, len(g.meanInfl))
	for i, m := range g.meanInfl {
		ux[i] = m[0]
	}
	if err = p.SetIntegralThicknesses(ux); err != nil {
		return err
	}
	g.Log.WithFields(logrus.Fields{
		"delta99":     p.Delta99Inflow,
		"uTau":        p.UTauInflow,
		"reTau":       p.ReTauInflow,
		"reTheta":     p.ReThetaInflow,
		"reDeltaStar": p.ReDeltaStarInflow,
		"gamma":       p.Gamma,
		"nInfl":       p.NInfl,
		"nInner":      p.NInner,
	}).Info("inflow boundary layer")

	if g.w, err = g.newWriter(g.inflGrid, g.NSteps()); err != nil {
		return fmt.Errorf("inflow: creating writer: %w", err)
	}
	if err = g.w.WriteGrid(g.inflGrid); err != nil {
		return fmt.Errorf("inflow: writing inflow grid: %w", err)
	}
	g.state = Streaming
	return nil
}

// Stream rescales and writes all output time-steps using nProcs
// concurrent workers, each of which handles one contiguous chunk of
// time-steps. The first failure stops the remaining workers.
func (g *Generator) Stream(ctx context.Context, nProcs int) error {
	if g.state != Streaming {
		return fmt.Errorf("inflow: cannot stream from a generator in state %v", g.state)
	}
	if nProcs < 1 {
		return &ConfigurationError{Key: "nProcs", Value: fmt.Sprint(nProcs), Msg: "must be at least 1"}
	}
	n := g.NSteps()
	g.Log.WithFields(logrus.Fields{"steps": n, "workers": nProcs}).Info("generating inflow time-steps")

	eg, ctx := errgroup.WithContext(ctx)
	for rank := 0; rank < nProcs; rank++ {
		proc := Proc{Rank: rank, Size: nProcs}
		eg.Go(func() error {
			return g.work(ctx, proc, n)
		})
	}
	err := eg.Wait()
	g.state = Finalizing
	return err
}

// work processes the time-steps owned by proc.
func (g *Generator) work(ctx context.Context, proc Proc, n int) error {
	begin, end := proc.Range(n)
	for p := begin; p < end; p++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		reportProgress(g.Log, proc, p, begin, end, 10, "rescaling")
		label, t := g.Label(p)
		i := p % len(g.times)
		s, err := g.prec.ReadSnapshot(i)
		if err != nil {
			return fmt.Errorf("inflow: reading precursor time %s: %w", g.times[i], err)
		}
		s.SubtractMean(g.mean)
		infl, err := RescaleField(s, g.precZ, g.inflGrid, g.params)
		if err != nil {
			return fmt.Errorf("inflow: rescaling precursor time %s: %w", g.times[i], err)
		}
		infl.AddMean(g.meanInfl)
		if err = g.w.WriteSnapshot(p, label, t, infl); err != nil {
			return fmt.Errorf("inflow: writing time %s: %w", label, err)
		}
	}
	return nil
}

// Finalize closes the writer. It is safe to call more than once and from
// any state; the writer is closed only the first time.
func (g *Generator) Finalize() error {
	g.closeOnce.Do(func() {
		if g.w != nil {
			g.closeErr = g.w.Close()
		}
		g.state = Done
	})
	return g.closeErr
}

// Run initializes the generator, streams all time-steps and finalizes,
// closing the writer whether or not an error occurred.
func (g *Generator) Run(ctx context.Context, nProcs int) (err error) {
	defer func() {
		if cerr := g.Finalize(); err == nil && cerr != nil {
			err = fmt.Errorf("inflow: closing writer: %w", cerr)
		}
	}()
	if err = g.Initialize(); err != nil {
		return err
	}
	return g.Stream(ctx, nProcs)
}
