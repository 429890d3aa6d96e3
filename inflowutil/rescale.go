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

package inflowutil

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/inflow"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Rescale generates the inflow database configured in c.
func Rescale(ctx context.Context, c *RescaleConfig, log logrus.FieldLogger) error {
	newWriter, err := NewWriterFactory(c, log)
	if err != nil {
		return err
	}
	prec, err := NewPrecursorReader(c.Reader, c.ReadPath, c.SampleSurfaceName, c.UMeanFile)
	if err != nil {
		return err
	}
	defer prec.Close()
	inflGrid, err := NewInflowGrid(c.InflowReader, c.InflowReadPath, c.InletPatchName)
	if err != nil {
		return err
	}
	gen, err := inflow.NewGenerator(c.Generator, prec, inflGrid, newWriter, log)
	if err != nil {
		return err
	}
	if err = gen.Run(ctx, c.NProcs); err != nil {
		return err
	}
	if c.ParametersFile != "" {
		if err = writeParameters(c.ParametersFile, gen.Params()); err != nil {
			return err
		}
	}
	if c.ProfilePlot != "" {
		if err = plotProfiles(c.ProfilePlot, gen.Params(), gen.Mean(), gen.MeanInflow()); err != nil {
			return err
		}
	}
	log.WithField("steps", gen.NSteps()).Info("inflow generation finished")
	return nil
}

// parameterSummary is the TOML representation of the boundary-layer
// parameters of a run.
type parameterSummary struct {
	Inflow struct {
		Delta99     float64 `toml:"delta99"`
		Ue          float64 `toml:"Ue"`
		Nu          float64 `toml:"nu"`
		UTau        float64 `toml:"uTau"`
		ReDelta99   float64 `toml:"reDelta99"`
		Cf          float64 `toml:"cf"`
		ReTau       float64 `toml:"reTau"`
		ReTheta     float64 `toml:"reTheta"`
		ReDeltaStar float64 `toml:"reDeltaStar"`
	} `toml:"inflow"`
	Precursor struct {
		Delta99     float64 `toml:"delta99"`
		OuterLength float64 `toml:"outerLength"`
		U0          float64 `toml:"U0"`
		Nu          float64 `toml:"nu"`
		UTau        float64 `toml:"uTau"`
		ReTau       float64 `toml:"reTau"`
	} `toml:"precursor"`
	Rescaling struct {
		Gamma    float64 `toml:"gamma"`
		NInfl    int     `toml:"nInfl"`
		NInner   int     `toml:"nInner"`
		Alpha    float64 `toml:"blendAlpha"`
		B        float64 `toml:"blendB"`
		EtaInner float64 `toml:"etaInner"`
		EtaOuter float64 `toml:"etaOuter"`
	} `toml:"rescaling"`
}

// writeParameters writes a TOML summary of p to path.
func writeParameters(path string, p *inflow.Params) error {
	var s parameterSummary
	s.Inflow.Delta99 = p.Delta99Inflow
	s.Inflow.Ue = p.Ue
	s.Inflow.Nu = p.NuInflow
	s.Inflow.UTau = p.UTauInflow
	s.Inflow.ReDelta99 = p.ReDeltaInflow
	s.Inflow.Cf = p.CfInflow
	s.Inflow.ReTau = p.ReTauInflow
	s.Inflow.ReTheta = p.ReThetaInflow
	s.Inflow.ReDeltaStar = p.ReDeltaStarInflow
	s.Precursor.Delta99 = p.Delta99Precursor
	s.Precursor.OuterLength = p.OuterLengthPrecursor
	s.Precursor.U0 = p.U0
	s.Precursor.Nu = p.NuPrecursor
	s.Precursor.UTau = p.UTauPrecursor
	s.Precursor.ReTau = p.ReTauPrecursor
	s.Rescaling.Gamma = p.Gamma
	s.Rescaling.NInfl = p.NInfl
	s.Rescaling.NInner = p.NInner
	s.Rescaling.Alpha = p.Blend.Alpha
	s.Rescaling.B = p.Blend.B
	s.Rescaling.EtaInner = p.Blend.EtaInner
	s.Rescaling.EtaOuter = p.Blend.EtaOuter

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("inflowutil: writing parameters: %w", err)
	}
	if err = toml.NewEncoder(f).Encode(s); err != nil {
		f.Close()
		return fmt.Errorf("inflowutil: writing parameters: %w", err)
	}
	return f.Close()
}

// plotProfiles plots the precursor and the rescaled mean streamwise
// velocity against the outer coordinate y/delta99 and saves the figure to
// path. The image format is taken from the file extension.
func plotProfiles(path string, p *inflow.Params, prec *inflow.Profile, infl [][2]float64) error {
	pl := plot.New()
	pl.Title.Text = "Mean streamwise velocity"
	pl.X.Label.Text = "U"
	pl.Y.Label.Text = "y/δ99"

	precXY := make(plotter.XYs, prec.Len())
	for i := range precXY {
		precXY[i].X = prec.UX[i]
		precXY[i].Y = p.EtaPrec[i]
	}
	inflXY := make(plotter.XYs, len(infl))
	for i := range inflXY {
		inflXY[i].X = infl[i][0]
		inflXY[i].Y = p.EtaInfl[i]
	}
	if err := plotutil.AddLinePoints(pl, "precursor", precXY, "inflow", inflXY); err != nil {
		return fmt.Errorf("inflowutil: plotting profiles: %w", err)
	}
	if err := pl.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("inflowutil: saving profile plot: %w", err)
	}
	return nil
}
