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
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// Kind selects how a profile component is treated by Rescale.
type Kind int

const (
	// Mean treats the component as a mean streamwise velocity. It is
	// rescaled in velocity-defect form in the outer region and set to the
	// free-stream velocity above the boundary layer.
	Mean Kind = iota

	// Fluctuation treats the component as a fluctuation or as a mean
	// component that vanishes in the free stream.
	Fluctuation
)

func (k Kind) String() string {
	switch k {
	case Mean:
		return "mean"
	case Fluctuation:
		return "fluctuation"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Blend is the weighting between inner and outer scaling. The weight
// rises from 0 at EtaInner to 1 at EtaOuter following Lund et al.'s
// hyperbolic tangent with steepness Alpha and offset B.
type Blend struct {
	Alpha    float64
	B        float64
	EtaInner float64
	EtaOuter float64
}

// DefaultBlend holds the blend parameters used unless configured otherwise.
var DefaultBlend = Blend{Alpha: 4, B: 0.2, EtaInner: 0.7, EtaOuter: 1}

// Validate checks that the blend parameters give a well-defined weight.
func (b Blend) Validate() error {
	switch {
	case b.Alpha <= 0:
		return &ConfigurationError{Key: "blendAlpha", Value: fmt.Sprint(b.Alpha), Msg: "must be positive"}
	case b.B <= 0 || b.B >= 0.5:
		return &ConfigurationError{Key: "blendB", Value: fmt.Sprint(b.B), Msg: "must be between 0 and 0.5"}
	case b.EtaInner < 0:
		return &ConfigurationError{Key: "etaInner", Value: fmt.Sprint(b.EtaInner), Msg: "must not be negative"}
	case b.EtaOuter <= b.EtaInner:
		return &ConfigurationError{Key: "etaOuter", Value: fmt.Sprint(b.EtaOuter), Msg: "must be larger than etaInner"}
	}
	return nil
}

// Weight returns the weight of the outer scaling at outer coordinate eta.
func (b Blend) Weight(eta float64) float64 {
	s := (eta - b.EtaInner) / (b.EtaOuter - b.EtaInner)
	switch {
	case s <= 0:
		return 0
	case s >= 1:
		return 1
	}
	return 0.5 * (1 + math.Tanh(b.Alpha*(s-b.B)/((1-2*b.B)*s+b.B))/math.Tanh(b.Alpha))
}

// RescaleInput holds the precursor profile of one component and the
// coordinates that map it onto the inflow plane.
type RescaleInput struct {
	// EtaPrec and YPlusPrec are the outer and inner coordinates of the
	// precursor samples. Both must be strictly increasing.
	EtaPrec, YPlusPrec []float64

	// U is the precursor profile at EtaPrec.
	U []float64

	// EtaInfl and YPlusInfl are the outer and inner coordinates of the
	// inflow points.
	EtaInfl, YPlusInfl []float64

	// NInfl is the number of inflow points inside the precursor's range of
	// eta, and NInner the number with eta at or below the start of the
	// blending region.
	NInfl, NInner int

	// Gamma is the ratio of inflow to precursor friction velocity.
	Gamma float64

	// Ue is the free-stream velocity of the inflow and U0 that of the
	// precursor.
	Ue, U0 float64

	Blend Blend
}

// clamped returns the piecewise-linear interpolant of ys at xs, holding the
// end values outside of [xs[0], xs[len(xs)-1]].
func clamped(xs, ys []float64) func(float64) float64 {
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		panic(err)
	}
	lo, hi := xs[0], xs[len(xs)-1]
	return func(x float64) float64 {
		return pl.Predict(math.Max(lo, math.Min(hi, x)))
	}
}

// Rescale maps one precursor profile component onto the inflow
// coordinates. Points below the blending region use inner scaling, points
// inside the precursor's outer range blend inner and outer scaling, and
// points above it are set to Ue (Mean) or zero (Fluctuation).
func Rescale(in RescaleInput, kind Kind) []float64 {
	inner := clamped(in.YPlusPrec, in.U)
	outer := clamped(in.EtaPrec, in.U)
	out := make([]float64, len(in.EtaInfl))
	for k := range out {
		if k >= in.NInfl {
			if kind == Mean {
				out[k] = in.Ue
			}
			continue
		}
		vInner := in.Gamma * inner(in.YPlusInfl[k])
		if k < in.NInner {
			out[k] = vInner
			continue
		}
		var vOuter float64
		if kind == Mean {
			vOuter = in.Ue - in.Gamma*(in.U0-outer(in.EtaInfl[k]))
		} else {
			vOuter = in.Gamma * outer(in.EtaInfl[k])
		}
		w := 1.0
		if in.NInner > 0 {
			w = in.Blend.Weight(in.EtaInfl[k])
		}
		out[k] = (1-w)*vInner + w*vOuter
	}
	return out
}

// input returns the rescaling input for a precursor component u.
func (p *Params) input(u []float64) RescaleInput {
	return RescaleInput{
		EtaPrec:   p.EtaPrec,
		YPlusPrec: p.YPlusPrec,
		U:         u,
		EtaInfl:   p.EtaInfl,
		YPlusInfl: p.YPlusInfl,
		NInfl:     p.NInfl,
		NInner:    p.NInner,
		Gamma:     p.Gamma,
		Ue:        p.Ue,
		U0:        p.U0,
		Blend:     p.Blend,
	}
}

// RescaleMean rescales the precursor mean profile onto the inflow
// wall-normal coordinates. Each element of the result holds the
// streamwise and wall-normal mean velocity.
func RescaleMean(mean *Profile, p *Params) [][2]float64 {
	ux := Rescale(p.input(mean.UX), Mean)
	uy := Rescale(p.input(mean.UY), Fluctuation)
	out := make([][2]float64, len(ux))
	for i := range out {
		out[i] = [2]float64{ux[i], uy[i]}
	}
	return out
}

// RescaleField rescales a snapshot of velocity fluctuations onto the
// inflow grid. Every precursor spanwise column is rescaled in the
// wall-normal direction, after which each row is interpolated from the
// precursor spanwise positions precZ to those of the inflow grid,
// matching the two planes on their normalised spanwise coordinate.
func RescaleField(fluct *Snapshot, precZ []float64, infl *Grid, p *Params) (*Snapshot, error) {
	nyP, nzP := fluct.Dims()
	if nyP != len(p.EtaPrec) {
		return nil, &GridMismatchError{GridPoints: nyP, ProfilePoints: len(p.EtaPrec)}
	}
	if nzP != len(precZ) {
		return nil, fmt.Errorf("inflow: snapshot has %d spanwise points but the precursor grid has %d", nzP, len(precZ))
	}
	precS, err := normalise(precZ)
	if err != nil {
		return nil, err
	}
	inflS, err := normalise(infl.Spanwise())
	if err != nil {
		return nil, err
	}
	nyI, nzI := infl.Dims()
	if nyI != len(p.EtaInfl) {
		return nil, &GridMismatchError{GridPoints: nyI, ProfilePoints: len(p.EtaInfl)}
	}
	out := NewSnapshot(nyI, nzI)
	dst := out.components()

	col := make([]float64, nyP)
	rows := newArray(nyI, nzP)
	for c, comp := range fluct.components() {
		for j := 0; j < nzP; j++ {
			for i := range col {
				col[i] = comp[i][j]
			}
			for k, v := range Rescale(p.input(col), Fluctuation) {
				rows[k][j] = v
			}
		}
		for k, row := range rows {
			remapSpanwise(row, precS, inflS, dst[c][k])
		}
	}
	return out, nil
}

// normalise maps spanwise positions onto [0, 1].
func normalise(z []float64) ([]float64, error) {
	s := make([]float64, len(z))
	if len(z) < 2 {
		return s, nil
	}
	if err := checkIncreasing("spanwise coordinate", z); err != nil {
		return nil, err
	}
	span := z[len(z)-1] - z[0]
	for i, v := range z {
		s[i] = (v - z[0]) / span
	}
	return s, nil
}

func remapSpanwise(v, from, to, dst []float64) {
	if len(from) == 1 {
		for j := range dst {
			dst[j] = v[0]
		}
		return
	}
	f := clamped(from, v)
	for j, s := range to {
		dst[j] = f(s)
	}
}
