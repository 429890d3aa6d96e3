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

	"github.com/ctessum/unit"
	"gonum.org/v1/gonum/floats"
)

// meter2PerSecond is the dimension of kinematic viscosity.
var meter2PerSecond = unit.Dimensions{unit.LengthDim: 2, unit.TimeDim: -1}

func velocity(v float64) *unit.Unit { return unit.New(v, unit.MeterPerSecond) }
func length(v float64) *unit.Unit { return unit.New(v, unit.Meter) }
func viscosity(v float64) *unit.Unit { return unit.New(v, meter2PerSecond) }

// reynolds returns u*l/nu. It returns an error unless the arguments
// combine to a dimensionless number.
func reynolds(u, l, nu *unit.Unit) (float64, error) {
	re := unit.Div(unit.Mul(u, l), nu)
	if err := re.Check(unit.Dimless); err != nil {
		return 0, fmt.Errorf("inflow: Reynolds number of %v, %v and %v: %w", u, l, nu, err)
	}
	return re.Value(), nil
}

// PhysicalConfig holds the physical description of the precursor and the
// desired inflow boundary layer.
type PhysicalConfig struct {
	// NuInflow and NuPrecursor are the kinematic viscosities.
	NuInflow, NuPrecursor float64

	// Delta99 is the desired 99% thickness of the inflow boundary layer.
	Delta99 float64

	// Ue is the desired free-stream velocity of the inflow.
	Ue float64

	// UTauInflow is the inflow friction velocity. It is ignored when
	// ComputeUTauInflow is set, in which case it is estimated from a skin
	// friction correlation.
	UTauInflow        float64
	ComputeUTauInflow bool

	UTauPrecursor float64

	// YOrigin is the wall-normal position of the wall on the inflow plane.
	YOrigin float64

	// PrecursorOuterLength scales the precursor wall-normal coordinate to
	// its outer coordinate eta. Zero selects the precursor's 99%
	// thickness. A value of 1 takes the precursor coordinate as already
	// outer-scaled, as for a channel of unit half-height.
	PrecursorOuterLength float64

	Blend Blend
}

// Validate checks that the physical parameters are usable.
func (c PhysicalConfig) Validate() error {
	positive := []struct {
		key string
		v   float64
	}{
		{"nuInflow", c.NuInflow},
		{"nuPrecursor", c.NuPrecursor},
		{"delta99", c.Delta99},
		{"Ue", c.Ue},
		{"uTauPrecursor", c.UTauPrecursor},
	}
	for _, p := range positive {
		if !(p.v > 0) {
			return &ConfigurationError{Key: p.key, Value: fmt.Sprint(p.v), Msg: "must be positive"}
		}
	}
	if c.PrecursorOuterLength < 0 || math.IsNaN(c.PrecursorOuterLength) {
		return &ConfigurationError{Key: "precursorOuterLength", Value: fmt.Sprint(c.PrecursorOuterLength),
			Msg: "must not be negative"}
	}
	if !c.ComputeUTauInflow && !(c.UTauInflow > 0) {
		return &ConfigurationError{Key: "uTauInflow", Value: fmt.Sprint(c.UTauInflow),
			Msg: "must be positive or \"compute\""}
	}
	return c.Blend.Validate()
}

// SkinFriction returns the skin friction coefficient of a turbulent
// boundary layer at Reynolds number reDelta based on the 99% thickness.
func SkinFriction(reDelta float64) float64 {
	return 0.02 * math.Pow(reDelta, -1.0/6)
}

// Params holds the boundary-layer parameters of the precursor and the
// inflow, and the coordinates used to rescale one onto the other.
type Params struct {
	NuInflow, NuPrecursor float64

	Delta99Inflow, Delta99Precursor float64

	// OuterLengthPrecursor is the length that EtaPrec is normalised by.
	OuterLengthPrecursor float64

	// Ue is the free-stream velocity of the inflow and U0 that of the
	// precursor.
	Ue, U0 float64

	UTauInflow, UTauPrecursor float64

	// Gamma is UTauInflow / UTauPrecursor.
	Gamma float64

	ReDeltaInflow float64
	CfInflow      float64

	ReTauInflow, ReTauPrecursor float64

	// ReThetaInflow and ReDeltaStarInflow describe the rescaled mean
	// profile and are zero until it has been computed.
	ReThetaInflow, ReDeltaStarInflow float64

	// NInfl is the number of inflow points inside the precursor's range
	// of eta and NInner the number at or below the blending region.
	NInfl, NInner int

	Blend Blend

	// YInflow holds the inflow wall-normal coordinates relative to the wall.
	YInflow []float64

	EtaPrec, YPlusPrec []float64
	EtaInfl, YPlusInfl []float64
}

// ComputeParams derives the rescaling parameters from the physical
// configuration, the precursor mean profile sampled at yPrec and the
// inflow wall-normal coordinates yInfl.
func ComputeParams(c PhysicalConfig, mean *Profile, yPrec, yInfl []float64) (*Params, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if len(yPrec) != mean.Len() {
		return nil, &GridMismatchError{GridPoints: len(yPrec), ProfilePoints: mean.Len()}
	}
	if len(yInfl) == 0 {
		return nil, &DataRangeError{Quantity: "inflow grid", Msg: "no wall-normal points"}
	}
	deltaPrec, err := Delta99(yPrec, mean.UX)
	if err != nil {
		return nil, err
	}

	p := &Params{
		NuInflow:             c.NuInflow,
		NuPrecursor:          c.NuPrecursor,
		Delta99Inflow:        c.Delta99,
		Delta99Precursor:     deltaPrec,
		OuterLengthPrecursor: c.PrecursorOuterLength,
		Ue:                   c.Ue,
		U0:                   floats.Max(mean.UX),
		UTauInflow:           c.UTauInflow,
		UTauPrecursor:        c.UTauPrecursor,
		Blend:                c.Blend,
	}
	if p.OuterLengthPrecursor == 0 {
		p.OuterLengthPrecursor = deltaPrec
	}
	if p.ReDeltaInflow, err = reynolds(velocity(c.Ue), length(c.Delta99), viscosity(c.NuInflow)); err != nil {
		return nil, err
	}
	p.CfInflow = SkinFriction(p.ReDeltaInflow)
	if c.ComputeUTauInflow {
		p.UTauInflow = c.Ue * math.Sqrt(p.CfInflow/2)
	}
	p.Gamma = p.UTauInflow / p.UTauPrecursor
	if p.ReTauInflow, err = reynolds(velocity(p.UTauInflow), length(p.Delta99Inflow), viscosity(p.NuInflow)); err != nil {
		return nil, err
	}
	if p.ReTauPrecursor, err = reynolds(velocity(p.UTauPrecursor), length(p.Delta99Precursor), viscosity(p.NuPrecursor)); err != nil {
		return nil, err
	}

	p.YInflow = make([]float64, len(yInfl))
	for i, y := range yInfl {
		p.YInflow[i] = y - c.YOrigin
	}
	if yMax := floats.Max(p.YInflow); p.Delta99Inflow > yMax {
		return nil, &DataRangeError{Quantity: "delta99",
			Msg: fmt.Sprintf("the desired thickness %g is larger than the height of the inflow grid %g", p.Delta99Inflow, yMax)}
	}

	p.EtaPrec = make([]float64, len(yPrec))
	p.YPlusPrec = make([]float64, len(yPrec))
	for i, y := range yPrec {
		p.EtaPrec[i] = y / p.OuterLengthPrecursor
		p.YPlusPrec[i] = y * p.UTauPrecursor / p.NuPrecursor
	}
	p.EtaInfl = make([]float64, len(yInfl))
	p.YPlusInfl = make([]float64, len(yInfl))
	for i, y := range p.YInflow {
		p.EtaInfl[i] = y / p.Delta99Inflow
		p.YPlusInfl[i] = y * p.UTauInflow / p.NuInflow
	}

	etaMax := p.EtaPrec[len(p.EtaPrec)-1]
	for _, eta := range p.EtaInfl {
		if eta <= etaMax {
			p.NInfl++
		}
		if eta <= p.Blend.EtaInner {
			p.NInner++
		}
	}
	return p, nil
}

// ExceedsPrecursor reports whether the inflow friction Reynolds number is
// larger than the precursor's, in which case the inner layer of the
// inflow is not resolved by the precursor data.
func (p *Params) ExceedsPrecursor() bool {
	return p.ReTauInflow > p.ReTauPrecursor
}

// SetIntegralThicknesses computes the momentum and displacement thickness
// Reynolds numbers of the rescaled mean streamwise profile uInfl.
func (p *Params) SetIntegralThicknesses(uInfl []float64) error {
	theta, err := Theta(p.YInflow, uInfl)
	if err != nil {
		return err
	}
	deltaStar, err := DeltaStar(p.YInflow, uInfl)
	if err != nil {
		return err
	}
	if p.ReThetaInflow, err = reynolds(velocity(p.Ue), length(theta), viscosity(p.NuInflow)); err != nil {
		return err
	}
	p.ReDeltaStarInflow, err = reynolds(velocity(p.Ue), length(deltaStar), viscosity(p.NuInflow))
	return err
}
