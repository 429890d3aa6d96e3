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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

// Delta99 returns the 99% boundary-layer thickness of the velocity
// profile u sampled at the wall-normal coordinates y: the position where u
// first reaches 0.99 of its maximum, found by linear interpolation between
// the bracketing samples.
func Delta99(y, u []float64) (float64, error) {
	if err := checkProfile("delta99", y, u); err != nil {
		return 0, err
	}
	uMax := floats.Max(u)
	if uMax <= 0 {
		return 0, &DataRangeError{Quantity: "delta99", Msg: "the velocity profile has no positive values"}
	}
	target := 0.99 * uMax
	k := 0
	for ; k < len(u); k++ {
		if u[k] >= target {
			break
		}
	}
	if k == 0 {
		return 0, &DataRangeError{Quantity: "delta99",
			Msg: "the first sample already exceeds 99% of the maximum velocity, so the thickness cannot be bracketed"}
	}
	return y[k-1] + (y[k]-y[k-1])*(target-u[k-1])/(u[k]-u[k-1]), nil
}

// Theta returns the momentum thickness of the profile u sampled at y,
// using the maximum of u as the free-stream velocity.
func Theta(y, u []float64) (float64, error) {
	if err := checkProfile("theta", y, u); err != nil {
		return 0, err
	}
	uInf := floats.Max(u)
	if uInf == 0 {
		return 0, nil
	}
	f := make([]float64, len(u))
	for i, v := range u {
		f[i] = v / uInf * (1 - v/uInf)
	}
	return integrate.Trapezoidal(y, f), nil
}

// DeltaStar returns the displacement thickness of the profile u sampled at y,
// using the maximum of u as the free-stream velocity.
func DeltaStar(y, u []float64) (float64, error) {
	if err := checkProfile("delta*", y, u); err != nil {
		return 0, err
	}
	uInf := floats.Max(u)
	if uInf == 0 {
		return 0, nil
	}
	f := make([]float64, len(u))
	for i, v := range u {
		f[i] = 1 - v/uInf
	}
	return integrate.Trapezoidal(y, f), nil
}

// checkProfile validates the preconditions of the integration and
// interpolation routines, which panic on bad input.
func checkProfile(quantity string, y, u []float64) error {
	if len(y) != len(u) {
		return &DataRangeError{Quantity: quantity,
			Msg: fmt.Sprintf("coordinate length %d does not match profile length %d", len(y), len(u))}
	}
	if len(y) < 2 {
		return &DataRangeError{Quantity: quantity, Msg: "at least two samples are required"}
	}
	if err := checkIncreasing(quantity, y); err != nil {
		return err
	}
	return nil
}

func checkIncreasing(quantity string, y []float64) error {
	for i := 1; i < len(y); i++ {
		if !(y[i] > y[i-1]) {
			return &DataRangeError{Quantity: quantity,
				Msg: fmt.Sprintf("coordinates are not strictly increasing at index %d (%g, %g)", i, y[i-1], y[i])}
		}
	}
	return nil
}
