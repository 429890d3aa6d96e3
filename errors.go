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

import "fmt"

// ConfigurationError reports a missing, malformed or unknown
// configuration value.
type ConfigurationError struct {
	Key   string
	Value string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("inflow: configuration variable %s (%q) %s", e.Key, e.Value, e.Msg)
	}
	return fmt.Sprintf("inflow: configuration variable %s %s", e.Key, e.Msg)
}

// DataRangeError reports data that is physically inconsistent with the
// requested operation, for example a target boundary-layer thickness larger
// than the available grid.
type DataRangeError struct {
	Quantity string
	Msg      string
}

func (e *DataRangeError) Error() string {
	return fmt.Sprintf("inflow: %s: %s", e.Quantity, e.Msg)
}

// GridMismatchError reports a grid whose wall-normal size differs from the
// length of the mean velocity profile.
type GridMismatchError struct {
	GridPoints    int
	ProfilePoints int
}

func (e *GridMismatchError) Error() string {
	return fmt.Sprintf("inflow: the grid has %d points in the wall-normal direction but the mean profile has %d",
		e.GridPoints, e.ProfilePoints)
}
