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

// Command inflow converts precursor boundary-layer databases and
// generates turbulent inflow boundary conditions from them.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/inflow/inflowutil"
)

func main() {
	if err := inflowutil.Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
