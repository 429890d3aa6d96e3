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

package foamfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spatialmodel/inflow"
)

// ReadProfile reads a mean velocity profile from whitespace-separated
// columns: the wall-normal coordinate, the mean streamwise velocity and
// optionally the mean wall-normal velocity. Blank lines and lines
// starting with '#' are skipped.
func ReadProfile(r io.Reader) (*inflow.Profile, error) {
	p := new(inflow.Profile)
	s := bufio.NewScanner(r)
	cols := 0
	for line := 1; s.Scan(); line++ {
		l := strings.TrimSpace(s.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		f := strings.Fields(l)
		if cols == 0 {
			cols = len(f)
			if cols != 2 && cols != 3 {
				return nil, fmt.Errorf("foamfile: mean profile line %d has %d columns, want 2 or 3", line, cols)
			}
		}
		if len(f) != cols {
			return nil, fmt.Errorf("foamfile: mean profile line %d has %d columns, want %d", line, len(f), cols)
		}
		var v [3]float64
		for i, x := range f {
			var err error
			if v[i], err = strconv.ParseFloat(x, 64); err != nil {
				return nil, fmt.Errorf("foamfile: mean profile line %d: %v", line, err)
			}
		}
		p.Y = append(p.Y, v[0])
		p.UX = append(p.UX, v[1])
		p.UY = append(p.UY, v[2])
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("foamfile: %w", err)
	}
	if p.Len() < 2 {
		return nil, fmt.Errorf("foamfile: mean profile has %d points", p.Len())
	}
	return p, nil
}

// ReadProfileFile reads the mean velocity profile in the named file.
func ReadProfileFile(path string) (*inflow.Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("foamfile: %w", err)
	}
	defer f.Close()
	p, err := ReadProfile(f)
	if err != nil {
		return nil, fmt.Errorf("%v (%s)", err, path)
	}
	return p, nil
}
