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

// Package foamfile reads precursor databases stored as OpenFOAM sampled
// surfaces in the foamFile format and writes OpenFOAM vector lists.
package foamfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadVectorField reads an OpenFOAM list of vectors: an optional FoamFile
// header, the number of entries, and the entries one per line between
// parentheses. C and C++ style comments are skipped.
func ReadVectorField(r io.Reader) ([][3]float64, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	var (
		out              [][3]float64
		n                = -1
		header, comment  bool
		inList, complete bool
		line             int
	)
	for s.Scan() {
		line++
		l := strings.TrimSpace(s.Text())
		switch {
		case comment:
			if strings.Contains(l, "*/") {
				comment = false
			}
			continue
		case strings.HasPrefix(l, "/*"):
			comment = !strings.Contains(l, "*/")
			continue
		case header:
			if strings.HasPrefix(l, "}") {
				header = false
			}
			continue
		case l == "" || strings.HasPrefix(l, "//"):
			continue
		case n < 0 && strings.HasPrefix(l, "FoamFile"):
			header = true
			continue
		}
		if n < 0 {
			v, err := strconv.Atoi(l)
			if err != nil {
				return nil, fmt.Errorf("foamfile: line %d: expected the list length but found %q", line, l)
			}
			n = v
			out = make([][3]float64, 0, n)
			continue
		}
		if !inList {
			if l != "(" {
				return nil, fmt.Errorf("foamfile: line %d: expected \"(\" but found %q", line, l)
			}
			inList = true
			continue
		}
		if l == ")" {
			complete = true
			break
		}
		v, err := parseVector(l)
		if err != nil {
			return nil, fmt.Errorf("foamfile: line %d: %v", line, err)
		}
		out = append(out, v)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("foamfile: %w", err)
	}
	if !complete {
		return nil, fmt.Errorf("foamfile: unterminated list")
	}
	if len(out) != n {
		return nil, fmt.Errorf("foamfile: list declares %d entries but holds %d", n, len(out))
	}
	return out, nil
}

func parseVector(l string) ([3]float64, error) {
	var v [3]float64
	if !strings.HasPrefix(l, "(") || !strings.HasSuffix(l, ")") {
		return v, fmt.Errorf("malformed vector %q", l)
	}
	f := strings.Fields(l[1 : len(l)-1])
	if len(f) != 3 {
		return v, fmt.Errorf("vector %q does not have three components", l)
	}
	for i, s := range f {
		var err error
		if v[i], err = strconv.ParseFloat(s, 64); err != nil {
			return v, fmt.Errorf("vector %q: %v", l, err)
		}
	}
	return v, nil
}

// ReadVectorFile reads the vector list in the named file.
func ReadVectorFile(path string) ([][3]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("foamfile: %w", err)
	}
	defer f.Close()
	v, err := ReadVectorField(f)
	if err != nil {
		return nil, fmt.Errorf("%v (%s)", err, path)
	}
	return v, nil
}

// WriteVectorField writes v as an OpenFOAM list of vectors.
func WriteVectorField(w io.Writer, v [][3]float64) error {
	b := bufio.NewWriter(w)
	buf := make([]byte, 0, 80)
	buf = strconv.AppendInt(buf, int64(len(v)), 10)
	buf = append(buf, "\n(\n"...)
	if _, err := b.Write(buf); err != nil {
		return err
	}
	for _, x := range v {
		buf = append(buf[:0], '(')
		for i, c := range x {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, c, 'g', -1, 64)
		}
		buf = append(buf, ")\n"...)
		if _, err := b.Write(buf); err != nil {
			return err
		}
	}
	if _, err := b.WriteString(")\n"); err != nil {
		return err
	}
	return b.Flush()
}

// WriteVectorFile writes v as an OpenFOAM list of vectors to the named file.
func WriteVectorFile(path string, v [][3]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("foamfile: %w", err)
	}
	if err = WriteVectorField(f, v); err != nil {
		f.Close()
		return fmt.Errorf("foamfile: writing %s: %w", path, err)
	}
	return f.Close()
}
