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

	"github.com/sirupsen/logrus"
)

// ChunksAndOffsets divides n work items among p workers. Every worker gets
// either n/p or n/p+1 consecutive items; the first n%p workers get the
// larger share. offsets[k] is the index of the first item of worker k.
// It panics if p < 1 or n < 0.
func ChunksAndOffsets(n, p int) (chunks, offsets []int) {
	if p < 1 {
		panic(fmt.Errorf("inflow: invalid number of workers %d", p))
	}
	if n < 0 {
		panic(fmt.Errorf("inflow: invalid number of items %d", n))
	}
	chunks = make([]int, p)
	offsets = make([]int, p)
	base, rem := n/p, n%p
	for k := range chunks {
		chunks[k] = base
		if k < rem {
			chunks[k]++
		}
		if k > 0 {
			offsets[k] = offsets[k-1] + chunks[k-1]
		}
	}
	return chunks, offsets
}

// Proc is the execution context of one worker: its rank among Size
// workers.
type Proc struct {
	Rank, Size int
}

// Range returns the half-open range [begin, end) of the n work items
// owned by the worker.
func (p Proc) Range(n int) (begin, end int) {
	chunks, offsets := ChunksAndOffsets(n, p.Size)
	return offsets[p.Rank], offsets[p.Rank] + chunks[p.Rank]
}

func (p Proc) String() string {
	return fmt.Sprintf("%d/%d", p.Rank, p.Size)
}

// reportProgress logs the position p of the rank 0 worker in its chunk
// [begin, end), about every percent percent of the chunk. Other ranks
// log nothing.
func reportProgress(log logrus.FieldLogger, proc Proc, p, begin, end, percent int, msg string) {
	if proc.Rank != 0 || end <= begin {
		return
	}
	every := (end - begin) * percent / 100
	if every == 0 {
		every = 1
	}
	if (p-begin)%every != 0 {
		return
	}
	log.WithFields(logrus.Fields{
		"proc":     proc.String(),
		"progress": fmt.Sprintf("%.0f%%", 100*float64(p-begin)/float64(end-begin)),
	}).Info(msg)
}
