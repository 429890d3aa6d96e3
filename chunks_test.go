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

import "testing"

func TestChunksAndOffsets(t *testing.T) {
	for n := 0; n <= 50; n++ {
		for p := 1; p <= 12; p++ {
			chunks, offsets := ChunksAndOffsets(n, p)
			if len(chunks) != p || len(offsets) != p {
				t.Fatalf("n=%d, p=%d: got %d chunks and %d offsets", n, p, len(chunks), len(offsets))
			}
			if offsets[0] != 0 {
				t.Errorf("n=%d, p=%d: first offset %d", n, p, offsets[0])
			}
			sum := 0
			for k, c := range chunks {
				sum += c
				if c != n/p && c != (n+p-1)/p {
					t.Errorf("n=%d, p=%d: chunk %d has size %d", n, p, k, c)
				}
				if k > 0 && offsets[k] != offsets[k-1]+chunks[k-1] {
					t.Errorf("n=%d, p=%d: offset %d is %d", n, p, k, offsets[k])
				}
				if k > 0 && c > chunks[k-1] {
					t.Errorf("n=%d, p=%d: chunk %d is larger than the one before", n, p, k)
				}
			}
			if sum != n {
				t.Errorf("n=%d, p=%d: chunks sum to %d", n, p, sum)
			}
		}
	}
}

func TestChunksAndOffsetsExample(t *testing.T) {
	chunks, offsets := ChunksAndOffsets(10, 4)
	wantChunks := []int{3, 3, 2, 2}
	wantOffsets := []int{0, 3, 6, 8}
	for i := range wantChunks {
		if chunks[i] != wantChunks[i] || offsets[i] != wantOffsets[i] {
			t.Fatalf("got chunks %v offsets %v, want %v %v", chunks, offsets, wantChunks, wantOffsets)
		}
	}
}

func TestChunksAndOffsetsPanics(t *testing.T) {
	for _, c := range [][2]int{{10, 0}, {-1, 3}} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("n=%d, p=%d: expected panic", c[0], c[1])
				}
			}()
			ChunksAndOffsets(c[0], c[1])
		}()
	}
}

func TestProcRange(t *testing.T) {
	const n, size = 23, 5
	owned := make([]int, n)
	for rank := 0; rank < size; rank++ {
		begin, end := Proc{Rank: rank, Size: size}.Range(n)
		for i := begin; i < end; i++ {
			owned[i]++
		}
	}
	for i, c := range owned {
		if c != 1 {
			t.Errorf("item %d is owned by %d workers", i, c)
		}
	}
}
