/*
Copyright © 2023 the cdsfetch authors.
This file is part of cdsfetch.

cdsfetch is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

cdsfetch is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with cdsfetch.  If not, see <http://www.gnu.org/licenses/>.
*/

package cdsfetch

import (
	"fmt"
	"strconv"
	"strings"
)

// Chunk specifies that parameter Param should be split into groups of
// Size values.
type Chunk struct {
	Param string
	Size  int
}

// ChunkSpec specifies how a request should be split. Parameters are split
// in the order they are listed.
type ChunkSpec []Chunk

func (cs ChunkSpec) String() string {
	s := make([]string, len(cs))
	for i, c := range cs {
		s[i] = c.Param + "=" + strconv.Itoa(c.Size)
	}
	return strings.Join(s, ",")
}

// check makes sure every chunked parameter exists in r, appears only once
// and has a positive chunk size.
func (cs ChunkSpec) check(r Request) error {
	seen := make(map[string]struct{}, len(cs))
	for _, c := range cs {
		if _, ok := r[c.Param]; !ok {
			return fmt.Errorf("%w: parameter %q is not in the request", ErrInvalidSpec, c.Param)
		}
		if _, ok := seen[c.Param]; ok {
			return fmt.Errorf("%w: parameter %q is repeated", ErrInvalidSpec, c.Param)
		}
		if c.Size < 1 {
			return fmt.Errorf("%w: chunk size for %q is %d but should be >0", ErrInvalidSpec, c.Param, c.Size)
		}
		seen[c.Param] = struct{}{}
	}
	return nil
}

// BuildChunks splits the items of v into consecutive groups of size items,
// where the last group may be shorter. If size is 1, each item is returned
// on its own as a scalar rather than as a single-item list.
func BuildChunks(v Value, size int) ([]Value, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: chunk size is %d but should be >0", ErrInvalidSpec, size)
	}
	items := EnsureList(v)
	if size == 1 {
		o := make([]Value, len(items))
		for i, item := range items {
			o[i] = Scalar(item)
		}
		return o, nil
	}
	o := make([]Value, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		o = append(o, List(items[i:end]...))
	}
	return o, nil
}

// SplitRequest splits r into smaller requests along the parameters in cs.
// The output holds one request for every combination of chunks, in
// cartesian product order with the last parameter in cs varying fastest.
// Parameters that are not in cs are copied unchanged into every output
// request. If r holds year, month and day parameters, combinations that
// cannot denote a real date are dropped.
//
// If cs is empty, the output holds a single copy of r.
func SplitRequest(r Request, cs ChunkSpec) ([]Request, error) {
	if len(cs) == 0 {
		return []Request{r.Clone()}, nil
	}
	if err := cs.check(r); err != nil {
		return nil, err
	}
	chunks := make([][]Value, len(cs))
	for i, c := range cs {
		var err error
		chunks[i], err = BuildChunks(r[c.Param], c.Size)
		if err != nil {
			return nil, err
		}
		if len(chunks[i]) == 0 {
			return nil, nil
		}
	}
	prune := hasDateKeys(r)

	var o []Request
	idx := make([]int, len(cs))
	for {
		out := r.Clone()
		for i, c := range cs {
			out[c.Param] = chunks[i][idx[i]]
		}
		keep := true
		if prune {
			var err error
			if keep, err = IsNonEmpty(out); err != nil {
				return nil, err
			}
		}
		if keep {
			o = append(o, out)
		}
		if !increment(idx, chunks) {
			return o, nil
		}
	}
}

// increment advances idx to the next combination, with the last position
// changing fastest. It returns false once all combinations are exhausted.
func increment(idx []int, chunks [][]Value) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < len(chunks[i]) {
			return true
		}
		idx[i] = 0
	}
	return false
}

// SplitRequestNested splits r into one request per value of the parameters
// in groups. Each group holds parameters that are split together: every
// combination of their values becomes a separate request, with each
// parameter set to a single value. Groups are split recursively from first
// to last, dropping requests that cannot denote a real date as soon as
// they appear. If groups is empty, the output holds a single copy of r.
func SplitRequestNested(r Request, groups [][]string) ([]Request, error) {
	if len(groups) == 0 {
		return []Request{r.Clone()}, nil
	}
	group := groups[0]
	cs := make(ChunkSpec, len(group))
	for i, p := range group {
		cs[i] = Chunk{Param: p, Size: 1}
	}
	split, err := SplitRequest(r, cs)
	if err != nil {
		return nil, err
	}
	var o []Request
	for _, s := range split {
		nested, err := SplitRequestNested(s, groups[1:])
		if err != nil {
			return nil, err
		}
		o = append(o, nested...)
	}
	return o, nil
}

// Batched splits requests into consecutive batches of n requests, where
// the last batch may be shorter. It is intended for drivers that run a
// Fetcher once per batch.
func Batched(requests []Request, n int) ([][]Request, error) {
	if n < 1 {
		return nil, fmt.Errorf("cdsfetch: batch size is %d but should be >0", n)
	}
	var o [][]Request
	for i := 0; i < len(requests); i += n {
		end := i + n
		if end > len(requests) {
			end = len(requests)
		}
		o = append(o, requests[i:end])
	}
	return o, nil
}
