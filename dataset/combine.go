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

package dataset

import (
	"fmt"

	"github.com/spatialmodel/cdsfetch"
	"github.com/spf13/cast"
)

// Combiner combines Tables and Grids. It implements cdsfetch.Combiner.
type Combiner struct{}

// Align merges Grids with the "join" and "compat" options described in
// the Align function.
func (Combiner) Align(datasets []cdsfetch.Dataset, opts cdsfetch.MergeOptions) (cdsfetch.Dataset, error) {
	join, compat, err := options(opts, "join", "compat")
	if err != nil {
		return nil, err
	}
	grids := make([]*Grid, len(datasets))
	for i, d := range datasets {
		g, ok := d.(*Grid)
		if !ok {
			return nil, fmt.Errorf("dataset: can only align grids but dataset %d is %T", i, d)
		}
		grids[i] = g
	}
	return Align(grids, join, compat)
}

// Concat stacks Tables with the "join" option described in the Concat
// function.
func (Combiner) Concat(datasets []cdsfetch.Dataset, opts cdsfetch.MergeOptions) (cdsfetch.Dataset, error) {
	join, _, err := options(opts, "join", "")
	if err != nil {
		return nil, err
	}
	tables := make([]*Table, len(datasets))
	for i, d := range datasets {
		t, ok := d.(*Table)
		if !ok {
			return nil, fmt.Errorf("dataset: can only concatenate tables but dataset %d is %T", i, d)
		}
		tables[i] = t
	}
	return Concat(tables, join)
}

// options extracts the named string options from opts. Other options
// are rejected.
func options(opts cdsfetch.MergeOptions, names ...string) (a, b string, err error) {
	vals := make([]string, 2)
	for k, v := range opts {
		i := -1
		for j, n := range names {
			if n != "" && n == k {
				i = j
			}
		}
		if i < 0 {
			return "", "", fmt.Errorf("dataset: unsupported merge option %q", k)
		}
		if vals[i], err = cast.ToStringE(v); err != nil {
			return "", "", fmt.Errorf("dataset: merge option %q: %v", k, err)
		}
	}
	return vals[0], vals[1], nil
}
