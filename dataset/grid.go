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
	"math"
	"sort"
)

// Grid holds variables defined along a single coordinate dimension,
// for example time.
type Grid struct {
	// Dim is the name of the coordinate dimension.
	Dim string

	// Coords holds the coordinate values in increasing order.
	Coords []float64

	// Vars holds the data variables. Each has one value per coordinate;
	// missing values are NaN.
	Vars map[string][]float64

	// Attrs holds global attributes.
	Attrs map[string]string
}

// VarNames returns the names of the variables in g in sorted order.
func (g *Grid) VarNames() []string {
	names := make([]string, 0, len(g.Vars))
	for n := range g.Vars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (g *Grid) check() error {
	for i := 1; i < len(g.Coords); i++ {
		if !(g.Coords[i] > g.Coords[i-1]) {
			return fmt.Errorf("dataset: %s coordinates are not strictly increasing at index %d", g.Dim, i)
		}
	}
	for n, v := range g.Vars {
		if len(v) != len(g.Coords) {
			return fmt.Errorf("dataset: variable %s has %d values but there are %d %s coordinates", n, len(v), len(g.Coords), g.Dim)
		}
	}
	return nil
}

// Align merges grids by aligning their coordinates.
//
// join selects the output coordinates: "outer" (the default) keeps the
// union of all coordinates and "inner" keeps only the coordinates shared
// by all grids. compat controls what happens when two grids hold
// different values for the same variable and coordinate: "no_conflicts"
// (the default) returns an error and "override" keeps the value from the
// first grid. Attributes are merged with earlier grids taking
// precedence.
func Align(grids []*Grid, join, compat string) (*Grid, error) {
	o := &Grid{Vars: make(map[string][]float64), Attrs: make(map[string]string)}
	if len(grids) == 0 {
		return o, nil
	}
	if compat != "" && compat != "no_conflicts" && compat != "override" {
		return nil, fmt.Errorf("dataset: invalid compat %q; valid options are no_conflicts and override", compat)
	}
	o.Dim = grids[0].Dim
	for i, g := range grids {
		if g.Dim != o.Dim {
			return nil, fmt.Errorf("dataset: grid %d has dimension %s but grid 0 has %s", i, g.Dim, o.Dim)
		}
		if err := g.check(); err != nil {
			return nil, fmt.Errorf("grid %d: %v", i, err)
		}
	}

	var err error
	if o.Coords, err = joinCoords(grids, join); err != nil {
		return nil, err
	}
	pos := make(map[float64]int, len(o.Coords))
	for i, c := range o.Coords {
		pos[c] = i
	}

	for _, g := range grids {
		for k, v := range g.Attrs {
			if _, ok := o.Attrs[k]; !ok {
				o.Attrs[k] = v
			}
		}
		for _, name := range g.VarNames() {
			out, ok := o.Vars[name]
			if !ok {
				out = make([]float64, len(o.Coords))
				for i := range out {
					out[i] = math.NaN()
				}
				o.Vars[name] = out
			}
			for i, c := range g.Coords {
				j, ok := pos[c]
				if !ok {
					continue
				}
				v := g.Vars[name][i]
				switch {
				case math.IsNaN(v):
				case math.IsNaN(out[j]):
					out[j] = v
				case out[j] != v && compat != "override":
					return nil, fmt.Errorf("dataset: conflicting values for %s at %s=%g: %g and %g", name, o.Dim, c, out[j], v)
				}
			}
		}
	}
	return o, nil
}

func joinCoords(grids []*Grid, join string) ([]float64, error) {
	count := make(map[float64]int)
	for _, g := range grids {
		for _, c := range g.Coords {
			count[c]++
		}
	}
	var o []float64
	switch join {
	case "", "outer":
		for c := range count {
			o = append(o, c)
		}
	case "inner":
		for c, n := range count {
			if n == len(grids) {
				o = append(o, c)
			}
		}
	default:
		return nil, fmt.Errorf("dataset: invalid join %q; valid options are outer and inner", join)
	}
	sort.Float64s(o)
	return o, nil
}
