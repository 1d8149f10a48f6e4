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
	"sort"

	"github.com/ctessum/cdf"
)

// WriteNetCDF writes g to w in NetCDF format. The coordinate values are
// stored in a variable with the same name as the dimension, and missing
// values are stored as NaN.
func WriteNetCDF(w cdf.ReaderWriterAt, g *Grid) error {
	if err := g.check(); err != nil {
		return err
	}
	if len(g.Coords) == 0 {
		return fmt.Errorf("dataset: cannot write a grid with no coordinates to NetCDF")
	}
	if _, ok := g.Vars[g.Dim]; ok {
		return fmt.Errorf("dataset: variable %s has the same name as the dimension", g.Dim)
	}
	n := len(g.Coords)
	h := cdf.NewHeader([]string{g.Dim}, []int{n})
	h.AddVariable(g.Dim, []string{g.Dim}, []float64{0})
	names := g.VarNames()
	for _, name := range names {
		h.AddVariable(name, []string{g.Dim}, []float64{0})
	}
	for _, k := range sortedKeys(g.Attrs) {
		h.AddAttribute("", k, g.Attrs[k])
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("dataset: creating NetCDF header: %v", errs[0])
	}

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("dataset: creating NetCDF file: %v", err)
	}
	write := func(name string, data []float64) error {
		wr := f.Writer(name, []int{0}, []int{n})
		if _, err := wr.Write(data); err != nil {
			return fmt.Errorf("dataset: writing NetCDF variable %s: %v", name, err)
		}
		return nil
	}
	if err := write(g.Dim, g.Coords); err != nil {
		return err
	}
	for _, name := range names {
		if err := write(name, g.Vars[name]); err != nil {
			return err
		}
	}
	return nil
}

// ReadNetCDF reads a Grid written by WriteNetCDF.
func ReadNetCDF(r cdf.ReaderWriterAt) (*Grid, error) {
	f, err := cdf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("dataset: opening NetCDF file: %v", err)
	}
	g := &Grid{Vars: make(map[string][]float64), Attrs: make(map[string]string)}
	for _, a := range f.Header.Attributes("") {
		if s, ok := f.Header.GetAttribute("", a).(string); ok {
			g.Attrs[a] = s
		}
	}
	read := func(name string) ([]float64, error) {
		rd := f.Reader(name, nil, nil)
		buf := rd.Zero(-1)
		if _, err := rd.Read(buf); err != nil {
			return nil, fmt.Errorf("dataset: reading NetCDF variable %s: %v", name, err)
		}
		v, ok := buf.([]float64)
		if !ok {
			return nil, fmt.Errorf("dataset: NetCDF variable %s is %T, not []float64", name, buf)
		}
		return v, nil
	}
	for _, name := range f.Header.Variables() {
		dims := f.Header.Dimensions(name)
		if len(dims) != 1 {
			return nil, fmt.Errorf("dataset: NetCDF variable %s has %d dimensions", name, len(dims))
		}
		if g.Dim == "" {
			g.Dim = dims[0]
		} else if g.Dim != dims[0] {
			return nil, fmt.Errorf("dataset: NetCDF variables have more than one dimension")
		}
		v, err := read(name)
		if err != nil {
			return nil, err
		}
		if name == dims[0] {
			g.Coords = v
		} else {
			g.Vars[name] = v
		}
	}
	return g, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
