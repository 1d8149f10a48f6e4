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
	"math"
	"reflect"
	"testing"

	"github.com/kr/pretty"
)

func TestConcat(t *testing.T) {
	a := &Table{Columns: []string{"time", "t2m"}, Rows: [][]string{{"1", "280"}, {"2", "281"}}}
	b := &Table{Columns: []string{"time", "tp"}, Rows: [][]string{{"3", "0.1"}}}

	tests := []struct {
		join string
		want *Table
	}{
		{
			join: "",
			want: &Table{
				Columns: []string{"time", "t2m", "tp"},
				Rows:    [][]string{{"1", "280", ""}, {"2", "281", ""}, {"3", "", "0.1"}},
			},
		},
		{
			join: "inner",
			want: &Table{
				Columns: []string{"time"},
				Rows:    [][]string{{"1"}, {"2"}, {"3"}},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.join, func(t *testing.T) {
			have, err := Concat([]*Table{a, b}, test.join)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(have, test.want) {
				t.Errorf("have %v, want %v", have, test.want)
			}
		})
	}
}

func TestConcat_errors(t *testing.T) {
	a := &Table{Columns: []string{"time"}, Rows: [][]string{{"1"}}}
	if _, err := Concat([]*Table{a}, "left"); err == nil {
		t.Error("expected an error for an invalid join")
	}
	bad := &Table{Columns: []string{"time"}, Rows: [][]string{{"1", "2"}}}
	if _, err := Concat([]*Table{a, bad}, ""); err == nil {
		t.Error("expected an error for a ragged table")
	}
}

func TestTable_Column(t *testing.T) {
	a := &Table{Columns: []string{"time", "t2m"}, Rows: [][]string{{"1", "280"}, {"2", "281"}}}
	have, err := a.Column("t2m")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"280", "281"}; !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
	if _, err := a.Column("tp"); err == nil {
		t.Error("expected an error for a missing column")
	}
	if a.NumRows() != 2 {
		t.Errorf("have %d rows, want 2", a.NumRows())
	}
}

// sameFloats compares slices treating NaNs as equal.
func sameFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) && math.IsNaN(b[i]) {
			continue
		}
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func checkGrid(t *testing.T, have, want *Grid) {
	t.Helper()
	if have.Dim != want.Dim {
		t.Errorf("dim: have %s, want %s", have.Dim, want.Dim)
	}
	if !reflect.DeepEqual(have.Coords, want.Coords) {
		t.Errorf("coords: have %v, want %v", have.Coords, want.Coords)
	}
	if !reflect.DeepEqual(have.VarNames(), want.VarNames()) {
		t.Errorf("variables: have %v, want %v", have.VarNames(), want.VarNames())
	}
	for name, w := range want.Vars {
		if !sameFloats(have.Vars[name], w) {
			t.Errorf("%s: have %v, want %v", name, have.Vars[name], w)
		}
	}
	if !reflect.DeepEqual(have.Attrs, want.Attrs) {
		t.Errorf("attributes: %v", pretty.Diff(have.Attrs, want.Attrs))
	}
}

func TestAlign(t *testing.T) {
	nan := math.NaN()
	a := &Grid{
		Dim:    "time",
		Coords: []float64{1, 2},
		Vars:   map[string][]float64{"t2m": {280, 281}},
		Attrs:  map[string]string{"source": "a"},
	}
	b := &Grid{
		Dim:    "time",
		Coords: []float64{2, 3},
		Vars:   map[string][]float64{"t2m": {281, 282}, "tp": {0.1, 0.2}},
		Attrs:  map[string]string{"source": "b", "units": "K"},
	}

	t.Run("outer", func(t *testing.T) {
		have, err := Align([]*Grid{a, b}, "", "")
		if err != nil {
			t.Fatal(err)
		}
		checkGrid(t, have, &Grid{
			Dim:    "time",
			Coords: []float64{1, 2, 3},
			Vars: map[string][]float64{
				"t2m": {280, 281, 282},
				"tp":  {nan, 0.1, 0.2},
			},
			Attrs: map[string]string{"source": "a", "units": "K"},
		})
	})
	t.Run("inner", func(t *testing.T) {
		have, err := Align([]*Grid{a, b}, "inner", "")
		if err != nil {
			t.Fatal(err)
		}
		checkGrid(t, have, &Grid{
			Dim:    "time",
			Coords: []float64{2},
			Vars: map[string][]float64{
				"t2m": {281},
				"tp":  {0.1},
			},
			Attrs: map[string]string{"source": "a", "units": "K"},
		})
	})
}

func TestAlign_conflict(t *testing.T) {
	a := &Grid{Dim: "time", Coords: []float64{1}, Vars: map[string][]float64{"t2m": {280}}}
	b := &Grid{Dim: "time", Coords: []float64{1}, Vars: map[string][]float64{"t2m": {290}}}
	if _, err := Align([]*Grid{a, b}, "", "no_conflicts"); err == nil {
		t.Error("expected an error for conflicting values")
	}
	have, err := Align([]*Grid{a, b}, "", "override")
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{280}; !reflect.DeepEqual(have.Vars["t2m"], want) {
		t.Errorf("have %v, want %v", have.Vars["t2m"], want)
	}
}

func TestAlign_errors(t *testing.T) {
	a := &Grid{Dim: "time", Coords: []float64{1, 2}, Vars: map[string][]float64{"t2m": {1, 2}}}
	tests := []struct {
		name         string
		grids        []*Grid
		join, compat string
	}{
		{name: "join", grids: []*Grid{a}, join: "left"},
		{name: "compat", grids: []*Grid{a}, compat: "equals"},
		{name: "dim", grids: []*Grid{a, {Dim: "step", Coords: []float64{1}}}},
		{name: "unsorted", grids: []*Grid{a, {Dim: "time", Coords: []float64{2, 1}}}},
		{name: "length", grids: []*Grid{a, {Dim: "time", Coords: []float64{3}, Vars: map[string][]float64{"t2m": {1, 2}}}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Align(test.grids, test.join, test.compat); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
