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
	"context"
	"reflect"
	"testing"
)

func TestSelect(t *testing.T) {
	ctx := context.Background()
	s := Select("t2m", "time")
	if s.Name() != "select:t2m,time" {
		t.Errorf("name: %s", s.Name())
	}

	tbl := &Table{Columns: []string{"time", "t2m", "tp"}, Rows: [][]string{{"1", "280", "0"}}}
	have, err := s.Apply(ctx, tbl)
	if err != nil {
		t.Fatal(err)
	}
	want := &Table{Columns: []string{"t2m", "time"}, Rows: [][]string{{"280", "1"}}}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}

	g := &Grid{Dim: "time", Coords: []float64{1}, Vars: map[string][]float64{"t2m": {280}, "tp": {0}}}
	gHave, err := Select("tp").Apply(ctx, g)
	if err != nil {
		t.Fatal(err)
	}
	if names := gHave.(*Grid).VarNames(); !reflect.DeepEqual(names, []string{"tp"}) {
		t.Errorf("variables: %v", names)
	}

	if _, err := Select("sp").Apply(ctx, tbl); err == nil {
		t.Error("expected an error for a missing column")
	}
	if _, err := Select("sp").Apply(ctx, g); err == nil {
		t.Error("expected an error for a missing variable")
	}
}

func TestSelect_noSharing(t *testing.T) {
	ctx := context.Background()
	s := Select("t2m")

	tbl := &Table{Columns: []string{"t2m"}, Rows: [][]string{{"280"}}}
	a, err := s.Apply(ctx, tbl)
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Apply(ctx, tbl)
	if err != nil {
		t.Fatal(err)
	}
	a.(*Table).Columns[0] = "changed"
	if c := b.(*Table).Columns[0]; c != "t2m" {
		t.Errorf("selected tables share columns: %s", c)
	}

	g := &Grid{
		Dim:    "time",
		Coords: []float64{1, 2},
		Vars:   map[string][]float64{"t2m": {280, 281}},
		Attrs:  map[string]string{"units": "K"},
	}
	d, err := s.Apply(ctx, g)
	if err != nil {
		t.Fatal(err)
	}
	o := d.(*Grid)
	o.Coords[0] = 0
	o.Vars["t2m"][0] = 0
	o.Attrs["units"] = "C"
	want := &Grid{
		Dim:    "time",
		Coords: []float64{1, 2},
		Vars:   map[string][]float64{"t2m": {280, 281}},
		Attrs:  map[string]string{"units": "K"},
	}
	if !reflect.DeepEqual(g, want) {
		t.Errorf("input grid was modified: %+v", g)
	}
}
