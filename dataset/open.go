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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/spatialmodel/cdsfetch"
)

// JSONOpener opens JSON documents as Tables or Grids. Raw data may be a
// []byte or an io.Reader. It implements cdsfetch.Opener.
//
// Tables are encoded as {"columns": [...], "rows": [[...], ...]} and Grids
// as {"dim": "time", "coords": [...], "vars": {"name": [...]},
// "attrs": {...}}, where null variable values are missing.
type JSONOpener struct{}

type jsonTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type jsonGrid struct {
	Dim    string                `json:"dim"`
	Coords []float64             `json:"coords"`
	Vars   map[string][]*float64 `json:"vars"`
	Attrs  map[string]string     `json:"attrs,omitempty"`
}

// Open implements cdsfetch.Opener.
func (JSONOpener) Open(ctx context.Context, raw cdsfetch.RawHandle, mode cdsfetch.OpenMode) (cdsfetch.Dataset, error) {
	var r io.Reader
	switch t := raw.(type) {
	case []byte:
		r = bytes.NewReader(t)
	case io.Reader:
		r = t
	default:
		return nil, fmt.Errorf("dataset: cannot open %T", raw)
	}
	d := json.NewDecoder(r)
	switch mode {
	case cdsfetch.OpenTable:
		var t jsonTable
		if err := d.Decode(&t); err != nil {
			return nil, fmt.Errorf("dataset: decoding table: %v", err)
		}
		o := &Table{Columns: t.Columns, Rows: t.Rows}
		if err := o.check(); err != nil {
			return nil, err
		}
		return o, nil
	case cdsfetch.OpenDataset:
		var g jsonGrid
		if err := d.Decode(&g); err != nil {
			return nil, fmt.Errorf("dataset: decoding grid: %v", err)
		}
		o := &Grid{Dim: g.Dim, Coords: g.Coords, Vars: make(map[string][]float64), Attrs: g.Attrs}
		for name, vals := range g.Vars {
			v := make([]float64, len(vals))
			for i, x := range vals {
				if x == nil {
					v[i] = math.NaN()
				} else {
					v[i] = *x
				}
			}
			o.Vars[name] = v
		}
		if err := o.check(); err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("%w %q", cdsfetch.ErrInvalidOpenMode, mode)
	}
}

// WriteJSON writes d in the format read by JSONOpener.
func WriteJSON(w io.Writer, d cdsfetch.Dataset) error {
	e := json.NewEncoder(w)
	switch t := d.(type) {
	case *Table:
		return e.Encode(jsonTable{Columns: t.Columns, Rows: t.Rows})
	case *Grid:
		g := jsonGrid{Dim: t.Dim, Coords: t.Coords, Vars: make(map[string][]*float64), Attrs: t.Attrs}
		for name, vals := range t.Vars {
			v := make([]*float64, len(vals))
			for i := range vals {
				if !math.IsNaN(vals[i]) {
					v[i] = &vals[i]
				}
			}
			g.Vars[name] = v
		}
		return e.Encode(g)
	default:
		return fmt.Errorf("dataset: cannot write %T as JSON", d)
	}
}
