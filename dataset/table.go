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

// Package dataset holds the tables and coordinate grids that retrieved
// data is opened as, along with the ways of combining them.
package dataset

import (
	"encoding/gob"
	"fmt"
)

func init() {
	// Results are cached on disk using gob.
	gob.Register(&Table{})
	gob.Register(&Grid{})
}

// Table is a set of rows with named columns.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NumRows returns the number of rows in t.
func (t *Table) NumRows() int { return len(t.Rows) }

// Column returns the values of the named column, or an error if t has no
// such column.
func (t *Table) Column(name string) ([]string, error) {
	j := t.index(name)
	if j < 0 {
		return nil, fmt.Errorf("dataset: table has no column %q", name)
	}
	o := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		o[i] = row[j]
	}
	return o, nil
}

func (t *Table) index(name string) int {
	for j, c := range t.Columns {
		if c == name {
			return j
		}
	}
	return -1
}

// check makes sure every row has one value per column.
func (t *Table) check() error {
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("dataset: table row %d has %d values but there are %d columns", i, len(row), len(t.Columns))
		}
	}
	return nil
}

// Concat stacks the rows of tables in order.
//
// The "join" option selects the output columns: "outer" (the default)
// keeps every column that appears in any table, in order of first
// appearance, leaving missing values empty; "inner" keeps only the
// columns shared by all tables.
func Concat(tables []*Table, join string) (*Table, error) {
	o := new(Table)
	if len(tables) == 0 {
		return o, nil
	}
	switch join {
	case "", "outer":
		seen := make(map[string]bool)
		for _, t := range tables {
			for _, c := range t.Columns {
				if !seen[c] {
					seen[c] = true
					o.Columns = append(o.Columns, c)
				}
			}
		}
	case "inner":
		for _, c := range tables[0].Columns {
			shared := true
			for _, t := range tables[1:] {
				if t.index(c) < 0 {
					shared = false
					break
				}
			}
			if shared {
				o.Columns = append(o.Columns, c)
			}
		}
	default:
		return nil, fmt.Errorf("dataset: invalid join %q; valid options are outer and inner", join)
	}

	for i, t := range tables {
		if err := t.check(); err != nil {
			return nil, fmt.Errorf("table %d: %v", i, err)
		}
		idx := make([]int, len(o.Columns))
		for j, c := range o.Columns {
			idx[j] = t.index(c)
		}
		for _, row := range t.Rows {
			newRow := make([]string, len(o.Columns))
			for j, k := range idx {
				if k >= 0 {
					newRow[j] = row[k]
				}
			}
			o.Rows = append(o.Rows, newRow)
		}
	}
	return o, nil
}
