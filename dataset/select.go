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
	"fmt"
	"strings"

	"github.com/spatialmodel/cdsfetch"
)

// Select returns a transform that keeps only the named columns of a
// Table or variables of a Grid, in the given order. Names that are not
// present are an error.
func Select(names ...string) cdsfetch.Transform {
	names = append([]string{}, names...)
	return cdsfetch.NamedTransform("select:"+strings.Join(names, ","), func(ctx context.Context, d cdsfetch.Dataset) (cdsfetch.Dataset, error) {
		switch t := d.(type) {
		case *Table:
			idx := make([]int, len(names))
			for i, n := range names {
				if idx[i] = t.index(n); idx[i] < 0 {
					return nil, fmt.Errorf("dataset: selecting column %q: not present", n)
				}
			}
			o := &Table{Columns: append([]string{}, names...), Rows: make([][]string, len(t.Rows))}
			for i, row := range t.Rows {
				o.Rows[i] = make([]string, len(idx))
				for j, k := range idx {
					o.Rows[i][j] = row[k]
				}
			}
			return o, nil
		case *Grid:
			// The input may be held in a cache, so nothing is shared with it.
			o := &Grid{
				Dim:    t.Dim,
				Coords: append([]float64{}, t.Coords...),
				Vars:   make(map[string][]float64, len(names)),
				Attrs:  make(map[string]string, len(t.Attrs)),
			}
			for k, v := range t.Attrs {
				o.Attrs[k] = v
			}
			for _, n := range names {
				v, ok := t.Vars[n]
				if !ok {
					return nil, fmt.Errorf("dataset: selecting variable %q: not present", n)
				}
				o.Vars[n] = append([]float64{}, v...)
			}
			return o, nil
		default:
			return nil, fmt.Errorf("dataset: cannot select from %T", d)
		}
	})
}
