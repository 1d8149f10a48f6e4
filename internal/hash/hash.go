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

// Package hash computes stable keys for cache lookups.
package hash

import (
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"reflect"

	"github.com/davecgh/go-spew/spew"
)

// Hash returns a hex-encoded 128-bit key for the specified object.
// Equal objects always produce equal keys, regardless of map ordering.
func Hash(object interface{}) string {
	h := fnv.New128a()

	// gob writes maps in random order, so only use it for objects
	// without them.
	if !hasMap(object) {
		e := gob.NewEncoder(h)
		if err := e.Encode(object); err == nil {
			return fmt.Sprintf("%x", h.Sum(nil))
		}
		h.Reset()
	}
	// If there is an error (e.g., there are no exported fields)
	// use spew instead of gob.
	printer := spew.ConfigState{
		Indent:                  " ",
		SortKeys:                true,
		DisableMethods:          true,
		SpewKeys:                true,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
	}
	printer.Fprintf(h, "%#v", object)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// hasMap returns whether the encoding of object could contain a map.
// Interface values are assumed to contain one.
func hasMap(object interface{}) bool {
	return typeHasMap(reflect.TypeOf(object), make(map[reflect.Type]bool))
}

func typeHasMap(t reflect.Type, seen map[reflect.Type]bool) bool {
	if t == nil || seen[t] {
		return false
	}
	seen[t] = true
	switch t.Kind() {
	case reflect.Map, reflect.Interface:
		return true
	case reflect.Ptr, reflect.Slice, reflect.Array:
		return typeHasMap(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if typeHasMap(t.Field(i).Type, seen) {
				return true
			}
		}
	}
	return false
}
