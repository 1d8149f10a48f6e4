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
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Value is the value of a single request parameter. It is either a scalar
// item or an ordered list of items. Items are stored in their canonical
// string form; integer items are formatted in base 10.
//
// Values are immutable: no method modifies the receiver, and Items returns
// a copy of the underlying items.
type Value struct {
	items []string
	list  bool
}

// Scalar returns a single-item Value.
func Scalar(item string) Value { return Value{items: []string{item}} }

// Int returns a single-item Value holding i.
func Int(i int) Value { return Scalar(strconv.Itoa(i)) }

// List returns a list Value holding the given items in order.
func List(items ...string) Value {
	return Value{items: append([]string{}, items...), list: true}
}

// Ints returns a list Value holding the given integers in order.
func Ints(ints ...int) Value {
	items := make([]string, len(ints))
	for i, v := range ints {
		items[i] = strconv.Itoa(v)
	}
	return Value{items: items, list: true}
}

// ValueOf converts a decoded request value (for example from JSON, TOML
// or YAML) to a Value. Slices become lists; everything else must be
// convertible to a string scalar.
func ValueOf(x interface{}) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t, nil
	case []string:
		return List(t...), nil
	case []int:
		return Ints(t...), nil
	case []interface{}:
		items := make([]string, len(t))
		for i, e := range t {
			s, err := itemString(e)
			if err != nil {
				return Value{}, fmt.Errorf("cdsfetch: list item %d: %v", i, err)
			}
			items[i] = s
		}
		return Value{items: items, list: true}, nil
	default:
		s, err := itemString(x)
		if err != nil {
			return Value{}, fmt.Errorf("cdsfetch: %v", err)
		}
		return Scalar(s), nil
	}
}

func itemString(x interface{}) (string, error) {
	switch t := x.(type) {
	case float64:
		// Decoded JSON numbers are float64; keep whole numbers integral.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10), nil
		}
	case []interface{}, map[string]interface{}, map[interface{}]interface{}:
		return "", fmt.Errorf("unsupported nested value %v", x)
	}
	return cast.ToStringE(x)
}

// IsList returns whether v is a list rather than a scalar.
func (v Value) IsList() bool { return v.list }

// Len returns the number of items in v.
func (v Value) Len() int { return len(v.items) }

// Items returns a copy of the items in v. A scalar has exactly one item.
func (v Value) Items() []string { return append([]string{}, v.items...) }

// Equal returns whether v and o have the same kind and items.
func (v Value) Equal(o Value) bool {
	if v.list != o.list || len(v.items) != len(o.items) {
		return false
	}
	for i := range v.items {
		if v.items[i] != o.items[i] {
			return false
		}
	}
	return true
}

func (v Value) String() string {
	if !v.list && len(v.items) == 1 {
		return v.items[0]
	}
	return "[" + strings.Join(v.items, " ") + "]"
}

// MarshalJSON encodes a scalar as a JSON string and a list as a JSON array.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.list && len(v.items) == 1 {
		return json.Marshal(v.items[0])
	}
	if v.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v.items)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(b []byte) error {
	var x interface{}
	if err := json.Unmarshal(b, &x); err != nil {
		return err
	}
	vv, err := ValueOf(x)
	if err != nil {
		return err
	}
	*v = vv
	return nil
}

// Request is a set of named retrieval parameters.
// Operations in this package never modify a Request they are given;
// they return new ones instead.
type Request map[string]Value

// RequestOf converts a decoded request document to a Request.
func RequestOf(m map[string]interface{}) (Request, error) {
	r := make(Request, len(m))
	for k, x := range m {
		v, err := ValueOf(x)
		if err != nil {
			return nil, fmt.Errorf("cdsfetch: request parameter %q: %v", k, err)
		}
		r[k] = v
	}
	return r, nil
}

// Clone returns a copy of r.
func (r Request) Clone() Request {
	o := make(Request, len(r))
	for k, v := range r {
		o[k] = v
	}
	return o
}

// With returns a copy of r where the parameters in u replace those in r.
func (r Request) With(u Request) Request {
	o := r.Clone()
	for k, v := range u {
		o[k] = v
	}
	return o
}

// Keys returns the parameter names of r in sorted order.
func (r Request) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal returns whether r and o hold the same parameters and values.
func (r Request) Equal(o Request) bool {
	if len(r) != len(o) {
		return false
	}
	for k, v := range r {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// String returns the canonical JSON form of r, with sorted keys.
func (r Request) String() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("%v", map[string]Value(r))
	}
	return string(b)
}
