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
	"reflect"
	"testing"
)

func TestValueOf(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want Value
	}{
		{name: "string", in: "2021", want: Scalar("2021")},
		{name: "int", in: 2021, want: Scalar("2021")},
		{name: "int64", in: int64(7), want: Scalar("7")},
		{name: "json number", in: float64(12), want: Scalar("12")},
		{name: "fraction", in: 0.25, want: Scalar("0.25")},
		{name: "strings", in: []string{"01", "02"}, want: List("01", "02")},
		{name: "ints", in: []int{1, 2}, want: List("1", "2")},
		{name: "mixed", in: []interface{}{"a", float64(3), int64(4)}, want: List("a", "3", "4")},
		{name: "empty list", in: []interface{}{}, want: List()},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v, err := ValueOf(test.in)
			if err != nil {
				t.Fatal(err)
			}
			if !v.Equal(test.want) {
				t.Errorf("%#v != %#v", v, test.want)
			}
		})
	}
	if _, err := ValueOf([]interface{}{[]interface{}{"a"}}); err == nil {
		t.Error("nested lists should not be accepted")
	}
}

func TestValueJSON(t *testing.T) {
	r := Request{
		"product_type": Scalar("reanalysis"),
		"month":        List("01", "02"),
		"day":          List("01"),
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"day":["01"],"month":["01","02"],"product_type":"reanalysis"}`
	if string(b) != want {
		t.Errorf("%s != %s", b, want)
	}
	if r.String() != want {
		t.Errorf("%s != %s", r.String(), want)
	}
	var r2 Request
	if err := json.Unmarshal(b, &r2); err != nil {
		t.Fatal(err)
	}
	if !r.Equal(r2) {
		t.Errorf("%v != %v", r2, r)
	}
	if r2["day"].IsList() != true || r2["product_type"].IsList() != false {
		t.Error("list and scalar kinds should survive encoding")
	}
}

func TestRequestCopies(t *testing.T) {
	r := Request{"year": Scalar("2020"), "month": List("01", "02")}
	c := r.Clone()
	c["year"] = Scalar("2021")
	if r["year"].String() != "2020" {
		t.Error("Clone should not alias the original")
	}
	items := r["month"].Items()
	items[0] = "12"
	if r["month"].Items()[0] != "01" {
		t.Error("Items should return a copy")
	}
	w := r.With(Request{"month": Scalar("03"), "day": Scalar("01")})
	if !reflect.DeepEqual(w.Keys(), []string{"day", "month", "year"}) {
		t.Errorf("keys: %v", w.Keys())
	}
	if len(r) != 2 || r["month"].Len() != 2 {
		t.Error("With should not modify the original")
	}
}

func TestRequestOf(t *testing.T) {
	r, err := RequestOf(map[string]interface{}{
		"variable": []interface{}{"2m_temperature", "total_precipitation"},
		"year":     int64(2020),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := Request{
		"variable": List("2m_temperature", "total_precipitation"),
		"year":     Scalar("2020"),
	}
	if !r.Equal(want) {
		t.Errorf("%v != %v", r, want)
	}
}
