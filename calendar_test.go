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
	"errors"
	"testing"
	"time"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2021, time.January, 31},
		{2021, time.February, 28},
		{2020, time.February, 29},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2021, time.April, 30},
		{2021, time.December, 31},
	}
	for _, test := range tests {
		if n := DaysInMonth(test.year, test.month); n != test.want {
			t.Errorf("%d-%v: %d != %d", test.year, test.month, n, test.want)
		}
	}
}

func TestIsNonEmpty(t *testing.T) {
	tests := []struct {
		name string
		r    Request
		want bool
	}{
		{
			name: "january 31",
			r:    Request{"year": Scalar("2021"), "month": List("01", "02", "03"), "day": List("30", "31")},
			want: true,
		},
		{
			name: "march 30",
			r:    Request{"year": Scalar("2021"), "month": Scalar("03"), "day": Scalar("30")},
			want: true,
		},
		{
			name: "february and april 31",
			r:    Request{"year": Scalar("2021"), "month": List("02", "04"), "day": Scalar("31")},
			want: false,
		},
		{
			name: "february 30 and 31",
			r:    Request{"year": Scalar("2021"), "month": Scalar("02"), "day": List("30", "31")},
			want: false,
		},
		{
			name: "leap day",
			r:    Request{"year": List("2019", "2020"), "month": Scalar("2"), "day": Scalar("29")},
			want: true,
		},
		{
			name: "no leap day",
			r:    Request{"year": List("2019", "2021"), "month": Scalar("02"), "day": Scalar("29")},
			want: false,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ok, err := IsNonEmpty(test.r)
			if err != nil {
				t.Fatal(err)
			}
			if ok != test.want {
				t.Errorf("%v != %v", ok, test.want)
			}
		})
	}
}

func TestIsNonEmptyErrors(t *testing.T) {
	_, err := IsNonEmpty(Request{"year": Scalar("2021"), "month": Scalar("01")})
	if !errors.Is(err, ErrMissingDateKey) {
		t.Errorf("missing day: got %v", err)
	}
	if _, err := IsNonEmpty(Request{"year": Scalar("2021"), "month": Scalar("jan"), "day": Scalar("01")}); err == nil {
		t.Error("non-integer month should be an error")
	}
	if _, err := IsNonEmpty(Request{"year": Scalar("2021"), "month": Scalar("13"), "day": Scalar("01")}); err == nil {
		t.Error("month 13 should be an error")
	}
}
