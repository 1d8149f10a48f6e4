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
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Reserved request parameters that identify dates.
const (
	YearKey  = "year"
	MonthKey = "month"
	DayKey   = "day"
)

// EnsureList returns the items of v as a list, so that a scalar becomes a
// single-element list.
func EnsureList(v Value) []string { return v.Items() }

// DaysInMonth returns the number of days in the given month of the
// given year in the proleptic Gregorian calendar.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsNonEmpty returns whether any combination of the year, month and day
// values in r denotes a real calendar date. For example, a request for
// days 30 and 31 of February and April is empty, but adding January makes
// it non-empty.
// An error is returned if r is missing one of the date parameters or if
// any of their items is not an integer.
func IsNonEmpty(r Request) (bool, error) {
	years, err := dateItems(r, YearKey)
	if err != nil {
		return false, err
	}
	months, err := dateItems(r, MonthKey)
	if err != nil {
		return false, err
	}
	days, err := dateItems(r, DayKey)
	if err != nil {
		return false, err
	}
	for _, y := range years {
		for _, m := range months {
			if m < 1 || m > 12 {
				return false, fmt.Errorf("cdsfetch: month %d is out of range", m)
			}
			n := DaysInMonth(y, time.Month(m))
			for _, d := range days {
				if d <= n {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

// hasDateKeys returns whether r holds all of the parameters needed to
// check it with IsNonEmpty.
func hasDateKeys(r Request) bool {
	for _, k := range []string{YearKey, MonthKey, DayKey} {
		if _, ok := r[k]; !ok {
			return false
		}
	}
	return true
}

func dateItems(r Request, key string) ([]int, error) {
	v, ok := r[key]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrMissingDateKey, key)
	}
	items := EnsureList(v)
	o := make([]int, len(items))
	for i, s := range items {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("cdsfetch: parameter %s: %q is not an integer", key, s)
		}
		o[i] = n
	}
	return o, nil
}
