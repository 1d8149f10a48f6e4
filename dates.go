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
	"time"
)

// DefaultSwitchDay is the day of the month from which the previous month
// is assumed to be published.
const DefaultSwitchDay = 9

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a month in the form "2006-01". A full date in the form
// "2006-01-02" is also accepted; the day is ignored.
func ParseMonth(s string) (Month, error) {
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthOf(t), nil
		}
	}
	return Month{}, fmt.Errorf("cdsfetch: invalid month %q; the format should be YYYY-MM", s)
}

// MonthOf returns the month that t falls in.
func MonthOf(t time.Time) Month { return Month{Year: t.Year(), Month: t.Month()} }

// First returns the first day of m.
func (m Month) First() time.Time { return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC) }

// Last returns the last day of m.
func (m Month) Last() time.Time {
	return time.Date(m.Year, m.Month, DaysInMonth(m.Year, m.Month), 0, 0, 0, 0, time.UTC)
}

// AddMonths returns the month n months after m. n may be negative.
func (m Month) AddMonths(n int) Month {
	return MonthOf(time.Date(m.Year, m.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC))
}

// Before returns whether m is earlier than o.
func (m Month) Before(o Month) bool {
	return m.Year < o.Year || (m.Year == o.Year && m.Month < o.Month)
}

func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

// StopMonth returns the most recent month whose data can be expected to be
// available on the given day. If the day of the month of today is at least
// switchDay, that is the previous month; otherwise it is the month before.
// A switchDay < 1 is replaced by DefaultSwitchDay.
func StopMonth(today time.Time, switchDay int) Month {
	if switchDay < 1 {
		switchDay = DefaultSwitchDay
	}
	back := 2
	if today.Day() >= switchDay {
		back = 1
	}
	return MonthOf(today).AddMonths(-back)
}

// LeadingMonths returns the selector for the months of the first year of
// the interval [start, stop] when that year is not covered from January.
// It is empty when start is in January, or when start and stop are in the
// same year and stop is not December; TrailingMonths covers that case.
func LeadingMonths(start, stop Month) []Request {
	if start.Month == time.January {
		return nil
	}
	last := time.December
	if start.Year == stop.Year {
		if stop.Month != time.December {
			return nil
		}
		last = stop.Month
	}
	return []Request{dateFragment(Int(start.Year), start.Month, last)}
}

// TrailingMonths returns the selector for the months of the last year of
// the interval [start, stop] when that year is not covered through
// December. If start is in the same year, its month opens the range.
func TrailingMonths(start, stop Month) []Request {
	if stop.Month == time.December {
		return nil
	}
	first := time.January
	if start.Year == stop.Year {
		first = start.Month
	}
	return []Request{dateFragment(Int(stop.Year), first, stop.Month)}
}

// WholeYears returns a single selector for all of the calendar years that
// lie completely within [start, stop], or nothing if there are none.
func WholeYears(start, stop Month) []Request {
	first := start.Year
	if start.Month != time.January {
		first++
	}
	last := stop.Year
	if stop.Month != time.December {
		last--
	}
	if first > last {
		return nil
	}
	years := make([]int, 0, last-first+1)
	for y := first; y <= last; y++ {
		years = append(years, y)
	}
	return []Request{dateFragment(Ints(years...), time.January, time.December)}
}

// DateFragments returns the fewest selectors whose year/month combinations
// cover exactly the months from start through stop: the leading months of
// a partial first year, the whole years, and the trailing months of a
// partial last year, in that order.
// The day parameter of every selector lists all days from 1 through 31;
// days that do not exist are left for IsNonEmpty to resolve.
func DateFragments(start, stop Month) ([]Request, error) {
	if stop.Before(start) {
		return nil, fmt.Errorf("%w: stop %v is before start %v", ErrInvalidInterval, stop, start)
	}
	var o []Request
	o = append(o, LeadingMonths(start, stop)...)
	o = append(o, WholeYears(start, stop)...)
	o = append(o, TrailingMonths(start, stop)...)
	return o, nil
}

func dateFragment(year Value, first, last time.Month) Request {
	months := make([]string, 0, last-first+1)
	for m := first; m <= last; m++ {
		months = append(months, pad2(int(m)))
	}
	days := make([]string, 31)
	for d := range days {
		days[d] = pad2(d + 1)
	}
	return Request{
		YearKey:  year,
		MonthKey: List(months...),
		DayKey:   List(days...),
	}
}

func pad2(i int) string {
	if i < 10 {
		return "0" + strconv.Itoa(i)
	}
	return strconv.Itoa(i)
}

// Interval is a range of months to retrieve.
type Interval struct {
	Start Month

	// Stop is the last month to retrieve. If it is nil, it is computed
	// from the current date with StopMonth.
	Stop *Month

	// SwitchDay is passed to StopMonth when Stop is nil.
	SwitchDay int
}

// Bounds returns the first and last months of the interval, where today
// is used to resolve an unspecified stop month.
func (iv Interval) Bounds(today time.Time) (start, stop Month) {
	if iv.Stop != nil {
		return iv.Start, *iv.Stop
	}
	return iv.Start, StopMonth(today, iv.SwitchDay)
}

// RequestSet is either a single request or a list of requests.
// Its concrete type is Single or Many.
type RequestSet interface {
	Requests() []Request
}

// Single is a RequestSet holding exactly one request.
type Single struct {
	Request Request
}

// Requests implements RequestSet.
func (s Single) Requests() []Request { return []Request{s.Request} }

// Many is a RequestSet holding a list of requests.
type Many []Request

// Requests implements RequestSet.
func (m Many) Requests() []Request { return []Request(m) }

// UpdateRequestDate compiles the interval into date selectors and returns
// a copy of r for each of them with its year, month and day parameters
// replaced. When only one selector is needed the result is a Single;
// otherwise it is Many. today is used to resolve an unspecified stop month.
func UpdateRequestDate(r Request, iv Interval, today time.Time) (RequestSet, error) {
	start, stop := iv.Bounds(today)
	frags, err := DateFragments(start, stop)
	if err != nil {
		return nil, err
	}
	o := make(Many, len(frags))
	for i, f := range frags {
		o[i] = r.With(f)
	}
	if len(o) == 1 {
		return Single{Request: o[0]}, nil
	}
	return o, nil
}
