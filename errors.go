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

import "errors"

var (
	// ErrInvalidSpec is returned when a chunk specification refers to a
	// parameter the request does not have, repeats a parameter, or asks
	// for a chunk size smaller than one.
	ErrInvalidSpec = errors.New("cdsfetch: invalid chunk specification")

	// ErrInvalidOpenMode is returned when a Fetcher is asked to open
	// retrieved data in an unrecognized mode.
	ErrInvalidOpenMode = errors.New("cdsfetch: invalid open mode")

	// ErrInvalidInterval is returned when a date interval stops before it
	// starts.
	ErrInvalidInterval = errors.New("cdsfetch: invalid date interval")

	// ErrMissingDateKey is returned by IsNonEmpty when the request lacks
	// one of the year, month, or day parameters.
	ErrMissingDateKey = errors.New("cdsfetch: missing date parameter")
)
