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

// Package cdsfetch splits large, parameterized data retrieval requests into
// smaller requests that respect server-side limits, retrieves the pieces
// (optionally through a cache), and recombines the partial results into a
// single dataset.
//
// Requests are flat maps from parameter names to values. They can be split
// along any subset of their parameters with SplitRequest, and date ranges can
// be compiled into year/month/day selectors with UpdateRequestDate.
// Fragments that cannot denote a real calendar date (for example February
// 30th) are dropped along the way. Fetcher retrieves and combines the
// resulting fragments.
package cdsfetch

// Version gives the version number.
const Version = "0.3.0"
