// Copyright (c) 2021-2026 Rustam Gilyazov and Contributors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package timerange converts free-text time range phrases, such as
// "last 48 hours" or "this week", into the lower bound of the range.
package timerange

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// DefaultRange is the range used when the phrase is not recognised.
const DefaultRange = "last 7 days"

const defaultDays = 7

var (
	hoursRe = regexp.MustCompile(`last (\d+) hours?`)
	daysRe  = regexp.MustCompile(`last (\d+) days?`)
)

// floor is the earliest lower bound returned by Parse.
var floor = time.Unix(0, 0)

// calendar computes the day, week and month boundaries.
var calendar = &now.Config{WeekStartDay: time.Sunday}

// Parse returns the lower bound of the time range described by phrase,
// relative to t.  Calendar boundaries (day, week, month) are computed in
// t's location.  Parse never fails: unrecognised phrases, including the
// empty string, resolve to t minus seven days.
//
// Rules are tried in order and only the first match applies:
//
//	last N hour(s)   t - N hours
//	last N day(s)    t - N days
//	*today*          start of the current day
//	*week*           start of the current week (Sunday)
//	*month*          start of the current month
//
// The "week" and "month" rules match anywhere in the phrase, so "next month"
// resolves to the start of this month.  Counts reaching past the Unix epoch
// resolve to the epoch.
func Parse(t time.Time, phrase string) time.Time {
	p := strings.ToLower(strings.TrimSpace(phrase))

	if n, ok := count(hoursRe, p); ok {
		return hoursAgo(t, n)
	}
	if n, ok := count(daysRe, p); ok {
		return daysAgo(t, n)
	}
	switch {
	case strings.Contains(p, "today"):
		return calendar.With(t).BeginningOfDay()
	case strings.Contains(p, "week"):
		return calendar.With(t).BeginningOfWeek()
	case strings.Contains(p, "month"):
		return calendar.With(t).BeginningOfMonth()
	}
	return t.AddDate(0, 0, -defaultDays)
}

// Oldest returns the lower bound of the range in whole seconds since the
// Unix epoch, relative to the current time.
func Oldest(phrase string) int64 {
	return Parse(time.Now(), phrase).Unix()
}

// count returns the integer captured by re in s.  Counts that do not fit
// into int are returned as math.MaxInt.
func count(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return math.MaxInt, true
		}
		return 0, false
	}
	return n, true
}

// hoursAgo returns t minus n hours, or the floor if that is earlier.
func hoursAgo(t time.Time, n int) time.Time {
	if limit := t.Sub(floor) / time.Hour; limit >= 0 && int64(n) > int64(limit) {
		return floor.In(t.Location())
	}
	return t.Add(-time.Duration(n) * time.Hour)
}

// daysAgo returns t minus n calendar days, or the floor if that is earlier.
func daysAgo(t time.Time, n int) time.Time {
	limit := t.Sub(floor) / (24 * time.Hour)
	if limit >= 0 && int64(n) > int64(limit)+1 {
		return floor.In(t.Location())
	}
	if d := t.AddDate(0, 0, -n); !d.Before(floor) || limit < 0 {
		return d
	}
	return floor.In(t.Location())
}
