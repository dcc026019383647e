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

package feedback

import (
	"cmp"
	"net/url"
	"slices"
	"strconv"
)

// tsFloat parses the Slack timestamp.  Unparseable timestamps are treated
// as 0.
func tsFloat(ts string) float64 {
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return 0
	}
	return f
}

// sortNewestFirst sorts messages by timestamp, descending.  Messages with
// equal timestamps keep their relative order.
func sortNewestFirst(msgs []Message) {
	slices.SortStableFunc(msgs, func(a, b Message) int {
		return cmp.Compare(tsFloat(b.Timestamp), tsFloat(a.Timestamp))
	})
}

// threadTSFromPermalink returns the thread_ts query parameter of the
// permalink, i.e.
//
//	https://ora600.slack.com/archives/C01/p1700000100000200?thread_ts=1700000000.000100&cid=C01
//
// returns "1700000000.000100".
func threadTSFromPermalink(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Query().Get("thread_ts")
}
