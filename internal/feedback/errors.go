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

// FetchError is returned when the Slack API call behind a query fails.
type FetchError struct {
	Op  string // operation, i.e. "fetch feedback"
	Err error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return "failed to " + e.Op
	}
	return "failed to " + e.Op + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

const (
	opFeedback = "fetch feedback"
	opThread   = "fetch thread"
	opSearch   = "search feedback"
)
