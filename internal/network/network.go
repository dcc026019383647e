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

// Package network paces outgoing Slack API calls.  It never retries: a call
// that fails, including one that was rate limited by Slack, is reported to the
// caller as is.
package network

import (
	"context"
	"runtime/trace"

	"golang.org/x/time/rate"
)

// Wait blocks until lim permits an event or ctx is done.  A nil limiter never
// blocks.
func Wait(ctx context.Context, lim *rate.Limiter) error {
	if lim == nil {
		return nil
	}
	var err error
	trace.WithRegion(ctx, "network.Wait", func() {
		err = lim.Wait(ctx)
	})
	return err
}
