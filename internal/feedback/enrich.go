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

// In this file: best-effort username and permalink enrichment.

import (
	"context"
	"runtime/trace"

	"github.com/rusq/slack"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/slackfeedback/feedbackmcp/internal/network"
)

// enrich fills in the usernames of msgs, and, if withPermalink is set, the
// permalinks.  Lookups run concurrently, bounded by the number of workers.
// Failed lookups leave fallback values in place and never fail the query.
func (g *Gateway) enrich(ctx context.Context, msgs []Message, withPermalink bool) {
	if len(msgs) == 0 {
		return
	}
	defer trace.StartRegion(ctx, "enrich").End()

	var (
		eg errgroup.Group
		sf singleflight.Group
	)
	eg.SetLimit(g.workers)
	for i := range msgs {
		m := &msgs[i]
		eg.Go(func() error {
			if m.Username == "" {
				m.Username = g.username(ctx, &sf, m.User)
			}
			if withPermalink && m.Permalink == "" {
				m.Permalink = g.permalink(ctx, m.Channel, m.Timestamp)
			}
			return nil
		})
	}
	_ = eg.Wait() // tasks never return errors
}

// username resolves the display name of the user: the real name, or the
// handle, or the ID itself if the lookup fails.
func (g *Gateway) username(ctx context.Context, sf *singleflight.Group, userID string) string {
	v, _, _ := sf.Do(userID, func() (any, error) {
		if err := network.Wait(ctx, g.lim); err != nil {
			g.lg.WarnContext(ctx, "error fetching user info", "user_id", userID, "error", err)
			return userID, nil
		}
		u, err := g.client.GetUserInfoContext(ctx, userID)
		if err != nil {
			g.lg.WarnContext(ctx, "error fetching user info", "user_id", userID, "error", err)
			return userID, nil
		}
		return displayName(u, userID), nil
	})
	return v.(string)
}

func displayName(u *slack.User, fallback string) string {
	switch {
	case u == nil:
		return fallback
	case u.RealName != "":
		return u.RealName
	case u.Name != "":
		return u.Name
	default:
		return fallback
	}
}

// permalink returns the permalink of the message, or an empty string if it
// can't be obtained.
func (g *Gateway) permalink(ctx context.Context, channelID, ts string) string {
	if err := network.Wait(ctx, g.lim); err != nil {
		g.lg.DebugContext(ctx, "permalink skipped", "channel_id", channelID, "ts", ts, "error", err)
		return ""
	}
	link, err := g.client.GetPermalinkContext(ctx, &slack.PermalinkParameters{Channel: channelID, Ts: ts})
	if err != nil {
		g.lg.DebugContext(ctx, "error fetching permalink", "channel_id", channelID, "ts", ts, "error", err)
		return ""
	}
	return link
}
