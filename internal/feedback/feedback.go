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

// Package feedback implements the read-only queries over the feedback
// channel: recent messages, thread replies and keyword search.  Every
// returned message is enriched with the author's display name and the
// message permalink on a best-effort basis.
package feedback

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/slackfeedback/feedbackmcp/internal/client"
)

const (
	// historyLimit is the maximum number of messages fetched from the
	// channel history in one query.
	historyLimit = 1000
	// searchLimit is the maximum number of search matches.
	searchLimit = 100
	// defWorkers is the default number of concurrent enrichment lookups.
	defWorkers = 8
)

const (
	// unknownUser is the user ID of a message that has no author.
	unknownUser = "unknown"
	// unknownUsername is the display name of a message that has no author.
	unknownUsername = "Unknown"
)

// Scope selects the authors of the feedback messages.
type Scope string

const (
	// ScopeAll returns messages from everyone in the channel.
	ScopeAll Scope = "all"
	// ScopePrimaryStakeholder returns only the messages authored by the
	// configured primary stakeholder.
	ScopePrimaryStakeholder Scope = "primary-stakeholder"
)

// Message is a Slack message reshaped for the tool output.
type Message struct {
	User            string `json:"user"`
	Username        string `json:"username"`
	Text            string `json:"text"`
	Timestamp       string `json:"ts"`
	ThreadTimestamp string `json:"thread_ts,omitempty"`
	Channel         string `json:"channel"`
	Permalink       string `json:"permalink,omitempty"`
}

// IsThreadParent returns true if the message is the root of a thread.
func (m Message) IsThreadParent() bool {
	return m.ThreadTimestamp != "" && m.ThreadTimestamp == m.Timestamp
}

// Config holds the identifiers the Gateway operates on.
type Config struct {
	// PrimaryStakeholderID is the user ID of the primary stakeholder.
	PrimaryStakeholderID string
	// FeedbackChannelID is the default channel for the queries.
	FeedbackChannelID string
	// TeamUserIDs is the list of team member user IDs.  It is not used by
	// any query yet.
	TeamUserIDs []string
}

// Gateway runs the feedback queries against the Slack API.  It holds no
// mutable state and is safe for concurrent use.
type Gateway struct {
	client  client.Slack
	cfg     Config
	lg      *slog.Logger
	lim     *rate.Limiter
	workers int
	now     func() time.Time
}

// Option is the signature of the option-setting function.
type Option func(*Gateway)

// WithLogger sets the logger.  If l is nil, slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.lg = l
		}
	}
}

// WithLimiter sets the limiter that paces the enrichment lookups.  If the
// option is not given, the lookups are not paced.
func WithLimiter(lim *rate.Limiter) Option {
	return func(g *Gateway) {
		g.lim = lim
	}
}

// WithWorkers sets the number of concurrent enrichment lookups.  Values
// less than 1 are ignored.
func WithWorkers(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.workers = n
		}
	}
}

// WithClock sets the function that returns the current time, it is used to
// resolve the time ranges.
func WithClock(fn func() time.Time) Option {
	return func(g *Gateway) {
		if fn != nil {
			g.now = fn
		}
	}
}

// New creates a new Gateway that uses cl to call the Slack API.
func New(cl client.Slack, cfg Config, opts ...Option) *Gateway {
	g := &Gateway{
		client:  cl,
		cfg:     cfg,
		lg:      slog.Default(),
		workers: defWorkers,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}
