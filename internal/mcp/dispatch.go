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

package mcp

// In this file: transport independent tool dispatch and the response records.

import (
	"context"
	"log/slog"

	"github.com/slackfeedback/feedbackmcp/internal/feedback"
	"github.com/slackfeedback/feedbackmcp/internal/timerange"
)

// Tool names.
const (
	ToolStakeholderFeedback = "get_stakeholder_feedback"
	ToolThreadContext       = "get_thread_context"
	ToolSearchFeedback      = "search_feedback"
)

// Argument names.
const (
	argTimeRange   = "time_range"
	argStakeholder = "stakeholder"
	argChannelID   = "channel_id"
	argThreadTS    = "thread_ts"
	argQuery       = "query"
)

// Gateway is the subset of the feedback gateway used by the Dispatcher.
type Gateway interface {
	FetchRecentMessages(ctx context.Context, timeRange string, scope feedback.Scope, channelID string) ([]feedback.Message, error)
	FetchThread(ctx context.Context, channelID, threadTS string) ([]feedback.Message, error)
	SearchMessages(ctx context.Context, query string, timeRange string) ([]feedback.Message, error)
}

var _ Gateway = (*feedback.Gateway)(nil)

// UnknownToolError is returned by Dispatch for a tool name that is not
// registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return "unknown tool: " + e.Name
}

// Dispatcher routes tool invocations to the gateway and shapes the results.
// It is shared by all sessions and holds no mutable state.
type Dispatcher struct {
	gw Gateway
	lg *slog.Logger
}

// NewDispatcher creates a new Dispatcher.  If lg is nil, slog.Default() is
// used.
func NewDispatcher(gw Gateway, lg *slog.Logger) *Dispatcher {
	if lg == nil {
		lg = slog.Default()
	}
	return &Dispatcher{gw: gw, lg: lg}
}

// Dispatch executes the tool name with the arguments args and returns one
// of *FeedbackResult, *ThreadResult or *SearchResult.  The call is not
// cancelled when ctx is: once started, it runs to completion.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (any, error) {
	ctx = context.WithoutCancel(ctx)
	switch name {
	case ToolStakeholderFeedback:
		return d.stakeholderFeedback(ctx, args)
	case ToolThreadContext:
		return d.threadContext(ctx, args)
	case ToolSearchFeedback:
		return d.searchFeedback(ctx, args)
	default:
		d.lg.WarnContext(ctx, "unknown tool", "tool", name)
		return nil, &UnknownToolError{Name: name}
	}
}

// FeedbackMessage is a message in the get_stakeholder_feedback output.
type FeedbackMessage struct {
	Author         string `json:"author"`
	UserID         string `json:"user_id"`
	Timestamp      string `json:"timestamp"`
	Text           string `json:"text"`
	ThreadTS       string `json:"thread_ts,omitempty"`
	Channel        string `json:"channel"`
	Permalink      string `json:"permalink,omitempty"`
	IsThreadParent bool   `json:"is_thread_parent"`
}

// FeedbackResult is the get_stakeholder_feedback output.
type FeedbackResult struct {
	Messages    []FeedbackMessage `json:"messages"`
	Count       int               `json:"count"`
	TimeRange   string            `json:"time_range"`
	Stakeholder string            `json:"stakeholder"`
}

func (d *Dispatcher) stakeholderFeedback(ctx context.Context, args map[string]any) (*FeedbackResult, error) {
	var (
		timeRange   = optString(args, argTimeRange, timerange.DefaultRange)
		stakeholder = optString(args, argStakeholder, string(feedback.ScopeAll))
		channelID   = optString(args, argChannelID, "")
	)
	msgs, err := d.gw.FetchRecentMessages(ctx, timeRange, feedback.Scope(stakeholder), channelID)
	if err != nil {
		return nil, err
	}
	res := &FeedbackResult{
		Messages:    make([]FeedbackMessage, 0, len(msgs)),
		Count:       len(msgs),
		TimeRange:   timeRange,
		Stakeholder: stakeholder,
	}
	for _, m := range msgs {
		res.Messages = append(res.Messages, FeedbackMessage{
			Author:         m.Username,
			UserID:         m.User,
			Timestamp:      m.Timestamp,
			Text:           m.Text,
			ThreadTS:       m.ThreadTimestamp,
			Channel:        m.Channel,
			Permalink:      m.Permalink,
			IsThreadParent: m.IsThreadParent(),
		})
	}
	return res, nil
}

// ThreadMessage is a message in the get_thread_context output.
type ThreadMessage struct {
	Author    string `json:"author"`
	UserID    string `json:"user_id"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
	Permalink string `json:"permalink,omitempty"`
}

// ThreadResult is the get_thread_context output.
type ThreadResult struct {
	Thread       []ThreadMessage `json:"thread"`
	MessageCount int             `json:"message_count"`
	ParentTS     string          `json:"parent_ts"`
}

func (d *Dispatcher) threadContext(ctx context.Context, args map[string]any) (*ThreadResult, error) {
	var (
		channelID = reqString(args, argChannelID)
		threadTS  = reqString(args, argThreadTS)
	)
	msgs, err := d.gw.FetchThread(ctx, channelID, threadTS)
	if err != nil {
		return nil, err
	}
	res := &ThreadResult{
		Thread:       make([]ThreadMessage, 0, len(msgs)),
		MessageCount: len(msgs),
		ParentTS:     threadTS,
	}
	for _, m := range msgs {
		res.Thread = append(res.Thread, ThreadMessage{
			Author:    m.Username,
			UserID:    m.User,
			Timestamp: m.Timestamp,
			Text:      m.Text,
			Permalink: m.Permalink,
		})
	}
	return res, nil
}

// SearchMessage is a message in the search_feedback output.
type SearchMessage struct {
	Author    string `json:"author"`
	UserID    string `json:"user_id"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
	ThreadTS  string `json:"thread_ts,omitempty"`
	Channel   string `json:"channel"`
	Permalink string `json:"permalink,omitempty"`
}

// SearchResult is the search_feedback output.
type SearchResult struct {
	Results   []SearchMessage `json:"results"`
	Count     int             `json:"count"`
	Query     string          `json:"query"`
	TimeRange string          `json:"time_range,omitempty"`
}

func (d *Dispatcher) searchFeedback(ctx context.Context, args map[string]any) (*SearchResult, error) {
	var (
		query     = reqString(args, argQuery)
		timeRange = optString(args, argTimeRange, "")
	)
	msgs, err := d.gw.SearchMessages(ctx, query, timeRange)
	if err != nil {
		return nil, err
	}
	res := &SearchResult{
		Results:   make([]SearchMessage, 0, len(msgs)),
		Count:     len(msgs),
		Query:     query,
		TimeRange: timeRange,
	}
	for _, m := range msgs {
		res.Results = append(res.Results, SearchMessage{
			Author:    m.Username,
			UserID:    m.User,
			Timestamp: m.Timestamp,
			Text:      m.Text,
			ThreadTS:  m.ThreadTimestamp,
			Channel:   m.Channel,
			Permalink: m.Permalink,
		})
	}
	return res, nil
}

// optString returns the string argument name, or def if the argument is
// absent, empty or not a string.
func optString(args map[string]any, name string, def string) string {
	if s, ok := args[name].(string); ok && s != "" {
		return s
	}
	return def
}

// reqString returns the string argument name.  It is not validated: a
// missing argument is passed on as an empty string and is reported by the
// Slack API.
func reqString(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}
