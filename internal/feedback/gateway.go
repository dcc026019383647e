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

// In this file: feedback queries.

import (
	"context"
	"runtime/trace"
	"strconv"

	"github.com/rusq/slack"

	"github.com/slackfeedback/feedbackmcp/internal/timerange"
)

// FetchRecentMessages returns the messages posted to the channel within
// timeRange, newest first.  If channelID is empty, the feedback channel is
// used.  With ScopePrimaryStakeholder only the primary stakeholder's messages
// are returned; any other scope returns all messages.
func (g *Gateway) FetchRecentMessages(ctx context.Context, timeRange string, scope Scope, channelID string) ([]Message, error) {
	ctx, task := trace.NewTask(ctx, "FetchRecentMessages")
	defer task.End()

	oldest := timerange.Parse(g.now(), timeRange).Unix()
	channel := channelID
	if channel == "" {
		channel = g.cfg.FeedbackChannelID
	}
	lg := g.lg.With("channel_id", channel, "oldest", oldest, "scope", scope)

	resp, err := g.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channel,
		Oldest:    strconv.FormatInt(oldest, 10),
		Inclusive: true,
		Limit:     historyLimit,
	})
	if err != nil {
		lg.ErrorContext(ctx, "error fetching messages", "error", err)
		return nil, &FetchError{Op: opFeedback, Err: err}
	}
	if resp == nil || len(resp.Messages) == 0 {
		return []Message{}, nil
	}

	msgs := make([]Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		if scope == ScopePrimaryStakeholder && m.User != g.cfg.PrimaryStakeholderID {
			continue
		}
		msgs = append(msgs, fromSlack(m, channel))
	}
	lg.DebugContext(ctx, "fetched messages", "total", len(resp.Messages), "retained", len(msgs))

	g.enrich(ctx, msgs, true)
	sortNewestFirst(msgs)
	return msgs, nil
}

// FetchThread returns the thread with the root message threadTS in the order
// returned by the API.
func (g *Gateway) FetchThread(ctx context.Context, channelID, threadTS string) ([]Message, error) {
	ctx, task := trace.NewTask(ctx, "FetchThread")
	defer task.End()

	lg := g.lg.With("channel_id", channelID, "thread_ts", threadTS)

	replies, _, _, err := g.client.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: threadTS,
	})
	if err != nil {
		lg.ErrorContext(ctx, "error fetching thread", "error", err)
		return nil, &FetchError{Op: opThread, Err: err}
	}

	msgs := make([]Message, 0, len(replies))
	for _, m := range replies {
		msgs = append(msgs, fromSlack(m, channelID))
	}
	lg.DebugContext(ctx, "fetched thread", "count", len(msgs))

	g.enrich(ctx, msgs, true)
	return msgs, nil
}

// SearchMessages searches the feedback channel for query and returns the
// matches, newest first.  If timeRange is not empty, matches older than the
// start of the range are dropped.
func (g *Gateway) SearchMessages(ctx context.Context, query string, timeRange string) ([]Message, error) {
	ctx, task := trace.NewTask(ctx, "SearchMessages")
	defer task.End()

	q := searchQuery(g.cfg.FeedbackChannelID, query)
	lg := g.lg.With("query", q)

	params := slack.NewSearchParameters()
	params.Count = searchLimit
	sm, err := g.client.SearchMessagesContext(ctx, q, params)
	if err != nil {
		lg.ErrorContext(ctx, "error searching messages", "error", err)
		return nil, &FetchError{Op: opSearch, Err: err}
	}
	if sm == nil || len(sm.Matches) == 0 {
		return []Message{}, nil
	}

	var oldest float64
	if timeRange != "" {
		oldest = float64(timerange.Parse(g.now(), timeRange).Unix())
	}
	msgs := make([]Message, 0, len(sm.Matches))
	for _, m := range sm.Matches {
		if timeRange != "" && tsFloat(m.Timestamp) < oldest {
			continue
		}
		msgs = append(msgs, fromSearch(m))
	}
	lg.DebugContext(ctx, "search complete", "matches", len(sm.Matches), "retained", len(msgs))

	g.enrich(ctx, msgs, false)
	sortNewestFirst(msgs)
	return msgs, nil
}

// searchQuery restricts query to the channel.
func searchQuery(channelID, query string) string {
	return "in:<#" + channelID + "> " + query
}

// fromSlack converts the API message.  The username is resolved later.
func fromSlack(m slack.Message, channelID string) Message {
	msg := Message{
		User:            m.User,
		Text:            m.Text,
		Timestamp:       m.Timestamp,
		ThreadTimestamp: m.ThreadTimestamp,
		Channel:         channelID,
	}
	if msg.User == "" {
		msg.User = unknownUser
		msg.Username = unknownUsername
	}
	return msg
}

// fromSearch converts the search match.  Matches carry the username and the
// permalink, the thread timestamp is only available in the permalink.
func fromSearch(m slack.SearchMessage) Message {
	msg := Message{
		User:            m.User,
		Username:        m.Username,
		Text:            m.Text,
		Timestamp:       m.Timestamp,
		ThreadTimestamp: threadTSFromPermalink(m.Permalink),
		Channel:         m.Channel.ID,
		Permalink:       m.Permalink,
	}
	if msg.User == "" {
		msg.User = unknownUser
		if msg.Username == "" {
			msg.Username = unknownUsername
		}
	}
	return msg
}
