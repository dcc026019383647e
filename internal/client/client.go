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

// Package client defines the subset of the Slack Web API used by the
// feedback gateway and provides the production implementation.
package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/rusq/slack"
)

//go:generate mockgen -destination mock_client/mock_client.go . Slack

// Slack is an interface that defines the methods that a Slack client should provide.
type Slack interface {
	AuthTestContext(ctx context.Context) (response *slack.AuthTestResponse, err error)
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) (msgs []slack.Message, hasMore bool, nextCursor string, err error)
	SearchMessagesContext(ctx context.Context, query string, params slack.SearchParameters) (*slack.SearchMessages, error)
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
	GetPermalinkContext(ctx context.Context, params *slack.PermalinkParameters) (string, error)
}

var _ Slack = (*Client)(nil)

// Client wraps *slack.Client.  All Slack interface methods are promoted from
// the embedded *slack.Client.
type Client struct {
	*slack.Client
}

type options struct {
	httpClient *http.Client
	apiURL     string
	debug      bool
}

type Option func(*options)

// WithHTTPClient sets the HTTP client used for the API calls.
func WithHTTPClient(cl *http.Client) Option {
	return func(o *options) {
		if cl != nil {
			o.httpClient = cl
		}
	}
}

// WithAPIURL overrides the Slack API URL.  Empty value keeps the default.
func WithAPIURL(u string) Option {
	return func(o *options) {
		if u != "" && !strings.HasSuffix(u, "/") {
			u += "/"
		}
		o.apiURL = u
	}
}

// WithDebug enables the slack library debug output.
func WithDebug(b bool) Option {
	return func(o *options) {
		o.debug = b
	}
}

// New creates a new Client that presents token to the Slack API.  It does
// not make any API calls.
func New(token string, opts ...Option) *Client {
	opt := options{
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(&opt)
	}
	sopts := []slack.Option{
		slack.OptionHTTPClient(opt.httpClient),
		slack.OptionDebug(opt.debug),
	}
	if opt.apiURL != "" {
		sopts = append(sopts, slack.OptionAPIURL(opt.apiURL))
	}
	return &Client{
		Client: slack.New(token, sopts...),
	}
}
