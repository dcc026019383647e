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

import (
	"encoding/json"
	"errors"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/rusq/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/slackfeedback/feedbackmcp/internal/client/mock_client"
)

// toolReq builds a CallToolRequest for the tool name with the given
// argument map.
func toolReq(name string, args map[string]any) mcplib.CallToolRequest {
	req := mcplib.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// firstText returns the text of the first TextContent in the result.
func firstText(t *testing.T, r *mcplib.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, r.Content, "result has no content")
	txt, ok := r.Content[0].(mcplib.TextContent)
	require.True(t, ok, "first content item is not TextContent")
	return txt.Text
}

// ─── tool definitions ─────────────────────────────────────────────────────────

func TestTools_schemas(t *testing.T) {
	tests := []struct {
		tool         mcplib.Tool
		wantName     string
		wantProps    []string
		wantRequired []string
	}{
		{toolStakeholderFeedback(), ToolStakeholderFeedback, []string{"time_range", "stakeholder", "channel_id"}, nil},
		{toolThreadContext(), ToolThreadContext, []string{"channel_id", "thread_ts"}, []string{"channel_id", "thread_ts"}},
		{toolSearchFeedback(), ToolSearchFeedback, []string{"query", "time_range"}, []string{"query"}},
	}
	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			assert.Equal(t, tt.wantName, tt.tool.Name)
			assert.NotEmpty(t, tt.tool.Description)
			for _, p := range tt.wantProps {
				assert.Contains(t, tt.tool.InputSchema.Properties, p)
			}
			assert.ElementsMatch(t, tt.wantRequired, tt.tool.InputSchema.Required)
		})
	}
}

func TestTools_stakeholderEnum(t *testing.T) {
	prop, ok := toolStakeholderFeedback().InputSchema.Properties["stakeholder"].(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"primary-stakeholder", "all"}, prop["enum"])
	assert.Equal(t, "all", prop["default"])
}

// ─── handleTool ───────────────────────────────────────────────────────────────

func TestHandleTool(t *testing.T) {
	tests := []struct {
		name        string
		req         mcplib.CallToolRequest
		setup       func(ms *mock_client.MockSlack)
		wantIsError bool
		wantText    string // substring expected in the first text content
	}{
		{
			name: "feedback as indented JSON",
			req:  toolReq(ToolStakeholderFeedback, map[string]any{"time_range": "today"}),
			setup: func(ms *mock_client.MockSlack) {
				ms.EXPECT().GetConversationHistoryContext(gomock.Any(), gomock.Any()).Return(&slack.GetConversationHistoryResponse{
					Messages: []slack.Message{slackMsg(testStakeholder, "1710300000.000100", "", "hello")},
				}, nil)
			},
			wantText: "\n  \"count\": 1,\n",
		},
		{
			name: "empty thread",
			req:  toolReq(ToolThreadContext, map[string]any{"channel_id": "C1", "thread_ts": "1.2"}),
			setup: func(ms *mock_client.MockSlack) {
				ms.EXPECT().GetConversationRepliesContext(gomock.Any(), gomock.Any()).Return(nil, false, "", nil)
			},
			wantText: `"thread": []`,
		},
		{
			name:        "unknown tool",
			req:         toolReq("get_weather", nil),
			setup:       func(ms *mock_client.MockSlack) {},
			wantIsError: true,
			wantText:    `"error": "unknown tool: get_weather"`,
		},
		{
			name: "gateway failure",
			req:  toolReq(ToolSearchFeedback, map[string]any{"query": "x"}),
			setup: func(ms *mock_client.MockSlack) {
				ms.EXPECT().SearchMessagesContext(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("ratelimited"))
			},
			wantIsError: true,
			wantText:    `"error": "failed to search feedback: ratelimited"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			d, ms := newTestDispatcher(t, ctrl)
			tt.setup(ms)
			srv := New(d)

			result, err := srv.handleTool(t.Context(), tt.req)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantIsError, result.IsError)
			text := firstText(t, result)
			assert.Contains(t, text, tt.wantText)
			assert.True(t, json.Valid([]byte(text)), "result is not valid JSON: %s", text)
		})
	}
}
