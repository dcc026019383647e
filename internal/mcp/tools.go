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

// In this file: MCP tool definitions and the tool call handler.

import (
	"context"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/slackfeedback/feedbackmcp/internal/feedback"
	"github.com/slackfeedback/feedbackmcp/internal/timerange"
)

// tools returns all MCP tools that this server exposes.
func (s *Server) tools() []mcpsrv.ServerTool {
	return []mcpsrv.ServerTool{
		{Tool: toolStakeholderFeedback(), Handler: s.handleTool},
		{Tool: toolThreadContext(), Handler: s.handleTool},
		{Tool: toolSearchFeedback(), Handler: s.handleTool},
	}
}

// ─── get_stakeholder_feedback ─────────────────────────────────────────────────

func toolStakeholderFeedback() mcplib.Tool {
	return mcplib.NewTool(ToolStakeholderFeedback,
		mcplib.WithDescription(`Pull product feedback messages from the primary stakeholder and others in the feedback channel.

Supports flexible date filtering like "last 48 hours", "last 7 days", "today", "this week".`),
		mcplib.WithString(argTimeRange,
			mcplib.Description(`Natural language time range (e.g., "last 48 hours", "last 7 days", "today", "this week"). Defaults to "last 7 days".`),
			mcplib.DefaultString(timerange.DefaultRange),
		),
		mcplib.WithString(argStakeholder,
			mcplib.Description(`Filter by stakeholder. "primary-stakeholder" for only the primary stakeholder's messages, "all" for everyone in the channel. Defaults to "all".`),
			mcplib.Enum(string(feedback.ScopePrimaryStakeholder), string(feedback.ScopeAll)),
			mcplib.DefaultString(string(feedback.ScopeAll)),
		),
		mcplib.WithString(argChannelID,
			mcplib.Description("Optional: Specific channel ID to search. If not provided, uses the default feedback channel."),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
}

// ─── get_thread_context ───────────────────────────────────────────────────────

func toolThreadContext() mcplib.Tool {
	return mcplib.NewTool(ToolThreadContext,
		mcplib.WithDescription("Given a message timestamp, retrieve the full conversation thread including all replies. Useful for understanding the context around a specific piece of feedback."),
		mcplib.WithString(argChannelID,
			mcplib.Description("The channel ID containing the thread"),
			mcplib.Required(),
		),
		mcplib.WithString(argThreadTS,
			mcplib.Description("The timestamp of the parent message (from the timestamp or thread_ts field of a message)"),
			mcplib.Required(),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
}

// ─── search_feedback ──────────────────────────────────────────────────────────

func toolSearchFeedback() mcplib.Tool {
	return mcplib.NewTool(ToolSearchFeedback,
		mcplib.WithDescription("Search feedback messages by keyword. Returns matching messages with optional time range filtering."),
		mcplib.WithString(argQuery,
			mcplib.Description("Search keywords or phrase to find in feedback messages"),
			mcplib.Required(),
		),
		mcplib.WithString(argTimeRange,
			mcplib.Description(`Optional: Natural language time range to filter results (e.g., "last 48 hours", "last 30 days")`),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
}

// handleTool executes the tool call with the dispatcher.  Failures are
// returned as error results, never as protocol errors.
func (s *Server) handleTool(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	res, err := s.disp.Dispatch(ctx, req.Params.Name, req.GetArguments())
	if err != nil {
		s.logger.ErrorContext(ctx, "tool call failed", "tool", req.Params.Name, "error", err)
		return resultErr(err), nil
	}
	return resultJSON(res), nil
}
