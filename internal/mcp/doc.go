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

// Package mcp implements the Model Context Protocol (MCP) server that exposes
// the stakeholder feedback in the Slack feedback channel to AI agents.
//
// The server is read-only: the tools only read the channel history, threads
// and search results.
//
// Tool calls are executed by the [Dispatcher], which is independent of the
// transport and is also used by the HTTP test endpoint.  Every call returns
// indented JSON text content; failures are reported as an error result with
// the payload {"error": "<message>"}.
//
// Transport: the server supports three transports selectable at runtime:
//   - sse    – Server-Sent Events (default); GET /sse opens a session and
//     POST /sse carries the client messages.
//   - http   – Streamable HTTP transport at /mcp.
//   - stdio  – standard MCP stdio transport; suitable for local agent
//     integration.
package mcp
