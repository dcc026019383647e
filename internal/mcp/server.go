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

// In this file: MCP server construction and transport management.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "slack-feedback-mcp"
	serverVersion = "1.0.0"
)

// Endpoint paths of the HTTP transports.
const (
	SSEPath        = "/sse"
	StreamablePath = "/mcp"
)

// Transport selects how the MCP server communicates with its client.
type Transport string

const (
	// TransportSSE serves MCP sessions over Server-Sent Events: the client
	// opens the stream with GET /sse and posts messages to /sse (default).
	TransportSSE Transport = "sse"
	// TransportHTTP uses the Streamable HTTP transport at /mcp.
	TransportHTTP Transport = "http"
	// TransportStdio uses stdin/stdout, suitable for local agent
	// integrations.
	TransportStdio Transport = "stdio"
)

// Server wraps an MCP server and the tool dispatcher.
type Server struct {
	mcp    *mcpsrv.MCPServer
	disp   *Dispatcher
	logger *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.  A nil logger is ignored and slog.Default()
// is used.
func WithLogger(lg *slog.Logger) Option {
	return func(s *Server) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// New creates a new MCP server that executes the tool calls with disp.  The
// server is populated with all tools but does not start listening until one
// of the Serve* or *Handler methods is called.
func New(disp *Dispatcher, opts ...Option) *Server {
	s := &Server{
		disp:   disp,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	hooks := &mcpsrv.Hooks{}
	hooks.AddOnRegisterSession(func(ctx context.Context, session mcpsrv.ClientSession) {
		s.logger.InfoContext(ctx, "mcp session established", "session_id", session.SessionID())
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, session mcpsrv.ClientSession) {
		s.logger.InfoContext(ctx, "mcp session closed", "session_id", session.SessionID())
	})

	s.mcp = mcpsrv.NewMCPServer(
		serverName,
		serverVersion,
		mcpsrv.WithToolCapabilities(false),
		mcpsrv.WithRecovery(),
		mcpsrv.WithHooks(hooks),
		mcpsrv.WithToolHandlerMiddleware(s.logCalls),
		mcpsrv.WithInstructions(instructions),
	)
	s.mcp.AddTools(s.tools()...)
	return s
}

const instructions = `You are connected to the stakeholder feedback MCP server.

The tools read product feedback posted to the Slack feedback channel:
- get_stakeholder_feedback lists recent feedback messages
- get_thread_context returns a thread with all replies
- search_feedback searches the feedback channel by keyword

All data is read-only. Timestamps use Slack's format (Unix epoch as decimal string, e.g. "1609459200.000001").
`

// Dispatcher returns the tool dispatcher of the server.
func (s *Server) Dispatcher() *Dispatcher {
	return s.disp
}

// ServeStdio runs the MCP server over stdin/stdout until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.serveStdio(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serveStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	srv := mcpsrv.NewStdioServer(s.mcp)
	s.logger.InfoContext(ctx, "mcp server listening on stdio")
	if err := srv.Listen(ctx, r, w); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("mcp stdio server error: %w", err)
	}
	return nil
}

// SSEServer returns the SSE transport.  The client opens the event stream
// with GET SSEPath and posts messages to SSEPath; baseURL is the externally
// visible address of the server, e.g. "http://localhost:3000".
func (s *Server) SSEServer(baseURL string) *mcpsrv.SSEServer {
	return mcpsrv.NewSSEServer(s.mcp,
		mcpsrv.WithBaseURL(baseURL),
		mcpsrv.WithSSEEndpoint(SSEPath),
		mcpsrv.WithMessageEndpoint(SSEPath),
		mcpsrv.WithKeepAlive(true),
	)
}

// StreamableHandler returns the Streamable HTTP transport handler, it
// should be mounted at StreamablePath.
func (s *Server) StreamableHandler() http.Handler {
	return mcpsrv.NewStreamableHTTPServer(s.mcp,
		mcpsrv.WithEndpointPath(StreamablePath),
	)
}

// logCalls is the tool handler middleware that logs every tool call.
func (s *Server) logCalls(next mcpsrv.ToolHandlerFunc) mcpsrv.ToolHandlerFunc {
	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		lg := s.logger.With("tool", req.Params.Name, "invocation_id", uuid.NewString())
		lg.DebugContext(ctx, "tool call", "args", req.GetArguments())
		start := time.Now()
		res, err := next(ctx, req)
		lg.InfoContext(ctx, "tool call complete",
			"duration", time.Since(start),
			"is_error", res != nil && res.IsError,
			"error", err,
		)
		return res, err
	}
}

// errEnvelope is the payload of a failed tool call.
type errEnvelope struct {
	Error string `json:"error"`
}

// resultErr wraps the error in a CallToolResult with IsError=true.  Only
// the error message is exposed.
func resultErr(err error) *mcplib.CallToolResult {
	text, jerr := marshalIndent(errEnvelope{Error: err.Error()})
	if jerr != nil {
		text = err.Error()
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(text)},
		IsError: true,
	}
}

// resultJSON serialises v to indented JSON and wraps it in a successful
// CallToolResult.
func resultJSON(v any) *mcplib.CallToolResult {
	text, err := marshalIndent(v)
	if err != nil {
		return resultErr(fmt.Errorf("encoding result: %w", err))
	}
	return mcplib.NewToolResultText(text)
}

func marshalIndent(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
