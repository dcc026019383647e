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

// Package web provides the HTTP surface of the feedback server: the health
// check, the MCP transport endpoints and the optional tool test endpoint.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/slackfeedback/feedbackmcp/internal/mcp"
)

const shutdownTimeout = 10 * time.Second

// Config is the HTTP surface configuration.
type Config struct {
	// Addr is the listen address, i.e. ":3000".
	Addr string
	// BaseURL is the externally visible URL of the server, it is sent to
	// the SSE clients as the base of the message endpoint.
	BaseURL string
	// Transport selects the MCP endpoints to mount: /sse for
	// [mcp.TransportSSE] or /mcp for [mcp.TransportHTTP].
	Transport mcp.Transport
	// EnableTestTool mounts POST /test-tool.
	EnableTestTool bool
}

// Server is the HTTP server.
type Server struct {
	cfg Config
	mcp *mcp.Server
	srv *http.Server
	lg  *slog.Logger
	now func() time.Time
	mux http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.  A nil logger is ignored.
func WithLogger(lg *slog.Logger) Option {
	return func(s *Server) {
		if lg != nil {
			s.lg = lg
		}
	}
}

// WithClock sets the function that returns the current time.
func WithClock(fn func() time.Time) Option {
	return func(s *Server) {
		if fn != nil {
			s.now = fn
		}
	}
}

// New creates a new HTTP server for the MCP server ms.  It does not start
// listening until [Server.ListenAndServe] is called.
func New(ms *mcp.Server, cfg Config, opts ...Option) *Server {
	s := &Server{
		cfg: cfg,
		mcp: ms,
		lg:  slog.Default(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux = s.routes()
	s.srv = &http.Server{
		Addr:     cfg.Addr,
		Handler:  s.mux,
		ErrorLog: slog.NewLogLogger(s.lg.Handler(), slog.LevelError),
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.lg.Handler(), slog.LevelDebug),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.With(noCache).Get("/health", s.healthHandler)

	switch s.cfg.Transport {
	case mcp.TransportHTTP:
		r.Handle(mcp.StreamablePath, s.mcp.StreamableHandler())
	default:
		sse := s.mcp.SSEServer(s.cfg.BaseURL)
		r.Get(mcp.SSEPath, sse.SSEHandler().ServeHTTP)
		r.Post(mcp.SSEPath, sse.MessageHandler().ServeHTTP)
	}

	if s.cfg.EnableTestTool {
		r.With(noCache).Post("/test-tool", s.testToolHandler)
	}
	return r
}

// Handler returns the root handler of the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves the HTTP requests until ctx is cancelled, then
// shuts the server down.  Open SSE streams are closed on cancellation,
// in-flight tool calls run to completion within the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }

	errC := make(chan error, 1)
	go func() {
		defer close(errC)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.lg.InfoContext(ctx, "http server shutting down")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(sctx); err != nil {
			_ = s.srv.Close()
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		return nil
	case err := <-errC:
		return err
	}
}

// noCache is a middleware that disables caching of the response.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		next.ServeHTTP(w, r)
	})
}
