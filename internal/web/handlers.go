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

package web

import (
	"encoding/json"
	"net/http"
)

// timestampLayout is the ISO 8601 layout with milliseconds, in UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z"

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: s.now().UTC().Format(timestampLayout),
	})
}

type testToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

type testToolResponse struct {
	Success bool           `json:"success"`
	Tool    string         `json:"tool"`
	Args    map[string]any `json:"args"`
	Result  any            `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
	Tool  string `json:"tool,omitempty"`
}

// testToolHandler executes a tool call outside of an MCP session.
func (s *Server) testToolHandler(w http.ResponseWriter, r *http.Request) {
	var req testToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.Tool == "" {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "tool name is required"})
		return
	}
	if req.Args == nil {
		req.Args = map[string]any{}
	}
	lg := s.lg.With("tool", req.Tool)
	lg.InfoContext(r.Context(), "testing tool", "args", req.Args)

	result, err := s.mcp.Dispatcher().Dispatch(r.Context(), req.Tool, req.Args)
	if err != nil {
		lg.ErrorContext(r.Context(), "tool test failed", "error", err)
		s.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: err.Error(), Tool: req.Tool})
		return
	}
	s.writeJSON(w, r, http.StatusOK, testToolResponse{
		Success: true,
		Tool:    req.Tool,
		Args:    req.Args,
		Result:  result,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.lg.WarnContext(r.Context(), "error writing response", "error", err)
	}
}
