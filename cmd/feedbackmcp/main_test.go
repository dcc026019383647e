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

package main

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rusq/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/slackfeedback/feedbackmcp/internal/client/mock_client"
	"github.com/slackfeedback/feedbackmcp/internal/config"
)

func Test_loadSecrets(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FEEDBACK_CHANNEL_ID=C_FROM_FILE\n"), 0o600))
	t.Setenv(config.EnvFeedbackChannelID, "")
	os.Unsetenv(config.EnvFeedbackChannelID)

	loadSecrets([]string{filepath.Join(dir, "missing.txt"), envFile})
	assert.Equal(t, "C_FROM_FILE", os.Getenv(config.EnvFeedbackChannelID))
}

func Test_parseCmdLine(t *testing.T) {
	t.Setenv(config.EnvTransport, "http")
	t.Setenv(config.EnvPort, "4000")

	cfg, printVersion := parseCmdLine([]string{"-port", "5000", "-v"})
	assert.False(t, printVersion)
	assert.Equal(t, "http", cfg.Transport)
	assert.Equal(t, 5000, cfg.Port)
	assert.True(t, cfg.Verbose)

	_, printVersion = parseCmdLine([]string{"-V"})
	assert.True(t, printVersion)
}

func Test_run_invalidConfig(t *testing.T) {
	err := run(t.Context(), config.Config{Transport: "stdio"}, slog.Default())
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Problems, "SLACK_BOT_TOKEN is a required field")
}

func Test_exitCode(t *testing.T) {
	lg := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.Equal(t, 0, exitCode(lg, nil))
	assert.Equal(t, 2, exitCode(lg, &config.ConfigurationError{Problems: []string{"PORT must be 1 or greater"}}))
	assert.Equal(t, 1, exitCode(lg, errors.New("listen tcp :3000: bind: address already in use")))
}

func Test_checkAuth(t *testing.T) {
	tests := []struct {
		name    string
		resp    *slack.AuthTestResponse
		err     error
		wantLog string
	}{
		{"ok", &slack.AuthTestResponse{Team: "acme", User: "feedbackbot", UserID: "UBOT"}, nil, "team=acme"},
		{"failure is a warning", nil, errors.New("invalid_auth"), "level=WARN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ms := mock_client.NewMockSlack(ctrl)
			ms.EXPECT().AuthTestContext(gomock.Any()).Return(tt.resp, tt.err)

			var buf bytes.Buffer
			checkAuth(t.Context(), ms, slog.New(slog.NewTextHandler(&buf, nil)))
			assert.Contains(t, buf.String(), tt.wantLog)
		})
	}
}

func Test_newSlackClient(t *testing.T) {
	var gotUA, gotPath, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotPath = r.URL.Path
		gotToken = r.FormValue("token")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true,"team":"acme","user":"feedbackbot"}`)
	}))
	defer srv.Close()

	cl, err := newSlackClient(config.Config{Token: "xoxb-test", SlackAPIURL: srv.URL})
	require.NoError(t, err)

	wi, err := cl.AuthTestContext(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "acme", wi.Team)
	assert.Equal(t, userAgent, gotUA)
	assert.Equal(t, "/auth.test", gotPath)
	assert.Equal(t, "xoxb-test", gotToken)
}

func Test_initLog(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(old)
		log.SetOutput(os.Stderr)
	})

	filename := filepath.Join(t.TempDir(), "server.log")
	lg, closeFn, err := initLog(filename, true, true)
	require.NoError(t, err)
	lg.Debug("debug message", "key", "value")
	closeFn()

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"debug message"`)
	assert.Contains(t, string(data), `"key":"value"`)
}

func Test_initLog_badFile(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	_, closeFn, err := initLog(filepath.Join(t.TempDir(), "no", "such", "dir.log"), false, false)
	assert.Error(t, err)
	assert.NotNil(t, closeFn)
}

func Test_initTrace_disabled(t *testing.T) {
	stop := initTrace("")
	assert.NotPanics(t, stop)
}
