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

// Command feedbackmcp is the MCP server that gives AI agents read-only
// access to the stakeholder feedback in a Slack channel.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rusq/chttp/v2"

	"github.com/slackfeedback/feedbackmcp/internal/client"
	"github.com/slackfeedback/feedbackmcp/internal/config"
	"github.com/slackfeedback/feedbackmcp/internal/feedback"
	"github.com/slackfeedback/feedbackmcp/internal/mcp"
	"github.com/slackfeedback/feedbackmcp/internal/network"
	"github.com/slackfeedback/feedbackmcp/internal/web"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var build = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

// secrets defines the names of the supported secret files that we load our
// secrets from.  Inexperienced windows users might have bad experience
// trying to create .env file with the notepad as it will battle for having
// the "txt" extension.  Let it have it.
var secrets = []string{".env", ".env.txt", "secrets.txt"}

// slackURL is the cookie domain of the HTTP client.
const slackURL = "https://slack.com"

var userAgent = "feedbackmcp/" + version

func main() {
	loadSecrets(secrets)

	cfg, printVersion := parseCmdLine(os.Args[1:])
	if printVersion {
		fmt.Println(build)
		return
	}

	lg, closeLog, err := initLog(cfg.LogFile, cfg.JSONLog, cfg.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	stopTrace := initTrace(cfg.TraceFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := exitCode(lg, run(ctx, cfg, lg))
	stop()
	stopTrace()
	closeLog()
	os.Exit(code)
}

// exitCode logs the error and returns the process exit code for it.
func exitCode(lg *slog.Logger, err error) int {
	if err == nil {
		return 0
	}
	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		lg.Error("invalid configuration", "problems", cfgErr.Problems)
		return 2
	}
	lg.Error("server failed", "error", err)
	return 1
}

// loadSecrets load secrets from the files in secrets slice.
func loadSecrets(files []string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// parseCmdLine reads the configuration from the environment and applies
// the command line overrides.
func parseCmdLine(args []string) (config.Config, bool) {
	cfg := config.FromEnv()

	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			fs.Output(),
			"Stakeholder feedback MCP server, %s\n"+
				"Serves the feedback posted to a Slack channel to AI agents over MCP.\n\n"+
				"Required environment: %s, %s, %s.\n\n"+
				"Usage:  %s [flags]\n\n",
			build, config.EnvToken, config.EnvPrimaryStakeholderID, config.EnvFeedbackChannelID,
			filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}
	cfg.SetFlags(fs)
	printVersion := fs.Bool("V", false, "print version and exit")
	_ = fs.Parse(args) // ExitOnError

	return cfg, *printVersion
}

func run(ctx context.Context, cfg config.Config, lg *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	cl, err := newSlackClient(cfg)
	if err != nil {
		return err
	}
	checkAuth(ctx, cl, lg)

	gw := feedback.New(cl,
		feedback.Config{
			PrimaryStakeholderID: cfg.PrimaryStakeholderID,
			FeedbackChannelID:    cfg.FeedbackChannelID,
			TeamUserIDs:          cfg.TeamUserIDs,
		},
		feedback.WithLogger(lg),
		feedback.WithWorkers(cfg.Workers),
		feedback.WithLimiter(network.NewLimiter(network.NoTier, uint(cfg.LimiterBurst), cfg.LimiterBoost)),
	)
	srv := mcp.New(mcp.NewDispatcher(gw, lg), mcp.WithLogger(lg))

	transport := mcp.Transport(cfg.Transport)
	if transport == mcp.TransportStdio {
		logEnvironment(ctx, lg, cfg)
		return srv.ServeStdio(ctx)
	}

	ws := web.New(srv, web.Config{
		Addr:           cfg.Addr(),
		BaseURL:        cfg.ServerURL(),
		Transport:      transport,
		EnableTestTool: cfg.EnableTestTool,
	}, web.WithLogger(lg))

	base := cfg.ServerURL()
	endpoint := base + mcp.SSEPath
	if transport == mcp.TransportHTTP {
		endpoint = base + mcp.StreamablePath
	}
	lg.InfoContext(ctx, "mcp server running", "port", cfg.Port, "transport", transport, "endpoint", endpoint, "health", base+"/health")
	if cfg.EnableTestTool {
		lg.WarnContext(ctx, "test endpoint enabled", "url", base+"/test-tool")
	}
	logEnvironment(ctx, lg, cfg)

	return ws.ListenAndServe(ctx)
}

// newSlackClient returns the Slack API client that sends the userAgent with
// every request.
func newSlackClient(cfg config.Config) (*client.Client, error) {
	hcl, err := chttp.New(slackURL, nil, chttp.WithUserAgent(userAgent))
	if err != nil {
		return nil, err
	}
	return client.New(cfg.Token,
		client.WithHTTPClient(hcl),
		client.WithAPIURL(cfg.SlackAPIURL),
		client.WithDebug(cfg.Verbose),
	), nil
}

func logEnvironment(ctx context.Context, lg *slog.Logger, cfg config.Config) {
	lg.InfoContext(ctx, "environment",
		"feedback_channel_id", cfg.FeedbackChannelID,
		"primary_stakeholder_id", cfg.PrimaryStakeholderID,
		"team_user_ids", len(cfg.TeamUserIDs),
	)
}

// checkAuth verifies the token.  A failure is not fatal: the server starts
// and the tool calls report the Slack errors.
func checkAuth(ctx context.Context, cl client.Slack, lg *slog.Logger) {
	resp, err := cl.AuthTestContext(ctx)
	if err != nil {
		lg.WarnContext(ctx, "slack authentication check failed", "error", err)
		return
	}
	lg.InfoContext(ctx, "authenticated", "team", resp.Team, "user", resp.User, "user_id", resp.UserID)
}
