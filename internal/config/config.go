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

// Package config loads and validates the server configuration.
package config

import (
	"errors"
	"flag"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/rusq/osenv/v2"
)

// Environment variables.
const (
	EnvToken                = "SLACK_BOT_TOKEN"
	EnvPrimaryStakeholderID = "SLACK_PRIMARY_STAKEHOLDER_ID"
	EnvFeedbackChannelID    = "FEEDBACK_CHANNEL_ID"
	EnvTeamUserIDs          = "TEAM_USER_IDS"
	EnvSlackAPIURL          = "SLACK_API_URL"
	EnvPort                 = "PORT"
	EnvTransport            = "MCP_TRANSPORT"
	EnvBaseURL              = "BASE_URL"
	EnvEnableTestTool       = "ENABLE_TEST_TOOL"
	EnvWorkers              = "ENRICH_WORKERS"
	EnvLimiterBurst         = "LIMITER_BURST"
	EnvLimiterBoost         = "LIMITER_BOOST"
	EnvDebug                = "DEBUG"
	EnvLogFile              = "LOG_FILE"
	EnvJSONLog              = "JSON_LOG"
	EnvTraceFile            = "TRACE_FILE"
)

const (
	DefPort         = 3000
	DefTransport    = "sse"
	DefWorkers      = 8
	DefLimiterBurst = 10
)

// Config is the server configuration.
type Config struct {
	Token                string   `env:"SLACK_BOT_TOKEN" validate:"required"`
	PrimaryStakeholderID string   `env:"SLACK_PRIMARY_STAKEHOLDER_ID" validate:"required"`
	FeedbackChannelID    string   `env:"FEEDBACK_CHANNEL_ID" validate:"required"`
	TeamUserIDs          []string `env:"TEAM_USER_IDS"`
	SlackAPIURL          string   `env:"SLACK_API_URL" validate:"omitempty,url"`

	Port           int    `env:"PORT" validate:"min=1,max=65535"`
	Transport      string `env:"MCP_TRANSPORT" validate:"oneof=sse http stdio"`
	BaseURL        string `env:"BASE_URL" validate:"omitempty,url"`
	EnableTestTool bool   `env:"ENABLE_TEST_TOOL"`

	Workers      int `env:"ENRICH_WORKERS" validate:"min=1,max=64"`
	LimiterBurst int `env:"LIMITER_BURST" validate:"min=1"`
	LimiterBoost int `env:"LIMITER_BOOST"`

	Verbose   bool   `env:"DEBUG"`
	LogFile   string `env:"LOG_FILE"`
	JSONLog   bool   `env:"JSON_LOG"`
	TraceFile string `env:"TRACE_FILE"`
}

// FromEnv reads the configuration from the environment.  The token
// variable is removed from the environment once read.  Values that fail to
// parse are replaced with defaults.
func FromEnv() Config {
	return Config{
		Token:                osenv.Secret(EnvToken, ""),
		PrimaryStakeholderID: osenv.Value(EnvPrimaryStakeholderID, ""),
		FeedbackChannelID:    osenv.Value(EnvFeedbackChannelID, ""),
		TeamUserIDs:          SplitList(osenv.Value(EnvTeamUserIDs, "")),
		SlackAPIURL:          osenv.Value(EnvSlackAPIURL, ""),

		Port:           osenv.Value(EnvPort, DefPort),
		Transport:      osenv.Value(EnvTransport, DefTransport),
		BaseURL:        osenv.Value(EnvBaseURL, ""),
		EnableTestTool: osenv.Value(EnvEnableTestTool, false),

		Workers:      osenv.Value(EnvWorkers, DefWorkers),
		LimiterBurst: osenv.Value(EnvLimiterBurst, DefLimiterBurst),
		LimiterBoost: osenv.Value(EnvLimiterBoost, 0),

		Verbose:   osenv.Value(EnvDebug, false),
		LogFile:   osenv.Value(EnvLogFile, ""),
		JSONLog:   osenv.Value(EnvJSONLog, false),
		TraceFile: osenv.Value(EnvTraceFile, ""),
	}
}

// SetFlags binds the command line flags that override the configuration
// to fs.  Current values are used as the flag defaults.
func (c *Config) SetFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.Verbose, "v", c.Verbose, "verbose messages (environment: "+EnvDebug+")")
	fs.StringVar(&c.LogFile, "log", c.LogFile, "log `file`, if not specified, messages are printed to STDERR\n(environment: "+EnvLogFile+")")
	fs.BoolVar(&c.JSONLog, "log-json", c.JSONLog, "log in JSON format (environment: "+EnvJSONLog+")")
	fs.StringVar(&c.TraceFile, "trace", c.TraceFile, "trace `file` (optional, environment: "+EnvTraceFile+")")
	fs.StringVar(&c.Transport, "transport", c.Transport, "MCP `transport`: sse, http or stdio (environment: "+EnvTransport+")")
	fs.IntVar(&c.Port, "port", c.Port, "HTTP listen `port` (environment: "+EnvPort+")")
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// ServerURL returns the externally visible URL of the server: BaseURL, if
// set, or http://localhost:<port>.
func (c *Config) ServerURL() string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return "http://localhost:" + strconv.Itoa(c.Port)
}

// SplitList splits the comma separated list, trimming the spaces and
// dropping the empty elements.
func SplitList(s string) []string {
	var out []string
	for v := range strings.SplitSeq(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ConfigurationError is returned by Validate if the configuration is
// invalid.  Problems holds one message per invalid value.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + strings.Join(e.Problems, "; ")
}

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")

	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name, _, _ := strings.Cut(fld.Tag.Get("env"), ","); name != "" {
			return name
		}
		return fld.Name
	})
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(err)
	}
}

// Validate checks the configuration.  It returns a *ConfigurationError
// listing all problems found.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var vErr validator.ValidationErrors
	if !errors.As(err, &vErr) {
		return &ConfigurationError{Problems: []string{err.Error()}}
	}
	cfgErr := &ConfigurationError{Problems: make([]string, 0, len(vErr))}
	for _, fe := range vErr {
		cfgErr.Problems = append(cfgErr.Problems, fe.Translate(trans))
	}
	return cfgErr
}
