// Package logging configures structured logging for the dashboard client,
// the proxy and the terminal UI using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a case-insensitive level name as found in config files and
// LOG_LEVEL ("debug", "info", "warn", "error", "disabled").
type LogLevel string

// Known levels. Unknown names fall back to LevelInfo.
const (
	LevelDebug    LogLevel = "debug"
	LevelInfo     LogLevel = "info"
	LevelWarn     LogLevel = "warn"
	LevelError    LogLevel = "error"
	LevelDisabled LogLevel = "disabled"
)

var levels = map[string]zerolog.Level{
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"disabled": zerolog.Disabled,
	"off":      zerolog.Disabled,
	"none":     zerolog.Disabled,
}

// Config selects threshold, format and destination of the global logger.
type Config struct {
	Level LogLevel

	// Pretty switches from JSON lines to zerolog's console format.
	Pretty bool

	// Output defaults to stderr when nil.
	Output io.Writer
}

// DefaultConfig logs JSON at info level to stderr.
func DefaultConfig() Config {
	return Config{Level: LevelInfo, Output: os.Stderr}
}

// Setup installs the logger described by cfg as zerolog's global logger
// and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	var out io.Writer = os.Stderr
	if cfg.Output != nil {
		out = cfg.Output
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

// OpenFile opens (or creates) a log file for appending. The terminal UI
// logs there so that output does not corrupt the rendered screen.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

func parseLevel(level LogLevel) zerolog.Level {
	if l, ok := levels[strings.ToLower(string(level))]; ok {
		return l
	}
	return zerolog.InfoLevel
}

// NewLogger derives a logger tagged with component from the global one.
// Call it after Setup; earlier loggers keep the previous output.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: request flow (method, path, request id), cache revalidation,
// pagination cursor movement, debounced search resets.
//
// Info: successful login/registration/logout, proxy startup/shutdown,
// configuration sources.
//
// Warn: retries, rate limit throttling, cache errors (fallback to direct
// request), list fetch failures kept as controller errors.
//
// Error: requests failed after retries, blocked by rate limiter,
// configuration errors.
//
// Context Fields:
//   - component: emitting package (api-client, pagination, session, proxy, tui)
//   - path: request path
//   - method: HTTP method
//   - status: HTTP status code
//   - request_id: X-Request-ID sent upstream
//   - error_class: network, auth, client, server, rate_limit
//   - list: pagination controller name (sidebar, employees, ...)
//   - offset, limit, total: pagination cursor fields
