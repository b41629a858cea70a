// Package logging builds the structured logger used by waitfor and adapts
// it to the routine-tagged logger the wait coordinator reports through.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format is the log output format.
type Format string

const (
	// FormatAuto picks text for a terminal and JSON otherwise.
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// RoutineKey is the attribute carrying the name of the reporting routine.
const RoutineKey = "routine"

// Config holds the logging configuration.
type Config struct {
	// Level is the minimum level: debug, info, warn or error. Default: info.
	Level string

	// Format selects the handler. Default: auto.
	Format Format

	// Output is where log lines go. Default: os.Stderr.
	Output io.Writer

	// AddSource adds file and line to each record.
	AddSource bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: FormatAuto,
		Output: os.Stderr,
	}
}

// ApplyEnv overrides cfg with environment variables and returns it:
//   - WAITFOR_DEBUG: true/1 enables debug level and source locations
//   - WAITFOR_LOG_LEVEL: takes precedence over LOG_LEVEL
//   - LOG_LEVEL: debug, info, warn, error
//   - LOG_FORMAT: auto, json, text
func ApplyEnv(cfg *Config) *Config {
	debug := os.Getenv("WAITFOR_DEBUG")
	if debug == "true" || debug == "1" {
		cfg.Level = "debug"
		cfg.AddSource = true
	} else if level := os.Getenv("WAITFOR_LOG_LEVEL"); level != "" {
		cfg.Level = strings.ToLower(level)
	} else if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Level = strings.ToLower(level)
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = Format(strings.ToLower(format))
	}

	return cfg
}

// New creates a structured logger from cfg.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	switch resolveFormat(cfg.Format, out) {
	case FormatText:
		return slog.New(slog.NewTextHandler(out, opts))
	default:
		return slog.New(slog.NewJSONHandler(out, opts))
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel converts a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func resolveFormat(f Format, out io.Writer) Format {
	switch f {
	case FormatJSON, FormatText:
		return f
	default:
		if IsTerminal(out) {
			return FormatText
		}
		return FormatJSON
	}
}
