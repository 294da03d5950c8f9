// Package logger configures structured logging for the analytics engine.
// Every component receives a *slog.Logger; this package owns handler
// construction, level parsing, and the engine's common attribute keys so
// log output stays queryable across layers.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Format selects the log output encoding.
type Format string

const (
	// FormatJSON emits one JSON object per line. Default for deployments.
	FormatJSON Format = "json"
	// FormatText emits human-readable key=value lines. Useful locally.
	FormatText Format = "text"
)

// ParseLevel parses a level string into a slog.Level. Unknown values
// default to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat parses a format string. Unknown values default to JSON.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatText)) {
		return FormatText
	}
	return FormatJSON
}

// Options configures logger construction.
type Options struct {
	Output    io.Writer
	Level     slog.Level
	Format    Format
	AddSource bool
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Output: os.Stdout,
		Level:  slog.LevelInfo,
		Format: FormatJSON,
	}
}

// New creates a logger with the given options.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	switch opts.Format {
	case FormatText:
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	}

	return slog.New(handler)
}

// Default creates a JSON logger at Info level writing to stdout.
func Default() *slog.Logger {
	return New(DefaultOptions())
}

// Discard creates a logger that drops everything. For tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Common attribute constructors so field names stay consistent across
// handlers, repositories, and middleware.

// LearnerID tags a log line with the learner identifier.
func LearnerID(id string) slog.Attr { return slog.String("learner_id", id) }

// CourseID tags a log line with the course identifier.
func CourseID(id string) slog.Attr { return slog.String("course_id", id) }

// Style tags a log line with a learning style.
func Style(style string) slog.Attr { return slog.String("style", style) }

// Component names the subsystem emitting the line.
func Component(name string) slog.Attr { return slog.String("component", name) }

// Operation names the command or query being executed.
func Operation(name string) slog.Attr { return slog.String("operation", name) }

// RequestID tags a log line with the inbound request identifier.
func RequestID(id string) slog.Attr { return slog.String("request_id", id) }

// Latency records how long an operation took.
func Latency(d time.Duration) slog.Attr { return slog.Duration("latency", d) }

// Err records an error, tolerating nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Any("error", nil)
	}
	return slog.String("error", err.Error())
}
