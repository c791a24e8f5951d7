// Package logging builds the diagnostic logger. Tree output never goes
// through it; diagnostics are written to stderr by default.
package logging

import (
	"io"
	"log/slog"
	"os"
)

const (
	defaultLevel  = slog.LevelWarn
	defaultIsJSON = false
)

// Options holds configuration for the logger.
type Options struct {
	Level  slog.Level
	IsJSON bool
	Output io.Writer
}

// Option configures a logger.
type Option func(*Options)

// NewLogger creates a text or JSON logger. Without options it writes
// warnings and errors as text to stderr.
func NewLogger(opts ...Option) *slog.Logger {
	config := &Options{
		Level:  defaultLevel,
		IsJSON: defaultIsJSON,
		Output: os.Stderr,
	}

	for _, opt := range opts {
		opt(config)
	}

	options := &slog.HandlerOptions{Level: config.Level}

	var h slog.Handler = slog.NewTextHandler(config.Output, options)
	if config.IsJSON {
		h = slog.NewJSONHandler(config.Output, options)
	}

	return slog.New(h)
}

// WithVerbose lowers the level to debug when verbose is set.
func WithVerbose(verbose bool) Option {
	return func(o *Options) {
		if verbose {
			o.Level = slog.LevelDebug
		}
	}
}

// WithLevel sets the level from its text form ("debug", "warn", ...).
// Unknown names leave the level unchanged.
func WithLevel(level string) Option {
	return func(o *Options) {
		var l slog.Level
		if err := l.UnmarshalText([]byte(level)); err == nil {
			o.Level = l
		}
	}
}

// WithJSON switches to the JSON handler.
func WithJSON(isJSON bool) Option {
	return func(o *Options) {
		o.IsJSON = isJSON
	}
}

// WithOutput redirects log output.
func WithOutput(w io.Writer) Option {
	return func(o *Options) {
		o.Output = w
	}
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ErrAttr creates an error attribute. Handles nil errors.
func ErrAttr(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "error is nil")
	}
	return slog.String("error", err.Error())
}
