// Package logging configures the structured application logger.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ayoisaiah/studytime/internal/apperr"
)

var errUnknownLevel = &apperr.Error{
	Message: "unknown log level %q: use debug, info, warn or error",
}

// Options controls where logs go and how the file is rotated.
type Options struct {
	Path       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ParseLevel converts a level name into a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}

	return 0, errUnknownLevel.Fmt(s)
}

// New returns a JSON logger writing to a rotating file. The returned closer
// flushes and closes the file.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	w := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
	}

	return NewWithWriter(w, level), w, nil
}

// NewWithWriter returns a JSON logger writing to w.
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
