package internal

import (
	"context"

	"golang.org/x/exp/slog"
)

var nop (slog.Handler) = nopLogger{}

// NopLogger returns a logger that discards all log records. Types that accept
// an optional slog.Handler fall back to this logger when none is provided, so
// that a Finder or Flattener never has to check for a nil logger.
func NopLogger() *slog.Logger {
	return slog.New(nop)
}

type nopLogger struct{}

// Enabled reports false for every level, which lets slog skip building
// records before they reach Handle.
func (nopLogger) Enabled(context.Context, slog.Level) bool { return false }

// Handle drops the record and never fails.
func (nopLogger) Handle(context.Context, slog.Record) error { return nil }

// WithAttrs returns the same discarding handler; attributes of a logger
// derived with With are dropped as well.
func (nopLogger) WithAttrs([]slog.Attr) slog.Handler { return nop }

// WithGroup returns the same discarding handler regardless of the group name.
func (nopLogger) WithGroup(string) slog.Handler { return nop }
