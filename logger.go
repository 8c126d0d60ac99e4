// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shaderplay

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/shaderplay/reload"
	"github.com/gogpu/shaderplay/watch"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for shaderplay and its sub-packages
// (reload and watch). By default nothing is logged.
//
// SetLogger is safe for concurrent use. Pass nil to restore the default
// silent behavior.
//
// Log levels used by shaderplay:
//   - [slog.LevelDebug]: file events, compile timings, dispatch misses
//   - [slog.LevelInfo]: watcher start/stop, applied reloads
//   - [slog.LevelWarn]: compile failures, targets that kept their pipeline
//   - [slog.LevelError]: backend failures creating shader modules
//
// Example:
//
//	shaderplay.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	reload.SetLogger(l)
	watch.SetLogger(l)
}

// Logger returns the current logger used by shaderplay.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
