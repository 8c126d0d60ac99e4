// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package watch

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gogpu/shaderplay/gpu"
	"github.com/gogpu/shaderplay/internal/console"
	"github.com/gogpu/shaderplay/shader"
)

// DefaultExtension is the file extension watched by default.
const DefaultExtension = ".wgsl"

// DefaultDebounce is the default quiet period per file before compiling.
const DefaultDebounce = 50 * time.Millisecond

// DefaultReadRetry bounds how long a shader that cannot be read is retried
// before the failure is reported.
const DefaultReadRetry = 200 * time.Millisecond

// Notifier is told about every shader that compiled and was sent.
type Notifier interface {
	Success(path string)
}

// Reporter is told about every shader that failed to compile.
type Reporter interface {
	Failure(d *shader.Diagnostic)
}

// Option configures a Watcher.
type Option func(*options)

type options struct {
	ext       string
	debounce  time.Duration
	readRetry time.Duration
	compiler  *shader.Compiler
	device    *gpu.Device
	notifier  Notifier
	reporter  Reporter
	logger    *slog.Logger
}

func defaultOptions() options {
	return options{
		ext:       DefaultExtension,
		debounce:  DefaultDebounce,
		readRetry: DefaultReadRetry,
	}
}

// WithExtension sets the watched file extension. The leading dot is
// optional and the match is case-insensitive.
func WithExtension(ext string) Option {
	return func(o *options) {
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		o.ext = strings.ToLower(ext)
	}
}

// WithDebounce sets the per-file quiet period. Zero compiles on every
// filesystem event.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithReadRetry bounds how long read failures are retried. Editors that
// save by replacing the file can leave it briefly missing or locked. Zero
// reports the first failure.
func WithReadRetry(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.readRetry = d
		}
	}
}

// WithCompiler sets the compiler used by the worker. The watcher takes
// ownership; the compiler must not be used elsewhere while it runs.
func WithCompiler(c *shader.Compiler) Option {
	return func(o *options) {
		o.compiler = c
	}
}

// WithDevice makes the worker create device shader modules before sending.
// The watcher keeps only a weak reference to dev.
func WithDevice(dev *gpu.Device) Option {
	return func(o *options) {
		o.device = dev
	}
}

// WithNotifier sets the success notifier. The default flashes a line on
// stderr.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithReporter sets the failure reporter. The default prints colored
// diagnostics on stderr.
func WithReporter(r Reporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// WithLogger sets a logger for this watcher, overriding the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func (o *options) fillDefaults() {
	if o.compiler == nil {
		o.compiler = shader.NewCompiler()
	}
	if o.notifier == nil {
		o.notifier = console.NewFlasher(nil)
	}
	if o.reporter == nil {
		o.reporter = console.NewReporter(nil)
	}
}
