// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shaderplay

import (
	"github.com/gogpu/shaderplay/config"
	"github.com/gogpu/shaderplay/shader"
	"github.com/gogpu/shaderplay/watch"
)

// Option configures a Context during creation.
//
// Example:
//
//	// Watch ./shaders with the default settings
//	sp, err := shaderplay.New(dev)
//
//	// Watch another directory with a longer debounce
//	sp, err := shaderplay.New(dev,
//	    shaderplay.WithShaderDir("assets/wgsl"),
//	    shaderplay.WithWatchOptions(watch.WithDebounce(200*time.Millisecond)),
//	)
type Option func(*options)

// options holds optional configuration for Context creation.
type options struct {
	shaderDir    string
	watch        bool
	watchOpts    []watch.Option
	compilerOpts []shader.Option
	cfg          *config.Config
}

// defaultOptions returns the default context options.
func defaultOptions() options {
	return options{
		shaderDir: config.DefaultShaderDir,
		watch:     true,
	}
}

// WithShaderDir sets the directory that is watched for shader changes.
func WithShaderDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.shaderDir = dir
		}
	}
}

// WithoutWatcher disables the file watcher. Events can still be delivered
// through Context.Sink, which is how tests and custom watchers feed the
// context.
func WithoutWatcher() Option {
	return func(o *options) {
		o.watch = false
	}
}

// WithWatchOptions passes options to the file watcher, such as the
// extension, debounce, notifier and reporter.
func WithWatchOptions(opts ...watch.Option) Option {
	return func(o *options) {
		o.watchOpts = append(o.watchOpts, opts...)
	}
}

// WithCompilerOptions configures both the context's compiler and the
// watcher's compiler.
func WithCompilerOptions(opts ...shader.Option) Option {
	return func(o *options) {
		o.compilerOpts = append(o.compilerOpts, opts...)
	}
}

// WithConfig applies a manifest: its shader directory and watcher settings
// are used, and every pipeline it names is built and registered by New.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg == nil {
			return
		}
		o.cfg = cfg
		o.shaderDir = cfg.ShaderDir
		o.watchOpts = append(o.watchOpts,
			watch.WithExtension(cfg.Extension),
			watch.WithDebounce(cfg.Debounce),
		)
	}
}
