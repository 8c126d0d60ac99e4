// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shaderplay

import (
	"testing"
	"time"

	"github.com/gogpu/shaderplay/config"
	"github.com/gogpu/shaderplay/shader"
	"github.com/gogpu/shaderplay/watch"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.shaderDir != config.DefaultShaderDir {
		t.Errorf("shaderDir = %q, want %q", o.shaderDir, config.DefaultShaderDir)
	}
	if !o.watch {
		t.Error("watcher should be enabled by default")
	}
	if o.cfg != nil || len(o.watchOpts) != 0 || len(o.compilerOpts) != 0 {
		t.Errorf("unexpected defaults: %+v", o)
	}
}

func TestWithShaderDir(t *testing.T) {
	o := defaultOptions()
	WithShaderDir("fx")(&o)
	if o.shaderDir != "fx" {
		t.Errorf("shaderDir = %q", o.shaderDir)
	}
	WithShaderDir("")(&o)
	if o.shaderDir != "fx" {
		t.Error("empty dir should be ignored")
	}
}

func TestWithoutWatcher(t *testing.T) {
	o := defaultOptions()
	WithoutWatcher()(&o)
	if o.watch {
		t.Error("WithoutWatcher did not disable the watcher")
	}
}

func TestWithOptionsAccumulate(t *testing.T) {
	o := defaultOptions()
	WithWatchOptions(watch.WithDebounce(time.Second))(&o)
	WithWatchOptions(watch.WithExtension("frag"), watch.WithDebounce(0))(&o)
	WithCompilerOptions(shader.WithDebug(false))(&o)
	if len(o.watchOpts) != 3 {
		t.Errorf("watchOpts = %d, want 3", len(o.watchOpts))
	}
	if len(o.compilerOpts) != 1 {
		t.Errorf("compilerOpts = %d, want 1", len(o.compilerOpts))
	}
}

func TestWithConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ShaderDir = "/work/fx"
	o := defaultOptions()
	WithConfig(cfg)(&o)
	if o.cfg != cfg || o.shaderDir != "/work/fx" {
		t.Errorf("WithConfig not applied: %+v", o)
	}
	if len(o.watchOpts) != 2 {
		t.Errorf("WithConfig should add extension and debounce, got %d options", len(o.watchOpts))
	}

	o = defaultOptions()
	WithConfig(nil)(&o)
	if o.cfg != nil || o.shaderDir != config.DefaultShaderDir {
		t.Error("WithConfig(nil) should be a no-op")
	}
}
