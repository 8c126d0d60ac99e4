// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package reload

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderplay/gpu"
	"github.com/gogpu/shaderplay/internal/gputest"
)

// recordingTarget records every Reload call.
type recordingTarget struct {
	name   string
	codes  [][]uint32
	err    error
	panics bool
}

func (r *recordingTarget) Reload(device hal.Device, m *gpu.ShaderModule) error {
	if device == nil {
		return errors.New("nil device")
	}
	if !m.Realized() {
		return errors.New("module not realized")
	}
	if r.panics {
		panic("layout mismatch")
	}
	if r.err != nil {
		return r.err
	}
	r.codes = append(r.codes, slices.Clone(m.Code))
	return nil
}

func (r *recordingTarget) calls() int { return len(r.codes) }

// retiringTarget keeps replaced generations until Collect.
type retiringTarget struct {
	recordingTarget
	retired   int
	collected int
}

func (r *retiringTarget) Reload(device hal.Device, m *gpu.ShaderModule) error {
	if err := r.recordingTarget.Reload(device, m); err != nil {
		return err
	}
	r.retired++
	return nil
}

func (r *retiringTarget) Collect() {
	r.collected += r.retired
	r.retired = 0
}

// writeShader writes src to dir/name and returns the canonical path.
func writeShader(t *testing.T, dir, name, src string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Canonicalize(p)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func moduleFor(t *testing.T, src string) *gpu.ShaderModule {
	t.Helper()
	return gpu.NewShaderModule("test", gputest.Compile(t, "test.wgsl", src))
}
