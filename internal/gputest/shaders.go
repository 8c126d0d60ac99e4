// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gputest

import (
	"testing"

	"github.com/gogpu/shaderplay/shader"
)

// TriangleWGSL is a fullscreen-triangle render shader with vs_main/fs_main.
const TriangleWGSL = `@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    let x = f32(i32(idx) - 1);
    let y = f32(i32(idx & 1u) * 2 - 1);
    return vec4<f32>(x, y, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.5, 0.0, 1.0);
}
`

// TintedTriangleWGSL is TriangleWGSL with a different fragment color.
const TintedTriangleWGSL = `@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    let x = f32(i32(idx) - 1);
    let y = f32(i32(idx & 1u) * 2 - 1);
    return vec4<f32>(x, y, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(0.0, 0.25, 1.0, 1.0);
}
`

// XorWGSL is a compute shader with two entry points, cs_xor and cs_clear.
const XorWGSL = `@group(0) @binding(0) var<storage, read_write> data: array<u32>;

@compute @workgroup_size(64)
fn cs_xor(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = data[id.x] ^ 255u;
}

@compute @workgroup_size(64)
fn cs_clear(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = 0u;
}
`

// BrokenWGSL fails to parse.
const BrokenWGSL = `@vertex
fn vs_main(@builtin(vertex_index) idx: u32 -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0)
}
`

// Compile compiles src or fails the test.
func Compile(t testing.TB, name, src string) *shader.Module {
	t.Helper()
	m, err := shader.NewCompiler().CompileSource(name, src)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return m
}
