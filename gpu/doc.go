// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gpu is the boundary between shaderplay and the graphics device.
//
// A [Device] pairs a wgpu/hal device with its queue. It is either opened by
// shaderplay itself ([Open]) or adopted from a host application that already
// owns one ([FromProvider]), for example a gogpu window:
//
//	dev, err := gpu.FromProvider(app.GPUContextProvider())
//
// Compiled SPIR-V becomes a [ShaderModule] through [Device.CreateShaderModule].
// Shader module creation is the only device operation shaderplay performs off
// the owning goroutine; it is guarded so that a device destroyed concurrently
// reports [ErrDeviceLost] instead of touching freed driver state.
package gpu
