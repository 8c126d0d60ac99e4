// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package shaderplay reloads GPU pipelines when their WGSL shaders change
// on disk.
//
// # Overview
//
// A [Context] ties together a graphics device, a file watcher and a
// registry of pipelines. Each pipeline is registered under the shader file
// it was built from. When that file is saved, a background goroutine
// recompiles it to SPIR-V and queues the result; the next call to
// [Context.Tick] on the owning goroutine rebuilds every pipeline that
// depends on the file. A shader that fails to compile is reported on the
// terminal and the pipelines keep running with their last good version.
//
// # Quick Start
//
//	dev, err := gpu.Open(gpu.BackendVulkan)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Destroy()
//
//	sp, err := shaderplay.New(dev, shaderplay.WithShaderDir("shaders"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sp.Close()
//
//	module, err := sp.Compile("shaders/present.wgsl")
//	...
//	present, err := pipeline.NewRenderPipeline(dev.HAL(), module, pipeline.RenderDesc{})
//	...
//	shaderplay.RegisterTarget(sp, "shaders/present.wgsl", present)
//
//	for running {
//	    sp.Tick()
//	    draw(present.Pipeline())
//	}
//
// A manifest can describe the startup pipelines instead; see the config
// package and [WithConfig].
//
// # Threading
//
// New, Compile, Register, Tick, Build and Close must be called from the
// goroutine that owns the device. The watcher never touches registered
// pipelines; it only queues events, and Tick never waits for it.
//
// # Packages
//
//   - shader: WGSL to SPIR-V compilation with structured diagnostics
//   - gpu: device opening and shader module creation
//   - reload: registry, event inbox and dispatcher
//   - watch: fsnotify-based recompiling watcher
//   - pipeline: reloadable render, mesh and compute pipelines
//   - config: HCL manifest
//
// # Logging
//
// shaderplay is silent by default. Call [SetLogger] to route its log
// output, including that of reload and watch, to a [log/slog] logger.
package shaderplay
