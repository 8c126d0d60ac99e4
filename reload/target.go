// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package reload

import (
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderplay/gpu"
)

// Target is a GPU pipeline object that can rebuild itself from a new shader
// module.
//
// Reload must rebuild every shader-derived object the target owns and leave
// everything else (vertex buffers, samplers, bind group layouts) untouched.
// It is atomic: if it returns an error, the target is exactly as it was
// before the call. Reloading twice with equivalent modules must yield
// equivalent pipelines.
//
// Reload is only ever called on the owning goroutine. module is realized
// (its Handle is non-nil) and stays valid for the duration of the call only.
//
// Frames already submitted may still reference the objects a successful
// Reload replaces, so a target must not destroy them inside Reload. A
// target that holds on to them implements Collector and frees them when
// asked; Destroy frees them too.
type Target interface {
	Reload(device hal.Device, module *gpu.ShaderModule) error
}

// Collector is implemented by targets that retire replaced objects instead
// of destroying them. Collect frees every retired object and must only be
// called once the GPU has finished all work submitted before it.
type Collector interface {
	Collect()
}
