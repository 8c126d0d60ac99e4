// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderplay/gpu"
)

// Default entry point names.
const (
	DefaultVertexEntry   = "vs_main"
	DefaultFragmentEntry = "fs_main"
	DefaultComputeEntry  = "cs_main"
)

var (
	// ErrDestroyed is returned by Reload after Destroy.
	ErrDestroyed = errors.New("pipeline: destroyed")

	errNilDevice = errors.New("pipeline: nil device")
	errNoModule  = errors.New("pipeline: shader module not realized")
)

// RenderDesc describes a render pipeline. Zero fields take defaults:
// vs_main/fs_main, one BGRA8Unorm target, single sampling, and a triangle
// list without culling when Primitive is entirely zero.
type RenderDesc struct {
	Label         string
	VertexEntry   string
	FragmentEntry string
	Targets       []gputypes.ColorTargetState
	VertexBuffers []gputypes.VertexBufferLayout
	Primitive     gputypes.PrimitiveState
	Multisample   gputypes.MultisampleState
	DepthStencil  *hal.DepthStencilState
	BindGroups    []BindGroup
}

func (d RenderDesc) withDefaults() RenderDesc {
	if d.Label == "" {
		d.Label = "render"
	}
	if d.VertexEntry == "" {
		d.VertexEntry = DefaultVertexEntry
	}
	if d.FragmentEntry == "" {
		d.FragmentEntry = DefaultFragmentEntry
	}
	if len(d.Targets) == 0 {
		d.Targets = []gputypes.ColorTargetState{{
			Format:    gputypes.TextureFormatBGRA8Unorm,
			WriteMask: gputypes.ColorWriteMaskAll,
		}}
	}
	if d.Primitive == (gputypes.PrimitiveState{}) {
		d.Primitive = gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		}
	}
	if d.Multisample.Count == 0 {
		d.Multisample = gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF}
	}
	return d
}

// RenderPipeline is a render pipeline that can be rebuilt from a new shader.
type RenderPipeline struct {
	desc       RenderDesc
	device     hal.Device
	layout     *Layout
	pipeline   hal.RenderPipeline
	retired    []hal.RenderPipeline
	generation uint64
}

// NewRenderPipeline creates the layout and the first pipeline generation
// from module. module must be realized.
func NewRenderPipeline(device hal.Device, module *gpu.ShaderModule, desc RenderDesc) (*RenderPipeline, error) {
	if device == nil {
		return nil, errNilDevice
	}
	desc = desc.withDefaults()
	layout, err := newLayout(device, desc.Label, desc.BindGroups)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", desc.Label, err)
	}
	p := &RenderPipeline{desc: desc, device: device, layout: layout}
	if err := p.Reload(device, module); err != nil {
		layout.destroy(device)
		return nil, err
	}
	return p, nil
}

// Reload builds a new pipeline from module and swaps it in. The replaced
// pipeline is retired until Collect or Destroy. On error the previous
// pipeline is kept.
func (p *RenderPipeline) Reload(device hal.Device, module *gpu.ShaderModule) error {
	if p.layout == nil {
		return ErrDestroyed
	}
	if module == nil || !module.Realized() {
		return errNoModule
	}
	next, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.desc.Label,
		Layout: p.layout.Pipeline(),
		Vertex: hal.VertexState{
			Module:     module.Handle,
			EntryPoint: p.desc.VertexEntry,
			Buffers:    p.desc.VertexBuffers,
		},
		Fragment: &hal.FragmentState{
			Module:     module.Handle,
			EntryPoint: p.desc.FragmentEntry,
			Targets:    p.desc.Targets,
		},
		DepthStencil: p.desc.DepthStencil,
		Multisample:  p.desc.Multisample,
		Primitive:    p.desc.Primitive,
	})
	if err != nil {
		return fmt.Errorf("pipeline %q: create render pipeline: %w", p.desc.Label, err)
	}
	if p.pipeline != nil {
		p.retired = append(p.retired, p.pipeline)
	}
	p.pipeline = next
	p.generation++
	return nil
}

// Retired returns the number of replaced pipelines not yet freed.
func (p *RenderPipeline) Retired() int { return len(p.retired) }

// Collect frees the pipelines replaced by earlier reloads. Call it only
// after the GPU has finished the frames that used them.
func (p *RenderPipeline) Collect() {
	for _, old := range p.retired {
		p.device.DestroyRenderPipeline(old)
	}
	p.retired = nil
}

// Pipeline returns the current hal pipeline, or nil after Destroy.
func (p *RenderPipeline) Pipeline() hal.RenderPipeline { return p.pipeline }

// Layout returns the layout shared by all generations.
func (p *RenderPipeline) Layout() *Layout { return p.layout }

// Desc returns the descriptor with defaults applied.
func (p *RenderPipeline) Desc() RenderDesc { return p.desc }

// Label returns the debug label the pipeline was created with.
func (p *RenderPipeline) Label() string { return p.desc.Label }

// Generation counts successful builds, starting at 1 after construction.
func (p *RenderPipeline) Generation() uint64 { return p.generation }

// Destroy releases the pipeline, any retired ones and the layout. It is
// idempotent.
func (p *RenderPipeline) Destroy() {
	p.Collect()
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.layout != nil {
		p.layout.destroy(p.device)
		p.layout = nil
	}
}
