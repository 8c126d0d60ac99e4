// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderplay/gpu"
)

// ComputeDesc describes a compute pipeline. Several compute pipelines may
// be built from one shader file with different entry points.
type ComputeDesc struct {
	Label      string
	Entry      string
	BindGroups []BindGroup
}

// ComputePipeline is a compute pipeline that can be rebuilt from a new
// shader.
type ComputePipeline struct {
	desc       ComputeDesc
	device     hal.Device
	layout     *Layout
	pipeline   hal.ComputePipeline
	retired    []hal.ComputePipeline
	generation uint64
}

// NewComputePipeline creates the layout and first pipeline generation.
// An empty entry point means cs_main.
func NewComputePipeline(device hal.Device, module *gpu.ShaderModule, desc ComputeDesc) (*ComputePipeline, error) {
	if device == nil {
		return nil, errNilDevice
	}
	if desc.Entry == "" {
		desc.Entry = DefaultComputeEntry
	}
	if desc.Label == "" {
		desc.Label = desc.Entry
	}
	layout, err := newLayout(device, desc.Label, desc.BindGroups)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", desc.Label, err)
	}
	p := &ComputePipeline{desc: desc, device: device, layout: layout}
	if err := p.Reload(device, module); err != nil {
		layout.destroy(device)
		return nil, err
	}
	return p, nil
}

// Reload builds a new pipeline from module and swaps it in, retiring the
// old one. On error the previous pipeline is kept.
func (p *ComputePipeline) Reload(device hal.Device, module *gpu.ShaderModule) error {
	if p.layout == nil {
		return ErrDestroyed
	}
	if module == nil || !module.Realized() {
		return errNoModule
	}
	next, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  p.desc.Label,
		Layout: p.layout.Pipeline(),
		Compute: hal.ComputeState{
			Module:     module.Handle,
			EntryPoint: p.desc.Entry,
		},
	})
	if err != nil {
		return fmt.Errorf("pipeline %q: create compute pipeline: %w", p.desc.Label, err)
	}
	if p.pipeline != nil {
		p.retired = append(p.retired, p.pipeline)
	}
	p.pipeline = next
	p.generation++
	return nil
}

// Retired returns the number of replaced pipelines not yet freed.
func (p *ComputePipeline) Retired() int { return len(p.retired) }

// Collect frees retired pipelines once the GPU is done with them.
func (p *ComputePipeline) Collect() {
	for _, old := range p.retired {
		p.device.DestroyComputePipeline(old)
	}
	p.retired = nil
}

// Pipeline returns the current hal pipeline, or nil after Destroy.
func (p *ComputePipeline) Pipeline() hal.ComputePipeline { return p.pipeline }

// Layout returns the layout shared by all generations.
func (p *ComputePipeline) Layout() *Layout { return p.layout }

// Entry returns the compute entry point.
func (p *ComputePipeline) Entry() string { return p.desc.Entry }

// Label returns the debug label the pipeline was created with.
func (p *ComputePipeline) Label() string { return p.desc.Label }

// Generation counts successful builds, starting at 1 after construction.
func (p *ComputePipeline) Generation() uint64 { return p.generation }

// Destroy releases the pipeline, any retired ones and the layout. It is
// idempotent.
func (p *ComputePipeline) Destroy() {
	p.Collect()
	if p.pipeline != nil {
		p.device.DestroyComputePipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.layout != nil {
		p.layout.destroy(p.device)
		p.layout = nil
	}
}
