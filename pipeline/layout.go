// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// BindGroup describes the entries of one bind group layout.
type BindGroup []gputypes.BindGroupLayoutEntry

// UniformBuffer returns a bind group with a single uniform buffer at
// binding 0 visible to the given stages.
func UniformBuffer(visibility gputypes.ShaderStages) BindGroup {
	return BindGroup{{
		Binding:    0,
		Visibility: visibility,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}}
}

// StorageBuffer returns a bind group with a single read-write storage
// buffer at binding 0, visible to compute shaders.
func StorageBuffer() BindGroup {
	return BindGroup{{
		Binding:    0,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
	}}
}

// Layout holds the bind group layouts and pipeline layout shared by every
// generation of a pipeline.
type Layout struct {
	groups   []hal.BindGroupLayout
	pipeline hal.PipelineLayout
}

func newLayout(device hal.Device, label string, groups []BindGroup) (*Layout, error) {
	l := &Layout{}
	for i, g := range groups {
		bgl, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s_group%d", label, i),
			Entries: g,
		})
		if err != nil {
			l.destroy(device)
			return nil, fmt.Errorf("create bind group layout %d: %w", i, err)
		}
		l.groups = append(l.groups, bgl)
	}

	pl, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_layout",
		BindGroupLayouts: l.groups,
	})
	if err != nil {
		l.destroy(device)
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	l.pipeline = pl
	return l, nil
}

// BindGroupLayout returns the layout of bind group i, or nil.
func (l *Layout) BindGroupLayout(i int) hal.BindGroupLayout {
	if i < 0 || i >= len(l.groups) {
		return nil
	}
	return l.groups[i]
}

// NumBindGroups returns the number of bind group layouts.
func (l *Layout) NumBindGroups() int { return len(l.groups) }

// Pipeline returns the pipeline layout.
func (l *Layout) Pipeline() hal.PipelineLayout { return l.pipeline }

// destroy releases layouts in reverse creation order. Safe on a partially
// built layout.
func (l *Layout) destroy(device hal.Device) {
	if l.pipeline != nil {
		device.DestroyPipelineLayout(l.pipeline)
		l.pipeline = nil
	}
	for i := len(l.groups) - 1; i >= 0; i-- {
		device.DestroyBindGroupLayout(l.groups[i])
	}
	l.groups = nil
}
