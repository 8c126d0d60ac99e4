// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/shaderplay/shader"
)

// Entry returns the layout entry for a resource of the given kind at
// binding. Writable storage buffers are never visible to the vertex stage.
func Entry(kind shader.BindingKind, binding uint32, visibility gputypes.ShaderStages) (gputypes.BindGroupLayoutEntry, error) {
	e := gputypes.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}
	switch kind {
	case shader.BindingUniform:
		e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
	case shader.BindingStorage:
		e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}
		e.Visibility &^= gputypes.ShaderStageVertex
	case shader.BindingReadOnlyStorage:
		e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}
	case shader.BindingTexture:
		e.Texture = &gputypes.TextureBindingLayout{
			SampleType:    gputypes.TextureSampleTypeFloat,
			ViewDimension: gputypes.TextureViewDimension2D,
		}
	case shader.BindingSampler:
		e.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
	default:
		return e, fmt.Errorf("pipeline: binding %d: no layout for %s resources", binding, kind)
	}
	return e, nil
}

// BindGroupsFor derives bind group layouts from the resources a shader
// declares. Groups the shader skips get an empty layout.
func BindGroupsFor(bindings []shader.Binding, visibility gputypes.ShaderStages) ([]BindGroup, error) {
	var groups []BindGroup
	for _, b := range bindings {
		for uint32(len(groups)) <= b.Group { //nolint:gosec // group count is small
			groups = append(groups, BindGroup{})
		}
		e, err := Entry(b.Kind, b.Binding, visibility)
		if err != nil {
			return nil, fmt.Errorf("@group(%d) %q: %w", b.Group, b.Name, err)
		}
		groups[b.Group] = append(groups[b.Group], e)
	}
	return groups, nil
}

// CheckBindings reports the first shader resource that groups do not
// declare with a matching kind.
func CheckBindings(groups []BindGroup, bindings []shader.Binding) error {
	for _, b := range bindings {
		if int(b.Group) >= len(groups) {
			return fmt.Errorf("pipeline: shader binds %q at @group(%d) @binding(%d) but the layout has %d groups",
				b.Name, b.Group, b.Binding, len(groups))
		}
		e, ok := findEntry(groups[b.Group], b.Binding)
		if !ok {
			return fmt.Errorf("pipeline: shader binds %q at @group(%d) @binding(%d) but the layout does not",
				b.Name, b.Group, b.Binding)
		}
		if got := entryKind(e); got != b.Kind {
			return fmt.Errorf("pipeline: @group(%d) @binding(%d) %q is %s in the shader but %s in the layout",
				b.Group, b.Binding, b.Name, b.Kind, got)
		}
	}
	return nil
}

func findEntry(g BindGroup, binding uint32) (gputypes.BindGroupLayoutEntry, bool) {
	for _, e := range g {
		if e.Binding == binding {
			return e, true
		}
	}
	return gputypes.BindGroupLayoutEntry{}, false
}

func entryKind(e gputypes.BindGroupLayoutEntry) shader.BindingKind {
	switch {
	case e.Buffer != nil:
		switch e.Buffer.Type {
		case gputypes.BufferBindingTypeUniform:
			return shader.BindingUniform
		case gputypes.BufferBindingTypeStorage:
			return shader.BindingStorage
		case gputypes.BufferBindingTypeReadOnlyStorage:
			return shader.BindingReadOnlyStorage
		}
	case e.Texture != nil:
		return shader.BindingTexture
	case e.Sampler != nil:
		return shader.BindingSampler
	}
	return shader.BindingOther
}
