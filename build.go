// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shaderplay

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/shaderplay/config"
	"github.com/gogpu/shaderplay/gpu"
	"github.com/gogpu/shaderplay/pipeline"
	"github.com/gogpu/shaderplay/reload"
	"github.com/gogpu/shaderplay/shader"
)

// Build creates and registers every pipeline in cfg. Each shader file is
// compiled once even when several pipelines use it. The pipelines are
// owned by the Context, destroyed by Close and looked up by block name with
// RenderPipeline and ComputePipeline.
//
// A pipeline's bind group layouts come from its manifest block when it
// declares them and from the shader's resource bindings otherwise. Either
// way the layout must cover every resource the shader binds.
//
// On error the pipelines built so far stay registered and owned.
func (c *Context) Build(cfg *config.Config) ([]reload.Target, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	modules := make(map[string]*gpu.ShaderModule)
	defer func() {
		for _, m := range modules {
			m.Release(c.device.HAL())
		}
	}()
	module := func(name string) (string, *gpu.ShaderModule, error) {
		path := cfg.ShaderPath(name)
		if m, ok := modules[path]; ok {
			return path, m, nil
		}
		m, err := c.Compile(path)
		if err != nil {
			return "", nil, err
		}
		modules[path] = m
		return path, m, nil
	}

	var built []reload.Target
	for _, r := range cfg.Render {
		path, m, err := module(r.Shader)
		if err != nil {
			return built, fmt.Errorf("render %q: %w", r.Name, err)
		}
		desc := renderDesc(r)
		desc.BindGroups, err = bindGroups(r.BindGroups, m.Bindings, gputypes.ShaderStageVertex|gputypes.ShaderStageFragment)
		if err != nil {
			return built, fmt.Errorf("render %q: %w", r.Name, err)
		}
		p, err := pipeline.NewRenderPipeline(c.device.HAL(), m, desc)
		if err != nil {
			return built, fmt.Errorf("render %q: %w", r.Name, err)
		}
		if err := c.adopt(path, p); err != nil {
			return built, fmt.Errorf("render %q: %w", r.Name, err)
		}
		c.renders[r.Name] = p
		built = append(built, p)
	}
	for _, cp := range cfg.Compute {
		path, m, err := module(cp.Shader)
		if err != nil {
			return built, fmt.Errorf("compute %q: %w", cp.Name, err)
		}
		groups, err := bindGroups(cp.BindGroups, m.Bindings, gputypes.ShaderStageCompute)
		if err != nil {
			return built, fmt.Errorf("compute %q: %w", cp.Name, err)
		}
		p, err := pipeline.NewComputePipeline(c.device.HAL(), m, pipeline.ComputeDesc{
			Label:      cp.Name,
			Entry:      cp.Entry,
			BindGroups: groups,
		})
		if err != nil {
			return built, fmt.Errorf("compute %q: %w", cp.Name, err)
		}
		if err := c.adopt(path, p); err != nil {
			return built, fmt.Errorf("compute %q: %w", cp.Name, err)
		}
		c.computes[cp.Name] = p
		built = append(built, p)
	}

	Logger().Info("shaderplay: built manifest pipelines",
		"render", len(cfg.Render), "compute", len(cfg.Compute), "shaders", len(modules))
	return built, nil
}

// adopt registers t and takes ownership of it. t is destroyed if it cannot
// be registered.
func (c *Context) adopt(path string, t reload.Target) error {
	if _, err := c.registry.Register(path, t); err != nil {
		if d, ok := t.(destroyer); ok {
			d.Destroy()
		}
		return err
	}
	c.owned = append(c.owned, t)
	return nil
}

func renderDesc(r config.Render) pipeline.RenderDesc {
	desc := pipeline.RenderDesc{
		Label:         r.Name,
		VertexEntry:   r.Vertex,
		FragmentEntry: r.Fragment,
	}
	for _, f := range r.Formats {
		desc.Targets = append(desc.Targets, gputypes.ColorTargetState{
			Format:    f,
			WriteMask: gputypes.ColorWriteMaskAll,
		})
	}
	return desc
}

// bindGroups resolves a pipeline's layout from the declared kinds, or from
// the shader when none are declared, and checks it against the shader.
func bindGroups(declared [][]shader.BindingKind, bindings []shader.Binding, visibility gputypes.ShaderStages) ([]pipeline.BindGroup, error) {
	if declared == nil {
		return pipeline.BindGroupsFor(bindings, visibility)
	}
	groups := make([]pipeline.BindGroup, len(declared))
	for g, kinds := range declared {
		for b, k := range kinds {
			e, err := pipeline.Entry(k, uint32(b), visibility) //nolint:gosec // binding index is small
			if err != nil {
				return nil, err
			}
			groups[g] = append(groups[g], e)
		}
	}
	if err := pipeline.CheckBindings(groups, bindings); err != nil {
		return nil, err
	}
	return groups, nil
}
