// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gputest provides noop-backed devices for tests.
package gputest

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// ErrInjected is returned by a Device whose failure switch is set.
var ErrInjected = errors.New("gputest: injected failure")

// NoopDevice creates a noop device and queue for testing. Both are
// destroyed when the test ends.
func NoopDevice(t testing.TB) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

// Counts tallies resource creation and destruction on a Device.
type Counts struct {
	ShaderModules           int
	DestroyedShaderModules  int
	RenderPipelines         int
	DestroyedRenderPipeline int
	ComputePipelines        int
	DestroyedComputePipes   int
	Buffers                 int
	DestroyedBuffers        int
	BindGroupLayouts        int
	PipelineLayouts         int
	WaitIdles               int
	Encoders                int
	DestroyedEncoders       int
	FreedCommandBuffers     int
}

// handle gives a backend object a distinct identity. The noop backend
// returns pointers to zero-size values, which may compare equal.
type handle struct {
	hal.Resource
	id int
}

// View returns a texture view distinguishable from every other view.
func View(id int) hal.TextureView {
	return &handle{Resource: nopResource{}, id: id}
}

func (h *handle) NativeHandle() uintptr { return uintptr(h.id) } //nolint:gosec // test identity

type nopResource struct{}

func (nopResource) Destroy() {}

// Draw is one draw call recorded in a render pass.
type Draw struct {
	Pipeline hal.RenderPipeline
	Vertices uint32
	Target   hal.TextureView
}

// Device wraps a noop hal.Device, counting pipeline-related calls and
// optionally failing pipeline creation.
type Device struct {
	hal.Device

	mu             sync.Mutex
	counts         Counts
	failPipelines  bool
	failShaders    bool
	failWait       bool
	renderEntries  []string
	computeEntries []string
	draws          []Draw
}

// NewDevice returns a counting device backed by a fresh noop device.
func NewDevice(t testing.TB) (*Device, hal.Queue) {
	t.Helper()
	dev, queue := NoopDevice(t)
	return &Device{Device: dev}, queue
}

// FailPipelines makes subsequent render and compute pipeline creation fail.
func (d *Device) FailPipelines(fail bool) {
	d.mu.Lock()
	d.failPipelines = fail
	d.mu.Unlock()
}

// FailShaderModules makes subsequent shader module creation fail.
func (d *Device) FailShaderModules(fail bool) {
	d.mu.Lock()
	d.failShaders = fail
	d.mu.Unlock()
}

// FailWaitIdle makes subsequent WaitIdle calls fail.
func (d *Device) FailWaitIdle(fail bool) {
	d.mu.Lock()
	d.failWait = fail
	d.mu.Unlock()
}

// Counts returns a snapshot of the call counters.
func (d *Device) Counts() Counts {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts
}

// RenderEntryPoints returns "vertex/fragment" for every render pipeline
// created, in order.
func (d *Device) RenderEntryPoints() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.renderEntries...)
}

// ComputeEntryPoints returns the entry point of every compute pipeline
// created, in order.
func (d *Device) ComputeEntryPoints() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.computeEntries...)
}

func (d *Device) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	d.mu.Lock()
	fail := d.failShaders
	d.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	m, err := d.Device.CreateShaderModule(desc)
	if err == nil {
		d.mu.Lock()
		d.counts.ShaderModules++
		d.mu.Unlock()
	}
	return m, err
}

func (d *Device) DestroyShaderModule(m hal.ShaderModule) {
	d.mu.Lock()
	d.counts.DestroyedShaderModules++
	d.mu.Unlock()
	d.Device.DestroyShaderModule(m)
}

func (d *Device) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failPipelines {
		return nil, ErrInjected
	}
	p, err := d.Device.CreateRenderPipeline(desc)
	if err == nil {
		d.counts.RenderPipelines++
		p = &handle{Resource: p, id: d.counts.RenderPipelines}
		entry := desc.Vertex.EntryPoint
		if desc.Fragment != nil {
			entry += "/" + desc.Fragment.EntryPoint
		}
		d.renderEntries = append(d.renderEntries, entry)
	}
	return p, err
}

func (d *Device) DestroyRenderPipeline(p hal.RenderPipeline) {
	d.mu.Lock()
	d.counts.DestroyedRenderPipeline++
	d.mu.Unlock()
	d.Device.DestroyRenderPipeline(p)
}

func (d *Device) CreateComputePipeline(desc *hal.ComputePipelineDescriptor) (hal.ComputePipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failPipelines {
		return nil, ErrInjected
	}
	p, err := d.Device.CreateComputePipeline(desc)
	if err == nil {
		d.counts.ComputePipelines++
		p = &handle{Resource: p, id: d.counts.ComputePipelines}
		d.computeEntries = append(d.computeEntries, desc.Compute.EntryPoint)
	}
	return p, err
}

func (d *Device) DestroyComputePipeline(p hal.ComputePipeline) {
	d.mu.Lock()
	d.counts.DestroyedComputePipes++
	d.mu.Unlock()
	d.Device.DestroyComputePipeline(p)
}

func (d *Device) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	b, err := d.Device.CreateBuffer(desc)
	if err == nil {
		d.mu.Lock()
		d.counts.Buffers++
		d.mu.Unlock()
	}
	return b, err
}

func (d *Device) DestroyBuffer(b hal.Buffer) {
	d.mu.Lock()
	d.counts.DestroyedBuffers++
	d.mu.Unlock()
	d.Device.DestroyBuffer(b)
}

func (d *Device) CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	l, err := d.Device.CreateBindGroupLayout(desc)
	if err == nil {
		d.mu.Lock()
		d.counts.BindGroupLayouts++
		d.mu.Unlock()
	}
	return l, err
}

func (d *Device) CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	l, err := d.Device.CreatePipelineLayout(desc)
	if err == nil {
		d.mu.Lock()
		d.counts.PipelineLayouts++
		d.mu.Unlock()
	}
	return l, err
}

func (d *Device) WaitIdle() error {
	d.mu.Lock()
	fail := d.failWait
	if !fail {
		d.counts.WaitIdles++
	}
	d.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return d.Device.WaitIdle()
}

// Draws returns every draw call recorded through the device's encoders.
func (d *Device) Draws() []Draw {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Draw(nil), d.draws...)
}

func (d *Device) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	e, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.counts.Encoders++
	d.mu.Unlock()
	return &encoder{CommandEncoder: e, d: d}, nil
}

func (d *Device) FreeCommandBuffer(cmd hal.CommandBuffer) {
	d.mu.Lock()
	d.counts.FreedCommandBuffers++
	d.mu.Unlock()
	d.Device.FreeCommandBuffer(cmd)
}

type encoder struct {
	hal.CommandEncoder
	d *Device
}

func (e *encoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	var target hal.TextureView
	if len(desc.ColorAttachments) > 0 {
		target = desc.ColorAttachments[0].View
	}
	return &renderPass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), d: e.d, target: target}
}

func (e *encoder) Destroy() {
	e.d.mu.Lock()
	e.d.counts.DestroyedEncoders++
	e.d.mu.Unlock()
	e.CommandEncoder.Destroy()
}

type renderPass struct {
	hal.RenderPassEncoder
	d        *Device
	target   hal.TextureView
	pipeline hal.RenderPipeline
}

func (p *renderPass) SetPipeline(pipeline hal.RenderPipeline) {
	p.pipeline = pipeline
	p.RenderPassEncoder.SetPipeline(pipeline)
}

func (p *renderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.d.mu.Lock()
	p.d.draws = append(p.d.draws, Draw{Pipeline: p.pipeline, Vertices: vertexCount, Target: p.target})
	p.d.mu.Unlock()
	p.RenderPassEncoder.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}
