// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderplay/gpu"
	"github.com/gogpu/shaderplay/internal/gputest"
	"github.com/gogpu/shaderplay/reload"
)

// Compile-time interface checks.
var (
	_ reload.Target = (*RenderPipeline)(nil)
	_ reload.Target = (*ComputePipeline)(nil)
	_ reload.Target = (*MeshPipeline)(nil)

	_ reload.Collector = (*RenderPipeline)(nil)
	_ reload.Collector = (*ComputePipeline)(nil)
)

func realized(t *testing.T, device hal.Device, src string) *gpu.ShaderModule {
	t.Helper()
	m := gpu.NewShaderModule("test", gputest.Compile(t, "test.wgsl", src))
	if err := m.Realize(device); err != nil {
		t.Fatalf("Realize: %v", err)
	}
	t.Cleanup(func() { m.Release(device) })
	return m
}

func TestRenderPipelineDefaults(t *testing.T) {
	device, _ := gputest.NewDevice(t)
	p, err := NewRenderPipeline(device, realized(t, device, gputest.TriangleWGSL), RenderDesc{})
	if err != nil {
		t.Fatalf("NewRenderPipeline: %v", err)
	}
	defer p.Destroy()

	if p.Pipeline() == nil {
		t.Fatal("Pipeline() is nil")
	}
	if p.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", p.Generation())
	}
	d := p.Desc()
	if d.VertexEntry != DefaultVertexEntry || d.FragmentEntry != DefaultFragmentEntry {
		t.Errorf("entries = %s/%s", d.VertexEntry, d.FragmentEntry)
	}
	if len(d.Targets) != 1 || d.Targets[0].Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("Targets = %+v", d.Targets)
	}
	if d.Primitive.Topology != gputypes.PrimitiveTopologyTriangleList {
		t.Errorf("Topology = %v", d.Primitive.Topology)
	}
	if d.Multisample.Count != 1 {
		t.Errorf("Multisample.Count = %d", d.Multisample.Count)
	}
}

func TestRenderPipelineReloadIsIdempotent(t *testing.T) {
	device, _ := gputest.NewDevice(t)
	desc := RenderDesc{Label: "present", BindGroups: []BindGroup{UniformBuffer(gputypes.ShaderStageVertex | gputypes.ShaderStageFragment)}}
	p, err := NewRenderPipeline(device, realized(t, device, gputest.TriangleWGSL), desc)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()
	layout := p.Layout()

	for range 2 {
		if err := p.Reload(device, realized(t, device, gputest.TriangleWGSL)); err != nil {
			t.Fatalf("Reload: %v", err)
		}
	}

	entries := device.RenderEntryPoints()
	if len(entries) != 3 {
		t.Fatalf("created %d pipelines, want 3", len(entries))
	}
	for _, e := range entries {
		if e != "vs_main/fs_main" {
			t.Errorf("entry points %q differ between generations", e)
		}
	}
	if p.Layout() != layout {
		t.Error("layout was rebuilt by Reload")
	}
	c := device.Counts()
	if c.BindGroupLayouts != 1 || c.PipelineLayouts != 1 {
		t.Errorf("layouts created: bind groups %d, pipeline %d; want 1 each", c.BindGroupLayouts, c.PipelineLayouts)
	}
	if c.DestroyedRenderPipeline != 0 || p.Retired() != 2 {
		t.Errorf("destroyed=%d retired=%d, want 0/2", c.DestroyedRenderPipeline, p.Retired())
	}
	p.Collect()
	if n := device.Counts().DestroyedRenderPipeline; n != 2 || p.Retired() != 0 {
		t.Errorf("after Collect destroyed=%d retired=%d, want 2/0", n, p.Retired())
	}
	if p.Generation() != 3 {
		t.Errorf("Generation() = %d, want 3", p.Generation())
	}
	if p.Label() != "present" {
		t.Errorf("Label() = %q", p.Label())
	}
}

func TestRenderPipelineFailedReloadKeepsPrevious(t *testing.T) {
	device, _ := gputest.NewDevice(t)
	p, err := NewRenderPipeline(device, realized(t, device, gputest.TriangleWGSL), RenderDesc{})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()
	before := p.Pipeline()

	device.FailPipelines(true)
	err = p.Reload(device, realized(t, device, gputest.TintedTriangleWGSL))
	if !errors.Is(err, gputest.ErrInjected) {
		t.Fatalf("Reload error = %v, want ErrInjected", err)
	}
	if p.Pipeline() != before || p.Generation() != 1 {
		t.Error("failed reload replaced the pipeline")
	}
	if device.Counts().DestroyedRenderPipeline != 0 {
		t.Error("failed reload destroyed the previous pipeline")
	}

	device.FailPipelines(false)
	if err := p.Reload(device, realized(t, device, gputest.TintedTriangleWGSL)); err != nil {
		t.Fatalf("Reload after recovery: %v", err)
	}
	if p.Generation() != 2 {
		t.Errorf("Generation() = %d, want 2", p.Generation())
	}
}

func TestRenderPipelineRejectsUnrealizedModule(t *testing.T) {
	device, _ := gputest.NewDevice(t)
	p, err := NewRenderPipeline(device, realized(t, device, gputest.TriangleWGSL), RenderDesc{})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	raw := gpu.NewShaderModule("raw", gputest.Compile(t, "raw.wgsl", gputest.TriangleWGSL))
	if err := p.Reload(device, raw); err == nil {
		t.Error("Reload accepted a module without a device handle")
	}
	if err := p.Reload(device, nil); err == nil {
		t.Error("Reload accepted a nil module")
	}
}

func TestNewRenderPipelineFailureReleasesLayout(t *testing.T) {
	device, _ := gputest.NewDevice(t)
	device.FailPipelines(true)
	_, err := NewRenderPipeline(device, realized(t, device, gputest.TriangleWGSL), RenderDesc{})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, err := NewRenderPipeline(nil, nil, RenderDesc{}); err == nil {
		t.Error("expected error for nil device")
	}
}

func TestRenderPipelineDestroy(t *testing.T) {
	device, _ := gputest.NewDevice(t)
	p, err := NewRenderPipeline(device, realized(t, device, gputest.TriangleWGSL), RenderDesc{})
	if err != nil {
		t.Fatal(err)
	}
	p.Destroy()
	p.Destroy()

	if p.Pipeline() != nil || p.Layout() != nil {
		t.Error("Destroy left resources behind")
	}
	if device.Counts().DestroyedRenderPipeline != 1 {
		t.Errorf("destroyed %d pipelines, want 1", device.Counts().DestroyedRenderPipeline)
	}
	if err := p.Reload(device, realized(t, device, gputest.TriangleWGSL)); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Reload after Destroy = %v, want ErrDestroyed", err)
	}
}

func TestReloadRetiresPipelineInUse(t *testing.T) {
	device, _ := gputest.NewDevice(t)
	p, err := NewRenderPipeline(device, realized(t, device, gputest.TriangleWGSL), RenderDesc{})
	if err != nil {
		t.Fatal(err)
	}
	inFlight := p.Pipeline()

	if err := p.Reload(device, realized(t, device, gputest.TintedTriangleWGSL)); err != nil {
		t.Fatal(err)
	}
	if p.Pipeline() == inFlight {
		t.Fatal("Reload did not swap the pipeline")
	}
	if n := device.Counts().DestroyedRenderPipeline; n != 0 {
		t.Fatalf("Reload destroyed %d pipelines while a frame may still use them", n)
	}

	cp, err := NewComputePipeline(device, realized(t, device, gputest.XorWGSL), ComputeDesc{Entry: "cs_xor"})
	if err != nil {
		t.Fatal(err)
	}
	if err := cp.Reload(device, realized(t, device, gputest.XorWGSL)); err != nil {
		t.Fatal(err)
	}
	if cp.Retired() != 1 || device.Counts().DestroyedComputePipes != 0 {
		t.Errorf("compute retired=%d destroyed=%d, want 1/0", cp.Retired(), device.Counts().DestroyedComputePipes)
	}

	p.Destroy()
	cp.Destroy()
	c := device.Counts()
	if c.DestroyedRenderPipeline != 2 || c.DestroyedComputePipes != 2 {
		t.Errorf("Destroy freed render=%d compute=%d, want 2/2", c.DestroyedRenderPipeline, c.DestroyedComputePipes)
	}
}

func TestComputePipelinesShareOneFile(t *testing.T) {
	device, _ := gputest.NewDevice(t)
	module := realized(t, device, gputest.XorWGSL)

	xor, err := NewComputePipeline(device, module, ComputeDesc{Entry: "cs_xor", BindGroups: []BindGroup{StorageBuffer()}})
	if err != nil {
		t.Fatal(err)
	}
	defer xor.Destroy()
	zero, err := NewComputePipeline(device, module, ComputeDesc{Entry: "cs_clear", BindGroups: []BindGroup{StorageBuffer()}})
	if err != nil {
		t.Fatal(err)
	}
	defer zero.Destroy()

	next := realized(t, device, gputest.XorWGSL)
	for _, p := range []*ComputePipeline{xor, zero} {
		if err := p.Reload(device, next); err != nil {
			t.Fatalf("Reload %s: %v", p.Entry(), err)
		}
	}

	want := []string{"cs_xor", "cs_clear", "cs_xor", "cs_clear"}
	if got := device.ComputeEntryPoints(); !slices.Equal(got, want) {
		t.Errorf("compute entry points = %v, want %v", got, want)
	}
	if xor.Layout().NumBindGroups() != 1 || xor.Layout().BindGroupLayout(0) == nil {
		t.Error("compute layout missing its storage group")
	}
}

func TestComputePipelineDefaultsAndFailure(t *testing.T) {
	device, _ := gputest.NewDevice(t)
	p, err := NewComputePipeline(device, realized(t, device, gputest.XorWGSL), ComputeDesc{Entry: "cs_xor"})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	device.FailPipelines(true)
	before := p.Pipeline()
	if err := p.Reload(device, realized(t, device, gputest.XorWGSL)); err == nil {
		t.Fatal("expected error")
	}
	if p.Pipeline() != before || p.Generation() != 1 {
		t.Error("failed reload changed the pipeline")
	}

	device.FailPipelines(false)
	q, err := NewComputePipeline(device, realized(t, device, gputest.XorWGSL), ComputeDesc{})
	if err != nil {
		t.Fatal(err)
	}
	defer q.Destroy()
	if q.Entry() != DefaultComputeEntry {
		t.Errorf("Entry() = %q, want %q", q.Entry(), DefaultComputeEntry)
	}
	if q.Label() != DefaultComputeEntry {
		t.Errorf("Label() = %q, want the entry point", q.Label())
	}
}

func TestMeshPipelineReloadKeepsVertexBuffer(t *testing.T) {
	device, queue := gputest.NewDevice(t)
	// Two triangles of (x, y, r, g, b).
	verts := []float32{
		-1, -1, 1, 0, 0,
		1, -1, 0, 1, 0,
		0, 1, 0, 0, 1,
		-1, 1, 1, 1, 0,
		1, 1, 0, 1, 1,
		0, -1, 1, 0, 1,
	}
	m, err := NewMeshPipeline(device, queue, realized(t, device, gputest.TriangleWGSL), RenderDesc{Label: "cube"}, verts, 5)
	if err != nil {
		t.Fatalf("NewMeshPipeline: %v", err)
	}
	defer m.Destroy()

	if m.VertexCount() != 6 {
		t.Errorf("VertexCount() = %d, want 6", m.VertexCount())
	}
	buf := m.VertexBuffer()

	if err := m.Reload(device, realized(t, device, gputest.TintedTriangleWGSL)); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if m.VertexBuffer() != buf {
		t.Error("Reload replaced the vertex buffer")
	}
	c := device.Counts()
	if c.Buffers != 1 || c.DestroyedBuffers != 0 {
		t.Errorf("buffers created=%d destroyed=%d, want 1/0", c.Buffers, c.DestroyedBuffers)
	}
	if m.Generation() != 2 {
		t.Errorf("Generation() = %d, want 2", m.Generation())
	}

	vb := m.Desc().VertexBuffers
	if len(vb) != 1 || vb[0].ArrayStride != 20 || len(vb[0].Attributes) != 2 {
		t.Fatalf("derived vertex layout = %+v", vb)
	}
}

func TestMeshPipelineRejectsBadVertices(t *testing.T) {
	device, queue := gputest.NewDevice(t)
	module := realized(t, device, gputest.TriangleWGSL)
	tests := []struct {
		name   string
		verts  []float32
		stride int
	}{
		{"empty", nil, 2},
		{"zero stride", []float32{1, 2}, 0},
		{"ragged", []float32{1, 2, 3}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMeshPipeline(device, queue, module, RenderDesc{}, tt.verts, tt.stride); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMeshPipelineDestroyReleasesBuffer(t *testing.T) {
	device, queue := gputest.NewDevice(t)
	m, err := NewMeshPipeline(device, queue, realized(t, device, gputest.TriangleWGSL), RenderDesc{}, []float32{0, 0, 1, 0, 0, 1}, 2)
	if err != nil {
		t.Fatal(err)
	}
	m.Destroy()
	m.Destroy()
	if c := device.Counts(); c.DestroyedBuffers != 1 || c.DestroyedRenderPipeline != 1 {
		t.Errorf("Counts after Destroy = %+v", c)
	}
}

func TestVertexLayout(t *testing.T) {
	tests := []struct {
		stride  int
		formats []gputypes.VertexFormat
	}{
		{2, []gputypes.VertexFormat{gputypes.VertexFormatFloat32x2}},
		{3, []gputypes.VertexFormat{gputypes.VertexFormatFloat32x3}},
		{6, []gputypes.VertexFormat{gputypes.VertexFormatFloat32x4, gputypes.VertexFormatFloat32x2}},
		{9, []gputypes.VertexFormat{gputypes.VertexFormatFloat32x4, gputypes.VertexFormatFloat32x4, gputypes.VertexFormatFloat32}},
	}
	for _, tt := range tests {
		l := vertexLayout(tt.stride)
		if l.ArrayStride != uint64(tt.stride*4) {
			t.Errorf("stride %d: ArrayStride = %d", tt.stride, l.ArrayStride)
		}
		if len(l.Attributes) != len(tt.formats) {
			t.Fatalf("stride %d: %d attributes, want %d", tt.stride, len(l.Attributes), len(tt.formats))
		}
		offset := uint64(0)
		for i, a := range l.Attributes {
			if a.Format != tt.formats[i] || a.ShaderLocation != uint32(i) || a.Offset != offset {
				t.Errorf("stride %d attr %d = %+v", tt.stride, i, a)
			}
			offset += 16
		}
	}
}

func TestFloat32Bytes(t *testing.T) {
	got := float32Bytes([]float32{1, -2})
	want := []byte{0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x00, 0xc0}
	if !slices.Equal(got, want) {
		t.Errorf("float32Bytes = %x, want %x", got, want)
	}
}
