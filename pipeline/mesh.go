// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderplay/gpu"
)

// MeshPipeline is a render pipeline with a vertex buffer uploaded once at
// construction. Reloading rebuilds the pipeline only; the vertex buffer is
// never recreated.
type MeshPipeline struct {
	*RenderPipeline

	vertices    hal.Buffer
	vertexCount uint32
}

// NewMeshPipeline creates a render pipeline and uploads vertices through
// queue. stride is the number of float32 values per vertex. If desc has no
// vertex buffer layouts, one is derived from stride with consecutive
// float32x4/3/2/1 attributes covering it.
func NewMeshPipeline(device hal.Device, queue hal.Queue, module *gpu.ShaderModule, desc RenderDesc, vertices []float32, stride int) (*MeshPipeline, error) {
	if stride <= 0 || len(vertices) == 0 || len(vertices)%stride != 0 {
		return nil, fmt.Errorf("pipeline: %d floats do not form vertices of stride %d", len(vertices), stride)
	}
	if queue == nil {
		return nil, errors.New("pipeline: nil queue")
	}
	if len(desc.VertexBuffers) == 0 {
		desc.VertexBuffers = []gputypes.VertexBufferLayout{vertexLayout(stride)}
	}
	rp, err := NewRenderPipeline(device, module, desc)
	if err != nil {
		return nil, err
	}

	data := float32Bytes(vertices)
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: rp.desc.Label + "_vertices",
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		rp.Destroy()
		return nil, fmt.Errorf("pipeline %q: create vertex buffer: %w", rp.desc.Label, err)
	}
	queue.WriteBuffer(buf, 0, data)

	return &MeshPipeline{
		RenderPipeline: rp,
		vertices:       buf,
		vertexCount:    uint32(len(vertices) / stride), //nolint:gosec // vertex count fits uint32
	}, nil
}

// VertexBuffer returns the retained vertex buffer.
func (m *MeshPipeline) VertexBuffer() hal.Buffer { return m.vertices }

// VertexCount returns the number of vertices in the buffer.
func (m *MeshPipeline) VertexCount() uint32 { return m.vertexCount }

// Destroy releases the vertex buffer, the pipeline and its layout.
func (m *MeshPipeline) Destroy() {
	if m.vertices != nil {
		m.device.DestroyBuffer(m.vertices)
		m.vertices = nil
	}
	m.RenderPipeline.Destroy()
}

// vertexLayout packs stride floats into as few attributes as possible,
// assigning shader locations from 0.
func vertexLayout(stride int) gputypes.VertexBufferLayout {
	formats := [...]gputypes.VertexFormat{
		gputypes.VertexFormatFloat32,
		gputypes.VertexFormatFloat32x2,
		gputypes.VertexFormatFloat32x3,
		gputypes.VertexFormatFloat32x4,
	}
	var attrs []gputypes.VertexAttribute
	offset := 0
	for loc := uint32(0); offset < stride; loc++ {
		n := min(stride-offset, 4)
		attrs = append(attrs, gputypes.VertexAttribute{
			Format:         formats[n-1],
			Offset:         uint64(offset * 4), //nolint:gosec // small positive offset
			ShaderLocation: loc,
		})
		offset += n
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: uint64(stride * 4), //nolint:gosec // small positive stride
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

func float32Bytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
