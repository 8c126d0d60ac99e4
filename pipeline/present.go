// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// FullscreenVertices is the vertex count of a fullscreen triangle generated
// from the vertex index.
const FullscreenVertices = 3

// frame is a submitted command buffer and the encoder that recorded it.
type frame struct {
	index   uint64
	encoder hal.CommandEncoder
	cmd     hal.CommandBuffer
}

// Presenter records one render pass per frame into a caller-supplied view.
// Command buffers are freed once the queue reports them complete.
//
// A Presenter belongs to the goroutine that owns the device.
type Presenter struct {
	device   hal.Device
	queue    hal.Queue
	clear    gputypes.Color
	inflight []frame
}

// NewPresenter creates a presenter that clears to clear before drawing.
func NewPresenter(device hal.Device, queue hal.Queue, clear gputypes.Color) (*Presenter, error) {
	if device == nil {
		return nil, errNilDevice
	}
	if queue == nil {
		return nil, errors.New("pipeline: nil queue")
	}
	return &Presenter{device: device, queue: queue, clear: clear}, nil
}

// Draw clears view and draws vertices with the current generation of p.
// The pipeline is read at record time, so a reload applied before Draw is
// visible in the same frame.
func (r *Presenter) Draw(view hal.TextureView, p *RenderPipeline, vertices uint32) error {
	if view == nil {
		return errors.New("pipeline: nil target view")
	}
	if p == nil || p.Pipeline() == nil {
		return ErrDestroyed
	}
	r.reclaim(r.queue.PollCompleted())

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: p.Label() + "_frame"})
	if err != nil {
		return fmt.Errorf("pipeline %q: create command encoder: %w", p.Label(), err)
	}
	if err := encoder.BeginEncoding(p.Label()); err != nil {
		encoder.Destroy()
		return fmt.Errorf("pipeline %q: begin encoding: %w", p.Label(), err)
	}

	pass := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: p.Label(),
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: r.clear,
		}},
	})
	pass.SetPipeline(p.Pipeline())
	pass.Draw(vertices, 1, 0, 0)
	pass.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.Destroy()
		return fmt.Errorf("pipeline %q: end encoding: %w", p.Label(), err)
	}
	index, err := r.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		r.device.FreeCommandBuffer(cmd)
		encoder.Destroy()
		return fmt.Errorf("pipeline %q: submit: %w", p.Label(), err)
	}
	r.inflight = append(r.inflight, frame{index: index, encoder: encoder, cmd: cmd})
	return nil
}

// InFlight returns the number of submitted frames not yet reclaimed.
func (r *Presenter) InFlight() int { return len(r.inflight) }

// reclaim frees the frames whose submission index is at most done.
func (r *Presenter) reclaim(done uint64) {
	n := 0
	for _, f := range r.inflight {
		if f.index > done {
			r.inflight[n] = f
			n++
			continue
		}
		r.device.FreeCommandBuffer(f.cmd)
		f.encoder.Destroy()
	}
	clear(r.inflight[n:])
	r.inflight = r.inflight[:n]
}

// Release waits for the device and frees every frame.
func (r *Presenter) Release() error {
	if len(r.inflight) == 0 {
		return nil
	}
	if err := r.device.WaitIdle(); err != nil {
		return fmt.Errorf("pipeline: wait for frames: %w", err)
	}
	for _, f := range r.inflight {
		r.device.FreeCommandBuffer(f.cmd)
		f.encoder.Destroy()
	}
	r.inflight = nil
	return nil
}
