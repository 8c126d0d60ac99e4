// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/shaderplay/internal/gputest"
)

func TestPresenterDrawsCurrentGeneration(t *testing.T) {
	device, queue := gputest.NewDevice(t)
	p, err := NewRenderPipeline(device, realized(t, device, gputest.TriangleWGSL), RenderDesc{Label: "present"})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	r, err := NewPresenter(device, queue, gputypes.Color{A: 1})
	if err != nil {
		t.Fatal(err)
	}
	view := gputest.View(1)

	if err := r.Draw(view, p, FullscreenVertices); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	first := p.Pipeline()
	if err := p.Reload(device, realized(t, device, gputest.TintedTriangleWGSL)); err != nil {
		t.Fatal(err)
	}
	if err := r.Draw(view, p, FullscreenVertices); err != nil {
		t.Fatalf("Draw after reload: %v", err)
	}

	draws := device.Draws()
	if len(draws) != 2 {
		t.Fatalf("recorded %d draws, want 2", len(draws))
	}
	for _, d := range draws {
		if d.Vertices != FullscreenVertices || d.Target != view {
			t.Errorf("draw = %+v, want 3 vertices into the view", d)
		}
	}
	if draws[0].Pipeline != first || draws[1].Pipeline != p.Pipeline() || first == p.Pipeline() {
		t.Error("second frame did not use the reloaded pipeline")
	}

	// The noop queue completes every submission, so the first frame is
	// reclaimed when the second is recorded.
	if r.InFlight() != 1 {
		t.Errorf("InFlight() = %d, want 1", r.InFlight())
	}
	if err := r.Release(); err != nil {
		t.Fatal(err)
	}
	c := device.Counts()
	if c.Encoders != 2 || c.DestroyedEncoders != 2 || c.FreedCommandBuffers != 2 {
		t.Errorf("encoders created=%d destroyed=%d, buffers freed=%d; want 2 each",
			c.Encoders, c.DestroyedEncoders, c.FreedCommandBuffers)
	}
}

func TestPresenterRejectsMissingInputs(t *testing.T) {
	device, queue := gputest.NewDevice(t)
	if _, err := NewPresenter(nil, queue, gputypes.Color{}); err == nil {
		t.Error("nil device accepted")
	}
	if _, err := NewPresenter(device, nil, gputypes.Color{}); err == nil {
		t.Error("nil queue accepted")
	}

	r, err := NewPresenter(device, queue, gputypes.Color{})
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewRenderPipeline(device, realized(t, device, gputest.TriangleWGSL), RenderDesc{})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Draw(nil, p, FullscreenVertices); err == nil {
		t.Error("nil view accepted")
	}
	p.Destroy()
	if err := r.Draw(gputest.View(1), p, FullscreenVertices); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Draw with destroyed pipeline = %v, want ErrDestroyed", err)
	}
	if len(device.Draws()) != 0 {
		t.Error("rejected frames recorded draws")
	}
}
