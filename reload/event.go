// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package reload

import (
	"sync"

	"github.com/gogpu/shaderplay/gpu"
)

// Event announces a successfully recompiled shader file. It names the file,
// not the pipelines: targets are resolved when the event is dispatched.
type Event struct {
	// Path is the canonical path of the shader file.
	Path string

	// Module is the recompiled shader. Its Handle may be nil when the
	// sender had no device; the dispatcher realizes it before use.
	Module *gpu.ShaderModule
}

// Sink receives events from the watcher goroutine.
// Implementations must be safe for concurrent use and must not block the
// owning goroutine.
type Sink interface {
	Send(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Send calls f(ev).
func (f SinkFunc) Send(ev Event) { f(ev) }

// Inbox is an unbounded FIFO of events. Send never blocks; Drain hands all
// pending events to the owning goroutine without waiting.
type Inbox struct {
	mu    sync.Mutex
	queue []Event
	ready chan struct{}
}

// NewInbox creates an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{ready: make(chan struct{}, 1)}
}

// Send appends ev to the inbox.
func (in *Inbox) Send(ev Event) {
	in.mu.Lock()
	in.queue = append(in.queue, ev)
	in.mu.Unlock()

	select {
	case in.ready <- struct{}{}:
	default:
	}
}

// Drain removes and returns all pending events in the order they were sent.
// It returns nil when the inbox is empty.
func (in *Inbox) Drain() []Event {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.queue) == 0 {
		return nil
	}
	evs := in.queue
	in.queue = nil
	return evs
}

// Len returns the number of pending events.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.queue)
}

// Ready is signaled after Send. Event-driven hosts may select on it to wake
// up; a signal may cover several events, and may be stale after Drain.
func (in *Inbox) Ready() <-chan struct{} { return in.ready }
