// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package reload

import (
	"fmt"
	"slices"

	"github.com/gogpu/wgpu/hal"
)

// Result summarizes dispatched events.
type Result struct {
	// Events is the number of events processed.
	Events int

	// Reloaded counts successful Target.Reload calls.
	Reloaded int

	// Failed counts Target.Reload calls that returned an error or panicked,
	// plus targets skipped because the module could not be realized.
	Failed int

	// Missed counts events with no registered target.
	Missed int
}

// Add accumulates o into r.
func (r *Result) Add(o Result) {
	r.Events += o.Events
	r.Reloaded += o.Reloaded
	r.Failed += o.Failed
	r.Missed += o.Missed
}

// Dispatcher applies events to the targets in a registry.
// It belongs to the owning goroutine.
type Dispatcher struct {
	registry *Registry
	device   hal.Device

	// retiring holds reloaded targets whose replaced objects are not yet
	// freed.
	retiring []Collector
}

// NewDispatcher creates a dispatcher that reloads targets of registry on
// device.
func NewDispatcher(registry *Registry, device hal.Device) *Dispatcher {
	return &Dispatcher{registry: registry, device: device}
}

// Registry returns the dispatcher's registry.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Drain dispatches every pending event of inbox in FIFO order. It never
// blocks; with an empty inbox it returns immediately.
func (d *Dispatcher) Drain(inbox *Inbox) Result {
	var total Result
	for _, ev := range inbox.Drain() {
		total.Add(d.Dispatch(ev))
	}
	return total
}

// Dispatch reloads every target registered under ev.Path exactly once.
// A failing target is logged and does not prevent the others from
// reloading. The module's device object is released afterwards.
func (d *Dispatcher) Dispatch(ev Event) Result {
	res := Result{Events: 1}
	if ev.Module == nil {
		slogger().Warn("reload: event without module", "path", ev.Path)
		return res
	}
	defer ev.Module.Release(d.device)

	targets := d.registry.Lookup(ev.Path)
	if len(targets) == 0 {
		res.Missed = 1
		slogger().Debug("reload: no targets for path", "path", ev.Path)
		return res
	}

	if err := ev.Module.Realize(d.device); err != nil {
		res.Failed = len(targets)
		slogger().Error("reload: create shader module", "path", ev.Path, "err", err)
		return res
	}

	for _, t := range targets {
		if err := reloadTarget(t, d.device, ev); err != nil {
			res.Failed++
			slogger().Warn("reload: target kept previous pipeline",
				"path", ev.Path, "type", fmt.Sprintf("%T", t), "err", err)
			continue
		}
		res.Reloaded++
		if c, ok := t.(Collector); ok && !slices.Contains(d.retiring, c) {
			d.retiring = append(d.retiring, c)
		}
	}
	slogger().Info("reload: applied shader", "path", ev.Path,
		"reloaded", res.Reloaded, "failed", res.Failed)
	return res
}

// reloadTarget calls t.Reload, converting a backend panic into an error so
// a bad edit never takes the render loop down.
func reloadTarget(t Target, device hal.Device, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reload panicked: %v", r)
		}
	}()
	return t.Reload(device, ev.Module)
}

// Retiring returns the number of targets holding replaced objects.
func (d *Dispatcher) Retiring() int { return len(d.retiring) }

// Collect waits for the device to go idle and then frees the objects
// replaced by earlier reloads. If the wait fails, nothing is freed and the
// error is returned; the next Collect tries again.
func (d *Dispatcher) Collect() error {
	if len(d.retiring) == 0 {
		return nil
	}
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("reload: wait for device: %w", err)
	}
	for _, c := range d.retiring {
		c.Collect()
	}
	slogger().Debug("reload: freed replaced pipelines", "targets", len(d.retiring))
	d.retiring = nil
	return nil
}
