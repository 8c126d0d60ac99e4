// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// ErrDeviceLost is returned by operations on a destroyed Device.
var ErrDeviceLost = errors.New("gpu: device destroyed")

// Backend selects the HAL implementation opened by Open.
type Backend string

const (
	// BackendNoop opens the wgpu noop backend. Every resource creation
	// succeeds without touching a GPU; used for headless runs and tests.
	BackendNoop Backend = "noop"

	// BackendVulkan opens the first discrete or integrated Vulkan adapter.
	BackendVulkan Backend = "vulkan"
)

// Device is a graphics device and its queue.
//
// HAL and Queue may be used from the owning goroutine only. CreateShaderModule
// and Destroy are safe for concurrent use.
type Device struct {
	mu        sync.RWMutex
	destroyed bool

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	name     string

	// external is true for adopted devices, which the host destroys.
	external bool
}

// Open creates an instance of the requested backend and opens a device on
// its preferred adapter.
func Open(backend Backend) (*Device, error) {
	var (
		instance hal.Instance
		err      error
	)
	switch backend {
	case BackendNoop:
		api := noop.API{}
		instance, err = api.CreateInstance(nil)
	case BackendVulkan:
		b, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil, fmt.Errorf("gpu: vulkan backend not available")
		}
		instance, err = b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	default:
		return nil, fmt.Errorf("gpu: unknown backend %q", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s instance: %w", backend, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: no %s adapters found", backend)
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open %s device: %w", backend, err)
	}

	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		name:     selected.Info.Name,
	}, nil
}

// FromProvider adopts the device of a host application. The provider must
// implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue, as gogpu's GPU context provider does. Destroy on an adopted
// device only marks it lost; the host keeps ownership.
func FromProvider(provider any) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}
	return Wrap(device, queue), nil
}

// Wrap adopts an existing device and queue without taking ownership.
func Wrap(device hal.Device, queue hal.Queue) *Device {
	return &Device{
		device:   device,
		queue:    queue,
		name:     "external",
		external: true,
	}
}

// HAL returns the underlying device.
func (d *Device) HAL() hal.Device { return d.device }

// Queue returns the device queue.
func (d *Device) Queue() hal.Queue { return d.queue }

// Name returns the adapter name.
func (d *Device) Name() string { return d.name }

// External reports whether the device is owned by a host application.
func (d *Device) External() bool { return d.external }

// Lost reports whether Destroy has been called.
func (d *Device) Lost() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.destroyed
}

// Destroy releases the device and its instance. Safe to call more than once.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return
	}
	d.destroyed = true
	if d.external {
		return
	}
	if d.device != nil {
		d.device.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
	}
}
