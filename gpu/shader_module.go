// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderplay/shader"
)

// ShaderModule is compiled SPIR-V together with the device object created
// from it. Handle is nil until the module is realized on a device.
type ShaderModule struct {
	Label    string
	Code     []uint32
	Bindings []shader.Binding
	Handle   hal.ShaderModule
}

// NewShaderModule wraps compiled code without creating a device object.
func NewShaderModule(label string, m *shader.Module) *ShaderModule {
	return &ShaderModule{Label: label, Code: m.Code, Bindings: m.Bindings}
}

// Realized reports whether the module has a device object.
func (m *ShaderModule) Realized() bool { return m.Handle != nil }

// Realize creates the device object if it does not exist yet.
func (m *ShaderModule) Realize(device hal.Device) error {
	if m.Handle != nil {
		return nil
	}
	h, err := CreateShaderModule(device, m.Label, m.Code)
	if err != nil {
		return err
	}
	m.Handle = h
	return nil
}

// Release destroys the device object. Pipelines created from the module
// remain valid.
func (m *ShaderModule) Release(device hal.Device) {
	if m.Handle == nil || device == nil {
		return
	}
	device.DestroyShaderModule(m.Handle)
	m.Handle = nil
}

// CreateShaderModule creates a device shader module from SPIR-V words.
// Safe for concurrent use with Destroy; returns ErrDeviceLost once the
// device is gone.
func (d *Device) CreateShaderModule(label string, m *shader.Module) (*ShaderModule, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.destroyed {
		return nil, ErrDeviceLost
	}
	sm := NewShaderModule(label, m)
	if err := sm.Realize(d.device); err != nil {
		return nil, err
	}
	return sm, nil
}

// CreateShaderModule creates a HAL shader module from SPIR-V code.
func CreateShaderModule(device hal.Device, label string, code []uint32) (hal.ShaderModule, error) {
	if device == nil {
		return nil, errors.New("gpu: nil device")
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("gpu: shader module %q has no code", label)
	}
	h, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: label,
		Source: hal.ShaderSource{
			SPIRV: code,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create shader module %q: %w", label, err)
	}
	return h, nil
}
