// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/shaderplay/internal/gputest"
	"github.com/gogpu/shaderplay/shader"
)

func TestEntryKinds(t *testing.T) {
	vis := gputypes.ShaderStageVertex | gputypes.ShaderStageFragment
	for k := shader.BindingUniform; k <= shader.BindingSampler; k++ {
		e, err := Entry(k, 3, vis)
		if err != nil {
			t.Fatalf("Entry(%s): %v", k, err)
		}
		if e.Binding != 3 {
			t.Errorf("Entry(%s).Binding = %d", k, e.Binding)
		}
		if got := entryKind(e); got != k {
			t.Errorf("entryKind(Entry(%s)) = %s", k, got)
		}
	}

	e, _ := Entry(shader.BindingStorage, 0, vis)
	if e.Visibility != gputypes.ShaderStageFragment {
		t.Errorf("writable storage visibility = %v, want fragment only", e.Visibility)
	}
	if _, err := Entry(shader.BindingOther, 0, vis); err == nil {
		t.Error("BindingOther should have no layout")
	}
}

func TestBindGroupsForFillsSkippedGroups(t *testing.T) {
	groups, err := BindGroupsFor([]shader.Binding{
		{Group: 0, Binding: 0, Kind: shader.BindingUniform, Name: "params"},
		{Group: 2, Binding: 1, Kind: shader.BindingStorage, Name: "data"},
	}, gputypes.ShaderStageCompute)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 3 || len(groups[0]) != 1 || len(groups[1]) != 0 || len(groups[2]) != 1 {
		t.Fatalf("groups = %+v", groups)
	}
	if groups[2][0].Binding != 1 || groups[2][0].Buffer.Type != gputypes.BufferBindingTypeStorage {
		t.Errorf("group 2 entry = %+v", groups[2][0])
	}

	if _, err := BindGroupsFor([]shader.Binding{{Kind: shader.BindingOther, Name: "img"}}, gputypes.ShaderStageCompute); err == nil {
		t.Error("unsupported resource should fail")
	}
}

func TestCheckBindings(t *testing.T) {
	data := []shader.Binding{{Group: 0, Binding: 0, Kind: shader.BindingStorage, Name: "data"}}

	tests := []struct {
		name   string
		groups []BindGroup
		want   string
	}{
		{"match", []BindGroup{StorageBuffer()}, ""},
		{"no groups", nil, "layout has 0 groups"},
		{"missing binding", []BindGroup{{}}, "layout does not"},
		{"wrong kind", []BindGroup{UniformBuffer(gputypes.ShaderStageCompute)}, "storage in the shader but uniform"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckBindings(tt.groups, data)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("CheckBindings: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestDerivedLayoutMatchesShader(t *testing.T) {
	device, _ := gputest.NewDevice(t)
	module := realized(t, device, gputest.XorWGSL)

	groups, err := BindGroupsFor(module.Bindings, gputypes.ShaderStageCompute)
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewComputePipeline(device, module, ComputeDesc{Entry: "cs_xor", BindGroups: groups})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()
	if p.Layout().NumBindGroups() != 1 {
		t.Errorf("NumBindGroups = %d, want 1", p.Layout().NumBindGroups())
	}
	if err := CheckBindings(groups, module.Bindings); err != nil {
		t.Error(err)
	}
}
