// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/gogpu/naga/ir"
)

// BindingKind classifies a resource a shader binds.
type BindingKind uint8

const (
	// BindingOther is a resource with no automatic layout, such as a
	// storage texture or a binding array.
	BindingOther BindingKind = iota
	BindingUniform
	BindingStorage
	BindingReadOnlyStorage
	BindingTexture
	BindingSampler
)

// String returns the manifest spelling of the kind.
func (k BindingKind) String() string {
	switch k {
	case BindingUniform:
		return "uniform"
	case BindingStorage:
		return "storage"
	case BindingReadOnlyStorage:
		return "storage_read"
	case BindingTexture:
		return "texture"
	case BindingSampler:
		return "sampler"
	default:
		return "other"
	}
}

// ParseBindingKind parses the manifest spelling of a kind. "other" is not
// accepted.
func ParseBindingKind(s string) (BindingKind, error) {
	for k := BindingUniform; k <= BindingSampler; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return BindingOther, fmt.Errorf("unknown binding kind %q", s)
}

// Binding is one @group/@binding resource declared by a shader.
type Binding struct {
	Group   uint32
	Binding uint32
	Kind    BindingKind
	Name    string
}

// collectBindings lists the bound globals of module ordered by group and
// binding.
func collectBindings(module *ir.Module) []Binding {
	var out []Binding
	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		out = append(out, Binding{
			Group:   gv.Binding.Group,
			Binding: gv.Binding.Binding,
			Kind:    bindingKind(module, gv),
			Name:    gv.Name,
		})
	}
	slices.SortFunc(out, func(a, b Binding) int {
		if c := cmp.Compare(a.Group, b.Group); c != 0 {
			return c
		}
		return cmp.Compare(a.Binding, b.Binding)
	})
	return out
}

func bindingKind(module *ir.Module, gv ir.GlobalVariable) BindingKind {
	switch gv.Space {
	case ir.SpaceUniform:
		return BindingUniform
	case ir.SpaceStorage:
		if gv.Access == ir.StorageRead {
			return BindingReadOnlyStorage
		}
		return BindingStorage
	case ir.SpaceHandle:
		if int(gv.Type) >= len(module.Types) {
			return BindingOther
		}
		switch t := module.Types[gv.Type].Inner.(type) {
		case ir.SamplerType:
			if !t.Comparison {
				return BindingSampler
			}
		case ir.ImageType:
			if t.Class == ir.ImageClassSampled && t.SampledKind == ir.ScalarFloat &&
				t.Dim == ir.Dim2D && !t.Arrayed && !t.Multisampled {
				return BindingTexture
			}
		}
	}
	return BindingOther
}
