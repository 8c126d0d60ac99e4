// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shader

import "github.com/gogpu/naga/spirv"

// BoundsCheckPolicy is the naga policy for guarding memory accesses.
type BoundsCheckPolicy = spirv.BoundsCheckPolicy

// Bounds check policies understood by the SPIR-V writer.
const (
	// BoundsCheckUnchecked emits accesses without any clamping or guards.
	BoundsCheckUnchecked = spirv.BoundsCheckUnchecked

	// BoundsCheckRestrict clamps indices and coordinates into range.
	BoundsCheckRestrict = spirv.BoundsCheckRestrict

	// BoundsCheckReadZeroSkipWrite reads zero and drops writes out of range.
	BoundsCheckReadZeroSkipWrite = spirv.BoundsCheckReadZeroSkipWrite
)

// Options configures SPIR-V generation.
type Options struct {
	// Version is the SPIR-V version of emitted modules.
	Version spirv.Version

	// Debug emits OpName/OpSource debug labels.
	Debug bool

	// PreserveNames keeps WGSL variable names in the module for diagnostics.
	// naga ties name emission to Debug, so this only takes effect with Debug.
	PreserveNames bool

	// BoundsCheck is fixed to BoundsCheckUnchecked and passed to naga for
	// index, image load and image store accesses alike.
	BoundsCheck BoundsCheckPolicy

	cache *Cache
}

// DefaultOptions returns the options used for every reloadable pipeline.
func DefaultOptions() Options {
	return Options{
		Version:       spirv.Version1_3,
		Debug:         true,
		PreserveNames: true,
		BoundsCheck:   BoundsCheckUnchecked,
	}
}

// Option configures a Compiler during creation.
type Option func(*Options)

// WithSPIRVVersion sets the emitted SPIR-V version.
func WithSPIRVVersion(v spirv.Version) Option {
	return func(o *Options) {
		o.Version = v
	}
}

// WithDebug toggles debug labels and name preservation together.
func WithDebug(enabled bool) Option {
	return func(o *Options) {
		o.Debug = enabled
		o.PreserveNames = enabled
	}
}

func (o Options) spirv() spirv.Options {
	return spirv.Options{
		Version: o.Version,
		Debug:   o.Debug || o.PreserveNames,
		BoundsCheckPolicies: spirv.BoundsCheckPolicies{
			ImageLoad:  o.BoundsCheck,
			ImageStore: o.BoundsCheck,
			Index:      o.BoundsCheck,
		},
	}
}
