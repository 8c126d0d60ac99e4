// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package pipeline provides reloadable render and compute pipelines.
//
// Each type implements [reload.Target]. Layouts (bind group layouts and the
// pipeline layout) are created once at construction and survive reloads;
// only the hal pipeline object is rebuilt from the new shader. A reload
// creates the replacement first and retires the old pipeline only after
// that succeeded, so a failed reload leaves the previous pipeline in use.
// Retired pipelines may still be referenced by submitted work; Collect
// frees them once the caller knows the device is idle.
//
// All methods must be called on the goroutine that owns the device.
package pipeline
