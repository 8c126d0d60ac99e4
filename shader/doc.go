// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package shader compiles WGSL shader source files into validated SPIR-V
// modules using the pure Go naga compiler.
//
// # Pipeline
//
// Compilation runs four naga stages in order:
//
//	source --Parse--> AST --Lower--> IR --Validate--> IR --GenerateSPIRV--> words
//
// Any stage failure (and any I/O failure while reading the file) produces a
// [*Diagnostic] instead of a [Module]. Diagnostics carry the stage, a message
// and, when naga reports one, the source line and column of the error.
//
// # Backend options
//
// SPIR-V is emitted with debug labels and preserved variable names so that
// GPU debuggers and validation layers can name the offending variable.
// Bounds checking is fixed to [BoundsCheckUnchecked] and handed to naga
// for index, image load and image store accesses, so no access is clamped.
// Every pipeline built from these modules inherits that trade-off.
//
// # Concurrency
//
// A [Compiler] is cheap to create and holds no per-file state, but it is not
// safe for concurrent use. The watcher owns one compiler on its worker
// goroutine; the application owns another for initial pipeline construction.
package shader
