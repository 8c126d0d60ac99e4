// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package watch recompiles shader files as they change on disk.
//
// A [Watcher] observes a directory tree with fsnotify. Writes to files with
// the watched extension are debounced per path and handed to a single
// compile worker. A successful compile becomes a [reload.Event] sent to the
// configured sink; a failed one is reported as a [shader.Diagnostic] and
// produces no event, so the pipelines keep running with their last good
// shader.
//
// When a device is attached with [WithDevice], the worker also creates the
// device shader module before sending. The watcher only holds a weak
// reference to that device: once the owner has destroyed it or let it be
// collected, compiled shaders are dropped quietly.
package watch
