// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package reload maps shader files to the pipelines built from them and
// applies recompiled modules to those pipelines.
//
// # Ownership
//
// Everything in this package except [Inbox] belongs to the owning goroutine:
// the one that holds the graphics device and records frames. The watcher
// goroutine never touches the [Registry]; it only calls [Sink.Send]. Once per
// tick the owning goroutine drains the inbox through a [Dispatcher], which
// looks up the affected [Target]s and calls Reload on each of them.
//
//	watcher goroutine            owning goroutine
//	-----------------            ----------------
//	compile(path)
//	inbox.Send(Event) ------->   dispatcher.Drain(inbox)
//	                               registry.Lookup(path)
//	                               target.Reload(device, module)
//
// # Ordering
//
// Events for one file are applied in the order they were sent. When a file
// is saved twice and the first compile finishes last, the older module wins;
// no timestamp reconciliation is performed.
//
// # Lifetime
//
// The registry holds strong references. A registered target stays reachable
// (and reloadable) until [Registry.Unregister] removes it or the registry is
// dropped.
package reload
