// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"weak"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/shaderplay/gpu"
	"github.com/gogpu/shaderplay/reload"
	"github.com/gogpu/shaderplay/shader"
)

// ErrNilSink is returned by Start when no sink is given.
var ErrNilSink = errors.New("watch: nil sink")

// Stats counts what the compile worker has done.
type Stats struct {
	// Compiled is the number of successful compiles.
	Compiled uint64
	// Failed counts compile failures and device module creation failures.
	Failed uint64
	// Sent is the number of events delivered to the sink.
	Sent uint64
	// Dropped counts compiled or queued shaders that were discarded because
	// the file vanished or the device is gone.
	Dropped uint64
}

// Watcher recompiles changed shader files and sends the results to a sink.
type Watcher struct {
	root string
	opts options
	sink reload.Sink
	fs   *fsnotify.Watcher

	device    weak.Pointer[gpu.Device]
	hasDevice bool

	mu      sync.Mutex
	timers  map[string]*time.Timer
	queue   []string
	queued  map[string]bool
	wake    chan struct{}
	stopped bool

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error

	compiled atomic.Uint64
	failed   atomic.Uint64
	sent     atomic.Uint64
	dropped  atomic.Uint64
}

// Start watches root and every directory below it. Compiled shaders are
// sent to sink from the watcher's own goroutine.
func Start(root string, sink reload.Sink, opts ...Option) (*Watcher, error) {
	if sink == nil {
		return nil, ErrNilSink
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.fillDefaults()

	canonRoot, err := reload.Canonicalize(root)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	info, err := os.Stat(canonRoot)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", canonRoot)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create file watcher: %w", err)
	}

	w := &Watcher{
		root:   canonRoot,
		opts:   o,
		sink:   sink,
		fs:     fw,
		timers: make(map[string]*time.Timer),
		queued: make(map[string]bool),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	if o.device != nil {
		w.device = weak.Make(o.device)
		w.hasDevice = true
		w.opts.device = nil
	}

	if err := w.addTree(canonRoot); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch: add directories: %w", err)
	}

	w.wg.Add(2)
	go w.loop()
	go w.worker()

	w.log().Info("watch: started", "root", canonRoot, "ext", o.ext, "debounce", o.debounce)
	return w, nil
}

// Root returns the canonical watched directory.
func (w *Watcher) Root() string { return w.root }

// Stats returns a snapshot of the worker counters.
func (w *Watcher) Stats() Stats {
	return Stats{
		Compiled: w.compiled.Load(),
		Failed:   w.failed.Load(),
		Sent:     w.sent.Load(),
		Dropped:  w.dropped.Load(),
	}
}

// Close stops watching and waits for the worker to finish its current
// compile. Queued paths are discarded. Close is idempotent.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		for p, t := range w.timers {
			t.Stop()
			delete(w.timers, p)
		}
		w.queue = nil
		w.mu.Unlock()

		close(w.done)
		w.closeErr = w.fs.Close()
		w.wg.Wait()
		w.log().Info("watch: stopped", "root", w.root)
	})
	return w.closeErr
}

func (w *Watcher) log() *slog.Logger {
	if w.opts.logger != nil {
		return w.opts.logger
	}
	return slogger()
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		w.log().Debug("watch: adding directory", "path", path)
		return w.fs.Add(path)
	})
}

// loop reads fsnotify events until Close.
func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log().Error("watch: file watcher error", "err", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.log().Warn("watch: add new directory", "path", ev.Name, "err", err)
			}
			w.scanDir(ev.Name)
			return
		}
	}
	if !w.matches(ev) {
		return
	}
	w.log().Debug("watch: file changed", "path", ev.Name, "op", ev.Op.String())
	w.schedule(ev.Name)
}

// scanDir schedules shaders that were written into a new directory before
// it was added to the watch list.
func (w *Watcher) scanDir(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && w.hasExt(path) {
			w.schedule(path)
		}
		return nil
	})
}

func (w *Watcher) matches(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	return w.hasExt(ev.Name)
}

func (w *Watcher) hasExt(path string) bool {
	return strings.EqualFold(filepath.Ext(path), w.opts.ext)
}

// schedule debounces path and then queues it for the worker.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.opts.debounce == 0 {
		w.enqueueLocked(path)
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Reset(w.opts.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.opts.debounce, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.timers, path)
		if !w.stopped {
			w.enqueueLocked(path)
		}
	})
}

// enqueueLocked adds path to the worker queue unless it is already waiting
// there. The worker reads the file when it gets to it, so one queued entry
// covers any number of writes.
func (w *Watcher) enqueueLocked(path string) {
	if w.queued[path] {
		return
	}
	w.queued[path] = true
	w.queue = append(w.queue, path)
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Watcher) next() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return "", false
	}
	p := w.queue[0]
	w.queue = w.queue[1:]
	delete(w.queued, p)
	return p, true
}

// worker owns the compiler and processes queued paths in order.
func (w *Watcher) worker() {
	defer w.wg.Done()
	for {
		select {
		case <-w.wake:
		case <-w.done:
			return
		}
		for {
			select {
			case <-w.done:
				return
			default:
			}
			path, ok := w.next()
			if !ok {
				break
			}
			w.process(path)
		}
	}
}

func (w *Watcher) process(path string) {
	canon, err := reload.Canonicalize(path)
	if err != nil {
		w.dropped.Add(1)
		w.log().Debug("watch: file vanished before compile", "path", path, "err", err)
		return
	}

	start := time.Now()
	mod, err := w.compile(canon)
	if err != nil {
		w.failed.Add(1)
		var diag *shader.Diagnostic
		if !errors.As(err, &diag) {
			diag = &shader.Diagnostic{File: canon, Stage: shader.StageRead, Message: err.Error(), Err: err}
		}
		w.log().Warn("watch: compile failed", "path", canon, "stage", diag.Stage.String(), "err", diag.Message)
		w.opts.reporter.Failure(diag)
		return
	}
	w.compiled.Add(1)
	w.log().Debug("watch: compiled", "path", canon, "bytes", mod.Size(), "elapsed", time.Since(start))

	label := filepath.Base(canon)
	sm := gpu.NewShaderModule(label, mod)
	if w.hasDevice {
		dev := w.device.Value()
		if dev == nil {
			w.dropped.Add(1)
			w.log().Debug("watch: device gone, dropping shader", "path", canon)
			return
		}
		sm, err = dev.CreateShaderModule(label, mod)
		if errors.Is(err, gpu.ErrDeviceLost) {
			w.dropped.Add(1)
			w.log().Debug("watch: device lost, dropping shader", "path", canon)
			return
		}
		if err != nil {
			w.failed.Add(1)
			w.log().Error("watch: create shader module", "path", canon, "err", err)
			return
		}
	}

	w.sink.Send(reload.Event{Path: canon, Module: sm})
	w.sent.Add(1)
	w.opts.notifier.Success(canon)
}

// compile runs the compiler, retrying read failures with exponential
// backoff for up to the configured read retry. Other failures, and any
// failure after Close, are returned at once.
func (w *Watcher) compile(path string) (*shader.Module, error) {
	if w.opts.readRetry == 0 {
		return w.opts.compiler.Compile(path)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxElapsedTime = w.opts.readRetry

	var mod *shader.Module
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		m, err := w.opts.compiler.Compile(path)
		if err == nil {
			mod = m
			return nil
		}
		var diag *shader.Diagnostic
		if !errors.As(err, &diag) || diag.Stage != shader.StageRead || w.closing() {
			return backoff.Permanent(err)
		}
		w.log().Debug("watch: read failed, retrying", "path", path, "attempt", attempt, "err", diag.Message)
		return err
	}, bo)
	return mod, err
}

func (w *Watcher) closing() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}
