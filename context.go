// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shaderplay

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gogpu/shaderplay/gpu"
	"github.com/gogpu/shaderplay/pipeline"
	"github.com/gogpu/shaderplay/reload"
	"github.com/gogpu/shaderplay/shader"
	"github.com/gogpu/shaderplay/watch"
)

var (
	// ErrNilDevice is returned by New without a device.
	ErrNilDevice = errors.New("shaderplay: nil device")

	// ErrClosed is returned by operations on a closed Context.
	ErrClosed = errors.New("shaderplay: context closed")
)

// destroyer is implemented by pipelines the Context owns.
type destroyer interface {
	Destroy()
}

// Context owns the shader registry and the watcher feeding it.
//
// All methods except Sink and Ready must be called on the goroutine that
// owns the device.
type Context struct {
	device     *gpu.Device
	compiler   *shader.Compiler
	cache      *shader.Cache
	registry   *reload.Registry
	inbox      *reload.Inbox
	dispatcher *reload.Dispatcher
	watcher    *watch.Watcher
	shaderDir  string

	owned    []reload.Target
	renders  map[string]*pipeline.RenderPipeline
	computes map[string]*pipeline.ComputePipeline
	closed   bool
}

// New creates a Context on device. Unless WithoutWatcher is given, the
// shader directory is watched recursively; a watcher that cannot start is
// an error. With WithConfig, the manifest's pipelines are built before New
// returns.
func New(device *gpu.Device, opts ...Option) (*Context, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	// Both compilers share one module cache; explicit options come last
	// and may replace it.
	cache := shader.NewCache(shader.DefaultCacheSize)
	copts := append([]shader.Option{shader.WithCache(cache)}, o.compilerOpts...)

	registry := reload.NewRegistry()
	c := &Context{
		device:     device,
		compiler:   shader.NewCompiler(copts...),
		cache:      cache,
		registry:   registry,
		inbox:      reload.NewInbox(),
		dispatcher: reload.NewDispatcher(registry, device.HAL()),
		shaderDir:  o.shaderDir,
		renders:    make(map[string]*pipeline.RenderPipeline),
		computes:   make(map[string]*pipeline.ComputePipeline),
	}

	if o.watch {
		wopts := append([]watch.Option{
			watch.WithCompiler(shader.NewCompiler(copts...)),
			watch.WithDevice(device),
		}, o.watchOpts...)
		w, err := watch.Start(o.shaderDir, c.inbox, wopts...)
		if err != nil {
			return nil, fmt.Errorf("shaderplay: %w", err)
		}
		c.watcher = w
		c.shaderDir = w.Root()
	} else if abs, err := filepath.Abs(o.shaderDir); err == nil {
		c.shaderDir = abs
	}

	if o.cfg != nil {
		if _, err := c.Build(o.cfg); err != nil {
			c.Close()
			return nil, err
		}
	}

	Logger().Info("shaderplay: context ready",
		"device", device.Name(), "shader_dir", c.shaderDir, "watching", c.watcher != nil)
	return c, nil
}

// Device returns the device the context was created on.
func (c *Context) Device() *gpu.Device { return c.device }

// Cache returns the module cache shared by the Context's compilers.
func (c *Context) Cache() *shader.Cache { return c.cache }

// Registry returns the shader registry.
func (c *Context) Registry() *reload.Registry { return c.registry }

// ShaderDir returns the absolute shader directory.
func (c *Context) ShaderDir() string { return c.shaderDir }

// Watcher returns the running watcher, or nil with WithoutWatcher.
func (c *Context) Watcher() *watch.Watcher { return c.watcher }

// RenderPipeline returns the render pipeline Build created for the manifest
// block name, or nil.
func (c *Context) RenderPipeline(name string) *pipeline.RenderPipeline { return c.renders[name] }

// ComputePipeline returns the compute pipeline Build created for the
// manifest block name, or nil.
func (c *Context) ComputePipeline(name string) *pipeline.ComputePipeline { return c.computes[name] }

// Sink returns the sink the watcher sends to. It is safe for concurrent
// use and may be handed to other event sources.
func (c *Context) Sink() reload.Sink { return c.inbox }

// Ready is signaled when events are waiting for Tick.
func (c *Context) Ready() <-chan struct{} { return c.inbox.Ready() }

// Compile compiles the shader at path and creates its device module. The
// caller releases the module once its pipelines are built.
func (c *Context) Compile(path string) (*gpu.ShaderModule, error) {
	if c.closed {
		return nil, ErrClosed
	}
	m, err := c.compiler.Compile(path)
	if err != nil {
		return nil, err
	}
	return c.device.CreateShaderModule(filepath.Base(path), m)
}

// Register adds target under path. The file must exist.
func (c *Context) Register(path string, target reload.Target) (reload.Target, error) {
	if c.closed {
		return nil, ErrClosed
	}
	return c.registry.Register(path, target)
}

// RegisterTarget adds target under path and returns it with its concrete
// type.
func RegisterTarget[T reload.Target](c *Context, path string, target T) (T, error) {
	if c.closed {
		var zero T
		return zero, ErrClosed
	}
	return reload.Register(c.registry, path, target)
}

// Unregister removes target from path.
func (c *Context) Unregister(path string, target reload.Target) bool {
	return c.registry.Unregister(path, target)
}

// Tick applies every pending shader event and returns immediately when
// there is none. It never waits for the watcher. After a reload it waits
// for the device to go idle and frees the pipelines that were replaced.
func (c *Context) Tick() reload.Result {
	if c.closed {
		return reload.Result{}
	}
	res := c.dispatcher.Drain(c.inbox)
	if err := c.dispatcher.Collect(); err != nil {
		Logger().Warn("shaderplay: replaced pipelines kept", "err", err)
	}
	return res
}

// Close stops the watcher, discards pending events and destroys the
// pipelines created by Build. Pipelines registered with Register belong to
// the caller. Close is idempotent.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var err error
	if c.watcher != nil {
		err = c.watcher.Close()
	}
	for _, ev := range c.inbox.Drain() {
		if ev.Module != nil {
			ev.Module.Release(c.device.HAL())
		}
	}
	if len(c.owned) > 0 {
		if werr := c.device.HAL().WaitIdle(); werr != nil {
			Logger().Warn("shaderplay: wait for device before close", "err", werr)
		}
	}
	for i := len(c.owned) - 1; i >= 0; i-- {
		if d, ok := c.owned[i].(destroyer); ok {
			d.Destroy()
		}
	}
	c.owned = nil
	clear(c.renders)
	clear(c.computes)
	return err
}
