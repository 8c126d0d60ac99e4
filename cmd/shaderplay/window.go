// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderplay"
	"github.com/gogpu/shaderplay/config"
	"github.com/gogpu/shaderplay/gpu"
	"github.com/gogpu/shaderplay/internal/console"
	"github.com/gogpu/shaderplay/pipeline"
)

// runWindow hosts the reload loop in a gogpu window. The device is adopted
// from the window on the first frame. Every frame drains pending reloads
// and then draws the manifest's present pipeline as a fullscreen triangle
// into the surface. Space prints watcher statistics.
func runWindow(cfg *config.Config) error {
	const width, height = 800, 600

	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle("shaderplay").
		WithSize(width, height).
		WithContinuousRender(false))

	var (
		sp        *shaderplay.Context
		presenter *pipeline.Presenter
		animToken *gogpu.AnimationToken
		startErr  error
	)
	log := shaderplay.Logger()

	app.OnDraw(func(dc *gogpu.Context) {
		if startErr != nil {
			return
		}
		if sp == nil {
			provider := app.GPUContextProvider()
			if provider == nil {
				return
			}
			dev, err := gpu.FromProvider(provider)
			if err != nil {
				startErr = err
				log.Error("adopt window device", "err", err)
				return
			}
			if cfg.UseSurfaceFormat(dc.Format()) {
				log.Info("present pipeline follows the surface format",
					"pipeline", cfg.Present, "format", dc.Format())
			}
			sp, err = shaderplay.New(dev, shaderplay.WithConfig(cfg))
			if err != nil {
				startErr = err
				log.Error("start shaderplay", "err", err)
				return
			}
			presenter, err = pipeline.NewPresenter(dev.HAL(), dev.Queue(), gputypes.Color{A: 1})
			if err != nil {
				startErr = err
				log.Error("create presenter", "err", err)
				return
			}
			if sp.RenderPipeline(cfg.Present) == nil {
				log.Warn("manifest has no present pipeline, only reloading", "name", cfg.Present)
			}
			log.Info("window ready", "backend", dc.Backend())
			console.Banner(os.Stderr, sp.ShaderDir(), cfg.Extension)
			printTargets(sp)
			animToken = app.StartAnimation()
		}

		logResult(sp.Tick())

		if sp.RenderPipeline(cfg.Present) == nil {
			return
		}
		sv := dc.SurfaceView()
		if sv == nil {
			return
		}
		if err := drawPresent(sp, presenter, cfg.Present, sv.HalTextureView()); err != nil {
			log.Warn("draw frame", "err", err)
		}
	})

	app.EventSource().OnKeyPress(func(key gpucontext.Key, _ gpucontext.Modifiers) {
		if key != gpucontext.KeySpace || sp == nil || sp.Watcher() == nil {
			return
		}
		s := sp.Watcher().Stats()
		log.Info("watcher stats",
			"compiled", s.Compiled, "failed", s.Failed, "sent", s.Sent, "dropped", s.Dropped)
	})

	app.OnClose(func() {
		if animToken != nil {
			animToken.Stop()
		}
		if presenter != nil {
			if err := presenter.Release(); err != nil {
				log.Warn("release frames", "err", err)
			}
		}
		if sp != nil {
			sp.Close()
		}
	})

	if err := app.Run(); err != nil {
		return err
	}
	return startErr
}

// drawPresent draws the render pipeline built for the manifest block name
// into view with a fullscreen triangle.
func drawPresent(sp *shaderplay.Context, r *pipeline.Presenter, name string, view hal.TextureView) error {
	p := sp.RenderPipeline(name)
	if p == nil {
		return fmt.Errorf("no render pipeline %q", name)
	}
	return r.Draw(view, p, pipeline.FullscreenVertices)
}
