// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command shaderplay watches a shader directory and hot-reloads the
// pipelines named in a shaderplay.hcl manifest.
//
// Usage:
//
//	shaderplay [-config shaderplay.hcl] [-backend noop|vulkan|window] [-fps 60] [-metrics :9090] [-v]
//
// Save a shader under the watched directory and the pipelines built from it
// are rebuilt on the next frame. Compile errors are printed in color and
// the previous pipeline stays in use.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/shaderplay"
	"github.com/gogpu/shaderplay/config"
	"github.com/gogpu/shaderplay/gpu"
	"github.com/gogpu/shaderplay/internal/console"
	"github.com/gogpu/shaderplay/internal/metrics"
	"github.com/gogpu/shaderplay/reload"
)

func main() {
	var (
		configPath = flag.String("config", config.DefaultFile, "manifest file")
		backend    = flag.String("backend", "", "noop, vulkan or window (overrides the manifest)")
		fps        = flag.Int("fps", 60, "headless tick rate")
		metricsAt  = flag.String("metrics", "", "serve Prometheus metrics on this address (headless only)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	shaderplay.SetLogger(logger)

	if err := run(*configPath, *backend, *fps, *metricsAt, flagWasSet("config")); err != nil {
		logger.Error("shaderplay failed", "err", err)
		os.Exit(1)
	}
}

func run(configPath, backend string, fps int, metricsAddr string, explicitConfig bool) error {
	cfg, err := loadConfig(configPath, explicitConfig)
	if err != nil {
		return err
	}
	if backend != "" {
		cfg.Backend = backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if fps <= 0 {
		return fmt.Errorf("fps must be positive, got %d", fps)
	}

	if cfg.Backend == "window" {
		return runWindow(cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runHeadless(ctx, cfg, gpu.Backend(cfg.Backend), time.Second/time.Duration(fps), metricsAddr)
}

// loadConfig reads the manifest. A missing default manifest falls back to
// the built-in defaults; a missing manifest named with -config is an error.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit {
		if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
			shaderplay.Logger().Info("no manifest, using defaults", "path", path)
			return config.Default(), nil
		}
	}
	return nil, err
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// runHeadless drives the reload loop without a window. One goroutine owns
// the device and ticks; another logs watcher statistics. With a metrics
// address a third serves /metrics until ctx is done.
func runHeadless(ctx context.Context, cfg *config.Config, backend gpu.Backend, interval time.Duration, metricsAddr string) error {
	dev, err := gpu.Open(backend)
	if err != nil {
		return err
	}
	defer dev.Destroy()

	sp, err := shaderplay.New(dev, shaderplay.WithConfig(cfg))
	if err != nil {
		return err
	}
	defer sp.Close()

	console.Banner(os.Stderr, sp.ShaderDir(), cfg.Extension)
	printTargets(sp)

	m := metrics.New(sp.Watcher(), sp.Cache())
	m.SetTargets(sp.Registry().Len())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tickLoop(ctx, sp, m, interval)
	})
	if metricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, metricsAddr, m)
		})
	}
	g.Go(func() error {
		return statsLoop(ctx, sp, 10*time.Second)
	})
	return g.Wait()
}

func tickLoop(ctx context.Context, sp *shaderplay.Context, m *metrics.Metrics, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sp.Ready():
		case <-ticker.C:
		}
		r := sp.Tick()
		m.ObserveTick(r)
		logResult(r)
	}
}

func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	shaderplay.Logger().Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func statsLoop(ctx context.Context, sp *shaderplay.Context, every time.Duration) error {
	w := sp.Watcher()
	if w == nil {
		return nil
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s := w.Stats()
			shaderplay.Logger().Debug("watcher stats",
				"compiled", s.Compiled, "failed", s.Failed, "sent", s.Sent, "dropped", s.Dropped)
		}
	}
}

func logResult(r reload.Result) {
	if r.Events == 0 {
		return
	}
	l := shaderplay.Logger()
	switch {
	case r.Failed > 0:
		l.Warn("reload incomplete", "events", r.Events, "reloaded", r.Reloaded, "failed", r.Failed)
	case r.Reloaded > 0:
		l.Info("reloaded", "events", r.Events, "pipelines", r.Reloaded)
	default:
		l.Debug("no pipelines use the changed shaders", "events", r.Events, "missed", r.Missed)
	}
}

// printTargets lists the registered pipelines below the banner.
func printTargets(sp *shaderplay.Context) {
	type labeled interface{ Label() string }
	type generational interface{ Generation() uint64 }

	reg := sp.Registry()
	var rows []console.TargetRow
	for _, path := range reg.Paths() {
		for _, t := range reg.Lookup(path) {
			row := console.TargetRow{Shader: path, Label: fmt.Sprintf("%T", t)}
			if l, ok := t.(labeled); ok {
				row.Label = l.Label()
			}
			if g, ok := t.(generational); ok {
				row.Generation = g.Generation()
			}
			rows = append(rows, row)
		}
	}
	if err := console.Targets(os.Stderr, sp.ShaderDir(), rows); err != nil {
		shaderplay.Logger().Warn("print targets", "err", err)
	}
}
