// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package metrics exports reload activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gogpu/shaderplay/reload"
	"github.com/gogpu/shaderplay/shader"
	"github.com/gogpu/shaderplay/watch"
)

const namespace = "shaderplay"

// Metrics holds the collectors for one shaderplay process. Each Metrics
// owns its registry, so several can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	reloads *prometheus.CounterVec
	ticks   prometheus.Counter
	targets prometheus.Gauge
}

// New registers the reload collectors. Watcher and cache collectors are
// added only for non-nil sources.
func New(w *watch.Watcher, c *shader.Cache) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reload_events_total",
				Help:      "Reload events applied on tick by outcome",
			},
			[]string{"outcome"},
		),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Ticks that drained at least one event",
		}),
		targets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registered_targets",
			Help:      "Reload targets currently registered",
		}),
	}
	m.registry.MustRegister(m.reloads, m.ticks, m.targets)

	if w != nil {
		m.registry.MustRegister(&watcherCollector{w: w})
	}
	if c != nil {
		m.registry.MustRegister(&cacheCollector{c: c})
	}
	return m
}

// ObserveTick records the outcome of one Tick. Empty ticks are ignored.
func (m *Metrics) ObserveTick(r reload.Result) {
	if r.Events == 0 {
		return
	}
	m.ticks.Inc()
	m.reloads.WithLabelValues("reloaded").Add(float64(r.Reloaded))
	m.reloads.WithLabelValues("failed").Add(float64(r.Failed))
	m.reloads.WithLabelValues("missed").Add(float64(r.Missed))
}

// SetTargets records the number of registered targets.
func (m *Metrics) SetTargets(n int) {
	m.targets.Set(float64(n))
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var (
	watcherDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "watcher", "shaders_total"),
		"Shader files processed by the watcher by outcome",
		[]string{"outcome"}, nil,
	)
	cacheEntriesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "cache", "entries"),
		"Compiled modules held in the shader cache",
		nil, nil,
	)
	cacheLookupsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "cache", "lookups_total"),
		"Shader cache lookups by result",
		[]string{"result"}, nil,
	)
)

// watcherCollector reads watch.Stats at scrape time.
type watcherCollector struct {
	w *watch.Watcher
}

func (c *watcherCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- watcherDesc
}

func (c *watcherCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.w.Stats()
	ch <- prometheus.MustNewConstMetric(watcherDesc, prometheus.CounterValue, float64(s.Compiled), "compiled")
	ch <- prometheus.MustNewConstMetric(watcherDesc, prometheus.CounterValue, float64(s.Failed), "failed")
	ch <- prometheus.MustNewConstMetric(watcherDesc, prometheus.CounterValue, float64(s.Sent), "sent")
	ch <- prometheus.MustNewConstMetric(watcherDesc, prometheus.CounterValue, float64(s.Dropped), "dropped")
}

// cacheCollector reads shader.CacheStats at scrape time.
type cacheCollector struct {
	c *shader.Cache
}

func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cacheEntriesDesc
	ch <- cacheLookupsDesc
}

func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.c.Stats()
	ch <- prometheus.MustNewConstMetric(cacheEntriesDesc, prometheus.GaugeValue, float64(s.Len))
	ch <- prometheus.MustNewConstMetric(cacheLookupsDesc, prometheus.CounterValue, float64(s.Hits), "hit")
	ch <- prometheus.MustNewConstMetric(cacheLookupsDesc, prometheus.CounterValue, float64(s.Misses), "miss")
}
