// metrics.go: Prometheus counters for binding events and reloads
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

// Package metrics exports rcfg activity to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitryikh/rcfg"
)

// Config configures the collector.
type Config struct {
	// Prefix is prepended to every metric name (default: "rcfg").
	Prefix string
	// Labels are constant labels added to every metric.
	Labels prometheus.Labels
	// Buckets for the reload duration histogram, in seconds.
	Buckets []float64
	// Registry defaults to a fresh registry owned by the collector.
	Registry *prometheus.Registry
}

// DefaultBuckets suit in-process reloads, which are usually sub-millisecond.
func DefaultBuckets() []float64 {
	return []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}
}

// Collector owns the rcfg metric families.
type Collector struct {
	registry   *prometheus.Registry
	events     *prometheus.CounterVec
	reloads    *prometheus.CounterVec
	duration   prometheus.Histogram
	lastReload prometheus.Gauge
}

// New creates and registers the metric families.
func New(cfg Config) *Collector {
	if cfg.Prefix == "" {
		cfg.Prefix = "rcfg"
	}
	if cfg.Buckets == nil {
		cfg.Buckets = DefaultBuckets()
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	c := &Collector{registry: cfg.Registry}

	c.events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        cfg.Prefix + "_events_total",
			Help:        "Binding events reported by configuration schemas",
			ConstLabels: cfg.Labels,
		},
		[]string{"event"},
	)

	c.reloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        cfg.Prefix + "_reloads_total",
			Help:        "Configuration reload attempts by result",
			ConstLabels: cfg.Labels,
		},
		[]string{"result"},
	)

	c.duration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:        cfg.Prefix + "_reload_duration_seconds",
			Help:        "Time spent parsing and applying a configuration document",
			Buckets:     cfg.Buckets,
			ConstLabels: cfg.Labels,
		},
	)

	c.lastReload = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        cfg.Prefix + "_last_applied_timestamp_seconds",
			Help:        "Unix time of the last applied configuration",
			ConstLabels: cfg.Labels,
		},
	)

	cfg.Registry.MustRegister(c.events, c.reloads, c.duration, c.lastReload)
	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveReload records one reload attempt.
func (c *Collector) ObserveReload(applied bool, took time.Duration) {
	result := "rejected"
	if applied {
		result = "applied"
		c.lastReload.SetToCurrentTime()
	}
	c.reloads.WithLabelValues(result).Inc()
	c.duration.Observe(took.Seconds())
}

// Sink returns an rcfg.Sink counting events into c.
func (c *Collector) Sink() rcfg.Sink { return &sink{events: c.events} }

type sink struct {
	rcfg.NopSink
	events *prometheus.CounterVec
}

func (s *sink) inc(k rcfg.EventKind) { s.events.WithLabelValues(k.String()).Inc() }

func (s *sink) Error(error)                  { s.inc(rcfg.EventError) }
func (s *sink) NotUpdatable(string, string)  { s.inc(rcfg.EventNotUpdatable) }
func (s *sink) Changed(string, string, bool) { s.inc(rcfg.EventChanged) }
func (s *sink) Set(string, bool)             { s.inc(rcfg.EventSet) }
func (s *sink) Remove(string)                { s.inc(rcfg.EventRemove) }
