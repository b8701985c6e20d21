package lja

import "github.com/hupe1980/lja/metrics"

// MetricsCollector receives operational metrics of clustering and feature
// construction. See metrics.NewPrometheus for a Prometheus implementation.
type MetricsCollector = metrics.Collector

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector = metrics.Noop

// BasicMetricsCollector counts operations in memory.
type BasicMetricsCollector = metrics.Basic
