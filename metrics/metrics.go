// Package metrics defines the operational metrics hooks of the analysis
// pipeline and constructor.
//
// Implement Collector to integrate with a monitoring system; Prometheus is
// provided. Noop discards everything and Basic keeps atomic counters in
// memory.
package metrics

import (
	"sync/atomic"
	"time"
)

// Collector receives operational metrics.
// Implementations must be safe for concurrent use.
type Collector interface {
	// RecordLayerClustered is called after a layer was clustered.
	// count is the selected cluster count, err is nil if successful.
	RecordLayerClustered(layer, count int, duration time.Duration, err error)

	// RecordFeature is called after each top-level feature construction.
	RecordFeature(layer int, duration time.Duration, err error)

	// RecordCacheLookup is called for every feature cache lookup.
	RecordCacheLookup(hit bool)

	// RecordRecursion is called for every recursive construction step.
	RecordRecursion(layer int)
}

// Noop is a no-op implementation of Collector.
type Noop struct{}

func (Noop) RecordLayerClustered(int, int, time.Duration, error) {}
func (Noop) RecordFeature(int, time.Duration, error)             {}
func (Noop) RecordCacheLookup(bool)                              {}
func (Noop) RecordRecursion(int)                                 {}

// Basic provides simple in-memory metrics collection.
type Basic struct {
	LayersClustered   atomic.Int64
	LayerErrors       atomic.Int64
	LayerTotalNanos   atomic.Int64
	ClustersFound     atomic.Int64
	Features          atomic.Int64
	FeatureErrors     atomic.Int64
	FeatureTotalNanos atomic.Int64
	CacheHits         atomic.Int64
	CacheMisses       atomic.Int64
	Recursions        atomic.Int64
}

// RecordLayerClustered implements Collector.
func (b *Basic) RecordLayerClustered(_ int, count int, duration time.Duration, err error) {
	b.LayersClustered.Add(1)
	b.LayerTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LayerErrors.Add(1)
		return
	}
	b.ClustersFound.Add(int64(count))
}

// RecordFeature implements Collector.
func (b *Basic) RecordFeature(_ int, duration time.Duration, err error) {
	b.Features.Add(1)
	b.FeatureTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FeatureErrors.Add(1)
	}
}

// RecordCacheLookup implements Collector.
func (b *Basic) RecordCacheLookup(hit bool) {
	if hit {
		b.CacheHits.Add(1)
	} else {
		b.CacheMisses.Add(1)
	}
}

// RecordRecursion implements Collector.
func (b *Basic) RecordRecursion(int) {
	b.Recursions.Add(1)
}

// Stats is a snapshot of Basic state.
type Stats struct {
	LayersClustered int64
	LayerErrors     int64
	LayerAvgNanos   int64
	ClustersFound   int64
	Features        int64
	FeatureErrors   int64
	FeatureAvgNanos int64
	CacheHits       int64
	CacheMisses     int64
	Recursions      int64
}

// GetStats returns a snapshot of current metrics.
func (b *Basic) GetStats() Stats {
	return Stats{
		LayersClustered: b.LayersClustered.Load(),
		LayerErrors:     b.LayerErrors.Load(),
		LayerAvgNanos:   avg(b.LayerTotalNanos.Load(), b.LayersClustered.Load()),
		ClustersFound:   b.ClustersFound.Load(),
		Features:        b.Features.Load(),
		FeatureErrors:   b.FeatureErrors.Load(),
		FeatureAvgNanos: avg(b.FeatureTotalNanos.Load(), b.Features.Load()),
		CacheHits:       b.CacheHits.Load(),
		CacheMisses:     b.CacheMisses.Load(),
		Recursions:      b.Recursions.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}
