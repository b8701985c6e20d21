package lja

import (
	"github.com/hupe1980/lja/codec"
	"github.com/hupe1980/lja/internal/compress"
	"github.com/hupe1980/lja/internal/resource"
	"github.com/hupe1980/lja/render"
)

type options struct {
	codec            codec.Codec
	compression      compress.Type
	metricsCollector MetricsCollector
	logger           *Logger
	resources        resource.Config
	cacheBytes       int64
	renderer         render.Renderer
}

// Option configures an Analyzer.
type Option func(*options)

// WithCodec configures the codec used for new cluster artifacts.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the compression of new cluster artifacts
// ("none", "lz4" or "zstd"). Defaults to zstd.
func WithCompression(t compress.Type) Option {
	return func(o *options) { o.compression = t }
}

// WithMetricsCollector configures the metrics collector.
// If nil is passed, metrics are discarded.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithWorkers sets how many layers or features are processed concurrently.
func WithWorkers(n int) Option {
	return func(o *options) { o.resources.MaxWorkers = int64(n) }
}

// WithIOLimit throttles feature writes to bytesPerSec. 0 disables the limit.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) { o.resources.IOLimitBytesPerSec = bytesPerSec }
}

// WithMemoryLimit bounds the memory of the read cache.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) { o.resources.MemoryLimitBytes = bytes }
}

// WithCache puts an in-memory LRU read cache of the given capacity in front
// of the blob store. 0 disables the cache.
func WithCache(capacityBytes int64) Option {
	return func(o *options) { o.cacheBytes = capacityBytes }
}

// WithRenderer enables plots of eigenvalue spectra and features.
func WithRenderer(r render.Renderer) Option {
	return func(o *options) { o.renderer = r }
}
