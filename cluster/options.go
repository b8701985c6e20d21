package cluster

import (
	"io"
	"log/slog"

	"github.com/hupe1980/lja/internal/resource"
	"github.com/hupe1980/lja/metrics"
	"github.com/hupe1980/lja/render"
	"github.com/hupe1980/lja/spectral"
)

// DefaultRank is the number of write vectors per sample that are clustered.
const DefaultRank = 5

type options struct {
	rank      int
	layers    []int
	selector  []func(*spectral.SelectorOptions)
	clusterer []func(*spectral.ClusterOptions)
	workers   int
	rc        *resource.Controller
	logger    *slog.Logger
	metrics   metrics.Collector
	renderer  render.Renderer
	plot      bool
}

func defaultOptions() options {
	return options{
		rank:     DefaultRank,
		workers:  1,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:  metrics.Noop{},
		renderer: render.Noop{},
	}
}

// Option configures a Pipeline.
type Option func(*options)

// WithRank sets how many write vectors of every sample are clustered.
// Samples with a smaller rank contribute all their vectors.
func WithRank(k int) Option {
	return func(o *options) { o.rank = k }
}

// WithLayers restricts the pipeline to the given layers. By default every
// layer of the decomposition is clustered.
func WithLayers(layers ...int) Option {
	return func(o *options) { o.layers = append([]int(nil), layers...) }
}

// WithSelectorOptions forwards options to the cluster-count selector.
func WithSelectorOptions(fns ...func(*spectral.SelectorOptions)) Option {
	return func(o *options) { o.selector = append(o.selector, fns...) }
}

// WithClusterOptions forwards options to the spectral clusterer.
func WithClusterOptions(fns ...func(*spectral.ClusterOptions)) Option {
	return func(o *options) { o.clusterer = append(o.clusterer, fns...) }
}

// WithWorkers clusters up to n layers concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithResourceController shares worker slots with other jobs.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(c metrics.Collector) Option {
	return func(o *options) {
		if c != nil {
			o.metrics = c
		}
	}
}

// WithRenderer plots the eigenvalue spectrum of every layer.
func WithRenderer(r render.Renderer) Option {
	return func(o *options) {
		if r != nil {
			o.renderer = r
			o.plot = true
		}
	}
}
