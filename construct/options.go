package construct

import (
	"io"
	"log/slog"

	"github.com/hupe1980/lja/distance"
	"github.com/hupe1980/lja/internal/resource"
	"github.com/hupe1980/lja/metrics"
	"github.com/hupe1980/lja/render"
	"github.com/hupe1980/lja/store"
)

type options struct {
	similarity distance.Func
	cache      Cache
	reuse      bool
	store      bool
	storeAll   bool
	renderer   render.Renderer
	layout     store.Layout
	plot       bool
	workers    int
	rc         *resource.Controller
	logger     *slog.Logger
	metrics    metrics.Collector
}

func defaultOptions() options {
	return options{
		similarity: distance.Dot,
		reuse:      true,
		store:      true,
		renderer:   render.Noop{},
		workers:    1,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:    metrics.Noop{},
	}
}

// Option configures a Constructor.
type Option func(*options)

// WithSimilarity sets the similarity between candidate write vectors and
// read vectors. Defaults to the inner product.
func WithSimilarity(fn distance.Func) Option {
	return func(o *options) {
		if fn != nil {
			o.similarity = fn
		}
	}
}

// WithCache sets the feature memo. Defaults to a fresh MemoryCache.
func WithCache(c Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithReuse controls whether cached features are returned without
// recomputation.
func WithReuse(reuse bool) Option {
	return func(o *options) { o.reuse = reuse }
}

// WithStore controls whether top-level features are written to the cache.
func WithStore(store bool) Option {
	return func(o *options) { o.store = store }
}

// WithStoreAll also caches the features computed by recursive sub-calls.
func WithStoreAll(all bool) Option {
	return func(o *options) { o.storeAll = all }
}

// WithPlot renders every top-level feature as a heat-map named after the
// feature below layout's plot directory.
func WithPlot(r render.Renderer, layout store.Layout) Option {
	return func(o *options) {
		if r != nil {
			o.renderer = r
			o.layout = layout
			o.plot = true
		}
	}
}

// WithWorkers constructs up to n features of a batch concurrently.
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
