package construct

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/hupe1980/lja/store"
	"gonum.org/v1/gonum/floats"
)

// Stats counts the work done by a Constructor.
type Stats struct {
	// Recursions is the number of recursive sub-constructions.
	Recursions  int64
	CacheHits   int64
	CacheMisses int64
}

// Constructor builds features by recursive similarity-weighted combination
// of the features of the previous layer.
type Constructor struct {
	data     *Data
	strategy Strategy
	opts     options

	recursions  atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
}

// New creates a Constructor over data using strategy.
func New(data *Data, strategy Strategy, optFns ...Option) *Constructor {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.cache == nil {
		opts.cache = NewMemoryCache()
	}
	return &Constructor{data: data, strategy: strategy, opts: opts}
}

// Strategy returns the strategy of the constructor.
func (c *Constructor) Strategy() Strategy { return c.strategy }

// Stats returns a snapshot of the work counters.
func (c *Constructor) Stats() Stats {
	return Stats{
		Recursions:  c.recursions.Load(),
		CacheHits:   c.cacheHits.Load(),
		CacheMisses: c.cacheMisses.Load(),
	}
}

// ResetStats zeroes the work counters.
func (c *Constructor) ResetStats() {
	c.recursions.Store(0)
	c.cacheHits.Store(0)
	c.cacheMisses.Store(0)
}

// Key returns the cache key of a feature under the constructor's strategy.
func (c *Constructor) Key(layer, feature, target int) store.FeatureKey {
	return store.FeatureKey{
		Layer:       layer,
		Feature:     feature,
		Target:      c.strategy.Target().String(),
		Granularity: c.strategy.Granularity().String(),
		Index:       target,
	}
}

// Construct returns the feature approximating read vector feature of layer
// for target.
//
// At layer 0 the feature is the read vector without its bias and target is
// ignored. Above, every candidate write vector of the previous layer is
// weighted by its similarity to the read vector, and the weighted features
// of the previous layer are summed.
func (c *Constructor) Construct(ctx context.Context, layer, feature, target int) ([]float64, error) {
	start := time.Now()
	key := c.Key(layer, feature, target)

	vec, err := c.construct(ctx, layer, feature, target, c.opts.store)
	c.opts.metrics.RecordFeature(layer, time.Since(start), err)
	if err != nil {
		c.opts.logger.ErrorContext(ctx, "feature construction failed",
			"layer", layer,
			"feature", feature,
			"target", target,
			"granularity", key.Granularity,
			"error", err,
		)
		return nil, &FeatureError{Key: key, cause: err}
	}

	c.opts.logger.DebugContext(ctx, "feature constructed",
		"layer", layer,
		"feature", feature,
		"target", target,
		"granularity", key.Granularity,
		"duration", time.Since(start),
	)

	if c.opts.plot {
		c.opts.renderer.PlotHeatmap(ctx, c.plotName(key), vec,
			fmt.Sprintf("Layer: %d Feature: %d %s: %d", layer, feature, key.Target, target))
	}
	return vec, nil
}

func (c *Constructor) plotName(k store.FeatureKey) string {
	return c.opts.layout.Plot(
		"Layer"+strconv.Itoa(k.Layer),
		"Vector"+strconv.Itoa(k.Feature),
		"by_"+k.Target,
		"granularity_"+k.Granularity,
		fmt.Sprintf("feature_%d_%s_%d.png", k.Feature, k.Target, k.Index),
	)
}

// construct wraps build with the cache.
func (c *Constructor) construct(ctx context.Context, layer, feature, target int, persist bool) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := c.Key(layer, feature, target)
	if c.opts.reuse {
		vec, ok, err := c.opts.cache.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		c.opts.metrics.RecordCacheLookup(ok)
		if ok {
			c.cacheHits.Add(1)
			return vec, nil
		}
		c.cacheMisses.Add(1)
	}

	vec, err := c.build(ctx, layer, feature, target)
	if err != nil {
		return nil, err
	}
	if persist {
		if err := c.opts.cache.Put(ctx, key, vec); err != nil {
			return nil, err
		}
	}
	return vec, nil
}

func (c *Constructor) build(ctx context.Context, layer, feature, target int) ([]float64, error) {
	read, err := c.data.ReadVector(layer, feature)
	if err != nil {
		return nil, err
	}
	if layer == 0 {
		return slices.Clone(read), nil
	}

	if err := c.strategy.Validate(layer, target); err != nil {
		return nil, err
	}
	candidates, err := c.strategy.Candidates(layer, target)
	if err != nil {
		return nil, err
	}

	weights := make([]float64, len(candidates))
	for i, w := range candidates {
		if len(w) != len(read) {
			return nil, fmt.Errorf("%w: layer %d candidate %d has dimension %d, read vector %d has %d",
				ErrDimensionMismatch, layer, i, len(w), feature, len(read))
		}
		weights[i] = c.opts.similarity(w, read)
	}

	next, err := c.strategy.Propagate(layer, target)
	if err != nil {
		return nil, err
	}

	subs := make([][]float64, len(candidates))
	for i := range candidates {
		c.recursions.Add(1)
		c.opts.metrics.RecordRecursion(layer - 1)
		if subs[i], err = c.construct(ctx, layer-1, i, next, c.opts.storeAll); err != nil {
			return nil, err
		}
	}
	return Combine(weights, subs)
}

// Combine returns the sum of vectors scaled by their weights.
func Combine(weights []float64, vectors [][]float64) ([]float64, error) {
	if len(weights) != len(vectors) {
		return nil, fmt.Errorf("%w: %d weights for %d vectors", ErrDimensionMismatch, len(weights), len(vectors))
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: nothing to combine", ErrDimensionMismatch)
	}

	out := make([]float64, len(vectors[0]))
	for i, v := range vectors {
		if len(v) != len(out) {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrDimensionMismatch, i, len(v), len(out))
		}
		floats.AddScaled(out, weights[i], v)
	}
	return out, nil
}
