package lja

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/lja/blobstore"
	"github.com/hupe1980/lja/cluster"
	"github.com/hupe1980/lja/codec"
	"github.com/hupe1980/lja/construct"
	"github.com/hupe1980/lja/internal/cache"
	"github.com/hupe1980/lja/internal/compress"
	"github.com/hupe1980/lja/internal/resource"
	"github.com/hupe1980/lja/profile"
	"github.com/hupe1980/lja/store"
)

// Analyzer runs clustering and feature construction for one namespace.
type Analyzer struct {
	bs        blobstore.BlobStore
	namespace string
	rc        *resource.Controller
	opts      options
}

// New creates an Analyzer over the decompositions stored in bs below
// namespace.
func New(bs blobstore.BlobStore, namespace string, optFns ...Option) *Analyzer {
	opts := options{
		codec:            codec.Default,
		compression:      compress.ZSTD,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	rc := resource.NewController(opts.resources)
	if opts.cacheBytes > 0 {
		bs = blobstore.NewCachingStore(bs, cache.NewLRU(opts.cacheBytes, rc))
	}
	return &Analyzer{bs: bs, namespace: namespace, rc: rc, opts: opts}
}

// Store returns the blob store of the analyzer, including its cache.
func (a *Analyzer) Store() blobstore.BlobStore { return a.bs }

// Decomposition returns the decomposition of side.
func (a *Analyzer) Decomposition(side string) *store.Decomposition {
	return store.NewDecomposition(a.bs, a.namespace, side)
}

// Artifacts returns the cluster artifacts of side.
func (a *Analyzer) Artifacts(side string) *store.Artifacts {
	return store.NewArtifacts(a.bs, a.namespace, side,
		store.WithCodec(a.opts.codec),
		store.WithCompression(a.opts.compression),
	)
}

// Features returns the persistent feature store of side.
func (a *Analyzer) Features(side string) *store.Features {
	return store.NewFeatures(a.bs, a.namespace, side, a.rc)
}

// Cluster clusters the write vectors of every layer of side and persists
// the results. optFns are applied after the analyzer defaults.
func (a *Analyzer) Cluster(ctx context.Context, side string, optFns ...cluster.Option) (*cluster.Table, error) {
	start := time.Now()
	logger := a.opts.logger.WithSide(side)

	opts := []cluster.Option{
		cluster.WithLogger(logger.Logger),
		cluster.WithMetrics(a.opts.metricsCollector),
		cluster.WithWorkers(a.rc.MaxWorkers()),
		cluster.WithResourceController(a.rc),
	}
	if a.opts.renderer != nil {
		opts = append(opts, cluster.WithRenderer(a.opts.renderer))
	}

	table, err := cluster.NewPipeline(a.Decomposition(side), a.Artifacts(side), append(opts, optFns...)...).Run(ctx)
	if err != nil {
		logger.LogClusterRun(ctx, 0, time.Since(start), err)
		return nil, err
	}
	logger.WithRun(table.RunID).LogClusterRun(ctx, len(table.Results), time.Since(start), nil)
	return table, nil
}

// Constructor loads side and returns a feature constructor for target at
// granularity g. Features are memoized in the feature store of side.
func (a *Analyzer) Constructor(ctx context.Context, side string, target construct.Target, g construct.Granularity, optFns ...construct.Option) (*construct.Constructor, error) {
	// Fail on the granularity before touching storage.
	if !construct.Supported(target, g) {
		return nil, fmt.Errorf("%w: %s is not available by %s", ErrInvalidGranularity, g, target)
	}

	data, err := construct.LoadData(ctx, a.Decomposition(side), a.Artifacts(side))
	if err != nil {
		return nil, err
	}
	strategy, err := construct.NewStrategy(data, target, g)
	if err != nil {
		return nil, err
	}

	opts := []construct.Option{
		construct.WithCache(a.Features(side)),
		construct.WithLogger(a.opts.logger.WithSide(side).Logger),
		construct.WithMetrics(a.opts.metricsCollector),
		construct.WithWorkers(a.rc.MaxWorkers()),
		construct.WithResourceController(a.rc),
	}
	if a.opts.renderer != nil {
		opts = append(opts, construct.WithPlot(a.opts.renderer, store.Layout{Namespace: a.namespace, Side: side}))
	}
	return construct.New(data, strategy, append(opts, optFns...)...), nil
}

// Construct builds every feature of req for target at granularity g.
func (a *Analyzer) Construct(ctx context.Context, side string, target construct.Target, g construct.Granularity, req construct.Request, optFns ...construct.Option) ([]construct.Result, error) {
	start := time.Now()
	c, err := a.Constructor(ctx, side, target, g, optFns...)
	if err != nil {
		return nil, err
	}
	results, err := c.ConstructMany(ctx, req)
	a.opts.logger.WithSide(side).LogFeatureBatch(ctx, len(results), time.Since(start), err)
	return results, err
}

// ProfileSummary describes one distinct profile of a layer.
type ProfileSummary struct {
	Index   int
	Profile profile.Profile
	Samples int
	// Label is the most frequent class label among the samples, -1 if no
	// class labels are stored.
	Label int64
	// Share is the fraction of samples carrying Label.
	Share float64
}

// Profiles summarizes the distinct profiles of layer of side, in
// enumeration order.
func (a *Analyzer) Profiles(ctx context.Context, side string, layer int) ([]ProfileSummary, error) {
	art, err := a.Artifacts(side).Load(ctx, layer)
	if err != nil {
		return nil, err
	}
	t, err := profile.New(art.Labels)
	if err != nil {
		return nil, err
	}

	classes, err := a.Decomposition(side).Labels(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		a.opts.logger.WithLayer(layer).DebugContext(ctx, "no class labels stored", "namespace", a.namespace)
		classes = nil
	case err != nil:
		return nil, err
	}

	out := make([]ProfileSummary, t.Len())
	for i := range out {
		members := t.Members(i)
		out[i] = ProfileSummary{
			Index:   i,
			Profile: t.At(i),
			Samples: int(members.GetCardinality()),
			Label:   -1,
		}
		if classes == nil {
			continue
		}

		counts := map[int64]int{}
		it := members.Iterator()
		for it.HasNext() {
			s := int(it.Next())
			if s < len(classes) {
				counts[classes[s]]++
			}
		}
		best, bestN := int64(-1), 0
		for label, n := range counts {
			if n > bestN || (n == bestN && label < best) {
				best, bestN = label, n
			}
		}
		out[i].Label = best
		if out[i].Samples > 0 {
			out[i].Share = float64(bestN) / float64(out[i].Samples)
		}
	}
	return out, nil
}
