package cluster

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/lja/spectral"
	"github.com/hupe1980/lja/store"
	"github.com/hupe1980/lja/tensor"
	"golang.org/x/sync/errgroup"
)

// LayerResult is the clustering of one layer.
type LayerResult struct {
	Layer      int
	Count      int
	Candidates []int
	// Labels has shape (samples, rank).
	Labels [][]int
	// Centroids has shape (Count, dim).
	Centroids  [][]float64
	Silhouette float64
	Duration   time.Duration
}

// Table is the ordered collection of layer results of one run.
type Table struct {
	RunID   string
	Results []LayerResult
}

// Layer returns the result for layer.
func (t *Table) Layer(layer int) (LayerResult, bool) {
	i, ok := slices.BinarySearchFunc(t.Results, layer, func(r LayerResult, l int) int { return r.Layer - l })
	if !ok {
		return LayerResult{}, false
	}
	return t.Results[i], true
}

// Pipeline clusters the write vectors of every layer of one side.
type Pipeline struct {
	dec       *store.Decomposition
	artifacts *store.Artifacts
	opts      options
}

// NewPipeline creates a pipeline reading from dec and persisting to artifacts.
func NewPipeline(dec *store.Decomposition, artifacts *store.Artifacts, optFns ...Option) *Pipeline {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Pipeline{dec: dec, artifacts: artifacts, opts: opts}
}

// Run clusters every selected layer and persists the artifacts, replacing
// those of earlier runs. Results are ordered by layer.
func (p *Pipeline) Run(ctx context.Context) (*Table, error) {
	layers := p.opts.layers
	if len(layers) == 0 {
		n, err := p.dec.NumLayers(ctx)
		if err != nil {
			return nil, err
		}
		layers = make([]int, n)
		for i := range layers {
			layers[i] = i
		}
	}
	layers = slices.Clone(layers)
	slices.Sort(layers)
	layers = slices.Compact(layers)

	runID := uuid.NewString()
	logger := p.opts.logger.With("run_id", runID, "side", p.dec.Layout().Side)
	logger.InfoContext(ctx, "clustering started", "layers", len(layers), "rank", p.opts.rank)

	results := make([]LayerResult, len(layers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.workers)
	for i, layer := range layers {
		g.Go(func() error {
			if err := p.opts.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer p.opts.rc.ReleaseWorker()

			start := time.Now()
			res, err := p.clusterLayer(gctx, runID, layer)
			p.opts.metrics.RecordLayerClustered(layer, res.Count, time.Since(start), err)
			if err != nil {
				logger.ErrorContext(gctx, "layer clustering failed", "layer", layer, "error", err)
				return fmt.Errorf("cluster: layer %d: %w", layer, err)
			}
			res.Duration = time.Since(start)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range results {
		logger.InfoContext(ctx, "layer clustered",
			"layer", r.Layer,
			"count", r.Count,
			"candidates", r.Candidates,
			"silhouette", r.Silhouette,
			"duration", r.Duration,
		)
	}
	return &Table{RunID: runID, Results: results}, nil
}

func (p *Pipeline) clusterLayer(ctx context.Context, runID string, layer int) (LayerResult, error) {
	w, err := p.dec.WriteFactors(ctx, layer)
	if err != nil {
		return LayerResult{}, err
	}
	vectors, samples, rank, err := flatten(w, p.opts.rank)
	if err != nil {
		return LayerResult{}, err
	}

	sel, err := spectral.SelectClusterCount(ctx, vectors, p.opts.selector...)
	if err != nil {
		return LayerResult{}, err
	}
	if p.opts.plot {
		p.opts.renderer.PlotSpectrum(ctx,
			p.dec.Layout().Plot("eigengap", "Layer"+strconv.Itoa(layer)+".png"),
			sel.Eigenvalues, sel.Candidates,
			fmt.Sprintf("Layer %d eigengap candidates %v", layer, sel.Candidates))
	}

	clusterOpts := append(slices.Clone(p.opts.clusterer), spectral.WithSpectrum(sel.Spectrum))
	c, err := spectral.Cluster(ctx, sel.Affinity, sel.Count, clusterOpts...)
	if err != nil {
		return LayerResult{}, err
	}

	centroids, err := Centroids(vectors, c.Labels, c.K)
	if err != nil {
		return LayerResult{}, err
	}

	labels := make([][]int, samples)
	for s := range labels {
		labels[s] = c.Labels[s*rank : (s+1)*rank]
	}

	res := LayerResult{
		Layer:      layer,
		Count:      c.K,
		Candidates: sel.Candidates,
		Labels:     labels,
		Centroids:  centroids,
		Silhouette: spectral.Silhouette(vectors, c.Labels),
	}

	err = p.artifacts.Save(ctx, &store.ClusterArtifact{
		Layer:      layer,
		Count:      res.Count,
		Candidates: res.Candidates,
		Labels:     res.Labels,
		Centroids:  res.Centroids,
		Silhouette: res.Silhouette,
		RunID:      runID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return LayerResult{}, err
	}
	return res, nil
}

// flatten turns write factors [sample][rank][dim] into the first k write
// vectors of every sample, sample-major.
func flatten(w *tensor.Array, k int) ([][]float64, int, int, error) {
	if err := w.Expect(3); err != nil {
		return nil, 0, 0, err
	}
	samples, rank, dim := w.Shape[0], w.Shape[1], w.Shape[2]
	if k <= 0 {
		return nil, 0, 0, fmt.Errorf("%w: rank %d", spectral.ErrInvalidClusterConfiguration, k)
	}
	k = min(k, rank)

	vectors := make([][]float64, 0, samples*k)
	for s := 0; s < samples; s++ {
		for r := 0; r < k; r++ {
			off := (s*rank + r) * dim
			vectors = append(vectors, w.Data[off:off+dim])
		}
	}
	return vectors, samples, k, nil
}
