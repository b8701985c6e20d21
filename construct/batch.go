package construct

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Request selects the features of a batch: every combination of layer,
// feature and target.
type Request struct {
	Layers   []int
	Features []int
	Targets  []int
}

// Result is one constructed feature of a batch.
type Result struct {
	Layer   int
	Feature int
	Target  int
	Vector  []float64
}

// ConstructMany constructs every feature of req. Results are ordered by
// layer, then feature, then target. Concurrent workers may compute the same
// sub-feature twice; the last write to the cache wins.
func (c *Constructor) ConstructMany(ctx context.Context, req Request) ([]Result, error) {
	results := make([]Result, 0, len(req.Layers)*len(req.Features)*len(req.Targets))
	for _, l := range req.Layers {
		for _, f := range req.Features {
			for _, t := range req.Targets {
				results = append(results, Result{Layer: l, Feature: f, Target: t})
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.workers)
	for i := range results {
		g.Go(func() error {
			if err := c.opts.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer c.opts.rc.ReleaseWorker()

			r := &results[i]
			vec, err := c.Construct(gctx, r.Layer, r.Feature, r.Target)
			if err != nil {
				return err
			}
			r.Vector = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.opts.logger.InfoContext(ctx, "features constructed",
		"count", len(results),
		"target", c.strategy.Target().String(),
		"granularity", c.strategy.Granularity().String(),
	)
	return results, nil
}
