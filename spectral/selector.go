package spectral

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// SelectorOptions configures SelectClusterCount.
type SelectorOptions struct {
	// Neighbors is the neighbor count of the kNN graph, self included.
	Neighbors int
	// MaxClusters truncates the spectrum and bounds the selected count.
	MaxClusters int
	// CandidatePool is the number of largest gaps considered.
	CandidatePool int
}

// DefaultSelectorOptions returns the default selector settings
// (50 neighbors, at most 200 clusters, 2 candidates).
func DefaultSelectorOptions() SelectorOptions {
	return SelectorOptions{
		Neighbors:     50,
		MaxClusters:   200,
		CandidatePool: 2,
	}
}

// WithNeighbors sets the kNN neighbor count.
func WithNeighbors(n int) func(*SelectorOptions) {
	return func(o *SelectorOptions) { o.Neighbors = n }
}

// WithMaxClusters sets the maximum cluster count.
func WithMaxClusters(n int) func(*SelectorOptions) {
	return func(o *SelectorOptions) { o.MaxClusters = n }
}

// WithCandidatePool sets the number of gap candidates.
func WithCandidatePool(n int) func(*SelectorOptions) {
	return func(o *SelectorOptions) { o.CandidatePool = n }
}

// Selection is the outcome of the eigengap heuristic.
type Selection struct {
	// Count is the selected cluster count, in [2, MaxClusters].
	Count int
	// Candidates are the counts of the top gaps, ascending. Count is Candidates[0].
	Candidates []int
	// Eigenvalues are the smallest Laplacian eigenvalues, ascending.
	Eigenvalues []float64
	// Gaps[i] is Eigenvalues[i+2] - Eigenvalues[i+1].
	Gaps []float64
	// Affinity is the symmetrized neighbor graph.
	Affinity *mat.SymDense
	// Spectrum is the full decomposition, reusable by Cluster.
	Spectrum *Spectrum
}

// SelectClusterCount recommends a cluster count for vectors with the
// eigengap heuristic.
//
// The first eigenvalue (the trivial all-ones direction) is skipped so that
// a single cluster is never selected. Gap indices are ranked by gap size,
// descending and stable, the top CandidatePool are kept, and the smallest
// of them is returned. This choice is heuristic, not optimal.
func SelectClusterCount(ctx context.Context, vectors [][]float64, optFns ...func(*SelectorOptions)) (*Selection, error) {
	opts := DefaultSelectorOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	n := len(vectors)
	if n < 3 {
		return nil, invalidf("need at least 3 vectors to select a cluster count, got %d", n)
	}
	if opts.MaxClusters < 3 {
		return nil, invalidf("max clusters must be at least 3, got %d", opts.MaxClusters)
	}
	if opts.CandidatePool < 1 {
		opts.CandidatePool = 1
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	affinity := KNNGraph(vectors, opts.Neighbors)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	spectrum, err := Decompose(affinity)
	if err != nil {
		return nil, err
	}

	ev := spectrum.Values
	if len(ev) > opts.MaxClusters {
		ev = ev[:opts.MaxClusters]
	}
	ev = append([]float64(nil), ev...)

	gaps := make([]float64, len(ev)-2)
	for i := range gaps {
		gaps[i] = ev[i+2] - ev[i+1]
	}

	idx := make([]int, len(gaps))
	for i := range idx {
		idx[i] = i
	}
	// Equal gaps rank the larger index first.
	sort.Slice(idx, func(a, b int) bool {
		ga, gb := gaps[idx[a]], gaps[idx[b]]
		return ga > gb || (ga == gb && idx[a] > idx[b])
	})

	pool := min(opts.CandidatePool, len(idx))
	candidates := make([]int, pool)
	for i, g := range idx[:pool] {
		candidates[i] = g + 2
	}
	sort.Ints(candidates)

	return &Selection{
		Count:       candidates[0],
		Candidates:  candidates,
		Eigenvalues: ev,
		Gaps:        gaps,
		Affinity:    affinity,
		Spectrum:    spectrum,
	}, nil
}
