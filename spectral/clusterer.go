package spectral

import (
	"context"
	"math"

	"github.com/hupe1980/lja/internal/kmeans"
	"gonum.org/v1/gonum/mat"
)

// ClusterOptions configures Cluster.
type ClusterOptions struct {
	// NInit is the number of k-means restarts.
	NInit int
	// MaxIter bounds the k-means iterations per restart.
	MaxIter int
	// Seed makes the label assignment reproducible.
	Seed int64
	// Spectrum reuses a decomposition of the same affinity graph.
	Spectrum *Spectrum
}

// DefaultClusterOptions returns the default clustering settings.
func DefaultClusterOptions() ClusterOptions {
	return ClusterOptions{
		NInit:   10,
		MaxIter: 300,
	}
}

// WithSeed sets the k-means seed.
func WithSeed(seed int64) func(*ClusterOptions) {
	return func(o *ClusterOptions) { o.Seed = seed }
}

// WithRestarts sets the number of k-means restarts.
func WithRestarts(n int) func(*ClusterOptions) {
	return func(o *ClusterOptions) { o.NInit = n }
}

// WithSpectrum reuses an existing decomposition of the affinity graph.
func WithSpectrum(s *Spectrum) func(*ClusterOptions) {
	return func(o *ClusterOptions) { o.Spectrum = s }
}

// Clustering is a label assignment produced by Cluster.
type Clustering struct {
	// K is the number of clusters.
	K int
	// Labels holds one label in [0, K) per vertex. Every label is used.
	Labels []int
	// Embedding is the spectral embedding the labels were computed on.
	Embedding [][]float64
}

// Cluster partitions the affinity graph into k clusters.
//
// The vertices are embedded with the first k eigenvectors of the normalized
// Laplacian, scaled by 1/sqrt(degree), and the embedding is clustered with
// seeded k-means. Labels are numbered densely in order of first appearance.
//
// It fails with ErrInvalidClusterConfiguration if k is not in [2, n), if a
// vertex has no neighbors, if the graph has more connected components
// than k, or if fewer than k clusters could be populated.
func Cluster(ctx context.Context, affinity mat.Symmetric, k int, optFns ...func(*ClusterOptions)) (*Clustering, error) {
	opts := DefaultClusterOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	n := affinity.SymmetricDim()
	if k < 2 {
		return nil, invalidf("cluster count %d is below 2", k)
	}
	if k >= n {
		return nil, invalidf("cluster count %d must be smaller than the number of vectors %d", k, n)
	}

	comps, _ := Components(affinity)
	if comps > k {
		return nil, invalidf("graph has %d connected components, more than %d clusters", comps, k)
	}

	spectrum := opts.Spectrum
	if spectrum == nil {
		var err error
		if spectrum, err = Decompose(affinity); err != nil {
			return nil, err
		}
	}
	for i, d := range spectrum.Degrees {
		if d == 0 {
			return nil, invalidf("vertex %d has no neighbors", i)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embedding := embed(spectrum, k)

	res, err := kmeans.Fit(ctx, embedding, kmeans.Config{
		K:       k,
		MaxIter: opts.MaxIter,
		NInit:   opts.NInit,
		Seed:    opts.Seed,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, invalidf("k-means: %v", err)
	}

	labels, used := relabel(res.Labels)
	if used < k {
		return nil, invalidf("only %d of %d clusters populated", used, k)
	}

	return &Clustering{K: k, Labels: labels, Embedding: embedding}, nil
}

// embed returns the row embedding from the first k eigenvectors.
// Each column is sign-flipped so its largest-magnitude entry is positive.
func embed(s *Spectrum, k int) [][]float64 {
	n := len(s.Degrees)
	cols := make([][]float64, k)
	for j := 0; j < k; j++ {
		col := mat.Col(nil, j, s.Vectors)
		maxIdx := 0
		for i, v := range col {
			if math.Abs(v) > math.Abs(col[maxIdx]) {
				maxIdx = i
			}
		}
		sign := 1.0
		if col[maxIdx] < 0 {
			sign = -1
		}
		for i := range col {
			col[i] *= sign / math.Sqrt(s.Degrees[i])
		}
		cols[j] = col
	}

	rows := make([][]float64, n)
	for i := range rows {
		row := make([]float64, k)
		for j := range row {
			row[j] = cols[j][i]
		}
		rows[i] = row
	}
	return rows
}

// relabel renumbers labels densely in order of first appearance and
// returns the number of distinct labels.
func relabel(labels []int) ([]int, int) {
	mapping := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		m, ok := mapping[l]
		if !ok {
			m = len(mapping)
			mapping[l] = m
		}
		out[i] = m
	}
	return out, len(mapping)
}
