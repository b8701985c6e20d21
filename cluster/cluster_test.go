package cluster

import (
	"context"
	"sync"
	"testing"

	"github.com/hupe1980/lja/blobstore"
	"github.com/hupe1980/lja/internal/resource"
	"github.com/hupe1980/lja/metrics"
	"github.com/hupe1980/lja/spectral"
	"github.com/hupe1980/lja/store"
	"github.com/hupe1980/lja/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fourSamples holds write factors [sample][rank][dim] of 4 samples with
// rank 2 in 2D. The 8 write vectors form two unit squares far apart.
var fourSamples = []float64{
	0, 0, 0, 1,
	1, 0, 10, 10,
	10, 11, 1, 1,
	11, 10, 11, 11,
}

func newDecomposition(t *testing.T, layers ...int) (*store.Decomposition, *store.Artifacts) {
	t.Helper()
	bs := blobstore.NewMemoryStore()
	dec := store.NewDecomposition(bs, "mnist", "write")
	w, err := tensor.FromData(fourSamples, 4, 2, 2)
	require.NoError(t, err)
	for _, l := range layers {
		require.NoError(t, dec.SaveWriteFactors(context.Background(), l, w))
	}
	return dec, store.NewArtifacts(bs, "mnist", "write")
}

type recordingRenderer struct {
	mu    sync.Mutex
	names []string
	marks [][]int
}

func (r *recordingRenderer) PlotSpectrum(_ context.Context, name string, _ []float64, markers []int, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	r.marks = append(r.marks, markers)
}

func (r *recordingRenderer) PlotHeatmap(context.Context, string, []float64, string) {}

func TestCentroids(t *testing.T) {
	vectors := [][]float64{{0, 0}, {2, 2}, {10, 0}, {10, 4}}

	c, err := Centroids(vectors, []int{0, 0, 1, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 1}, {10, 2}}, c)
}

func TestCentroids_EmptyCluster(t *testing.T) {
	_, err := Centroids([][]float64{{0}, {1}}, []int{0, 2}, 3)
	assert.ErrorIs(t, err, ErrEmptyCluster)
}

func TestCentroids_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		vectors [][]float64
		labels  []int
		k       int
	}{
		{"length mismatch", [][]float64{{0}}, []int{0, 0}, 1},
		{"label out of range", [][]float64{{0}, {1}}, []int{0, 2}, 2},
		{"negative label", [][]float64{{0}}, []int{-1}, 1},
		{"ragged", [][]float64{{0}, {1, 2}}, []int{0, 0}, 1},
		{"no clusters", [][]float64{{0}}, []int{0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Centroids(tt.vectors, tt.labels, tt.k)
			assert.ErrorIs(t, err, spectral.ErrInvalidClusterConfiguration)
		})
	}
}

func TestPipeline_EndToEnd(t *testing.T) {
	ctx := context.Background()
	dec, artifacts := newDecomposition(t, 1)
	r := &recordingRenderer{}
	m := &metrics.Basic{}

	p := NewPipeline(dec, artifacts,
		WithLayers(1),
		WithRank(2),
		WithSelectorOptions(spectral.WithNeighbors(4)),
		WithClusterOptions(spectral.WithSeed(1)),
		WithRenderer(r),
		WithMetrics(m),
	)
	table, err := p.Run(ctx)
	require.NoError(t, err)
	require.Len(t, table.Results, 1)
	assert.NotEmpty(t, table.RunID)

	res, ok := table.Layer(1)
	require.True(t, ok)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 2, res.Candidates[0])
	assert.Equal(t, [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, res.Labels)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, res.Centroids[0], 1e-12)
	assert.InDeltaSlice(t, []float64{10.5, 10.5}, res.Centroids[1], 1e-12)
	assert.Greater(t, res.Silhouette, 0.9)

	a, err := artifacts.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, res.Count, a.Count)
	assert.Equal(t, res.Labels, a.Labels)
	assert.Equal(t, table.RunID, a.RunID)

	assert.Equal(t, []string{"plots/mnistwrite/eigengap/Layer1.png"}, r.names)
	assert.Equal(t, [][]int{res.Candidates}, r.marks)

	s := m.GetStats()
	assert.Equal(t, int64(1), s.LayersClustered)
	assert.Equal(t, int64(2), s.ClustersFound)
	assert.Zero(t, s.LayerErrors)

	_, ok = table.Layer(0)
	assert.False(t, ok)
}

func TestPipeline_AllLayersConcurrent(t *testing.T) {
	ctx := context.Background()
	dec, artifacts := newDecomposition(t, 0, 1, 2)

	p := NewPipeline(dec, artifacts,
		WithSelectorOptions(spectral.WithNeighbors(4)),
		WithWorkers(3),
		WithResourceController(resource.NewController(resource.Config{MaxWorkers: 2})),
	)
	table, err := p.Run(ctx)
	require.NoError(t, err)
	require.Len(t, table.Results, 3)
	for i, r := range table.Results {
		assert.Equal(t, i, r.Layer)
		assert.Equal(t, 2, r.Count)
	}

	// Rerunning overwrites the artifacts of the earlier run.
	again, err := p.Run(ctx)
	require.NoError(t, err)
	a, err := artifacts.Load(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, again.RunID, a.RunID)
	assert.NotEqual(t, table.RunID, again.RunID)
}

func TestPipeline_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing layer", func(t *testing.T) {
		dec, artifacts := newDecomposition(t, 0)
		_, err := NewPipeline(dec, artifacts, WithLayers(5)).Run(ctx)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("no layers", func(t *testing.T) {
		dec, artifacts := newDecomposition(t)
		_, err := NewPipeline(dec, artifacts).Run(ctx)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("too few vectors", func(t *testing.T) {
		bs := blobstore.NewMemoryStore()
		dec := store.NewDecomposition(bs, "tiny", "")
		w, err := tensor.FromData([]float64{0, 0, 1, 1}, 1, 2, 2)
		require.NoError(t, err)
		require.NoError(t, dec.SaveWriteFactors(ctx, 0, w))

		m := &metrics.Basic{}
		_, err = NewPipeline(dec, store.NewArtifacts(bs, "tiny", ""), WithMetrics(m)).Run(ctx)
		assert.ErrorIs(t, err, spectral.ErrInvalidClusterConfiguration)
		assert.Equal(t, int64(1), m.GetStats().LayerErrors)
	})

	t.Run("invalid rank", func(t *testing.T) {
		dec, artifacts := newDecomposition(t, 0)
		_, err := NewPipeline(dec, artifacts, WithRank(0)).Run(ctx)
		assert.ErrorIs(t, err, spectral.ErrInvalidClusterConfiguration)
	})
}

func TestFlatten(t *testing.T) {
	w, err := tensor.FromData(fourSamples, 4, 2, 2)
	require.NoError(t, err)

	vectors, samples, rank, err := flatten(w, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, samples)
	assert.Equal(t, 1, rank)
	assert.Equal(t, [][]float64{{0, 0}, {1, 0}, {10, 11}, {11, 10}}, vectors)
}
