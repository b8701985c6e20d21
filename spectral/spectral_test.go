package spectral

import (
	"context"
	"testing"

	"github.com/hupe1980/lja/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// twoPairs is four points in 2D forming two well separated pairs.
var twoPairs = [][]float64{
	{0, 0},
	{0, 1},
	{10, 0},
	{10, 1},
}

func blobs(seed int64, centers [][]float64, perBlob int, spread float64) [][]float64 {
	return testutil.NewRNG(seed).Blobs(centers, perBlob, spread)
}

func TestKNNGraph(t *testing.T) {
	a := KNNGraph(twoPairs, 2)

	want := [][]float64{
		{1, 1, 0, 0},
		{1, 1, 0, 0},
		{0, 0, 1, 1},
		{0, 0, 1, 1},
	}
	for i := range want {
		for j := range want[i] {
			assert.Equal(t, want[i][j], a.At(i, j), "A[%d][%d]", i, j)
		}
	}
}

func TestKNNGraph_Asymmetric(t *testing.T) {
	// 0 -> 1 is nearest for 0, but 1's nearest other point is 2.
	pts := [][]float64{{0}, {3}, {4}}
	a := KNNGraph(pts, 2)

	assert.Equal(t, 0.5, a.At(0, 1))
	assert.Equal(t, 1.0, a.At(1, 2))
	assert.Equal(t, 0.0, a.At(0, 2))
}

func TestKNNGraph_ClampedIsComplete(t *testing.T) {
	a := KNNGraph(twoPairs, 50)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.Equal(t, 1.0, a.At(i, j))
		}
	}
}

func TestNormalizedLaplacian(t *testing.T) {
	lap, degrees := NormalizedLaplacian(KNNGraph(twoPairs, 2))

	assert.Equal(t, []float64{1, 1, 1, 1}, degrees)
	assert.Equal(t, 1.0, lap.At(0, 0))
	assert.Equal(t, -1.0, lap.At(0, 1))
	assert.Equal(t, 0.0, lap.At(0, 2))
}

func TestNormalizedLaplacian_IsolatedVertex(t *testing.T) {
	a := mat.NewSymDense(3, []float64{
		1, 1, 0,
		1, 1, 0,
		0, 0, 1,
	})
	lap, degrees := NormalizedLaplacian(a)

	assert.Equal(t, 0.0, degrees[2])
	assert.Equal(t, 0.0, lap.At(2, 2))
}

func TestComponents(t *testing.T) {
	count, comp := Components(KNNGraph(twoPairs, 2))
	assert.Equal(t, 2, count)
	assert.Equal(t, []int{0, 0, 1, 1}, comp)

	count, _ = Components(KNNGraph(twoPairs, 3))
	assert.Equal(t, 1, count)
}

func TestSelectClusterCount_TwoPairs(t *testing.T) {
	sel, err := SelectClusterCount(context.Background(), twoPairs, WithNeighbors(2))
	require.NoError(t, err)

	require.Len(t, sel.Eigenvalues, 4)
	assert.InDeltaSlice(t, []float64{0, 0, 2, 2}, sel.Eigenvalues, 1e-9)
	assert.Equal(t, 2, sel.Count)
	assert.Equal(t, []int{2, 3}, sel.Candidates)
	assert.Len(t, sel.Gaps, 2)
}

func TestSelectClusterCount_TiedGapsPreferLargerCount(t *testing.T) {
	threePairs := [][]float64{{0, 0}, {0, 1}, {10, 0}, {10, 1}, {20, 0}, {20, 1}}

	sel, err := SelectClusterCount(context.Background(), threePairs, WithNeighbors(2))
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0, 0, 0, 2, 2, 2}, sel.Eigenvalues, 1e-9)
	assert.Equal(t, []int{3, 5}, sel.Candidates)
	assert.Equal(t, 3, sel.Count)

	res, err := Cluster(context.Background(), sel.Affinity, sel.Count, WithSpectrum(sel.Spectrum))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1, 1, 2, 2}, res.Labels)
}

func TestSelectClusterCount_Blobs(t *testing.T) {
	vectors := blobs(1, [][]float64{{0, 0}, {20, 0}, {0, 20}}, 15, 0.5)

	sel, err := SelectClusterCount(context.Background(), vectors, WithNeighbors(8))
	require.NoError(t, err)

	assert.Contains(t, sel.Candidates, 3)
	assert.GreaterOrEqual(t, sel.Count, 2)
}

func TestSelectClusterCount_Bounds(t *testing.T) {
	rng := testutil.NewRNG(7)
	for trial := 0; trial < 20; trial++ {
		n := 3 + rng.Intn(30)
		vectors := rng.UniformVectors(n, 3)
		maxClusters := 3 + rng.Intn(10)

		sel, err := SelectClusterCount(context.Background(), vectors,
			WithNeighbors(1+rng.Intn(n)),
			WithMaxClusters(maxClusters),
			WithCandidatePool(1+rng.Intn(3)),
		)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, sel.Count, 2)
		assert.LessOrEqual(t, sel.Count, maxClusters)
		assert.LessOrEqual(t, len(sel.Eigenvalues), maxClusters)
	}
}

func TestSelectClusterCount_CompleteGraph(t *testing.T) {
	// A complete graph on 4 vertices has eigenvalues 0, 4/3, 4/3, 4/3.
	sel, err := SelectClusterCount(context.Background(), twoPairs, WithNeighbors(4))
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0, 4.0 / 3, 4.0 / 3, 4.0 / 3}, sel.Eigenvalues, 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0}, sel.Gaps, 1e-9)
	assert.Equal(t, []int{2, 3}, sel.Candidates)
	assert.Equal(t, 2, sel.Count)
}

func TestSelectClusterCount_Invalid(t *testing.T) {
	_, err := SelectClusterCount(context.Background(), twoPairs[:2])
	assert.ErrorIs(t, err, ErrInvalidClusterConfiguration)

	_, err = SelectClusterCount(context.Background(), twoPairs, WithMaxClusters(2))
	assert.ErrorIs(t, err, ErrInvalidClusterConfiguration)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = SelectClusterCount(ctx, twoPairs)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCluster_TwoPairs(t *testing.T) {
	sel, err := SelectClusterCount(context.Background(), twoPairs, WithNeighbors(2))
	require.NoError(t, err)

	res, err := Cluster(context.Background(), sel.Affinity, sel.Count, WithSpectrum(sel.Spectrum))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 1, 1}, res.Labels)
	assert.Greater(t, Silhouette(twoPairs, res.Labels), 0.8)
}

func TestCluster_Blobs(t *testing.T) {
	vectors := blobs(3, [][]float64{{0, 0}, {30, 30}, {-30, 30}}, 10, 0.3)
	affinity := KNNGraph(vectors, 6)

	res, err := Cluster(context.Background(), affinity, 3, WithSeed(42))
	require.NoError(t, err)

	for b := 0; b < 3; b++ {
		first := res.Labels[b*10]
		for i := 1; i < 10; i++ {
			assert.Equal(t, first, res.Labels[b*10+i], "blob %d point %d", b, i)
		}
	}
	assert.Equal(t, 0, res.Labels[0])
	assert.ElementsMatch(t, []int{0, 1, 2}, []int{res.Labels[0], res.Labels[10], res.Labels[20]})
}

func TestCluster_Deterministic(t *testing.T) {
	vectors := blobs(5, [][]float64{{0, 0}, {3, 3}}, 12, 1.5)
	affinity := KNNGraph(vectors, 13)

	a, err := Cluster(context.Background(), affinity, 2, WithSeed(9))
	require.NoError(t, err)
	b, err := Cluster(context.Background(), affinity, 2, WithSeed(9))
	require.NoError(t, err)

	assert.Equal(t, a.Labels, b.Labels)
}

func TestCluster_Invalid(t *testing.T) {
	affinity := KNNGraph(twoPairs, 2)

	tests := []struct {
		name string
		a    mat.Symmetric
		k    int
	}{
		{"k below 2", affinity, 1},
		{"k equals n", affinity, 4},
		{"too many components", KNNGraph([][]float64{{0}, {1}, {10}, {11}, {20}, {21}}, 2), 2},
		{"isolated vertex", mat.NewSymDense(4, []float64{
			1, 1, 0, 0,
			1, 1, 1, 0,
			0, 1, 1, 0,
			0, 0, 0, 1,
		}), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Cluster(context.Background(), tt.a, tt.k)
			assert.ErrorIs(t, err, ErrInvalidClusterConfiguration)
		})
	}
}

func TestSilhouette(t *testing.T) {
	// Perfectly separated pairs: a = 1, b ~ 10.
	s := Silhouette(twoPairs, []int{0, 0, 1, 1})
	assert.InDelta(t, 0.9, s, 0.01)

	// Singletons count as zero.
	s = Silhouette([][]float64{{0}, {1}, {5}}, []int{0, 0, 1})
	assert.InDelta(t, (0.8+0.75)/3, s, 1e-9)

	assert.Zero(t, Silhouette(twoPairs, []int{0, 0, 0, 0}))
}

func TestRelabel(t *testing.T) {
	labels, used := relabel([]int{3, 3, 1, 0, 1})
	assert.Equal(t, []int{0, 0, 1, 2, 1}, labels)
	assert.Equal(t, 3, used)
}
