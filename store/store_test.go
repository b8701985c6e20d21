package store

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/lja/blobstore"
	"github.com/hupe1980/lja/codec"
	"github.com/hupe1980/lja/internal/compress"
	"github.com/hupe1980/lja/internal/resource"
	"github.com/hupe1980/lja/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout(t *testing.T) {
	l := Layout{Namespace: "mnist_", Side: "left"}

	assert.Equal(t, "decompositions/mnist_left/Layer2/u.npy", l.WriteFactors(2))
	assert.Equal(t, "decompositions/mnist_left/Layer0/vh.npy", l.ReadFactors(0))
	assert.Equal(t, "decompositions/mnist_left/Layer1/clusters.lja", l.Clusters(1))
	assert.Equal(t, "transformations/mnist_labels.npy", l.Labels())
	assert.Equal(t,
		"features/mnist_left/Layer3/Vector7/by_profile/granularity_profile/feature_7_profile_12.npy",
		l.Feature(FeatureKey{Layer: 3, Feature: 7, Target: "profile", Granularity: "profile", Index: 12}))
	assert.Equal(t, "plots/mnist_left/Layer1/eigengap.png", l.Plot("Layer1", "eigengap.png"))
}

func TestParseLayer(t *testing.T) {
	l, ok := parseLayer("Layer12/u.npy")
	assert.True(t, ok)
	assert.Equal(t, 12, l)

	for _, bad := range []string{"Layer/u.npy", "Layerx/u.npy", "Layer3", "other/u.npy"} {
		_, ok := parseLayer(bad)
		assert.False(t, ok, bad)
	}
}

func TestEnvelope(t *testing.T) {
	in := map[string][]int{"labels": {0, 1, 1, 0}}

	for _, comp := range []compress.Type{compress.None, compress.LZ4, compress.ZSTD} {
		for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
			data, err := Seal(c, comp, in)
			require.NoError(t, err)

			var out map[string][]int
			info, err := Unseal(data, &out)
			require.NoError(t, err)
			assert.Equal(t, in, out)
			assert.Equal(t, c.Name(), info.Codec)
			assert.Equal(t, comp, info.Compression)
		}
	}
}

func TestEnvelope_Corrupt(t *testing.T) {
	data, err := Seal(nil, compress.None, []int{1, 2, 3})
	require.NoError(t, err)

	var out []int
	_, err = Unseal([]byte("XXXX"), &out)
	assert.ErrorIs(t, err, ErrCorrupt)

	flipped := append([]byte(nil), data...)
	flipped[len(flipped)-2] ^= 0xff
	_, err = Unseal(flipped, &out)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = Unseal(data[:8], &out)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecomposition_RoundTrip(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	d := NewDecomposition(bs, "toy_", "left")

	// [sample][rank][dim] = 2 x 2 x 3
	w, err := tensor.FromData([]float64{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	}, 2, 2, 3)
	require.NoError(t, err)
	vh, err := tensor.FromData([]float64{1, 0, 0, 9, 0, 1, 0, 9}, 2, 4)
	require.NoError(t, err)

	for layer := 0; layer < 3; layer++ {
		require.NoError(t, d.SaveWriteFactors(ctx, layer, w))
		require.NoError(t, d.SaveReadFactors(ctx, layer, vh))
	}
	require.NoError(t, d.SaveLabels(ctx, []int64{3, 1}))

	n, err := d.NumLayers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Stored orientation is (samples, dim, rank).
	raw, err := d.readArray(ctx, d.Layout().WriteFactors(1))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 2}, raw.Shape)

	got, err := d.WriteFactors(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, w, got)

	gotVH, err := d.ReadFactors(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, vh, gotVH)

	labels, err := d.Labels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, labels)
}

func TestDecomposition_Layers(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	d := NewDecomposition(bs, "", "left")

	_, err := d.NumLayers(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, bs.Put(ctx, "decompositions/left/Layer0/u.npy", nil))
	require.NoError(t, bs.Put(ctx, "decompositions/left/Layer2/u.npy", nil))
	_, err = d.NumLayers(ctx)
	assert.ErrorIs(t, err, ErrLayout)

	_, err = d.WriteFactors(ctx, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArtifacts(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	s := NewArtifacts(bs, "toy_", "left", WithCompression(compress.LZ4), WithCodec(codec.JSON{}))

	a := &ClusterArtifact{
		Layer:      1,
		Count:      2,
		Candidates: []int{2, 3},
		Labels:     [][]int{{0, 1}, {1, 0}},
		Centroids:  [][]float64{{0.5, 0.5}, {10, 0.5}},
		Silhouette: 0.9,
		RunID:      "run",
		CreatedAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, s.Save(ctx, a))

	got, err := s.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	// Idempotent overwrite.
	a.Count = 3
	require.NoError(t, s.Save(ctx, a))
	got, err = s.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Count)

	_, err = s.Load(ctx, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeatures(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
	s := NewFeatures(bs, "toy_", "left", rc)

	k := FeatureKey{Layer: 2, Feature: 0, Target: "sample", Granularity: "sample", Index: 4}

	_, ok, err := s.Get(ctx, k)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, k, []float64{1.5, -2, 0}))

	vec, ok, err := s.Get(ctx, k)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float64{1.5, -2, 0}, vec)

	names, err := bs.List(ctx, "features/")
	require.NoError(t, err)
	assert.Equal(t, []string{"features/toy_left/Layer2/Vector0/by_sample/granularity_sample/feature_0_sample_4.npy"}, names)
}
