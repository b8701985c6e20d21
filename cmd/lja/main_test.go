package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/hupe1980/lja"
	"github.com/hupe1980/lja/blobstore"
	"github.com/hupe1980/lja/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLocal(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	root := t.TempDir()
	dec := lja.New(blobstore.NewLocalStore(root), "mnist").Decomposition("left")

	write, err := tensor.FromData([]float64{
		0, 0, 0, 1,
		1, 0, 10, 10,
		10, 11, 1, 1,
		11, 10, 11, 11,
	}, 4, 2, 2)
	require.NoError(t, err)

	reads := [][]float64{
		{1, 2, 3, 4, 9, 5, 6, 7, 8, 9},
		{1, 2, 7, 0, 1, 7},
	}
	for l, r := range reads {
		vh, err := tensor.FromData(r, 2, len(r)/2)
		require.NoError(t, err)
		require.NoError(t, dec.SaveReadFactors(ctx, l, vh))
		require.NoError(t, dec.SaveWriteFactors(ctx, l, write))
	}
	require.NoError(t, dec.SaveLabels(ctx, []int64{7, 7, 3, 3}))
	return root
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("LJA_CONFIG", filepath.Join(t.TempDir(), "none.yaml"))
}

func TestRun_ClusterConstructProfiles(t *testing.T) {
	isolate(t)
	root := seedLocal(t)
	ctx := context.Background()
	common := []string{"--namespace", "mnist", "--root", root, "--log-level", "warn"}

	var out, errOut bytes.Buffer
	err := run(ctx, append([]string{"cluster", "--neighbors", "4", "--rank", "2"}, common...), &out, &errOut)
	require.NoError(t, err, errOut.String())
	assert.Contains(t, out.String(), "Layer0\tclusters=2")
	assert.Contains(t, out.String(), "Layer1\tclusters=2")

	out.Reset()
	err = run(ctx, append([]string{"construct",
		"--by", "sample", "--granularity", "profile",
		"--layers", "1", "--features", "0", "--targets", "0-1",
	}, common...), &out, &errOut)
	require.NoError(t, err, errOut.String())
	assert.Equal(t, "Layer1\tfeature=0\tsample=0\tdim=4\nLayer1\tfeature=0\tsample=1\tdim=4\n", out.String())

	ok, err := blobstore.Exists(ctx, blobstore.NewLocalStore(root),
		"features/mnistleft/Layer1/Vector0/by_sample/granularity_profile/feature_0_sample_1.npy")
	require.NoError(t, err)
	assert.True(t, ok)

	out.Reset()
	err = run(ctx, append([]string{"profiles", "--layer", "0"}, common...), &out, &errOut)
	require.NoError(t, err, errOut.String())
	assert.Contains(t, out.String(), "0\t(0,0)\tsamples=1\tlabel=7\tshare=1.00")
	assert.Contains(t, out.String(), "3\t(1,1)\tsamples=1\tlabel=3\tshare=1.00")
}

func TestRun_Errors(t *testing.T) {
	isolate(t)
	ctx := context.Background()
	var out, errOut bytes.Buffer

	err := run(ctx, []string{"bogus"}, &out, &errOut)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, errOut.String(), "Unknown command: bogus")

	err = run(ctx, []string{"cluster"}, &out, &errOut)
	assert.ErrorContains(t, err, "namespace is required")

	err = run(ctx, []string{"cluster", "--namespace", "x", "--backend", "ftp"}, &out, &errOut)
	assert.ErrorContains(t, err, "unknown backend")

	err = run(ctx, []string{"construct", "--namespace", "x", "--by", "profile", "--granularity", "sample",
		"--layers", "1", "--features", "0", "--targets", "0", "--root", t.TempDir()}, &out, &errOut)
	assert.ErrorIs(t, err, lja.ErrInvalidGranularity)

	err = run(ctx, []string{"construct", "--namespace", "x", "--layers", "1"}, &out, &errOut)
	assert.ErrorContains(t, err, "--features is required")

	err = run(ctx, []string{"profiles", "--namespace", "x", "--log-format", "xml"}, &out, &errOut)
	assert.ErrorContains(t, err, "log format")
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"version"}, &out, &out))
	assert.Equal(t, "lja "+version+"\n", out.String())

	out.Reset()
	require.NoError(t, run(context.Background(), nil, &out, &out))
	assert.Contains(t, out.String(), "Commands:")
}

func TestParseInts(t *testing.T) {
	got, err := parseInts("0, 2,4-6")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4, 5, 6}, got)

	for _, bad := range []string{"", "a", "3-1", "1-x"} {
		_, err := parseInts(bad)
		assert.Error(t, err, bad)
	}
}
