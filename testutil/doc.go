// Package testutil provides testing utilities for lja.
//
// This package is intended for use in tests only. It provides helpers for
// generating reproducible random vectors and well separated clusters, and
// an exact nearest-neighbor reference.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.GaussianVectors(100, 8)
//
// # Clustered Data
//
//	vecs := rng.Blobs([][]float64{{0, 0}, {20, 0}}, 15, 0.5)
package testutil
