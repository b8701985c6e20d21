package lja

import (
	"github.com/hupe1980/lja/cluster"
	"github.com/hupe1980/lja/construct"
	"github.com/hupe1980/lja/spectral"
	"github.com/hupe1980/lja/store"
)

var (
	// ErrInvalidClusterConfiguration is returned when a cluster count does
	// not fit the data size or connectivity.
	ErrInvalidClusterConfiguration = spectral.ErrInvalidClusterConfiguration
	// ErrEmptyCluster is returned when a cluster has no members.
	ErrEmptyCluster = cluster.ErrEmptyCluster
	// ErrInvalidGranularity is returned for unsupported target/granularity
	// combinations.
	ErrInvalidGranularity = construct.ErrInvalidGranularity
	// ErrIndexOutOfRange is returned for invalid layer, feature or target indices.
	ErrIndexOutOfRange = construct.ErrIndexOutOfRange
	// ErrProfileLookup is returned when a profile cannot be carried to the
	// previous layer.
	ErrProfileLookup = construct.ErrProfileLookup
	// ErrNotFound is returned when loading artifacts that were never computed.
	ErrNotFound = store.ErrNotFound
	// ErrCorrupt is returned for artifacts that fail validation.
	ErrCorrupt = store.ErrCorrupt
)

// FeatureError reports a failed feature construction with its key.
type FeatureError = construct.FeatureError
