package store

import (
	"errors"

	"github.com/hupe1980/lja/blobstore"
)

var (
	// ErrNotFound is returned when an artifact was never computed.
	ErrNotFound = blobstore.ErrNotFound
	// ErrCorrupt is returned for envelopes that fail validation.
	ErrCorrupt = errors.New("store: corrupt artifact")
	// ErrLayout is returned for decompositions with missing or gapped layers.
	ErrLayout = errors.New("store: invalid decomposition layout")
)
