package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/lja/blobstore"
	"github.com/hupe1980/lja/internal/resource"
	"github.com/hupe1980/lja/tensor"
)

// FeatureKey identifies a constructed feature.
type FeatureKey struct {
	Layer   int
	Feature int
	// Target is the target universe ("sample" or "profile").
	Target string
	// Granularity is the candidate granularity ("sample" or "profile").
	Granularity string
	// Index is the target index.
	Index int
}

func (k FeatureKey) String() string {
	return fmt.Sprintf("layer=%d feature=%d %s=%d granularity=%s", k.Layer, k.Feature, k.Target, k.Index, k.Granularity)
}

// Features persists constructed features as .npy vectors.
type Features struct {
	bs     blobstore.BlobStore
	layout Layout
	rc     *resource.Controller
}

// NewFeatures returns the feature store of side under namespace ns.
// Writes are throttled by rc when it is non-nil.
func NewFeatures(bs blobstore.BlobStore, ns, side string, rc *resource.Controller) *Features {
	return &Features{bs: bs, layout: Layout{Namespace: ns, Side: side}, rc: rc}
}

// Get returns the stored feature for k. ok is false if it was never stored.
func (s *Features) Get(ctx context.Context, k FeatureKey) ([]float64, bool, error) {
	name := s.layout.Feature(k)
	data, err := blobstore.ReadAll(ctx, s.bs, name)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: read %s: %w", name, err)
	}

	a, err := tensor.ReadNPY(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("store: decode %s: %w", name, err)
	}
	return a.Data, true, nil
}

// Put stores the feature for k, replacing any previous value.
func (s *Features) Put(ctx context.Context, k FeatureKey, vec []float64) error {
	a, err := tensor.FromData(vec, len(vec))
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := tensor.WriteNPY(&buf, a); err != nil {
		return err
	}
	if err := s.rc.AcquireIO(ctx, buf.Len()); err != nil {
		return err
	}

	name := s.layout.Feature(k)
	if err := s.bs.Put(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	return nil
}
