package store

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/lja/blobstore"
	"github.com/hupe1980/lja/codec"
	"github.com/hupe1980/lja/internal/compress"
)

// ClusterArtifact is the persisted clustering of one layer.
type ClusterArtifact struct {
	Layer int `json:"layer"`
	// Count is the number of clusters.
	Count int `json:"count"`
	// Candidates are the eigengap candidates the count was chosen from.
	Candidates []int `json:"candidates,omitempty"`
	// Labels has shape (samples, rank): the profile of every sample.
	Labels [][]int `json:"labels"`
	// Centroids has shape (count, dim).
	Centroids  [][]float64 `json:"centroids"`
	Silhouette float64     `json:"silhouette"`
	RunID      string      `json:"run_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Artifacts persists cluster artifacts next to the decomposition.
type Artifacts struct {
	bs     blobstore.BlobStore
	layout Layout
	codec  codec.Codec
	comp   compress.Type
}

// ArtifactOption configures Artifacts.
type ArtifactOption func(*Artifacts)

// WithCodec sets the codec for new artifacts.
func WithCodec(c codec.Codec) ArtifactOption {
	return func(a *Artifacts) { a.codec = c }
}

// WithCompression sets the compression for new artifacts.
func WithCompression(t compress.Type) ArtifactOption {
	return func(a *Artifacts) { a.comp = t }
}

// NewArtifacts returns the artifact store of side under namespace ns.
// Artifacts default to go-json with zstd compression.
func NewArtifacts(bs blobstore.BlobStore, ns, side string, opts ...ArtifactOption) *Artifacts {
	a := &Artifacts{
		bs:     bs,
		layout: Layout{Namespace: ns, Side: side},
		codec:  codec.Default,
		comp:   compress.ZSTD,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Save writes the artifact of a.Layer, replacing any previous one.
func (s *Artifacts) Save(ctx context.Context, a *ClusterArtifact) error {
	data, err := Seal(s.codec, s.comp, a)
	if err != nil {
		return err
	}
	name := s.layout.Clusters(a.Layer)
	if err := s.bs.Put(ctx, name, data); err != nil {
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	return nil
}

// Load reads the artifact of layer. A layer that was never clustered
// fails with ErrNotFound.
func (s *Artifacts) Load(ctx context.Context, layer int) (*ClusterArtifact, error) {
	name := s.layout.Clusters(layer)
	data, err := blobstore.ReadAll(ctx, s.bs, name)
	if err != nil {
		return nil, fmt.Errorf("store: cluster artifact of layer %d: %w", layer, err)
	}

	var a ClusterArtifact
	if _, err := Unseal(data, &a); err != nil {
		return nil, fmt.Errorf("store: %s: %w", name, err)
	}
	if a.Layer != layer {
		return nil, fmt.Errorf("%w: %s holds layer %d", ErrCorrupt, name, a.Layer)
	}
	return &a, nil
}
