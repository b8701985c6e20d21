package store

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/lja/blobstore"
	"github.com/hupe1980/lja/tensor"
)

// Decomposition reads and writes the per-layer factor matrices of one side.
type Decomposition struct {
	bs     blobstore.BlobStore
	layout Layout
}

// NewDecomposition returns the decomposition of side under namespace ns.
func NewDecomposition(bs blobstore.BlobStore, ns, side string) *Decomposition {
	return &Decomposition{bs: bs, layout: Layout{Namespace: ns, Side: side}}
}

// Layout returns the blob layout used by the decomposition.
func (d *Decomposition) Layout() Layout { return d.layout }

// Store returns the underlying blob store.
func (d *Decomposition) Store() blobstore.BlobStore { return d.bs }

// NumLayers discovers the number of layers from the Layer<N>/ directories.
// Layers must be numbered 0..N-1 without gaps.
func (d *Decomposition) NumLayers(ctx context.Context) (int, error) {
	root := d.layout.root() + "/"
	names, err := d.bs.List(ctx, root)
	if err != nil {
		return 0, err
	}

	seen := map[int]bool{}
	for _, name := range names {
		if l, ok := parseLayer(strings.TrimPrefix(name, root)); ok {
			seen[l] = true
		}
	}
	if len(seen) == 0 {
		return 0, fmt.Errorf("%w: no layers below %s", ErrNotFound, root)
	}

	layers := make([]int, 0, len(seen))
	for l := range seen {
		layers = append(layers, l)
	}
	sort.Ints(layers)
	for i, l := range layers {
		if i != l {
			return 0, fmt.Errorf("%w: layer %d missing below %s", ErrLayout, i, root)
		}
	}
	return len(layers), nil
}

func (d *Decomposition) readArray(ctx context.Context, name string) (*tensor.Array, error) {
	data, err := blobstore.ReadAll(ctx, d.bs, name)
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", name, err)
	}
	a, err := tensor.ReadNPY(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", name, err)
	}
	return a, nil
}

func (d *Decomposition) writeArray(ctx context.Context, name string, a *tensor.Array) error {
	var buf bytes.Buffer
	if err := tensor.WriteNPY(&buf, a); err != nil {
		return err
	}
	return d.bs.Put(ctx, name, buf.Bytes())
}

// WriteFactors loads the write factors of layer, reordered to
// [sample][rank][dim] so that every write vector is a contiguous row.
func (d *Decomposition) WriteFactors(ctx context.Context, layer int) (*tensor.Array, error) {
	name := d.layout.WriteFactors(layer)
	u, err := d.readArray(ctx, name)
	if err != nil {
		return nil, err
	}
	out, err := u.SwapLast2()
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", name, err)
	}
	return out, nil
}

// SaveWriteFactors stores write factors given as [sample][rank][dim].
func (d *Decomposition) SaveWriteFactors(ctx context.Context, layer int, w *tensor.Array) error {
	u, err := w.SwapLast2()
	if err != nil {
		return err
	}
	return d.writeArray(ctx, d.layout.WriteFactors(layer), u)
}

// ReadFactors loads the read factors of layer, shape (rows, dim+1).
// The last column is the bias.
func (d *Decomposition) ReadFactors(ctx context.Context, layer int) (*tensor.Array, error) {
	name := d.layout.ReadFactors(layer)
	vh, err := d.readArray(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := vh.Expect(2); err != nil {
		return nil, fmt.Errorf("store: %s: %w", name, err)
	}
	if vh.Shape[1] < 2 {
		return nil, fmt.Errorf("store: %s: %w: need a bias column, got shape %v", name, tensor.ErrShape, vh.Shape)
	}
	return vh, nil
}

// SaveReadFactors stores read factors of shape (rows, dim+1).
func (d *Decomposition) SaveReadFactors(ctx context.Context, layer int, vh *tensor.Array) error {
	if err := vh.Expect(2); err != nil {
		return err
	}
	return d.writeArray(ctx, d.layout.ReadFactors(layer), vh)
}

// Labels loads the class labels of the namespace.
func (d *Decomposition) Labels(ctx context.Context) ([]int64, error) {
	a, err := d.readArray(ctx, d.layout.Labels())
	if err != nil {
		return nil, err
	}
	return a.Int64(), nil
}

// SaveLabels stores the class labels of the namespace.
func (d *Decomposition) SaveLabels(ctx context.Context, labels []int64) error {
	var buf bytes.Buffer
	if err := tensor.WriteNPYInt64(&buf, labels, len(labels)); err != nil {
		return err
	}
	return d.bs.Put(ctx, d.layout.Labels(), buf.Bytes())
}
