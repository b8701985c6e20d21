package construct

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/lja/profile"
	"github.com/hupe1980/lja/store"
	"github.com/hupe1980/lja/tensor"
)

// Layer holds the inputs of one layer.
type Layer struct {
	// Read has shape (rows, dim+1); the last column is the bias.
	Read *tensor.Array
	// Write has shape [sample][rank][dim]. Nil if the layer is never
	// used as a candidate source.
	Write *tensor.Array
	// Clusters is nil for layers that were not clustered.
	Clusters *store.ClusterArtifact
}

// Data is the read-only input of a Constructor.
type Data struct {
	layers   []Layer
	profiles []*profile.Table
}

// NewData validates layers and indexes their profiles.
func NewData(layers []Layer) (*Data, error) {
	d := &Data{layers: layers, profiles: make([]*profile.Table, len(layers))}
	for l, layer := range layers {
		if layer.Read == nil {
			return nil, fmt.Errorf("construct: layer %d: no read factors", l)
		}
		if err := layer.Read.Expect(2); err != nil {
			return nil, fmt.Errorf("construct: layer %d read factors: %w", l, err)
		}
		if layer.Read.Shape[1] < 2 {
			return nil, fmt.Errorf("construct: layer %d read factors: %w: no bias column in shape %v", l, tensor.ErrShape, layer.Read.Shape)
		}
		if layer.Write != nil {
			if err := layer.Write.Expect(3); err != nil {
				return nil, fmt.Errorf("construct: layer %d write factors: %w", l, err)
			}
		}

		c := layer.Clusters
		if c == nil {
			continue
		}
		for s, row := range c.Labels {
			for _, label := range row {
				if label < 0 || label >= len(c.Centroids) {
					return nil, fmt.Errorf("%w: layer %d sample %d has label %d, %d centroids", store.ErrCorrupt, l, s, label, len(c.Centroids))
				}
			}
		}
		t, err := profile.New(c.Labels)
		if err != nil {
			return nil, fmt.Errorf("construct: layer %d: %w", l, err)
		}
		d.profiles[l] = t
	}
	return d, nil
}

// LoadData reads every layer of dec together with its cluster artifacts.
// Layers without artifacts are loaded without clusters.
func LoadData(ctx context.Context, dec *store.Decomposition, artifacts *store.Artifacts) (*Data, error) {
	n, err := dec.NumLayers(ctx)
	if err != nil {
		return nil, err
	}

	layers := make([]Layer, n)
	for l := range layers {
		if layers[l].Read, err = dec.ReadFactors(ctx, l); err != nil {
			return nil, err
		}
		if layers[l].Write, err = dec.WriteFactors(ctx, l); err != nil {
			return nil, err
		}
		a, err := artifacts.Load(ctx, l)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return nil, err
		default:
			layers[l].Clusters = a
		}
	}
	return NewData(layers)
}

// NumLayers returns the number of layers.
func (d *Data) NumLayers() int { return len(d.layers) }

func (d *Data) layer(l int) (*Layer, error) {
	if l < 0 || l >= len(d.layers) {
		return nil, outOfRange("layer", l, len(d.layers))
	}
	return &d.layers[l], nil
}

// ReadVector returns read vector f of layer without its bias entry.
// The result is a view and must not be modified.
func (d *Data) ReadVector(layer, f int) ([]float64, error) {
	l, err := d.layer(layer)
	if err != nil {
		return nil, err
	}
	rows, cols := l.Read.Shape[0], l.Read.Shape[1]
	if f < 0 || f >= rows {
		return nil, fmt.Errorf("layer %d: %w", layer, outOfRange("feature", f, rows))
	}
	return l.Read.Row(f)[:cols-1], nil
}

// WriteVectors returns the write vectors [rank][dim] of sample s at layer.
func (d *Data) WriteVectors(layer, s int) ([][]float64, error) {
	l, err := d.layer(layer)
	if err != nil {
		return nil, err
	}
	if l.Write == nil {
		return nil, fmt.Errorf("construct: layer %d: %w: no write factors", layer, store.ErrNotFound)
	}
	samples, rank, dim := l.Write.Shape[0], l.Write.Shape[1], l.Write.Shape[2]
	if s < 0 || s >= samples {
		return nil, fmt.Errorf("layer %d: %w", layer, outOfRange("sample", s, samples))
	}
	out := make([][]float64, rank)
	for r := range out {
		off := (s*rank + r) * dim
		out[r] = l.Write.Data[off : off+dim]
	}
	return out, nil
}

// Clusters returns the cluster artifact of layer.
func (d *Data) Clusters(layer int) (*store.ClusterArtifact, error) {
	l, err := d.layer(layer)
	if err != nil {
		return nil, err
	}
	if l.Clusters == nil {
		return nil, fmt.Errorf("construct: layer %d was not clustered: %w", layer, store.ErrNotFound)
	}
	return l.Clusters, nil
}

// Profiles returns the profile table of layer.
func (d *Data) Profiles(layer int) (*profile.Table, error) {
	if _, err := d.Clusters(layer); err != nil {
		return nil, err
	}
	return d.profiles[layer], nil
}
