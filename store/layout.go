package store

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

const (
	decompositionsDir  = "decompositions"
	transformationsDir = "transformations"
	featuresDir        = "features"
	plotsDir           = "plots"

	writeFactorsFile = "u.npy"
	readFactorsFile  = "vh.npy"
	clustersFile     = "clusters.lja"
	labelsFile       = "labels.npy"
)

// Layout resolves blob names for one namespace and side.
type Layout struct {
	Namespace string
	Side      string
}

func (l Layout) root() string {
	return path.Join(decompositionsDir, l.Namespace+l.Side)
}

func layerDir(layer int) string {
	return "Layer" + strconv.Itoa(layer)
}

// LayerDir returns the directory of layer within the decomposition.
func (l Layout) LayerDir(layer int) string {
	return path.Join(l.root(), layerDir(layer))
}

// WriteFactors returns the name of the write factor array of layer.
func (l Layout) WriteFactors(layer int) string {
	return path.Join(l.LayerDir(layer), writeFactorsFile)
}

// ReadFactors returns the name of the read factor array of layer.
func (l Layout) ReadFactors(layer int) string {
	return path.Join(l.LayerDir(layer), readFactorsFile)
}

// Clusters returns the name of the cluster artifact of layer.
func (l Layout) Clusters(layer int) string {
	return path.Join(l.LayerDir(layer), clustersFile)
}

// Labels returns the name of the class label array of the namespace.
func (l Layout) Labels() string {
	return path.Join(transformationsDir, l.Namespace+labelsFile)
}

// FeatureDir returns the directory holding the features of one read vector.
func (l Layout) FeatureDir(layer, feature int, target, granularity string) string {
	return path.Join(featuresDir, l.Namespace+l.Side, layerDir(layer),
		"Vector"+strconv.Itoa(feature), "by_"+target, "granularity_"+granularity)
}

// Feature returns the name of a constructed feature.
func (l Layout) Feature(k FeatureKey) string {
	return path.Join(l.FeatureDir(k.Layer, k.Feature, k.Target, k.Granularity),
		fmt.Sprintf("feature_%d_%s_%d.npy", k.Feature, k.Target, k.Index))
}

// Plot returns the name of a rendering below the plots directory.
func (l Layout) Plot(parts ...string) string {
	return path.Join(append([]string{plotsDir, l.Namespace + l.Side}, parts...)...)
}

// parseLayer extracts the layer index from a name relative to the
// decomposition root ("Layer3/u.npy" -> 3).
func parseLayer(rel string) (int, bool) {
	dir, _, ok := strings.Cut(rel, "/")
	if !ok || !strings.HasPrefix(dir, "Layer") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(dir, "Layer"))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
