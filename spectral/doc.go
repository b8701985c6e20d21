// Package spectral implements graph-based cluster analysis of vector sets.
//
// A set of vectors is turned into a symmetrized k-nearest-neighbor
// connectivity graph. The spectrum of its normalized Laplacian drives two
// steps:
//
//   - SelectClusterCount picks a count with the eigengap heuristic.
//   - Cluster partitions the graph with spectral clustering
//     (Laplacian eigenmap followed by seeded k-means).
//
// Both steps operate on the same affinity graph, so the selected count and
// the partition refer to the same neighbor topology.
//
//	sel, err := spectral.SelectClusterCount(ctx, vectors)
//	if err != nil {
//	    return err
//	}
//	res, err := spectral.Cluster(ctx, sel.Affinity, sel.Count,
//	    spectral.WithSpectrum(sel.Spectrum))
package spectral
