// Package cluster groups the write vectors of every layer into clusters.
//
// For each layer the first rank write vectors of every sample are pooled,
// a cluster count is chosen with the eigengap heuristic, the vectors are
// partitioned by spectral clustering on the same neighbor graph, and each
// cluster is summarized by its centroid. The per-sample label tuples form
// the profiles consumed by feature construction.
package cluster
