// Package kmeans implements seeded k-means clustering.
//
// Used internally by spectral clustering to assign labels to the rows of
// the Laplacian eigenvector embedding.
package kmeans
