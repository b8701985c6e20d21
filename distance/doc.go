// Package distance provides the vector similarity and distance functions
// used when matching write vectors against read vectors.
//
// # Supported Metrics
//
//   - MetricDot: inner product (default similarity for feature construction)
//   - MetricCosine: cosine similarity
//   - MetricL2: negated squared Euclidean distance, so larger means closer
//
// # Usage
//
//	sim := distance.Dot(a, b)
//	fn, _ := distance.Provider(distance.MetricCosine)
//	d := distance.SquaredL2(a, b)
package distance
