// Package tensor provides the dense, row-major arrays exchanged with the
// decomposition store together with a NumPy .npy codec.
//
// Arrays are float64 throughout. Integer .npy files (labels, counts) are
// widened on read; Int64 helpers narrow them back.
package tensor
