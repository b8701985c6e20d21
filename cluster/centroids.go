package cluster

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lja/spectral"
	"gonum.org/v1/gonum/floats"
)

// ErrEmptyCluster is returned when a cluster label has no members.
var ErrEmptyCluster = errors.New("cluster: empty cluster")

// Centroids returns, for every label in [0, k), the elementwise mean of the
// vectors carrying that label.
func Centroids(vectors [][]float64, labels []int, k int) ([][]float64, error) {
	if len(vectors) != len(labels) {
		return nil, fmt.Errorf("%w: %d vectors, %d labels", spectral.ErrInvalidClusterConfiguration, len(vectors), len(labels))
	}
	if k <= 0 || len(vectors) == 0 {
		return nil, fmt.Errorf("%w: %d clusters over %d vectors", spectral.ErrInvalidClusterConfiguration, k, len(vectors))
	}

	dim := len(vectors[0])
	sums := make([][]float64, k)
	for i := range sums {
		sums[i] = make([]float64, dim)
	}
	counts := make([]int, k)

	for i, v := range vectors {
		l := labels[i]
		if l < 0 || l >= k {
			return nil, fmt.Errorf("%w: label %d of vector %d outside [0, %d)", spectral.ErrInvalidClusterConfiguration, l, i, k)
		}
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", spectral.ErrInvalidClusterConfiguration, i, len(v), dim)
		}
		counts[l]++
		floats.Add(sums[l], v)
	}

	for l, c := range counts {
		if c == 0 {
			return nil, fmt.Errorf("%w: label %d", ErrEmptyCluster, l)
		}
		floats.Scale(1/float64(c), sums[l])
	}
	return sums, nil
}
