package spectral

import (
	"sort"

	"github.com/hupe1980/lja/distance"
	"gonum.org/v1/gonum/mat"
)

// KNNGraph builds the symmetrized k-nearest-neighbor connectivity graph of
// vectors. Row i of the connectivity matrix C has a 1 for each of the
// neighbors closest vectors to i by Euclidean distance, i itself included;
// distance ties go to the lower index. The result is 0.5 (C + Cᵀ).
//
// neighbors is clamped to len(vectors), in which case the graph is complete.
func KNNGraph(vectors [][]float64, neighbors int) *mat.SymDense {
	n := len(vectors)
	if neighbors > n {
		neighbors = n
	}
	if neighbors < 1 {
		neighbors = 1
	}

	conn := mat.NewDense(n, n, nil)
	order := make([]int, n)
	dist := make([]float64, n)

	for i := range vectors {
		for j := range vectors {
			order[j] = j
			dist[j] = distance.SquaredL2(vectors[i], vectors[j])
		}
		// Self is always a neighbor, even next to exact duplicates.
		dist[i] = -1

		sort.SliceStable(order, func(a, b int) bool {
			return dist[order[a]] < dist[order[b]]
		})
		for _, j := range order[:neighbors] {
			conn.Set(i, j, 1)
		}
	}

	affinity := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			affinity.SetSym(i, j, 0.5*(conn.At(i, j)+conn.At(j, i)))
		}
	}
	return affinity
}
