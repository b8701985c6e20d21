package spectral

import "gonum.org/v1/gonum/mat"

// Components labels the connected components of the affinity graph with a
// breadth-first search. Edges are the non-zero off-diagonal entries.
// It returns the number of components and the component of every vertex.
func Components(affinity mat.Symmetric) (int, []int) {
	n := affinity.SymmetricDim()
	comp := make([]int, n)
	for i := range comp {
		comp[i] = -1
	}

	queue := make([]int, 0, n)
	count := 0
	for start := 0; start < n; start++ {
		if comp[start] >= 0 {
			continue
		}
		comp[start] = count
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for u := 0; u < n; u++ {
				if u == v || comp[u] >= 0 || affinity.At(v, u) == 0 {
					continue
				}
				comp[u] = count
				queue = append(queue, u)
			}
		}
		count++
	}
	return count, comp
}
