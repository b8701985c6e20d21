package spectral

import (
	"math"

	"github.com/hupe1980/lja/distance"
)

// Silhouette returns the mean silhouette coefficient of the labeling with
// Euclidean distance. Members of singleton clusters score 0. It returns 0
// when fewer than two clusters are present.
func Silhouette(vectors [][]float64, labels []int) float64 {
	n := len(vectors)
	if n == 0 || len(labels) != n {
		return 0
	}

	k := 0
	for _, l := range labels {
		k = max(k, l+1)
	}
	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}
	populated := 0
	for _, s := range sizes {
		if s > 0 {
			populated++
		}
	}
	if populated < 2 {
		return 0
	}

	sums := make([]float64, k)
	var total float64
	for i := range vectors {
		if sizes[labels[i]] == 1 {
			continue
		}
		for c := range sums {
			sums[c] = 0
		}
		for j := range vectors {
			if i != j {
				sums[labels[j]] += distance.L2(vectors[i], vectors[j])
			}
		}

		own := labels[i]
		a := sums[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for c, s := range sums {
			if c != own && sizes[c] > 0 {
				b = math.Min(b, s/float64(sizes[c]))
			}
		}
		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(n)
}
