package testutil

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/lja/distance"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array.
func (r *RNG) UniformVectors(num, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	vectors := make([][]float64, num)
	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float64()
		}
		vectors[i] = vec
	}
	return vectors
}

// GaussianVectors generates random vectors from a standard normal distribution.
func (r *RNG) GaussianVectors(num, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	vectors := make([][]float64, num)
	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.NormFloat64()
		}
		vectors[i] = vec
	}
	return vectors
}

// Blobs generates perBlob points around every center with Gaussian noise
// of the given spread. Points are grouped by center, in center order.
func (r *RNG) Blobs(centers [][]float64, perBlob int, spread float64) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float64, 0, len(centers)*perBlob)
	for _, c := range centers {
		for range perBlob {
			vec := make([]float64, len(c))
			for j := range c {
				vec[j] = c[j] + r.rand.NormFloat64()*spread
			}
			vectors = append(vectors, vec)
		}
	}
	return vectors
}

// ExactNeighbors returns the indices of the k vectors closest to query by
// squared Euclidean distance, nearest first. Ties keep index order.
func ExactNeighbors(query []float64, dataset [][]float64, k int) []int {
	idx := make([]int, len(dataset))
	dist := make([]float64, len(dataset))
	for i, v := range dataset {
		idx[i] = i
		dist[i] = distance.SquaredL2(query, v)
	}
	sort.SliceStable(idx, func(a, b int) bool { return dist[idx[a]] < dist[idx[b]] })
	return idx[:min(k, len(idx))]
}
