package kmeans

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"github.com/hupe1980/lja/distance"
	"gonum.org/v1/gonum/floats"
)

// ErrTooFewPoints is returned when there are fewer points than clusters.
var ErrTooFewPoints = errors.New("kmeans: fewer points than clusters")

// Config controls a k-means run.
type Config struct {
	// K is the number of clusters.
	K int
	// MaxIter bounds the Lloyd iterations per restart. Defaults to 300.
	MaxIter int
	// NInit is the number of k-means++ restarts; the lowest inertia wins.
	// Defaults to 10.
	NInit int
	// Seed drives the k-means++ seeding.
	Seed int64
}

// Result is the best clustering found over all restarts.
type Result struct {
	Labels    []int
	Centroids [][]float64
	Inertia   float64
}

// Fit clusters points into cfg.K groups using Lloyd's algorithm with
// k-means++ seeding. Runs are reproducible for a fixed seed.
func Fit(ctx context.Context, points [][]float64, cfg Config) (Result, error) {
	if cfg.K <= 0 || len(points) < cfg.K {
		return Result{}, ErrTooFewPoints
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = 300
	}
	if cfg.NInit <= 0 {
		cfg.NInit = 10
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	best := Result{Inertia: math.Inf(1)}
	for run := 0; run < cfg.NInit; run++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res, err := lloyd(ctx, points, seedPlusPlus(points, cfg.K, rng), cfg.MaxIter)
		if err != nil {
			return Result{}, err
		}
		if res.Inertia < best.Inertia {
			best = res
		}
	}
	return best, nil
}

// seedPlusPlus picks k initial centroids, each with probability
// proportional to its squared distance from the nearest chosen one.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.Intn(n)]))

	d2 := make([]float64, n)
	for i, p := range points {
		d2[i] = distance.SquaredL2(p, centroids[0])
	}

	for len(centroids) < k {
		var total float64
		for _, d := range d2 {
			total += d
		}

		next := 0
		if total > 0 {
			r := rng.Float64() * total
			for i, d := range d2 {
				r -= d
				if r <= 0 {
					next = i
					break
				}
				next = i
			}
		} else {
			// All remaining points coincide with a centroid.
			next = rng.Intn(n)
		}

		c := clone(points[next])
		centroids = append(centroids, c)
		for i, p := range points {
			if d := distance.SquaredL2(p, c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centroids
}

func lloyd(ctx context.Context, points [][]float64, centroids [][]float64, maxIter int) (Result, error) {
	n, k := len(points), len(centroids)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	counts := make([]int, k)

	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		changed := false
		for i, p := range points {
			if c := Assign(p, centroids); c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		updateCentroids(points, labels, centroids, counts)
	}

	var inertia float64
	for i, p := range points {
		inertia += distance.SquaredL2(p, centroids[labels[i]])
	}
	return Result{Labels: labels, Centroids: centroids, Inertia: inertia}, nil
}

// updateCentroids recomputes every centroid as the mean of its members.
// Empty clusters are then re-seeded with the point farthest from its own
// centroid.
func updateCentroids(points [][]float64, labels []int, centroids [][]float64, counts []int) {
	for j := range centroids {
		counts[j] = 0
		clear(centroids[j])
	}
	for i, p := range points {
		counts[labels[i]]++
		floats.Add(centroids[labels[i]], p)
	}

	var empty []int
	for j := range centroids {
		if counts[j] == 0 {
			empty = append(empty, j)
			continue
		}
		floats.Scale(1/float64(counts[j]), centroids[j])
	}
	for _, j := range empty {
		far := farthest(points, labels, centroids)
		copy(centroids[j], points[far])
		labels[far] = j
	}
}

func farthest(points [][]float64, labels []int, centroids [][]float64) int {
	best, bestD := 0, -1.0
	for i, p := range points {
		if d := distance.SquaredL2(p, centroids[labels[i]]); d > bestD {
			best, bestD = i, d
		}
	}
	return best
}

// Assign returns the index of the closest centroid by Euclidean distance.
func Assign(vec []float64, centroids [][]float64) int {
	best := -1
	minDist := math.Inf(1)
	for j, c := range centroids {
		if d := distance.SquaredL2(vec, c); d < minDist {
			minDist = d
			best = j
		}
	}
	return best
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
