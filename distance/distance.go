package distance

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Dot calculates the inner product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// SquaredL2 calculates the squared Euclidean distance between two vectors.
func SquaredL2(a, b []float64) float64 {
	var sum float64
	for i, v := range a {
		d := v - b[i]
		sum += d * d
	}
	return sum
}

// L2 calculates the Euclidean distance between two vectors.
func L2(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// Cosine calculates the cosine similarity of two vectors.
// Returns 0 if either vector has zero norm.
func Cosine(a, b []float64) float64 {
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

// NegSquaredL2 is the squared Euclidean distance negated into a similarity.
func NegSquaredL2(a, b []float64) float64 {
	return -SquaredL2(a, b)
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float64) bool {
	n := floats.Norm(v, 2)
	if n == 0 {
		return false
	}
	floats.Scale(1/n, v)
	return true
}

// Metric represents the similarity measure used for vector comparison.
type Metric int

const (
	MetricDot Metric = iota
	MetricCosine
	MetricL2
)

func (m Metric) String() string {
	switch m {
	case MetricDot:
		return "dot"
	case MetricCosine:
		return "cosine"
	case MetricL2:
		return "l2"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// ParseMetric returns the metric with the given name.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dot":
		return MetricDot, nil
	case "cosine":
		return MetricCosine, nil
	case "l2":
		return MetricL2, nil
	default:
		return 0, fmt.Errorf("unsupported metric %q", name)
	}
}

// Func is a similarity function: larger values mean more similar.
type Func func(a, b []float64) float64

// Provider returns the similarity function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricDot:
		return Dot, nil
	case MetricCosine:
		return Cosine, nil
	case MetricL2:
		return NegSquaredL2, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
