package spectral

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// NormalizedLaplacian returns the symmetric normalized Laplacian of the
// affinity graph together with the vertex degrees. Self loops are ignored:
//
//	d_i  = sum_{j != i} A_ij
//	L_ii = 1 if d_i > 0, else 0
//	L_ij = -A_ij / sqrt(d_i d_j)
func NormalizedLaplacian(affinity mat.Symmetric) (*mat.SymDense, []float64) {
	n := affinity.SymmetricDim()

	degrees := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				degrees[i] += affinity.At(i, j)
			}
		}
	}

	lap := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if degrees[i] > 0 {
			lap.SetSym(i, i, 1)
		}
		for j := i + 1; j < n; j++ {
			a := affinity.At(i, j)
			if a == 0 || degrees[i] == 0 || degrees[j] == 0 {
				continue
			}
			lap.SetSym(i, j, -a/math.Sqrt(degrees[i]*degrees[j]))
		}
	}
	return lap, degrees
}

// Spectrum is the eigendecomposition of a normalized Laplacian.
type Spectrum struct {
	// Values holds the eigenvalues in ascending order.
	Values []float64
	// Vectors holds the matching unit eigenvectors as columns.
	Vectors *mat.Dense
	// Degrees holds the vertex degrees of the underlying graph.
	Degrees []float64
}

// Decompose computes the spectrum of the normalized Laplacian of affinity.
func Decompose(affinity mat.Symmetric) (*Spectrum, error) {
	lap, degrees := NormalizedLaplacian(affinity)

	var eig mat.EigenSym
	if ok := eig.Factorize(lap, true); !ok {
		return nil, invalidf("eigendecomposition of %d-vertex Laplacian did not converge", lap.SymmetricDim())
	}

	vectors := new(mat.Dense)
	eig.VectorsTo(vectors)

	return &Spectrum{
		Values:  eig.Values(nil),
		Vectors: vectors,
		Degrees: degrees,
	}, nil
}
