package tensor

import (
	"errors"
	"fmt"
	"slices"
)

// ErrShape is returned when an array does not have the expected shape.
var ErrShape = errors.New("tensor: shape mismatch")

// Array is a dense, C-ordered float64 array.
type Array struct {
	Shape []int
	Data  []float64
}

// New allocates a zero-filled array with the given shape.
func New(shape ...int) *Array {
	return &Array{Shape: slices.Clone(shape), Data: make([]float64, size(shape))}
}

// FromData wraps data with the given shape. The data is not copied.
func FromData(data []float64, shape ...int) (*Array, error) {
	if size(shape) != len(data) {
		return nil, fmt.Errorf("%w: %d elements for shape %v", ErrShape, len(data), shape)
	}
	return &Array{Shape: slices.Clone(shape), Data: data}, nil
}

// FromRows builds a 2-D array from equally sized rows.
func FromRows(rows [][]float64) (*Array, error) {
	if len(rows) == 0 {
		return New(0, 0), nil
	}
	dim := len(rows[0])
	data := make([]float64, 0, len(rows)*dim)
	for i, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(r), dim)
		}
		data = append(data, r...)
	}
	return &Array{Shape: []int{len(rows), dim}, Data: data}, nil
}

func size(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.Data) }

// Dims returns the number of axes.
func (a *Array) Dims() int { return len(a.Shape) }

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	return &Array{Shape: slices.Clone(a.Shape), Data: slices.Clone(a.Data)}
}

// Expect fails with ErrShape unless the array has dims axes.
func (a *Array) Expect(dims int) error {
	if len(a.Shape) != dims {
		return fmt.Errorf("%w: want %d axes, got shape %v", ErrShape, dims, a.Shape)
	}
	return nil
}

// Row returns the i-th row of a 2-D array as a view.
func (a *Array) Row(i int) []float64 {
	cols := a.Shape[1]
	return a.Data[i*cols : (i+1)*cols]
}

// Rows returns every row of a 2-D array as views.
func (a *Array) Rows() [][]float64 {
	out := make([][]float64, a.Shape[0])
	for i := range out {
		out[i] = a.Row(i)
	}
	return out
}

// At returns the element at the given index.
func (a *Array) At(idx ...int) float64 {
	return a.Data[a.offset(idx)]
}

// Set stores v at the given index.
func (a *Array) Set(v float64, idx ...int) {
	a.Data[a.offset(idx)] = v
}

func (a *Array) offset(idx []int) int {
	if len(idx) != len(a.Shape) {
		panic(fmt.Sprintf("tensor: %d indices for shape %v", len(idx), a.Shape))
	}
	off := 0
	for d, i := range idx {
		if i < 0 || i >= a.Shape[d] {
			panic(fmt.Sprintf("tensor: index %v out of range for shape %v", idx, a.Shape))
		}
		off = off*a.Shape[d] + i
	}
	return off
}

// SwapLast2 returns a copy of a 3-D array with the last two axes swapped:
// (a, b, c) -> (a, c, b).
func (a *Array) SwapLast2() (*Array, error) {
	if err := a.Expect(3); err != nil {
		return nil, err
	}
	n, b, c := a.Shape[0], a.Shape[1], a.Shape[2]
	out := New(n, c, b)
	for i := 0; i < n; i++ {
		for j := 0; j < b; j++ {
			for k := 0; k < c; k++ {
				out.Data[(i*c+k)*b+j] = a.Data[(i*b+j)*c+k]
			}
		}
	}
	return out, nil
}

// Int64 returns the elements narrowed to int64.
func (a *Array) Int64() []int64 {
	out := make([]int64, len(a.Data))
	for i, v := range a.Data {
		out[i] = int64(v)
	}
	return out
}
