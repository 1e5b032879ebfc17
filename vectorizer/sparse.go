// Package vectorizer turns preprocessed documents into numeric feature
// vectors over a learned n-gram vocabulary, and optionally restricts those
// vectors to the most class-discriminating features.
package vectorizer

import (
	"math"
	"sort"
)

// SparseVector represents a sparse float64 vector of length Dim. Indices are
// kept in ascending order.
type SparseVector struct {
	Indices []int
	Values  []float64
	Dim     int
}

// NewSparseVector creates a sparse vector with given dimension.
func NewSparseVector(dim int) SparseVector {
	return SparseVector{Dim: dim}
}

// FromMap builds a sparse vector from index/value pairs, dropping zeros.
func FromMap(dim int, values map[int]float64) SparseVector {
	sv := SparseVector{
		Indices: make([]int, 0, len(values)),
		Dim:     dim,
	}
	for idx, v := range values {
		if v != 0 {
			sv.Indices = append(sv.Indices, idx)
		}
	}
	sort.Ints(sv.Indices)
	sv.Values = make([]float64, len(sv.Indices))
	for i, idx := range sv.Indices {
		sv.Values[i] = values[idx]
	}
	return sv
}

// Get returns the value at idx, zero when absent.
func (sv SparseVector) Get(idx int) float64 {
	i := sort.SearchInts(sv.Indices, idx)
	if i < len(sv.Indices) && sv.Indices[i] == idx {
		return sv.Values[i]
	}
	return 0
}

// Dot computes the dot product with a dense vector.
func (sv SparseVector) Dot(dense []float64) float64 {
	var sum float64
	for i, idx := range sv.Indices {
		if idx < len(dense) {
			sum += sv.Values[i] * dense[idx]
		}
	}
	return sum
}

// AddTo adds the vector into dense, scaled by alpha.
func (sv SparseVector) AddTo(dense []float64, alpha float64) {
	for i, idx := range sv.Indices {
		if idx < len(dense) {
			dense[idx] += alpha * sv.Values[i]
		}
	}
}

// ToDense converts to a dense float64 slice.
func (sv SparseVector) ToDense() []float64 {
	dense := make([]float64, sv.Dim)
	for i, idx := range sv.Indices {
		if idx < sv.Dim {
			dense[idx] = sv.Values[i]
		}
	}
	return dense
}

// Nnz returns the number of non-zero entries.
func (sv SparseVector) Nnz() int {
	return len(sv.Indices)
}

// L2Norm returns the L2 norm of the sparse vector.
func (sv SparseVector) L2Norm() float64 {
	var sum float64
	for _, v := range sv.Values {
		sum += v * v
	}
	return math.Sqrt(sum)
}
