package datastructure

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// NewInfDense returns the n×n travel time matrix of a network with no
// connections: 0 on the diagonal, +Inf elsewhere.
func NewInfDense(n int) *mat.Dense {
	data := make([]float64, n*n)
	inf := math.Inf(1)
	for i := range data {
		data[i] = inf
	}
	for i := 0; i < n; i++ {
		data[i*n+i] = 0
	}
	return mat.NewDense(n, n, data)
}

// NewDenseFromRows copies a slice of equally long rows into a mat.Dense.
func NewDenseFromRows(rows [][]float64) *mat.Dense {
	n := len(rows)
	c := len(rows[0])
	data := make([]float64, 0, n*c)
	for _, row := range rows {
		data = append(data, row...)
	}
	return mat.NewDense(n, c, data)
}

// MinInPlace sets dst = min(dst, src) element-wise.
func MinInPlace(dst, src mat.Matrix) {
	d := dst.(*mat.Dense)
	r, c := d.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := src.At(i, j); v < d.At(i, j) {
				d.Set(i, j, v)
			}
		}
	}
}

// PadDense returns a size×size copy of m. New cells get offDiag, except new
// diagonal cells which are 0.
func PadDense(m mat.Matrix, size int, offDiag float64) *mat.Dense {
	r, c := m.Dims()
	p := mat.NewDense(size, size, nil)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			switch {
			case i < r && j < c:
				p.Set(i, j, m.At(i, j))
			case i == j:
				p.Set(i, j, 0)
			default:
				p.Set(i, j, offDiag)
			}
		}
	}
	return p
}

// MaxFinite returns the largest finite entry of m, or 0 if there is none.
func MaxFinite(m mat.Matrix) float64 {
	r, c := m.Dims()
	vals := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); !math.IsInf(v, 0) && !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
	}
	if len(vals) == 0 {
		return 0
	}
	return floats.Max(vals)
}

// FiniteMask returns the mask of entries of m that are less than +Inf.
func FiniteMask(m mat.Matrix) *Matrix[bool] {
	r, c := m.Dims()
	mask := NewMatrix[bool](r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			mask.Set(i, j, m.At(i, j) < math.Inf(1))
		}
	}
	return mask
}

// SumDense returns the sum of all entries of m.
func SumDense(m mat.Matrix) float64 {
	return mat.Sum(m)
}

// MaskedSum returns sum of m[i][j] over the cells where mask is true.
func MaskedSum(m mat.Matrix, mask *Matrix[bool]) float64 {
	r, c := m.Dims()
	s := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if mask.Get(i, j) {
				s += m.At(i, j)
			}
		}
	}
	return s
}

// EqualDense reports exact element-wise equality, treating equal infinities
// as equal.
func EqualDense(a, b mat.Matrix) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return false
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			if a.At(i, j) != b.At(i, j) {
				return false
			}
		}
	}
	return true
}
