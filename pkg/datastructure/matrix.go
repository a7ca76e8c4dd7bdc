package datastructure

import (
	"golang.org/x/exp/constraints"
)

// Matrix is a dense row-major matrix. The float valued matrices of the
// planner live in gonum's mat.Dense; Matrix holds the boolean masks and the
// integer next-hop / transfer tables that gonum has no type for.
type Matrix[T any] struct {
	rows, cols int
	data       []T
}

func NewMatrix[T any](rows, cols int) *Matrix[T] {
	return &Matrix[T]{
		rows: rows,
		cols: cols,
		data: make([]T, rows*cols),
	}
}

func NewFilledMatrix[T any](rows, cols int, val T) *Matrix[T] {
	m := NewMatrix[T](rows, cols)
	for i := range m.data {
		m.data[i] = val
	}
	return m
}

// NewMatrixFromRows copies a slice of equally long rows.
func NewMatrixFromRows[T any](rows [][]T) *Matrix[T] {
	if len(rows) == 0 {
		return NewMatrix[T](0, 0)
	}
	m := NewMatrix[T](len(rows), len(rows[0]))
	for i, row := range rows {
		copy(m.data[i*m.cols:(i+1)*m.cols], row)
	}
	return m
}

// NewIdentityMask returns an n×n mask that is true only on the diagonal.
func NewIdentityMask(n int) *Matrix[bool] {
	m := NewMatrix[bool](n, n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = true
	}
	return m
}

// NewOffDiagonalMask returns an n×n mask that is true everywhere except the
// diagonal.
func NewOffDiagonalMask(n int) *Matrix[bool] {
	m := NewFilledMatrix(n, n, true)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = false
	}
	return m
}

func (m *Matrix[T]) Rows() int {
	return m.rows
}

func (m *Matrix[T]) Cols() int {
	return m.cols
}

func (m *Matrix[T]) Get(i, j int) T {
	return m.data[i*m.cols+j]
}

func (m *Matrix[T]) Set(i, j int, val T) {
	m.data[i*m.cols+j] = val
}

// Row returns a view of row i. Writes to it are writes to m.
func (m *Matrix[T]) Row(i int) []T {
	return m.data[i*m.cols : (i+1)*m.cols]
}

func (m *Matrix[T]) Data() []T {
	return m.data
}

func (m *Matrix[T]) Clone() *Matrix[T] {
	data := make([]T, len(m.data))
	copy(data, m.data)
	return &Matrix[T]{rows: m.rows, cols: m.cols, data: data}
}

func (m *Matrix[T]) Transpose() *Matrix[T] {
	t := NewMatrix[T](m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			t.data[j*m.rows+i] = m.data[i*m.cols+j]
		}
	}
	return t
}

// PadMatrix returns a size×size copy of m with the new cells set to fill.
func PadMatrix[T any](m *Matrix[T], size int, fill T) *Matrix[T] {
	p := NewFilledMatrix(size, size, fill)
	for i := 0; i < m.rows && i < size; i++ {
		for j := 0; j < m.cols && j < size; j++ {
			p.data[i*size+j] = m.data[i*m.cols+j]
		}
	}
	return p
}

func EqualMatrix[T comparable](a, b *Matrix[T]) bool {
	if a.rows != b.rows || a.cols != b.cols {
		return false
	}
	for i := range a.data {
		if a.data[i] != b.data[i] {
			return false
		}
	}
	return true
}

func SumMatrix[T constraints.Integer | constraints.Float](m *Matrix[T]) T {
	var s T
	for _, v := range m.data {
		s += v
	}
	return s
}

func CountTrue(m *Matrix[bool]) int {
	n := 0
	for _, v := range m.data {
		if v {
			n++
		}
	}
	return n
}

// And sets a[i][j] = a[i][j] && b[i][j] in place.
func And(a, b *Matrix[bool]) {
	for i := range a.data {
		a.data[i] = a.data[i] && b.data[i]
	}
}

// BoolMatMul is the boolean matrix product: c[i][j] = OR_k a[i][k] && b[k][j].
func BoolMatMul(a, b *Matrix[bool]) *Matrix[bool] {
	c := NewMatrix[bool](a.rows, b.cols)
	for i := 0; i < a.rows; i++ {
		ci := c.data[i*c.cols : (i+1)*c.cols]
		for k := 0; k < a.cols; k++ {
			if !a.data[i*a.cols+k] {
				continue
			}
			bk := b.data[k*b.cols : (k+1)*b.cols]
			for j, v := range bk {
				if v {
					ci[j] = true
				}
			}
		}
	}
	return c
}

// AnyOffDiagonalInRow reports whether some j != i has m[i][j] set.
func AnyOffDiagonalInRow(m *Matrix[bool], i int) bool {
	for j, v := range m.Row(i) {
		if v && j != i {
			return true
		}
	}
	return false
}

// AnyOffDiagonalInCol reports whether some i != j has m[i][j] set.
func AnyOffDiagonalInCol(m *Matrix[bool], j int) bool {
	for i := 0; i < m.rows; i++ {
		if i != j && m.data[i*m.cols+j] {
			return true
		}
	}
	return false
}
