package imaging

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// IntensityMatrix is an immutable rows x cols grid of samples.
type IntensityMatrix struct {
	m *mat.Dense
}

// NewIntensityMatrix copies data (row-major) into a new matrix.
func NewIntensityMatrix(rows, cols int, data []float64) (*IntensityMatrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyMatrix, rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d samples for %dx%d", ErrShape, len(data), rows, cols)
	}
	buf := make([]float64, len(data))
	copy(buf, data)
	return &IntensityMatrix{m: mat.NewDense(rows, cols, buf)}, nil
}

// IntensityMatrixFromInts converts integer samples exactly.
func IntensityMatrixFromInts(rows, cols int, data []int) (*IntensityMatrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyMatrix, rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d samples for %dx%d", ErrShape, len(data), rows, cols)
	}
	buf := make([]float64, len(data))
	for i, v := range data {
		buf[i] = float64(v)
	}
	return &IntensityMatrix{m: mat.NewDense(rows, cols, buf)}, nil
}

// Dims returns rows and columns.
func (m *IntensityMatrix) Dims() (rows, cols int) {
	return m.m.Dims()
}

// Len is rows*cols.
func (m *IntensityMatrix) Len() int {
	r, c := m.m.Dims()
	return r * c
}

// At returns the sample at row r, column c.
func (m *IntensityMatrix) At(r, c int) float64 {
	return m.m.At(r, c)
}

// Values returns a row-major copy of the samples.
func (m *IntensityMatrix) Values() []float64 {
	out := make([]float64, m.Len())
	copy(out, m.samples())
	return out
}

// MinMax returns the global extremes.
func (m *IntensityMatrix) MinMax() (min, max float64) {
	s := m.samples()
	return floats.Min(s), floats.Max(s)
}

// Map returns a new matrix with fn applied to every sample.
func (m *IntensityMatrix) Map(fn func(float64) float64) *IntensityMatrix {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return fn(v) }, m.m)
	return &IntensityMatrix{m: &out}
}

// samples is a read-only view; callers must not write through it.
func (m *IntensityMatrix) samples() []float64 {
	raw := m.m.RawMatrix()
	if raw.Stride == raw.Cols {
		return raw.Data[:raw.Rows*raw.Cols]
	}
	// strided storage
	out := make([]float64, 0, raw.Rows*raw.Cols)
	for r := 0; r < raw.Rows; r++ {
		out = append(out, raw.Data[r*raw.Stride:r*raw.Stride+raw.Cols]...)
	}
	return out
}

func (m *IntensityMatrix) empty() bool {
	return m == nil || m.m == nil || m.Len() == 0
}
