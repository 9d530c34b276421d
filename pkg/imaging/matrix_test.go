package imaging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIntensityMatrix_CopiesInput(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}
	m, err := NewIntensityMatrix(2, 3, data)
	require.NoError(t, err)

	data[0] = 99
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 6.0, m.At(1, 2))

	vals := m.Values()
	vals[1] = 99
	assert.Equal(t, 2.0, m.At(0, 1))
}

func TestNewIntensityMatrix_Shape(t *testing.T) {
	_, err := NewIntensityMatrix(2, 3, []float64{1, 2})
	assert.True(t, errors.Is(err, ErrShape))

	_, err = NewIntensityMatrix(0, 0, nil)
	assert.True(t, errors.Is(err, ErrEmptyMatrix))

	_, err = IntensityMatrixFromInts(2, 2, []int{1})
	assert.True(t, errors.Is(err, ErrShape))
}

func TestIntensityMatrixFromInts(t *testing.T) {
	m, err := IntensityMatrixFromInts(2, 2, []int{-32768, 0, 65535, 7})
	require.NoError(t, err)
	lo, hi := m.MinMax()
	assert.Equal(t, -32768.0, lo)
	assert.Equal(t, 65535.0, hi)
	assert.Equal(t, 4, m.Len())
}

func TestIntensityMatrix_Map(t *testing.T) {
	m := mustMatrix(t, 1, 3, []float64{1, 2, 3})
	doubled := m.Map(func(v float64) float64 { return v * 2 })
	assert.Equal(t, []float64{2, 4, 6}, doubled.Values())
	assert.Equal(t, []float64{1, 2, 3}, m.Values())
}
