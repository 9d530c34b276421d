package imaging

import (
	"fmt"
	"math"
	"slices"
)

// StretchParameters configures the percentile stretch.
type StretchParameters struct {
	// Low and High are percentiles in [0,100] mapped to 0 and 255.
	Low  float64
	High float64
	// IgnoreExtremes replaces min and max samples by the median before
	// estimating the percentiles.
	IgnoreExtremes bool
}

// DefaultStretch maps the 0.1th/99.9th percentiles with outlier substitution.
var DefaultStretch = StretchParameters{Low: 0.1, High: 99.9, IgnoreExtremes: true}

// Validate enforces 0 <= Low < High <= 100.
func (p StretchParameters) Validate() error {
	if math.IsNaN(p.Low) || math.IsNaN(p.High) || p.Low < 0 || p.High > 100 || p.Low >= p.High {
		return fmt.Errorf("%w: low=%v high=%v", ErrInvalidStretchParameters, p.Low, p.High)
	}
	return nil
}

// Percentiles returns the Low-th and High-th percentiles used by Stretch.
func Percentiles(m *IntensityMatrix, p StretchParameters) (lo, hi float64, err error) {
	if err := p.Validate(); err != nil {
		return 0, 0, err
	}
	if m.empty() {
		return 0, 0, ErrEmptyMatrix
	}
	work := m.Values()
	if p.IgnoreExtremes {
		min, max := m.MinMax()
		sorted := m.Values()
		slices.Sort(sorted)
		med := percentile(sorted, 50)
		for i, v := range work {
			if v == min || v == max {
				work[i] = med
			}
		}
	}
	slices.Sort(work)
	return percentile(work, p.Low), percentile(work, p.High), nil
}

// percentile interpolates linearly between the order statistics bracketing
// rank p/100*(n-1). sorted must be ascending and non-empty.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	i := int(math.Floor(rank))
	if i >= n-1 {
		return sorted[n-1]
	}
	frac := rank - float64(i)
	a, b := sorted[i], sorted[i+1]
	if frac == 0 || a == b {
		return a
	}
	return a + (b-a)*frac
}

// Stretch maps m linearly so the Low percentile lands on 0 and the High
// percentile on 255, clipping outside. The percentiles come from the outlier
// substituted copy but the mapping is applied to the original samples. A flat
// distribution (lo == hi) yields a uniform 128 image.
func Stretch(m *IntensityMatrix, p StretchParameters) (*NormalizedImage, error) {
	lo, hi, err := Percentiles(m, p)
	if err != nil {
		return nil, err
	}
	rows, cols := m.Dims()
	out := &NormalizedImage{
		rows: rows,
		cols: cols,
		pix:  make([]uint8, rows*cols),
		Lo:   lo,
		Hi:   hi,
	}
	if lo == hi {
		for i := range out.pix {
			out.pix[i] = 128
		}
		out.Degenerate = true
		return out, nil
	}

	scale := 255 / (hi - lo)
	for i, v := range m.samples() {
		out.pix[i] = clampByte((v - lo) * scale)
	}
	return out, nil
}

// clampByte clips to [0,255] then truncates, NaN becomes 0.
func clampByte(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
