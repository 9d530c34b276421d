package imaging

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// VOIFunction selects how a window center/width pair is applied.
type VOIFunction string

const (
	VOILinear      VOIFunction = "LINEAR"
	VOILinearExact VOIFunction = "LINEAR_EXACT"
	VOISigmoid     VOIFunction = "SIGMOID"
)

// ParseVOIFunction maps the (0028,1056) code string, defaulting to LINEAR.
func ParseVOIFunction(s string) VOIFunction {
	switch VOIFunction(strings.ToUpper(strings.TrimSpace(s))) {
	case VOILinearExact:
		return VOILinearExact
	case VOISigmoid:
		return VOISigmoid
	default:
		return VOILinear
	}
}

// Window is a linear center/width window.
type Window struct {
	Center      float64
	Width       float64
	Explanation string
}

// LUT is one item of a VOI LUT sequence.
type LUT struct {
	// FirstMapped is the first stored value mapped by Data[0].
	FirstMapped  int
	BitsPerEntry int
	Data         []float64
	Explanation  string
}

// DisplayRange is the output range of a window.
type DisplayRange struct {
	Min, Max float64
}

// DefaultDisplayRange is used when no usable range is supplied.
var DefaultDisplayRange = DisplayRange{Min: 0, Max: 255}

// RangeForBits returns the representable range of the stored samples.
func RangeForBits(bitsStored int, signed bool) DisplayRange {
	if bitsStored <= 0 || bitsStored > 32 {
		return DefaultDisplayRange
	}
	if signed {
		half := math.Ldexp(1, bitsStored-1)
		return DisplayRange{Min: -half, Max: half - 1}
	}
	return DisplayRange{Min: 0, Max: math.Ldexp(1, bitsStored) - 1}
}

func (r DisplayRange) valid() bool {
	return r.Max > r.Min
}

// Rescale is the modality LUT linear transform; a zero Slope means identity.
type Rescale struct {
	Slope     float64
	Intercept float64
}

func (r Rescale) identity() bool {
	return (r.Slope == 0 || r.Slope == 1) && r.Intercept == 0
}

func (r Rescale) apply(v float64) float64 {
	slope := r.Slope
	if slope == 0 {
		slope = 1
	}
	return v*slope + r.Intercept
}

// WindowingParameters is everything the VOI stage needs from the metadata.
type WindowingParameters struct {
	Windows  []Window
	LUTs     []LUT
	Function VOIFunction
	// Range is the window output range before rescale.
	Range DisplayRange
	// Rescale maps Range into modality units for windows; samples are
	// windowed as stored. LUTs ignore it.
	Rescale Rescale
}

// Empty reports whether no window or LUT is available.
func (p WindowingParameters) Empty() bool {
	return len(p.Windows) == 0 && len(p.LUTs) == 0
}

// Count returns the number of selectable definitions; LUTs win over windows.
func (p WindowingParameters) Count() int {
	if len(p.LUTs) > 0 {
		return len(p.LUTs)
	}
	return len(p.Windows)
}

// ResolveVOI returns the per-sample transform for the index-th definition.
func ResolveVOI(p WindowingParameters, index int) (func(float64) float64, error) {
	if p.Empty() {
		return nil, ErrMissingWindowing
	}
	if index < 0 || index >= p.Count() {
		return nil, fmt.Errorf("%w: %d of %d", ErrWindowIndex, index, p.Count())
	}
	if len(p.LUTs) > 0 {
		return lutTransform(p.LUTs[index])
	}
	return windowTransform(p, p.Windows[index])
}

// ApplyVOI windows m with the index-th definition in p. Without any
// definition the input matrix is returned unchanged.
func ApplyVOI(m *IntensityMatrix, p WindowingParameters, index int) (*IntensityMatrix, error) {
	if m.empty() {
		return nil, ErrEmptyMatrix
	}
	fn, err := ResolveVOI(p, index)
	if errors.Is(err, ErrMissingWindowing) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	return m.Map(fn), nil
}

func lutTransform(l LUT) (func(float64) float64, error) {
	n := len(l.Data)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty LUT", ErrInvalidWindow)
	}
	data := make([]float64, n)
	copy(data, l.Data)
	first := l.FirstMapped
	return func(v float64) float64 {
		idx := int(math.Floor(v)) - first
		switch {
		case idx <= 0:
			return data[0]
		case idx >= n-1:
			return data[n-1]
		}
		return data[idx]
	}, nil
}

func windowTransform(p WindowingParameters, w Window) (func(float64) float64, error) {
	r := p.Range
	if !r.valid() {
		r = DefaultDisplayRange
	}
	rescale := p.Rescale
	if !rescale.identity() {
		lo, hi := rescale.apply(r.Min), rescale.apply(r.Max)
		r = DisplayRange{Min: math.Min(lo, hi), Max: math.Max(lo, hi)}
	}
	span := r.Max - r.Min

	switch p.Function {
	case VOISigmoid:
		if w.Width <= 0 {
			return nil, fmt.Errorf("%w: sigmoid width %v", ErrInvalidWindow, w.Width)
		}
		return func(v float64) float64 {
			return span/(1+math.Exp(-4*(v-w.Center)/w.Width)) + r.Min
		}, nil
	case VOILinearExact:
		if w.Width <= 0 {
			return nil, fmt.Errorf("%w: linear exact width %v", ErrInvalidWindow, w.Width)
		}
		return linear(w.Center, w.Width, r), nil
	default:
		if w.Width < 1 {
			return nil, fmt.Errorf("%w: linear width %v", ErrInvalidWindow, w.Width)
		}
		if w.Width == 1 {
			// degenerate LINEAR window is a threshold at the center
			c := w.Center - 0.5
			return func(v float64) float64 {
				if v <= c {
					return r.Min
				}
				return r.Max
			}, nil
		}
		return linear(w.Center-0.5, w.Width-1, r), nil
	}
}

func linear(center, width float64, r DisplayRange) func(float64) float64 {
	low := center - width/2
	high := center + width/2
	span := r.Max - r.Min
	return func(v float64) float64 {
		switch {
		case v <= low:
			return r.Min
		case v > high:
			return r.Max
		}
		return ((v-center)/width+0.5)*span + r.Min
	}
}
