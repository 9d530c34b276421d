package imaging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func windowed(t *testing.T, p WindowingParameters, index int, values ...float64) []float64 {
	t.Helper()
	m := mustMatrix(t, 1, len(values), values)
	out, err := ApplyVOI(m, p, index)
	require.NoError(t, err)
	return out.Values()
}

func TestApplyVOI_LinearBoundary(t *testing.T) {
	p := WindowingParameters{
		Windows: []Window{{Center: 100, Width: 50}},
		Range:   DisplayRange{Min: 0, Max: 255},
	}
	got := windowed(t, p, 0, 0, 75, 100, 124, 125, 4000)

	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 0.0, got[1], "low edge maps to the minimum")
	assert.InDelta(t, 127.5, got[2], 0.02*255, "center maps to the midpoint")
	assert.InDelta(t, 255, got[3], 1e-9)
	assert.Equal(t, 255.0, got[4])
	assert.Equal(t, 255.0, got[5])
}

func TestApplyVOI_LinearExact(t *testing.T) {
	p := WindowingParameters{
		Windows:  []Window{{Center: 100, Width: 50}},
		Function: VOILinearExact,
		Range:    DisplayRange{Min: 0, Max: 1000},
	}
	got := windowed(t, p, 0, 75, 100, 112.5, 126)
	assert.Equal(t, []float64{0, 500, 750, 1000}, got)
}

func TestApplyVOI_Sigmoid(t *testing.T) {
	p := WindowingParameters{
		Windows:  []Window{{Center: 100, Width: 50}},
		Function: VOISigmoid,
		Range:    DisplayRange{Min: 0, Max: 255},
	}
	got := windowed(t, p, 0, -1000, 50, 100, 150, 5000)
	assert.InDelta(t, 127.5, got[2], 1e-9)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i], got[i-1])
	}
	assert.InDelta(t, 0, got[0], 1e-6)
	assert.InDelta(t, 255, got[4], 1e-6)
}

func TestApplyVOI_ThresholdWindow(t *testing.T) {
	p := WindowingParameters{
		Windows: []Window{{Center: 100, Width: 1}},
		Range:   DisplayRange{Min: 0, Max: 255},
	}
	assert.Equal(t, []float64{0, 255}, windowed(t, p, 0, 99, 100))
}

func TestApplyVOI_InvalidWidth(t *testing.T) {
	m := mustMatrix(t, 1, 2, []float64{1, 2})
	for _, p := range []WindowingParameters{
		{Windows: []Window{{Center: 10, Width: 0.5}}},
		{Windows: []Window{{Center: 10, Width: 0}}, Function: VOILinearExact},
		{Windows: []Window{{Center: 10, Width: -4}}, Function: VOISigmoid},
		{LUTs: []LUT{{FirstMapped: 0}}},
	} {
		_, err := ApplyVOI(m, p, 0)
		assert.True(t, errors.Is(err, ErrInvalidWindow), "%+v", p)
	}
}

func TestApplyVOI_Rescale(t *testing.T) {
	p := WindowingParameters{
		Windows: []Window{{Center: 40, Width: 400}},
		Range:   RangeForBits(12, false),
		Rescale: Rescale{Slope: 2, Intercept: -1024},
	}
	// output range becomes -1024..7166; samples are windowed as stored
	got := windowed(t, p, 0, -500, 39.5, 1000)
	assert.Equal(t, []float64{-1024, 3071, 7166}, got)
}

func TestApplyVOI_RescaleLeavesSamples(t *testing.T) {
	p := WindowingParameters{
		Windows: []Window{{Center: 40, Width: 400}},
		Range:   RangeForBits(12, false),
		Rescale: Rescale{Slope: 1, Intercept: -1024},
	}
	// stored CT values above the window top saturate even though their
	// modality values would fall inside it
	got := windowed(t, p, 0, 1064, 900, 1300)
	assert.Equal(t, []float64{3071, 3071, 3071}, got)
}

func TestApplyVOI_LUTClamps(t *testing.T) {
	p := WindowingParameters{
		LUTs: []LUT{{FirstMapped: 10, BitsPerEntry: 8, Data: []float64{5, 6, 7, 8}}},
	}
	got := windowed(t, p, 0, -3, 10, 11, 12.7, 13, 100)
	assert.Equal(t, []float64{5, 5, 6, 7, 8, 8}, got)
}

func TestApplyVOI_LUTTakesPrecedence(t *testing.T) {
	p := WindowingParameters{
		Windows: []Window{{Center: 100, Width: 50}},
		LUTs:    []LUT{{FirstMapped: 0, Data: []float64{42, 43}}},
		Range:   DefaultDisplayRange,
	}
	assert.Equal(t, []float64{42, 43, 43}, windowed(t, p, 0, 0, 1, 200))
	assert.Equal(t, 1, p.Count())
}

func TestApplyVOI_SelectsIndex(t *testing.T) {
	p := WindowingParameters{
		Windows: []Window{
			{Center: 100, Width: 50, Explanation: "narrow"},
			{Center: 1000, Width: 2000, Explanation: "wide"},
		},
		Range: DefaultDisplayRange,
	}
	first := windowed(t, p, 0, 150)
	second := windowed(t, p, 1, 150)
	assert.Equal(t, 255.0, first[0])
	assert.Less(t, second[0], 255.0)

	m := mustMatrix(t, 1, 1, []float64{150})
	for _, idx := range []int{-1, 2} {
		_, err := ApplyVOI(m, p, idx)
		assert.True(t, errors.Is(err, ErrWindowIndex), "index %d", idx)
	}
}

func TestApplyVOI_MissingWindowingIsIdentity(t *testing.T) {
	m := mustMatrix(t, 2, 2, []float64{-5, 0, 70000, 3})
	out, err := ApplyVOI(m, WindowingParameters{}, 0)
	require.NoError(t, err)
	assert.Same(t, m, out)
	assert.Equal(t, []float64{-5, 0, 70000, 3}, out.Values())

	_, err = ResolveVOI(WindowingParameters{}, 0)
	assert.True(t, errors.Is(err, ErrMissingWindowing))
}

func TestApplyVOI_EmptyMatrix(t *testing.T) {
	_, err := ApplyVOI(nil, WindowingParameters{Windows: []Window{{Center: 1, Width: 2}}}, 0)
	assert.True(t, errors.Is(err, ErrEmptyMatrix))
}

func TestApplyVOI_DoesNotMutateInput(t *testing.T) {
	data := []float64{0, 50, 100, 150}
	m := mustMatrix(t, 2, 2, data)
	out, err := ApplyVOI(m, WindowingParameters{Windows: []Window{{Center: 100, Width: 50}}}, 0)
	require.NoError(t, err)
	assert.NotSame(t, m, out)
	assert.Equal(t, data, m.Values())
	r, c := out.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
}

func TestRangeForBits(t *testing.T) {
	assert.Equal(t, DisplayRange{Min: 0, Max: 255}, RangeForBits(8, false))
	assert.Equal(t, DisplayRange{Min: 0, Max: 4095}, RangeForBits(12, false))
	assert.Equal(t, DisplayRange{Min: -2048, Max: 2047}, RangeForBits(12, true))
	assert.Equal(t, DefaultDisplayRange, RangeForBits(0, false))
}

func TestParseVOIFunction(t *testing.T) {
	assert.Equal(t, VOISigmoid, ParseVOIFunction(" sigmoid"))
	assert.Equal(t, VOILinearExact, ParseVOIFunction("LINEAR_EXACT"))
	assert.Equal(t, VOILinear, ParseVOIFunction(""))
	assert.Equal(t, VOILinear, ParseVOIFunction("bogus"))
}
