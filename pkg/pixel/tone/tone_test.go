package tone

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(n int, lo, hi float32) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = lo + (hi-lo)*float32(i)/float32(n-1)
	}
	return buf
}

func TestAdjustBrightness(t *testing.T) {
	buf := []float32{0, 1, 2}
	assert.Equal(t, []float32{0.5, 1.5, 2.5}, AdjustBrightness(buf, 0.5))
	assert.Equal(t, []float32{0, 1, 2}, buf)
}

func TestAdjustContrast(t *testing.T) {
	buf := []float32{1, 2, 3}
	assert.InDeltaSlice(t, []float32{0, 2, 4}, AdjustContrast(buf, 2), 1e-6)
	assert.InDeltaSlice(t, []float32{2, 2, 2}, AdjustContrast(buf, 0), 1e-6)
}

func TestAdjustGamma_Identity(t *testing.T) {
	buf := gradient(64, -3, 40)
	assert.Equal(t, buf, AdjustGamma(buf, 1))
}

func TestAdjustGamma_Invertible(t *testing.T) {
	// forward values below the smallest normal float32 underflow and cannot
	// come back, so only samples that stay representable are compared
	const smallestNormal = 0x1p-126
	buf := gradient(257, 0, 1)
	for _, g := range []float64{0.01, 0.02, 0.05, 0.1, 0.45, 2.2, 5, 10} {
		t.Run(fmt.Sprintf("gamma %g", g), func(t *testing.T) {
			back := AdjustGamma(AdjustGamma(buf, g), 1/g)
			require.Len(t, back, len(buf))
			checked := 0
			for i, v := range buf {
				if math.Pow(float64(v), 1/g) < smallestNormal {
					continue
				}
				checked++
				assert.InDelta(t, v, back[i], 1e-4, "sample %d", i)
			}
			assert.Greater(t, checked, len(buf)/2)
		})
	}

	// offset ranges survive with a tolerance relative to the range
	wide := gradient(129, 10, 500)
	back := AdjustGamma(AdjustGamma(wide, 2.2), 1/2.2)
	assert.InDeltaSlice(t, wide, back, 0.05)
}

func TestAdjustGamma_Clamps(t *testing.T) {
	buf := gradient(16, 0, 1)
	assert.Equal(t, AdjustGamma(buf, MinGamma), AdjustGamma(buf, -5))
	assert.Equal(t, AdjustGamma(buf, MaxGamma), AdjustGamma(buf, 1e6))
}

func TestApplyLevels(t *testing.T) {
	buf := gradient(11, 0, 10)
	assert.Equal(t, buf, ApplyLevels(buf, DefaultLevels()))

	// input range [0.2,0.8] stretches to full output range
	out := ApplyLevels(buf, Levels{InBlack: 0.2, InWhite: 0.8, Gamma: 1, OutBlack: 0, OutWhite: 1})
	assert.InDelta(t, 0, out[1], 1e-5)
	assert.InDelta(t, 5, out[5], 1e-5)
	assert.InDelta(t, 10, out[9], 1e-5)

	// output range compresses
	out = ApplyLevels(buf, Levels{InBlack: 0, InWhite: 1, Gamma: 1, OutBlack: 0.5, OutWhite: 1})
	assert.InDelta(t, 5, out[0], 1e-5)
	assert.InDelta(t, 10, out[10], 1e-5)

	// inverted input range falls back to [0,1]
	out = ApplyLevels(buf, Levels{InBlack: 0.9, InWhite: 0.1, Gamma: 1, OutBlack: 0, OutWhite: 0.5})
	assert.InDelta(t, 2.5, out[5], 1e-5)
}

func TestMTF(t *testing.T) {
	for _, m := range []float64{0.001, 0.1, 0.25, 0.5, 0.8, 0.999} {
		assert.Equal(t, 0.5, MTF(m, m))
		assert.Equal(t, 0.0, MTF(0, m))
		assert.Equal(t, 1.0, MTF(1, m))
	}
	assert.InDelta(t, 0.3, MTF(0.3, 0.5), 1e-12)
}

func TestApplyMTF(t *testing.T) {
	buf := []float32{0, 0.25, 0.5, 1}

	out := ApplyMTF(buf, 0.5, 0, 1)
	assert.InDelta(t, 0, out[0], 1e-6)
	assert.InDelta(t, 1, out[3], 1e-6)
	assert.InDelta(t, 0.5, out[2], 1e-3)

	out = ApplyMTF(buf, 0.25, 0, 1)
	assert.InDelta(t, 0.5, out[1], 1e-6)
	assert.Greater(t, out[2], float32(0.5))

	// clip points rescale before the transfer
	out = ApplyMTF([]float32{0, 0.2, 0.6, 1}, 0.5, 0.2, 0.6)
	assert.InDelta(t, 0, out[1], 1e-6)
	assert.InDelta(t, 1, out[2], 1e-6)
}

func TestApplyMTF_Degenerate(t *testing.T) {
	buf := []float32{3, 3, 3}
	assert.Equal(t, buf, ApplyMTF(buf, 0.2, 0, 1))

	nan := float32(math.NaN())
	out := ApplyMTF([]float32{nan, 0, 1}, 0.3, 0, 1)
	assert.True(t, math.IsNaN(float64(out[0])))
}

func TestApplyMTF_ClampsMidtone(t *testing.T) {
	buf := gradient(32, 0, 1)
	assert.Equal(t, ApplyMTF(buf, MinMidtone, 0, 1), ApplyMTF(buf, -1, 0, 1))
	assert.Equal(t, ApplyMTF(buf, MaxMidtone, 0, 1), ApplyMTF(buf, 7, 0, 1))
}

func TestAutoStretch_BrightensFaintData(t *testing.T) {
	buf := make([]float32, 1000)
	for i := range buf {
		buf[i] = 0.01 + 0.001*float32(i%10)
	}
	buf[0] = 1
	out := AutoStretch(buf, 0.25)
	require.Len(t, out, len(buf))
	med := out[5]
	assert.Greater(t, med, buf[5])
}

func TestApplyCurves(t *testing.T) {
	buf := gradient(101, 0, 1)

	assert.Equal(t, buf, ApplyCurves(buf, nil))
	assert.InDeltaSlice(t, buf, ApplyCurves(buf, []Point{{0, 0}, {1, 1}}), 1e-4)
	assert.InDeltaSlice(t, buf, ApplyCurves(buf, []Point{{0, 0}, {0.5, 0.5}, {1, 1}}), 1e-4)

	flat := ApplyCurves(buf, []Point{{0.3, 0.7}})
	for _, v := range flat {
		assert.InDelta(t, 0.7, v, 1e-6)
	}
}

func TestApplyCurves_PreservesEndpoints(t *testing.T) {
	buf := gradient(101, 0, 1)
	pts := []Point{{0, 0.1}, {0.3, 0.5}, {0.6, 0.55}, {1, 0.9}}
	out := ApplyCurves(buf, pts)
	assert.InDelta(t, 0.1, out[0], 1e-6)
	assert.InDelta(t, 0.9, out[100], 1e-6)
	assert.InDelta(t, 0.5, out[30], 1e-3)
	assert.InDelta(t, 0.55, out[60], 1e-3)
}

func TestCurveLUT(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
		want   map[int]float64 // index into a 101-entry table
	}{
		{"identity", nil, map[int]float64{0: 0, 37: 0.37, 100: 1}},
		{"constant", []Point{{0.4, 0.25}}, map[int]float64{0: 0.25, 100: 0.25}},
		{"linear", []Point{{0.2, 0.3}, {0.8, 0.9}}, map[int]float64{0: 0.3, 20: 0.3, 50: 0.6, 80: 0.9, 100: 0.9}},
		{"spline", []Point{{0, 0}, {0.25, 0.5}, {0.5, 0.75}, {1, 1}}, map[int]float64{0: 0, 25: 0.5, 50: 0.75, 100: 1}},
		{"clamped", []Point{{0, -1}, {0.5, 2}, {1, 0.5}}, map[int]float64{0: 0, 50: 1, 100: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lut := CurveLUT(tt.points, 101)
			require.Len(t, lut, 101)
			for i, want := range tt.want {
				assert.InDelta(t, want, lut[i], 1e-9, "index %d", i)
			}
			for _, v := range lut {
				assert.True(t, v >= 0 && v <= 1)
			}
		})
	}
}

func TestApplyCurves_UnsortedDoesNotPanic(t *testing.T) {
	buf := gradient(50, 0, 1)
	sorted := []Point{{0, 0}, {0.25, 0.4}, {0.75, 0.8}, {1, 1}}
	shuffled := []Point{{0.75, 0.8}, {0, 0}, {1, 1}, {0.25, 0.4}}
	assert.NotPanics(t, func() { ApplyCurves(buf, shuffled) })
	assert.Equal(t, ApplyCurves(buf, sorted), ApplyCurves(buf, shuffled))

	dup := []Point{{0.5, 0.2}, {0.5, 0.8}, {0, 0}, {1, 1}}
	assert.NotPanics(t, func() { ApplyCurves(buf, dup) })
}

func TestInvertPixels_SelfInverse(t *testing.T) {
	buf := []float32{-2, 0.5, 3, 7.25}
	inv := InvertPixels(buf)
	assert.Equal(t, []float32{7.25, 4.75, 2.25, -2}, inv)
	assert.InDeltaSlice(t, buf, InvertPixels(inv), 1e-6)
}

func TestBinarize(t *testing.T) {
	buf := []float32{1, 5, 9, 3}
	assert.Equal(t, []float32{1, 9, 9, 1}, Binarize(buf, 4))
	assert.Equal(t, []float32{1, 1, 9, 1}, Binarize(buf, 5))
	assert.Equal(t, []float32{2, 2, 2}, Binarize([]float32{2, 2, 2}, 0))
}

func TestRescalePixels(t *testing.T) {
	out := RescalePixels([]float32{10, 20, 30})
	assert.InDeltaSlice(t, []float32{0, 0.5, 1}, out, 1e-6)
	assert.Equal(t, []float32{0.5, 0.5}, RescalePixels([]float32{4, 4}))
}

func TestCreateRangeMask(t *testing.T) {
	buf := gradient(21, -5, 5)
	full := CreateRangeMask(buf, 0, 1, 0.1)
	for _, v := range full {
		assert.InDelta(t, 1, v, 1e-6)
	}

	mask := CreateRangeMask(buf, 0.4, 0.6, 0.1)
	assert.Equal(t, float32(1), mask[10])
	assert.Equal(t, float32(0), mask[0])
	assert.InDelta(t, 0.5, mask[7], 1e-5) // normalized 0.35, 0.05 below range

	hard := CreateRangeMask(buf, 0.4, 0.6, 0)
	assert.Equal(t, float32(0), hard[7])
}
