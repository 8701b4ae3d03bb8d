package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/astroimg.go/pkg/pixel/stats"
)

func constant(w, h int, v float32) []float32 {
	buf := make([]float32, w*h)
	for i := range buf {
		buf[i] = v
	}
	return buf
}

// noise is a deterministic uniform pattern in [0,1).
func noise(w, h int) []float32 {
	buf := make([]float32, w*h)
	state := uint32(2463534242)
	for i := range buf {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		buf[i] = float32(state%10000) / 10000
	}
	return buf
}

func gradient2D(w, h int) []float32 {
	buf := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf[y*w+x] = float32(x+y) / float32(w+h-2)
		}
	}
	return buf
}

func TestGaussianKernel(t *testing.T) {
	k := GaussianKernel(1)
	require.Len(t, k, 7)
	var sum float32
	for _, v := range k {
		sum += v
	}
	assert.InDelta(t, 1, sum, 1e-6)
	assert.Equal(t, k[0], k[6])
	assert.Greater(t, k[3], k[2])

	assert.Len(t, GaussianKernel(-1), 3, "sigma clamps to MinSigma")
	assert.Len(t, GaussianKernel(1000), 2*150+1, "sigma clamps to MaxSigma")
}

func TestGaussianBlur_ConstantUnchanged(t *testing.T) {
	buf := constant(9, 5, 3.5)
	out := GaussianBlur(buf, 9, 5, 2)
	assert.InDeltaSlice(t, buf, out, 1e-5)
}

func TestGaussianBlur_SpreadsPoint(t *testing.T) {
	// radius ceil(3*1.5)=5: the point reaches pixels 5 away, and those keep
	// their full kernel as long as they are another 5 from the edge
	w, h := 23, 23
	c := 11
	buf := make([]float32, w*h)
	buf[c*w+c] = 1
	out := GaussianBlur(buf, w, h, 1.5)

	assert.Less(t, out[c*w+c], float32(1))
	assert.Greater(t, out[c*w+c+1], float32(0))
	assert.InDelta(t, out[c*w+c+1], out[c*w+c-1], 1e-7, "symmetric")
	assert.InDelta(t, out[(c+1)*w+c], out[c*w+c+1], 1e-7, "isotropic")
	assert.Zero(t, out[0], "corner is out of reach")

	var sum float32
	for _, v := range out {
		sum += v
	}
	assert.InDelta(t, 1, sum, 1e-4, "interior point keeps its flux")
}

func TestGaussianBlur_EdgeRenormalizes(t *testing.T) {
	// a border pixel's clipped kernel is renormalized, so a point there keeps
	// a higher peak than the same point blurred in the interior
	w, h := 15, 15
	edge := make([]float32, w*h)
	edge[7*w] = 1
	inner := make([]float32, w*h)
	inner[7*w+7] = 1

	e := GaussianBlur(edge, w, h, 1.5)
	i := GaussianBlur(inner, w, h, 1.5)
	assert.Greater(t, e[7*w], i[7*w+7]*1.2)
	assert.Greater(t, e[7*w], e[7*w+1])
}

func TestSharpen(t *testing.T) {
	buf := constant(6, 6, 2)
	assert.InDeltaSlice(t, buf, Sharpen(buf, 6, 6, 1, 3), 1e-5)

	edge := make([]float32, 10)
	for i := 5; i < 10; i++ {
		edge[i] = 1
	}
	out := Sharpen(edge, 10, 1, 1, 1)
	assert.Less(t, out[4], float32(0), "undershoot before the edge")
	assert.Greater(t, out[5], float32(1), "overshoot after the edge")

	assert.Equal(t, edge, Sharpen(edge, 10, 1, 1, -2), "negative amount clamps to 0")
}

func TestMedianFilter_RemovesImpulse(t *testing.T) {
	buf := constant(5, 5, 1)
	buf[12] = 100
	out := MedianFilter(buf, 5, 5, 1)
	assert.Equal(t, constant(5, 5, 1), out)
	assert.Equal(t, float32(100), buf[12], "input untouched")
}

func TestMedianFilter_ClampsRadius(t *testing.T) {
	buf := noise(12, 12)
	assert.Equal(t, MedianFilter(buf, 12, 12, 1), MedianFilter(buf, 12, 12, 0))
	assert.Equal(t, MedianFilter(buf, 12, 12, 10), MedianFilter(buf, 12, 12, 50))
}

func TestMedianFilter_Edges(t *testing.T) {
	buf := []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}
	out := MedianFilter(buf, 3, 3, 1)
	// corner window with clamping: 1,1,2,1,1,2,4,4,5
	assert.Equal(t, float32(2), out[0])
	assert.Equal(t, float32(5), out[4])
	assert.Equal(t, float32(8), out[8])
}

func TestHistogramEqualize(t *testing.T) {
	buf := []float32{0, 0, 0, 0, 1, 2, 3, 100}
	out := HistogramEqualize(buf, 8, 1)
	assert.Equal(t, float32(0), out[0])
	assert.Equal(t, float32(100), out[7])
	// the crowded low end gets spread out
	assert.Greater(t, out[5], float32(30))
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i], out[i-1], "monotonic")
	}

	uniform := constant(4, 4, 7)
	assert.Equal(t, uniform, HistogramEqualize(uniform, 4, 4))
}

func TestCLAHE_NonPowerOfTwoIsFinite(t *testing.T) {
	w, h := 31, 17
	buf := gradient2D(w, h)
	out := CLAHE(buf, w, h, 8, 2.0)
	require.Len(t, out, w*h)
	for i, v := range out {
		require.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0), "pixel %d = %v", i, v)
	}
	lo, hi, _ := stats.MinMax(out)
	assert.GreaterOrEqual(t, lo, float32(0))
	assert.LessOrEqual(t, hi, float32(1.0001))
}

func TestCLAHE_PreservesMeanApproximately(t *testing.T) {
	w, h := 64, 48
	buf := noise(w, h)
	out := CLAHE(buf, w, h, 4, 2.0)
	assert.InDelta(t, stats.Mean(buf), stats.Mean(out), 0.05)
}

func TestCLAHE_Clamps(t *testing.T) {
	w, h := 20, 20
	buf := noise(w, h)
	assert.Equal(t, CLAHE(buf, w, h, MinTileGrid, 2), CLAHE(buf, w, h, 0, 2))
	assert.Equal(t, CLAHE(buf, w, h, 4, MinClipLimit), CLAHE(buf, w, h, 4, 0.1))
	assert.Equal(t, CLAHE(buf, w, h, 4, MaxClipLimit), CLAHE(buf, w, h, 4, 5000))
	// grids larger than the image shrink to one tile per pixel
	assert.NotPanics(t, func() { CLAHE(buf[:6], 3, 2, 64, 2) })
}

func TestCLAHE_Degenerate(t *testing.T) {
	buf := constant(8, 8, 0.25)
	assert.Equal(t, buf, CLAHE(buf, 8, 8, 4, 2))
}

func BenchmarkGaussianBlur(b *testing.B) {
	buf := noise(512, 512)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GaussianBlur(buf, 512, 512, 2)
	}
}

func BenchmarkCLAHE(b *testing.B) {
	buf := noise(512, 512)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CLAHE(buf, 512, 512, 8, 2)
	}
}
