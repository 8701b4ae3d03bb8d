package stats

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_MatchesSort(t *testing.T) {
	tests := []struct {
		name string
		data []float32
	}{
		{"single", []float32{7}},
		{"sorted", []float32{1, 2, 3, 4, 5, 6, 7, 8}},
		{"reversed", []float32{9, 8, 7, 6, 5, 4, 3, 2, 1}},
		{"duplicates", []float32{3, 1, 3, 3, 2, 3, 1}},
		{"negative", []float32{-5, 10, -1, 0, 3.5, -2.25}},
		{"constant", []float32{4, 4, 4, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sorted := append([]float32(nil), tt.data...)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
			for k := range tt.data {
				work := append([]float32(nil), tt.data...)
				assert.Equal(t, sorted[k], Select(work, k), "k=%d", k)
			}
		})
	}
}

func TestSelect_ClampsK(t *testing.T) {
	assert.Equal(t, float32(1), Select([]float32{3, 1, 2}, -4))
	assert.Equal(t, float32(3), Select([]float32{3, 1, 2}, 99))
	assert.True(t, math.IsNaN(float64(Select(nil, 0))))
}

func TestMedian(t *testing.T) {
	nan := float32(math.NaN())
	assert.Equal(t, float32(3), Median([]float32{5, 1, 3}))
	assert.Equal(t, float32(2.5), Median([]float32{4, 1, 3, 2}))
	assert.Equal(t, float32(2), Median([]float32{nan, 1, 2, 3, nan}))
	assert.True(t, math.IsNaN(float64(Median([]float32{nan, nan}))))

	in := []float32{5, 1, 3}
	Median(in)
	assert.Equal(t, []float32{5, 1, 3}, in, "input must not be reordered")
}

func TestPercentile(t *testing.T) {
	data := make([]float32, 101)
	for i := range data {
		data[i] = float32(100 - i)
	}
	assert.Equal(t, float32(0), Percentile(data, 0))
	assert.Equal(t, float32(50), Percentile(data, 50))
	assert.Equal(t, float32(100), Percentile(data, 100))
	assert.Equal(t, float32(100), Percentile(data, 250))
}

func TestMAD(t *testing.T) {
	med, mad := MAD([]float32{1, 1, 2, 2, 4, 6, 9})
	assert.Equal(t, float32(2), med)
	assert.Equal(t, float32(1), mad)
}

func TestMinMax_IgnoresNaN(t *testing.T) {
	nan := float32(math.NaN())
	lo, hi, ok := MinMax([]float32{nan, 3, -1, nan, 8})
	require.True(t, ok)
	assert.Equal(t, float32(-1), lo)
	assert.Equal(t, float32(8), hi)

	_, _, ok = MinMax([]float32{nan})
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	nan := float32(math.NaN())
	s := Summarize([]float32{2, 4, nan, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 8, s.Count)
	assert.Equal(t, float32(2), s.Min)
	assert.Equal(t, float32(9), s.Max)
	assert.InDelta(t, 5.0, s.Mean, 1e-6)
	assert.InDelta(t, 4.5, s.Median, 1e-6)
	assert.InDelta(t, 2.0, s.StdDev, 1e-6)
	assert.False(t, s.Degenerate())

	assert.True(t, Summarize([]float32{3, 3, 3}).Degenerate())
	assert.True(t, Summarize(nil).Degenerate())
}

func TestSigmaClip_RejectsOutliers(t *testing.T) {
	samples := make([]float64, 0, 110)
	for i := 0; i < 100; i++ {
		samples = append(samples, 10+float64(i%5)*0.1)
	}
	for i := 0; i < 10; i++ {
		samples = append(samples, 1000)
	}

	res := SigmaClip(samples, 3, 10, 5)
	assert.Equal(t, 100, res.N)
	assert.InDelta(t, 10.2, res.Mean, 1e-9)
	assert.LessOrEqual(t, res.Passes, 10)
	assert.Len(t, samples, 110, "input untouched")
}

func TestSigmaClip_Empty(t *testing.T) {
	assert.Equal(t, ClipResult{}, SigmaClip(nil, 3, 10, 5))
}

func BenchmarkMedian(b *testing.B) {
	data := make([]float32, 512*512)
	for i := range data {
		data[i] = float32((i * 7919) % 65536)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Median(data)
	}
}
