// Package wavelet implements the undecimated ("a trous") B3-spline wavelet
// transform and the multiscale operations built on it: HDR compression of
// detail layers and wavelet-threshold denoising.
package wavelet

import (
	"math"

	"github.com/jpfielding/astroimg.go/pkg/pixel/stats"
)

// Layer bounds.
const (
	MinLayers = 1
	MaxLayers = 10
)

// b3 is the 1D B3-spline kernel; its outer product is the 5x5 kernel.
var b3 = [5]float32{1.0 / 16, 4.0 / 16, 6.0 / 16, 4.0 / 16, 1.0 / 16}

// ClampLayers applies [MinLayers, MaxLayers].
func ClampLayers(layers int) int {
	return max(MinLayers, min(layers, MaxLayers))
}

// Decompose splits the image into detail layers, finest first, and the
// final smooth residual. Level j smooths with the B3 kernel taps spaced 2^j
// pixels apart, so the image is never resized. The sum of all details and
// the residual reproduces the input. layers is clamped to
// [MinLayers, MaxLayers].
func Decompose(buf []float32, w, h, layers int) (details [][]float32, residual []float32) {
	layers = ClampLayers(layers)
	cur := make([]float32, len(buf))
	copy(cur, buf)
	tmp := make([]float32, len(buf))
	details = make([][]float32, layers)
	for j := 0; j < layers; j++ {
		step := 1 << j
		smooth := make([]float32, len(buf))
		smoothX(tmp, cur, w, h, step)
		smoothY(smooth, tmp, w, h, step)

		detail := make([]float32, len(buf))
		for i := range cur {
			detail[i] = cur[i] - smooth[i]
		}
		details[j] = detail
		cur = smooth
	}
	return details, cur
}

// Reconstruct sums the residual and all detail layers.
func Reconstruct(details [][]float32, residual []float32) []float32 {
	out := make([]float32, len(residual))
	copy(out, residual)
	for _, d := range details {
		for i, v := range d {
			out[i] += v
		}
	}
	return out
}

func smoothX(res, data []float32, w, h, step int) {
	for y := 0; y < h; y++ {
		row := data[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			var sum float32
			for k := -2; k <= 2; k++ {
				xx := max(0, min(x+k*step, w-1))
				sum += row[xx] * b3[k+2]
			}
			res[y*w+x] = sum
		}
	}
}

func smoothY(res, data []float32, w, h, step int) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float32
			for k := -2; k <= 2; k++ {
				yy := max(0, min(y+k*step, h-1))
				sum += data[yy*w+x] * b3[k+2]
			}
			res[y*w+x] = sum
		}
	}
}

// normalized maps buf onto [0,1] with NaN replaced by 0. It also returns a
// function mapping a normalized result back, restoring NaN positions.
func normalized(buf []float32) ([]float32, func([]float32) []float32, bool) {
	lo, hi, ok := stats.MinMax(buf)
	if !ok || !(hi > lo) {
		return nil, nil, false
	}
	rng := hi - lo
	norm := make([]float32, len(buf))
	for i, v := range buf {
		if v == v {
			norm[i] = (v - lo) / rng
		}
	}
	back := func(res []float32) []float32 {
		out := make([]float32, len(res))
		for i, v := range res {
			if buf[i] != buf[i] {
				out[i] = buf[i]
				continue
			}
			out[i] = max(0, min(v, 1))*rng + lo
		}
		return out
	}
	return norm, back, true
}

// medianAbs returns the median of |v| over a layer.
func medianAbs(layer []float32) float32 {
	abs := make([]float32, len(layer))
	for i, v := range layer {
		abs[i] = float32(math.Abs(float64(v)))
	}
	return stats.Median(abs)
}

func clone(buf []float32) []float32 {
	out := make([]float32, len(buf))
	copy(out, buf)
	return out
}
