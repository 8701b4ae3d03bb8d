// Package filter implements neighbourhood filters over grayscale buffers:
// separable Gaussian blur, unsharp-mask sharpening, median filtering, global
// histogram equalization and CLAHE.
//
// Neighbourhood reads never leave the image. Gaussian taps outside the image
// are dropped and the remaining weights renormalized; the median filter
// clamps coordinates to the nearest edge pixel.
package filter

import (
	"math"

	"github.com/jpfielding/astroimg.go/pkg/pixel/stats"
)

// Sigma bounds for GaussianBlur.
const (
	MinSigma = 0.1
	MaxSigma = 50
)

// GaussianKernel returns the normalized 1D Gaussian kernel of radius
// ceil(3*sigma). sigma is clamped to [MinSigma, MaxSigma].
func GaussianKernel(sigma float64) []float32 {
	sigma = clamp64(sigma, MinSigma, MaxSigma)
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float32, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = float32(v)
		sum += v
	}
	for i := range kernel {
		kernel[i] = float32(float64(kernel[i]) / sum)
	}
	return kernel
}

// GaussianBlur convolves the image with a Gaussian of the given sigma in two
// separable passes.
func GaussianBlur(buf []float32, w, h int, sigma float64) []float32 {
	kernel := GaussianKernel(sigma)
	tmp := make([]float32, w*h)
	out := make([]float32, w*h)
	convolveX(tmp, buf, w, h, kernel)
	convolveY(out, tmp, w, h, kernel)
	return out
}

func convolveX(res, data []float32, w, h int, kernel []float32) {
	radius := len(kernel) / 2
	for y := 0; y < h; y++ {
		row := data[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			var sum, wsum float32
			for k := -radius; k <= radius; k++ {
				xx := x + k
				if xx < 0 || xx >= w {
					continue
				}
				kv := kernel[k+radius]
				sum += row[xx] * kv
				wsum += kv
			}
			res[y*w+x] = sum / wsum
		}
	}
}

func convolveY(res, data []float32, w, h int, kernel []float32) {
	radius := len(kernel) / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum, wsum float32
			for k := -radius; k <= radius; k++ {
				yy := y + k
				if yy < 0 || yy >= h {
					continue
				}
				kv := kernel[k+radius]
				sum += data[yy*w+x] * kv
				wsum += kv
			}
			res[y*w+x] = sum / wsum
		}
	}
}

// MaxSharpenAmount bounds the unsharp-mask gain.
const MaxSharpenAmount = 10

// Sharpen applies an unsharp mask: buf + amount*(buf - blur(buf, sigma)).
// amount is clamped to [0, MaxSharpenAmount].
func Sharpen(buf []float32, w, h int, sigma, amount float64) []float32 {
	a := float32(clamp64(amount, 0, MaxSharpenAmount))
	blurred := GaussianBlur(buf, w, h, sigma)
	out := make([]float32, len(buf))
	for i, v := range buf {
		out[i] = v + a*(v-blurred[i])
	}
	return out
}

// Median filter radius bounds.
const (
	MinMedianRadius = 1
	MaxMedianRadius = 10
)

// MedianFilter replaces every pixel by the median of its (2r+1)^2 square
// neighbourhood, coordinates clamped to the image. NaN neighbours are
// ignored. radius is clamped to [MinMedianRadius, MaxMedianRadius].
func MedianFilter(buf []float32, w, h, radius int) []float32 {
	radius = max(MinMedianRadius, min(radius, MaxMedianRadius))
	out := make([]float32, len(buf))
	window := make([]float32, 0, (2*radius+1)*(2*radius+1))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for dy := -radius; dy <= radius; dy++ {
				yy := clampInt(y+dy, 0, h-1)
				for dx := -radius; dx <= radius; dx++ {
					v := buf[yy*w+clampInt(x+dx, 0, w-1)]
					if v == v {
						window = append(window, v)
					}
				}
			}
			out[y*w+x] = medianOf(window)
		}
	}
	return out
}

// medianOf returns the median of a NaN-free scratch slice, reordering it.
func medianOf(window []float32) float32 {
	if len(window) == 0 {
		return float32(math.NaN())
	}
	return stats.Select(window, len(window)/2)
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clamp64(v, lo, hi float64) float64 {
	if v != v {
		return lo
	}
	return max(lo, min(v, hi))
}
