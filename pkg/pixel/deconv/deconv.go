// Package deconv sharpens images by Richardson-Lucy deconvolution with a
// Gaussian point spread function.
package deconv

import (
	"github.com/jpfielding/astroimg.go/pkg/pixel/filter"
	"github.com/jpfielding/astroimg.go/pkg/pixel/star"
	"github.com/jpfielding/astroimg.go/pkg/pixel/stats"
)

// Parameter bounds and defaults.
const (
	MaxIterations = 200
	MinEpsilon    = 1e-7
	// DefaultPSFSigma is used when no stars are found to estimate the PSF.
	DefaultPSFSigma = 1.5
)

// Options configures RichardsonLucy.
type Options struct {
	// PSFSigma is the Gaussian PSF width in pixels. Zero or negative
	// estimates it from the stars in the image.
	PSFSigma   float64
	Iterations int     // clamped to [0, MaxIterations]
	Epsilon    float64 // floor for the reblurred estimate, at least MinEpsilon
	Clip       bool    // clip the result to [-1,1]
}

// EstimatePSFSigma derives the PSF sigma from the median FWHM of the
// detected stars, falling back to DefaultPSFSigma.
func EstimatePSFSigma(buf []float32, w, h int) float64 {
	fwhm := star.MedianFWHM(star.Detect(buf, w, h))
	if !(fwhm > 0) {
		return DefaultPSFSigma
	}
	return max(filter.MinSigma, fwhm/star.FWHMPerSigma)
}

// RichardsonLucy deconvolves the image. The Gaussian PSF is symmetric, so
// the same blur serves as forward and adjoint operator:
//
//	estimate <- estimate * blur(observed / max(blur(estimate), eps))
//
// The input is shifted to be non-negative first and the shift removed from
// the result. NaN pixels are filled with the median for the iteration and
// restored afterwards. Zero iterations return a copy (clipped when
// requested).
func RichardsonLucy(buf []float32, w, h int, opts Options) []float32 {
	iterations := max(0, min(opts.Iterations, MaxIterations))
	eps := float32(max(opts.Epsilon, MinEpsilon))
	sigma := opts.PSFSigma
	if !(sigma > 0) {
		sigma = EstimatePSFSigma(buf, w, h)
	}

	lo, _, ok := stats.MinMax(buf)
	if !ok {
		return clone(buf)
	}
	shift := float32(0)
	if lo < 0 {
		shift = -lo
	}
	fill := stats.Median(buf)

	observed := make([]float32, len(buf))
	for i, v := range buf {
		if v != v {
			v = fill
		}
		observed[i] = v + shift
	}

	estimate := clone(observed)
	ratio := make([]float32, len(buf))
	for it := 0; it < iterations; it++ {
		reblurred := filter.GaussianBlur(estimate, w, h, sigma)
		for i, o := range observed {
			ratio[i] = o / max(reblurred[i], eps)
		}
		correction := filter.GaussianBlur(ratio, w, h, sigma)
		for i := range estimate {
			estimate[i] *= correction[i]
		}
	}

	out := make([]float32, len(buf))
	for i, v := range estimate {
		switch {
		case buf[i] != buf[i]:
			out[i] = buf[i]
			continue
		case iterations == 0:
			v = buf[i]
		default:
			v -= shift
		}
		if opts.Clip {
			v = max(-1, min(v, 1))
		}
		out[i] = v
	}
	return out
}

func clone(buf []float32) []float32 {
	out := make([]float32, len(buf))
	copy(out, buf)
	return out
}
