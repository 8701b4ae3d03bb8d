package tone

import (
	"github.com/jpfielding/astroimg.go/pkg/pixel/stats"
)

// Midtone balance bounds.
const (
	MinMidtone = 0.001
	MaxMidtone = 0.999
)

const mtfLUTSize = 256

// MTF is the midtone transfer function f(x,m) = ((m-1)x) / ((2m-1)x - m)
// for x in [0,1]. It maps 0 to 0, 1 to 1 and m to exactly 0.5.
func MTF(x, m float64) float64 {
	switch {
	case x <= 0:
		return 0
	case x >= 1:
		return 1
	case x == m:
		return 0.5
	}
	return ((m - 1) * x) / ((2*m-1)*x - m)
}

// ApplyMTF stretches the buffer with the midtone transfer function.
// The buffer is normalized to [0,1], then rescaled so that shadowsClip maps
// to 0 and highlightsClip to 1, and finally mapped through a 256-entry
// table of MTF(x, midtone) with linear interpolation between entries. The
// result is mapped back to the buffer's original range.
//
// midtone is clamped to [MinMidtone, MaxMidtone]. Clip points are clamped to
// [0,1]; an empty clip range resets them to 0 and 1. A degenerate buffer is
// returned unchanged.
func ApplyMTF(buf []float32, midtone, shadowsClip, highlightsClip float64) []float32 {
	midtone = clamp64(midtone, MinMidtone, MaxMidtone)
	shadowsClip = clamp64(shadowsClip, 0, 1)
	highlightsClip = clamp64(highlightsClip, 0, 1)
	if highlightsClip <= shadowsClip {
		shadowsClip, highlightsClip = 0, 1
	}

	lo, hi, ok := stats.MinMax(buf)
	if !ok || !(hi > lo) {
		return clone(buf)
	}

	lut := make([]float64, mtfLUTSize)
	for i := range lut {
		x := float64(i) / (mtfLUTSize - 1)
		lut[i] = MTF(x, midtone)
	}

	rng := float64(hi - lo)
	clipRange := highlightsClip - shadowsClip
	out := make([]float32, len(buf))
	for i, v := range buf {
		if isNaN(v) {
			out[i] = v
			continue
		}
		n := (float64(v) - float64(lo)) / rng
		n = clamp64((n-shadowsClip)/clipRange, 0, 1)
		var m float64
		if n == midtone {
			m = 0.5
		} else {
			m = lookup(lut, n)
		}
		out[i] = float32(m*rng + float64(lo))
	}
	return out
}

// lookup samples a table spanning [0,1] with linear interpolation.
func lookup(lut []float64, n float64) float64 {
	last := len(lut) - 1
	pos := n * float64(last)
	i := int(pos)
	if i >= last {
		return lut[last]
	}
	if i < 0 {
		return lut[0]
	}
	f := pos - float64(i)
	return lut[i]*(1-f) + lut[i+1]*f
}

// AutoStretch applies a screen-transfer style stretch: shadows are clipped
// at median - 2.8*sigma (sigma from the MAD) and the midtone is chosen so the
// median lands on targetBackground (clamped to [0.01, 0.5]).
func AutoStretch(buf []float32, targetBackground float64) []float32 {
	targetBackground = clamp64(targetBackground, 0.01, 0.5)
	lo, hi, ok := stats.MinMax(buf)
	if !ok || !(hi > lo) {
		return clone(buf)
	}
	median, mad := stats.MAD(buf)
	rng := float64(hi - lo)
	nMedian := (float64(median) - float64(lo)) / rng
	nSigma := float64(mad) * stats.MADToSigma / rng

	shadows := clamp64(nMedian-2.8*nSigma, 0, 1)
	if shadows >= nMedian {
		shadows = 0
	}
	x := 0.0
	if shadows < 1 {
		x = (nMedian - shadows) / (1 - shadows)
	}
	// solve MTF(x, m) = target for m; MTF(target, x) is its inverse
	m := MTF(x, targetBackground)
	return ApplyMTF(buf, m, shadows, 1)
}
