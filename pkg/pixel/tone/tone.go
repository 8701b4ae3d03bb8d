// Package tone holds the pointwise tone transforms: brightness, contrast,
// gamma, levels, the midtone transfer function and spline curves, plus the
// small pointwise helpers (invert, binarize, rescale, range masks).
//
// Operations that work on a normalized scale map the buffer's actual
// min/max (NaN excluded) to [0,1], transform, and map back. A buffer with no
// dynamic range is returned as an unchanged copy unless documented otherwise.
package tone

import (
	"math"

	"github.com/jpfielding/astroimg.go/pkg/pixel/stats"
)

// AdjustBrightness adds amount to every pixel.
func AdjustBrightness(buf []float32, amount float32) []float32 {
	out := make([]float32, len(buf))
	for i, v := range buf {
		out[i] = v + amount
	}
	return out
}

// AdjustContrast scales every pixel's deviation from the buffer mean by factor.
func AdjustContrast(buf []float32, factor float32) []float32 {
	mean := stats.Mean(buf)
	out := make([]float32, len(buf))
	if isNaN(mean) {
		copy(out, buf)
		return out
	}
	for i, v := range buf {
		out[i] = mean + (v-mean)*factor
	}
	return out
}

// Gamma bounds. MaxGamma is 1/MinGamma so every gamma in range has its
// inverse in range too.
const (
	MinGamma = 0.01
	MaxGamma = 1 / MinGamma
)

// AdjustGamma applies v^(1/gamma) on the normalized scale. gamma is clamped
// to [MinGamma, MaxGamma]; gamma 1 is the identity.
func AdjustGamma(buf []float32, gamma float64) []float32 {
	gamma = clamp64(gamma, MinGamma, MaxGamma)
	lo, hi, ok := stats.MinMax(buf)
	if !ok || !(hi > lo) || gamma == 1 {
		return clone(buf)
	}
	inv := 1 / gamma
	rng := float64(hi - lo)
	out := make([]float32, len(buf))
	for i, v := range buf {
		n := (float64(v) - float64(lo)) / rng
		out[i] = float32(math.Pow(n, inv)*rng + float64(lo))
	}
	return out
}

// Levels describes an input clip range, a gamma and an output range, all on
// the normalized [0,1] scale.
type Levels struct {
	InBlack  float64
	InWhite  float64
	Gamma    float64
	OutBlack float64
	OutWhite float64
}

// DefaultLevels is the identity.
func DefaultLevels() Levels {
	return Levels{InBlack: 0, InWhite: 1, Gamma: 1, OutBlack: 0, OutWhite: 1}
}

func (l Levels) sanitize() Levels {
	l.InBlack = clamp64(l.InBlack, 0, 1)
	l.InWhite = clamp64(l.InWhite, 0, 1)
	if l.InWhite <= l.InBlack {
		l.InBlack, l.InWhite = 0, 1
	}
	l.Gamma = clamp64(l.Gamma, MinGamma, MaxGamma)
	l.OutBlack = clamp64(l.OutBlack, 0, 1)
	l.OutWhite = clamp64(l.OutWhite, 0, 1)
	return l
}

// ApplyLevels clips to the input range, applies gamma and remaps to the
// output range. The identity parameters return an unchanged copy.
func ApplyLevels(buf []float32, l Levels) []float32 {
	l = l.sanitize()
	if l == DefaultLevels() {
		return clone(buf)
	}
	lo, hi, ok := stats.MinMax(buf)
	if !ok || !(hi > lo) {
		return clone(buf)
	}
	rng := float64(hi - lo)
	inRange := l.InWhite - l.InBlack
	outRange := l.OutWhite - l.OutBlack
	inv := 1 / l.Gamma

	out := make([]float32, len(buf))
	for i, v := range buf {
		n := (float64(v) - float64(lo)) / rng
		n = clamp64((n-l.InBlack)/inRange, 0, 1)
		n = math.Pow(n, inv)
		n = l.OutBlack + n*outRange
		out[i] = float32(n*rng + float64(lo))
	}
	return out
}

// InvertPixels mirrors every pixel within the buffer's range: min+max-v.
func InvertPixels(buf []float32) []float32 {
	lo, hi, ok := stats.MinMax(buf)
	if !ok {
		return clone(buf)
	}
	out := make([]float32, len(buf))
	for i, v := range buf {
		out[i] = lo + hi - v
	}
	return out
}

// Binarize sets pixels above the absolute threshold t to the buffer max and
// all others to the buffer min. A uniform buffer comes back all-min.
func Binarize(buf []float32, t float32) []float32 {
	lo, hi, ok := stats.MinMax(buf)
	if !ok {
		return clone(buf)
	}
	out := make([]float32, len(buf))
	for i, v := range buf {
		if v > t && hi > lo {
			out[i] = hi
		} else {
			out[i] = lo
		}
	}
	return out
}

// RescalePixels maps the buffer range onto [0,1]. A uniform buffer becomes
// all 0.5.
func RescalePixels(buf []float32) []float32 {
	lo, hi, ok := stats.MinMax(buf)
	out := make([]float32, len(buf))
	if !ok || !(hi > lo) {
		for i, v := range buf {
			if isNaN(v) {
				out[i] = v
				continue
			}
			out[i] = 0.5
		}
		return out
	}
	scale := 1 / (hi - lo)
	for i, v := range buf {
		out[i] = (v - lo) * scale
	}
	return out
}

// CreateRangeMask selects pixels whose normalized value lies in [lo, hi].
// Selected pixels get weight 1; outside the range the weight falls linearly
// to 0 over a distance of fuzz. Bounds and fuzz are clamped to [0,1].
// A uniform buffer is treated as mid-gray (0.5). NaN pixels get 0.
func CreateRangeMask(buf []float32, lo, hi, fuzz float32) []float32 {
	lo, hi = clamp32(lo, 0, 1), clamp32(hi, 0, 1)
	if hi < lo {
		lo, hi = hi, lo
	}
	fuzz = clamp32(fuzz, 0, 1)
	norm := RescalePixels(buf)

	out := make([]float32, len(buf))
	for i, n := range norm {
		var dist float32
		switch {
		case isNaN(n):
			continue
		case n < lo:
			dist = lo - n
		case n > hi:
			dist = n - hi
		default:
			out[i] = 1
			continue
		}
		if fuzz > 0 {
			out[i] = max(0, 1-dist/fuzz)
		}
	}
	return out
}

func clone(buf []float32) []float32 {
	out := make([]float32, len(buf))
	copy(out, buf)
	return out
}

func clamp64(v, lo, hi float64) float64 {
	if v != v {
		return lo
	}
	return max(lo, min(v, hi))
}

func clamp32(v, lo, hi float32) float32 {
	if v != v {
		return lo
	}
	return max(lo, min(v, hi))
}

func isNaN(v float32) bool { return v != v }
