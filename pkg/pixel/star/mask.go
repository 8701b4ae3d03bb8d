package star

import (
	"math"

	"github.com/jpfielding/astroimg.go/pkg/pixel/morph"
	"github.com/jpfielding/astroimg.go/pkg/pixel/stats"
)

// Mask scale bounds.
const (
	MinScale = 0.1
	MaxScale = 10
)

// GenerateMask detects stars and stamps a Gaussian footprint of
// sigma = FWHM*scale/2.3548 for each one, keeping the maximum where
// footprints overlap. Values are in [0,1]; no stars yields an all-zero mask.
// scale is clamped to [MinScale, MaxScale].
func GenerateMask(buf []float32, w, h int, scale float64) []float32 {
	return MaskFromStars(Detect(buf, w, h), w, h, scale)
}

// MaskFromStars renders the footprints of the given stars.
func MaskFromStars(stars []Star, w, h int, scale float64) []float32 {
	scale = max(MinScale, min(scale, MaxScale))
	if scale != scale {
		scale = 1
	}
	mask := make([]float32, w*h)
	for _, s := range stars {
		sigma := max(s.FWHM*scale/FWHMPerSigma, 0.3)
		r := int(math.Ceil(3 * sigma))
		cx, cy := int(math.Round(s.X)), int(math.Round(s.Y))
		inv := 1 / (2 * sigma * sigma)
		for y := max(0, cy-r); y <= min(h-1, cy+r); y++ {
			dy := float64(y) - s.Y
			for x := max(0, cx-r); x <= min(w-1, cx+r); x++ {
				dx := float64(x) - s.X
				v := float32(math.Exp(-(dx*dx + dy*dy) * inv))
				if v > mask[y*w+x] {
					mask[y*w+x] = v
				}
			}
		}
	}
	return mask
}

// ApplyWithMask blends processed into original by mask:
// original*(1-m) + processed*m, with m replaced by 1-m when invert is set.
// Mask values are clamped to [0,1]. When lengths differ the blend covers the
// shortest of the three and the rest of original is copied through.
func ApplyWithMask(original, processed, mask []float32, invert bool) []float32 {
	out := make([]float32, len(original))
	copy(out, original)
	n := min(len(original), len(processed), len(mask))
	for i := 0; i < n; i++ {
		m := mask[i]
		if m != m {
			m = 0
		}
		m = max(0, min(m, 1))
		if invert {
			m = 1 - m
		}
		out[i] = original[i]*(1-m) + processed[i]*m
	}
	return out
}

// ApplyStarMask blends the image against its median using a star mask.
// With invert false the stars are isolated (sky goes to the median); with
// invert true the stars are removed (stars go to the median).
func ApplyStarMask(buf []float32, w, h int, scale float64, invert bool) []float32 {
	mask := GenerateMask(buf, w, h, scale)
	median := stats.Median(buf)
	flat := make([]float32, len(buf))
	for i := range flat {
		flat[i] = median
	}
	if invert {
		return ApplyWithMask(buf, flat, mask, false)
	}
	return ApplyWithMask(buf, flat, mask, true)
}

// Reduce shrinks stars by blending an eroded copy of the image into the
// star regions, weighted by mask*amount. amount is clamped to [0,1]; the
// erosion radius follows the median star FWHM.
func Reduce(buf []float32, w, h int, amount, scale float64) []float32 {
	amount = max(0, min(amount, 1))
	if amount != amount {
		amount = 0
	}
	stars := Detect(buf, w, h)
	if len(stars) == 0 || amount == 0 {
		out := make([]float32, len(buf))
		copy(out, buf)
		return out
	}
	radius := int(math.Round(MedianFWHM(stars) / 2))
	eroded := morph.Apply(buf, w, h, morph.OpErode, radius)

	mask := MaskFromStars(stars, w, h, scale)
	for i := range mask {
		mask[i] *= float32(amount)
	}
	return ApplyWithMask(buf, eroded, mask, false)
}
