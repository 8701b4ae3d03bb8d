// Package color adjusts 8-bit RGBA buffers: flat row-major slices with four
// bytes (R,G,B,A) per pixel. Alpha always passes through unchanged and every
// function returns a new buffer.
package color

import (
	"fmt"
	"math"
	"strings"
)

// Rec. 601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Parameter bounds.
const (
	MinSaturation = -1
	MaxSaturation = 2
	MaxGain       = 10
)

// SCNRMethod selects the neutral reference green is limited to.
type SCNRMethod int

const (
	// AverageNeutral limits green to (R+B)/2.
	AverageNeutral SCNRMethod = iota
	// MaximumNeutral limits green to max(R,B).
	MaximumNeutral
)

func (m SCNRMethod) String() string {
	switch m {
	case AverageNeutral:
		return "average"
	case MaximumNeutral:
		return "maximum"
	}
	return fmt.Sprintf("SCNRMethod(%d)", int(m))
}

// ParseSCNRMethod accepts "average"/"avg" and "maximum"/"max"; empty means
// AverageNeutral.
func ParseSCNRMethod(name string) (SCNRMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "average", "avg":
		return AverageNeutral, nil
	case "maximum", "max":
		return MaximumNeutral, nil
	}
	return AverageNeutral, fmt.Errorf("unknown scnr method %q", name)
}

// ApplySCNR removes a green cast. Where G exceeds the neutral reference
// computed from R and B, G moves towards the reference by amount (clamped to
// [0,1]). R, B and A are never modified.
func ApplySCNR(px []uint8, method SCNRMethod, amount float64) []uint8 {
	out := clone(px)
	amount = max(0, min(amount, 1))
	if !(amount > 0) {
		return out
	}
	for i := 0; i+3 < len(out); i += 4 {
		r, g, b := float64(px[i]), float64(px[i+1]), float64(px[i+2])
		ref := (r + b) / 2
		if method == MaximumNeutral {
			ref = max(r, b)
		}
		if g > ref {
			out[i+1] = toByte(g + amount*(ref-g))
		}
	}
	return out
}

// AdjustSaturation scales each pixel's chroma around its luma gray point:
// c' = luma + (c-luma)*(1+amount). amount is clamped to
// [MinSaturation, MaxSaturation]; 0 is a no-op and -1 yields gray (R=G=B).
func AdjustSaturation(px []uint8, amount float64) []uint8 {
	out := clone(px)
	amount = max(MinSaturation, min(amount, MaxSaturation))
	if amount == 0 || amount != amount {
		return out
	}
	scale := 1 + amount
	for i := 0; i+3 < len(out); i += 4 {
		r, g, b := float64(px[i]), float64(px[i+1]), float64(px[i+2])
		y := luma(r, g, b)
		out[i] = toByte(y + (r-y)*scale)
		out[i+1] = toByte(y + (g-y)*scale)
		out[i+2] = toByte(y + (b-y)*scale)
	}
	return out
}

// AdjustColorBalance multiplies each channel by its gain, clamped to
// [0, MaxGain], saturating at 255.
func AdjustColorBalance(px []uint8, rGain, gGain, bGain float64) []uint8 {
	gains := [3]float64{clampGain(rGain), clampGain(gGain), clampGain(bGain)}
	out := clone(px)
	if gains == [3]float64{1, 1, 1} {
		return out
	}
	for i := 0; i+3 < len(out); i += 4 {
		for c, gain := range gains {
			out[i+c] = toByte(float64(px[i+c]) * gain)
		}
	}
	return out
}

func clampGain(g float64) float64 {
	if g != g {
		return 1
	}
	return max(0, min(g, MaxGain))
}

func luma(r, g, b float64) float64 {
	return lumaR*r + lumaG*g + lumaB*b
}

func toByte(v float64) uint8 {
	return uint8(max(0, min(math.Round(v), 255)))
}

func clone(px []uint8) []uint8 {
	out := make([]uint8, len(px))
	copy(out, px)
	return out
}
