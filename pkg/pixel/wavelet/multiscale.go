package wavelet

import "math"

// Parameter bounds.
const (
	MaxAmount    = 5
	MaxThreshold = 10

	// median(|d|)/0.6745 estimates the noise sigma of a detail layer
	madNormal = 0.6745
)

// HDRMultiscale compresses the dynamic range of fine structure. The image is
// normalized to [0,1] and decomposed into layers detail layers; every
// coefficient w of a layer is replaced by w*(m/(m+|w|))^amount where m is the
// median |w| of that layer. Residual and compressed details are summed and
// mapped back to the original range. amount 0 is (near) identity; amount is
// clamped to [0, MaxAmount] and layers to [MinLayers, MaxLayers].
func HDRMultiscale(buf []float32, w, h, layers int, amount float64) []float32 {
	amount = max(0, min(amount, MaxAmount))
	if amount != amount {
		amount = 0
	}
	norm, back, ok := normalized(buf)
	if !ok {
		return clone(buf)
	}
	details, residual := Decompose(norm, w, h, layers)
	for _, d := range details {
		m := float64(medianAbs(d))
		if !(m > 0) {
			continue
		}
		for i, v := range d {
			a := math.Abs(float64(v))
			d[i] = float32(float64(v) * math.Pow(m/(m+a), amount))
		}
	}
	return back(Reconstruct(details, residual))
}

// Denoise soft-thresholds every detail layer at threshold times that
// layer's robust noise estimate median(|d|)/0.6745: coefficients within the
// threshold become zero and the rest shrink towards zero by it. threshold is
// clamped to [0, MaxThreshold]; 0 returns the input unchanged.
func Denoise(buf []float32, w, h, layers int, threshold float64) []float32 {
	threshold = max(0, min(threshold, MaxThreshold))
	if threshold != threshold || threshold == 0 {
		return clone(buf)
	}
	norm, back, ok := normalized(buf)
	if !ok {
		return clone(buf)
	}
	details, residual := Decompose(norm, w, h, layers)
	for _, d := range details {
		sigma := float64(medianAbs(d)) / madNormal
		thr := float32(threshold * sigma)
		if !(thr > 0) {
			continue
		}
		for i, v := range d {
			switch {
			case v > thr:
				d[i] = v - thr
			case v < -thr:
				d[i] = v + thr
			default:
				d[i] = 0
			}
		}
	}
	return back(Reconstruct(details, residual))
}
