package color

import "github.com/jpfielding/astroimg.go/pkg/pixel/stats"

// Luminance percentiles bounding the white reference and the background.
const (
	whiteLowPct   = 5
	whiteHighPct  = 95
	backgroundPct = 25
)

// CalibrateColor white balances and neutralizes the background of an RGBA
// buffer.
//
// White balance is gray world over the pixels whose luma lies between the
// 5th and 95th percentile, which keeps clipped stars and the darkest sky out
// of the reference: each channel is scaled so its mean matches the mean of
// the three channel means. Background neutralization then takes the median
// of each channel over the darkest quartile and subtracts its excess over the
// smallest of the three, so the sky becomes gray without losing depth.
func CalibrateColor(px []uint8) []uint8 {
	n := len(px) / 4
	if n == 0 {
		return clone(px)
	}
	lum := make([]float32, n)
	for i := 0; i < n; i++ {
		lum[i] = float32(luma(float64(px[4*i]), float64(px[4*i+1]), float64(px[4*i+2])))
	}
	lo := stats.Percentile(lum, whiteLowPct)
	hi := stats.Percentile(lum, whiteHighPct)

	var sums [3]float64
	count := 0
	for i, l := range lum {
		if l < lo || l > hi {
			continue
		}
		for c := 0; c < 3; c++ {
			sums[c] += float64(px[4*i+c])
		}
		count++
	}
	gains := [3]float64{1, 1, 1}
	if count > 0 && sums[0] > 0 && sums[1] > 0 && sums[2] > 0 {
		target := (sums[0] + sums[1] + sums[2]) / 3
		for c := 0; c < 3; c++ {
			gains[c] = target / sums[c]
		}
	}
	balanced := AdjustColorBalance(px, gains[0], gains[1], gains[2])

	dark := stats.Percentile(lum, backgroundPct)
	var channels [3][]float32
	for i, l := range lum {
		if l > dark {
			continue
		}
		for c := 0; c < 3; c++ {
			channels[c] = append(channels[c], float32(balanced[4*i+c]))
		}
	}
	if len(channels[0]) == 0 {
		return balanced
	}
	var bg [3]float64
	for c := 0; c < 3; c++ {
		bg[c] = float64(stats.Median(channels[c]))
	}
	floor := min(bg[0], bg[1], bg[2])
	out := clone(balanced)
	for i := 0; i+3 < len(out); i += 4 {
		for c := 0; c < 3; c++ {
			out[i+c] = toByte(float64(balanced[i+c]) - (bg[c] - floor))
		}
	}
	return out
}
