package filter

import (
	"math"

	"github.com/jpfielding/astroimg.go/pkg/pixel/stats"
)

const (
	equalizeBins = 65536
	claheBins    = 256
)

// CLAHE parameter bounds.
const (
	MinTileGrid  = 1
	MaxTileGrid  = 64
	MinClipLimit = 1
	MaxClipLimit = 1000
)

// HistogramEqualize remaps the image through its own cumulative distribution
// over a 65536-bin histogram of the normalized range. The result spans the
// input's original range. A degenerate buffer is returned unchanged.
func HistogramEqualize(buf []float32, w, h int) []float32 {
	lo, hi, ok := stats.MinMax(buf)
	if !ok || !(hi > lo) {
		return clone(buf)
	}
	scale := float64(equalizeBins-1) / float64(hi-lo)

	hist := make([]int, equalizeBins)
	total := 0
	for _, v := range buf {
		if v != v {
			continue
		}
		hist[int((float64(v)-float64(lo))*scale)]++
		total++
	}

	cdf := make([]float64, equalizeBins)
	cum := 0
	cdfMin := -1
	for i, c := range hist {
		cum += c
		if cdfMin < 0 && cum > 0 {
			cdfMin = cum
		}
		cdf[i] = float64(cum)
	}
	denom := float64(total - cdfMin)
	rng := float64(hi - lo)

	out := make([]float32, len(buf))
	for i, v := range buf {
		if v != v {
			out[i] = v
			continue
		}
		n := 1.0
		if denom > 0 {
			n = (cdf[int((float64(v)-float64(lo))*scale)] - float64(cdfMin)) / denom
		}
		out[i] = float32(n*rng + float64(lo))
	}
	return out
}

// CLAHE performs contrast-limited adaptive histogram equalization.
//
// The image is split into tileGrid x tileGrid tiles (fewer along an axis
// shorter than tileGrid pixels). Each tile gets a 256-bin histogram clipped at
// clipLimit*tileArea/256 with the excess spread evenly over all bins, and
// from it a CDF. Every pixel is then mapped by blending the CDFs of the four
// nearest tile centres bilinearly. tileGrid is clamped to
// [MinTileGrid, MaxTileGrid] and clipLimit to [MinClipLimit, MaxClipLimit].
func CLAHE(buf []float32, w, h, tileGrid int, clipLimit float64) []float32 {
	tileGrid = max(MinTileGrid, min(tileGrid, MaxTileGrid))
	clipLimit = clamp64(clipLimit, MinClipLimit, MaxClipLimit)
	lo, hi, ok := stats.MinMax(buf)
	if !ok || !(hi > lo) || w == 0 || h == 0 {
		return clone(buf)
	}

	gx, gy := min(tileGrid, w), min(tileGrid, h)
	rng := float64(hi - lo)
	bin := func(v float32) int {
		b := int((float64(v) - float64(lo)) / rng * claheBins)
		return max(0, min(b, claheBins-1))
	}

	cdfs := make([][]float64, gx*gy)
	hist := make([]float64, claheBins)
	for ty := 0; ty < gy; ty++ {
		y0, y1 := ty*h/gy, (ty+1)*h/gy
		for tx := 0; tx < gx; tx++ {
			x0, x1 := tx*w/gx, (tx+1)*w/gx
			clear(hist)
			area := 0
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					v := buf[y*w+x]
					if v != v {
						continue
					}
					hist[bin(v)]++
					area++
				}
			}
			cdfs[ty*gx+tx] = clippedCDF(hist, area, clipLimit)
		}
	}

	tileW := float64(w) / float64(gx)
	tileH := float64(h) / float64(gy)
	out := make([]float32, len(buf))
	for y := 0; y < h; y++ {
		ty0, ty1, fy := tileNeighbours((float64(y)+0.5)/tileH-0.5, gy)
		for x := 0; x < w; x++ {
			v := buf[y*w+x]
			if v != v {
				out[y*w+x] = v
				continue
			}
			tx0, tx1, fx := tileNeighbours((float64(x)+0.5)/tileW-0.5, gx)
			b := bin(v)
			top := cdfs[ty0*gx+tx0][b]*(1-fx) + cdfs[ty0*gx+tx1][b]*fx
			bottom := cdfs[ty1*gx+tx0][b]*(1-fx) + cdfs[ty1*gx+tx1][b]*fx
			n := top*(1-fy) + bottom*fy
			out[y*w+x] = float32(n*rng + float64(lo))
		}
	}
	return out
}

// clippedCDF clips hist at clipLimit*area/256, spreads the excess uniformly
// and returns the normalized cumulative distribution. hist is modified.
func clippedCDF(hist []float64, area int, clipLimit float64) []float64 {
	cdf := make([]float64, len(hist))
	if area == 0 {
		// an all-NaN tile maps linearly
		for i := range cdf {
			cdf[i] = float64(i+1) / float64(len(cdf))
		}
		return cdf
	}
	limit := max(1, clipLimit*float64(area)/claheBins)
	excess := 0.0
	for i, c := range hist {
		if c > limit {
			excess += c - limit
			hist[i] = limit
		}
	}
	share := excess / float64(len(hist))
	cum := 0.0
	for i, c := range hist {
		cum += c + share
		cdf[i] = cum / float64(area)
	}
	return cdf
}

// tileNeighbours maps a fractional tile coordinate onto the two tiles to
// blend and the weight of the second.
func tileNeighbours(g float64, n int) (int, int, float64) {
	if g <= 0 {
		return 0, 0, 0
	}
	t0 := int(math.Floor(g))
	if t0 >= n-1 {
		return n - 1, n - 1, 0
	}
	return t0, t0 + 1, g - float64(t0)
}

func clone(buf []float32) []float32 {
	out := make([]float32, len(buf))
	copy(out, buf)
	return out
}
