// Package star finds stars in grayscale images and builds soft star masks
// used to protect or isolate stars during processing.
package star

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/jpfielding/astroimg.go/pkg/pixel/stats"
)

// FWHMPerSigma converts a Gaussian sigma into its full width at half maximum.
const FWHMPerSigma = 2.3548

// A Star as found by detection.
type Star struct {
	X    float64 // centroid, pixel coordinates
	Y    float64
	FWHM float64 // full width at half maximum, pixels
	Peak float32 // brightest pixel value
	Flux float64 // background-subtracted sum within the detection radius
}

// PrintStars writes the given stars as CSV.
func PrintStars(w io.Writer, stars []Star) {
	fmt.Fprintln(w, "X,Y,FWHM,Peak,Flux")
	for _, s := range stars {
		fmt.Fprintf(w, "%g,%g,%g,%g,%g\n", s.X, s.Y, s.FWHM, s.Peak, s.Flux)
	}
}

// Profile tunes a detection pass.
type Profile struct {
	Sigma   float64 // detection threshold above background, in noise sigmas
	Radius  int     // local-maximum and centroid window radius
	MinArea int     // pixels above half the threshold around the peak
	MinFWHM float64
	MaxFWHM float64
	// NoiseFloor, as a fraction of the image range, stands in for the noise
	// estimate when the MAD is zero. Zero disables detection on such images.
	NoiseFloor float64
}

var (
	// DefaultProfile rejects hot pixels and extended structure.
	DefaultProfile = Profile{Sigma: 5, Radius: 4, MinArea: 3, MinFWHM: 1, MaxFWHM: 20}
	// PermissiveProfile accepts fainter, smaller and noise-free stars.
	PermissiveProfile = Profile{Sigma: 3, Radius: 3, MinArea: 1, MinFWHM: 0.5, MaxFWHM: 40, NoiseFloor: 1e-3}
)

// Detect runs the default profile, then the permissive profile, then a plain
// local-maximum peak picker, returning the first non-empty result. Stars are
// sorted by descending peak.
func Detect(buf []float32, w, h int) []Star {
	if stars := DetectWith(buf, w, h, DefaultProfile); len(stars) > 0 {
		return stars
	}
	if stars := DetectWith(buf, w, h, PermissiveProfile); len(stars) > 0 {
		return stars
	}
	return PickPeaks(buf, w, h)
}

// DetectWith runs a single detection pass: pixels above
// median + Sigma*noise that are the maximum of their window become
// candidates, are centroided, measured and filtered by area and FWHM.
func DetectWith(buf []float32, w, h int, p Profile) []Star {
	if w*h == 0 || len(buf) < w*h {
		return nil
	}
	p.Radius = max(1, p.Radius)
	bg, noise, ok := backgroundNoise(buf, p.NoiseFloor)
	if !ok {
		return nil
	}
	threshold := bg + float32(p.Sigma)*noise
	half := bg + float32(p.Sigma)*noise/2

	var stars []Star
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := buf[y*w+x]
			if !(v > threshold) || !isLocalMax(buf, w, h, x, y, p.Radius) {
				continue
			}
			if countAbove(buf, w, h, x, y, 1, half) < p.MinArea {
				continue
			}
			s := measure(buf, w, h, x, y, p.Radius, bg)
			if s.FWHM < p.MinFWHM || s.FWHM > p.MaxFWHM {
				continue
			}
			stars = append(stars, s)
		}
	}
	sortByPeak(stars)
	return stars
}

// PickPeaks is the last-resort detector: strict 3x3 local maxima above
// median + 3*sigma (sigma from the MAD), or above the midpoint between
// median and maximum when the MAD is zero. FWHM comes from the area above
// half the peak.
func PickPeaks(buf []float32, w, h int) []Star {
	if w*h == 0 || len(buf) < w*h {
		return nil
	}
	lo, hi, ok := stats.MinMax(buf)
	if !ok || !(hi > lo) {
		return nil
	}
	median, mad := stats.MAD(buf)
	threshold := median + 3*mad*stats.MADToSigma
	if !(mad > 0) {
		threshold = median + (hi-median)/2
	}

	var stars []Star
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := buf[y*w+x]
			if !(v > threshold) || !isLocalMax(buf, w, h, x, y, 1) {
				continue
			}
			halfMax := median + (v-median)/2
			area := countAbove(buf, w, h, x, y, 5, halfMax)
			stars = append(stars, Star{
				X:    float64(x),
				Y:    float64(y),
				FWHM: max(1, 2*math.Sqrt(float64(area)/math.Pi)),
				Peak: v,
				Flux: float64(v - median),
			})
		}
	}
	sortByPeak(stars)
	return stars
}

// MedianFWHM returns the median FWHM of stars, or 0 without stars.
func MedianFWHM(stars []Star) float64 {
	if len(stars) == 0 {
		return 0
	}
	fw := make([]float32, len(stars))
	for i, s := range stars {
		fw[i] = float32(s.FWHM)
	}
	return float64(stats.Median(fw))
}

func backgroundNoise(buf []float32, floor float64) (bg, noise float32, ok bool) {
	median, mad := stats.MAD(buf)
	if median != median {
		return 0, 0, false
	}
	noise = mad * stats.MADToSigma
	if noise > 0 {
		return median, noise, true
	}
	lo, hi, _ := stats.MinMax(buf)
	noise = float32(floor) * (hi - lo)
	return median, noise, noise > 0
}

// isLocalMax reports whether (x,y) holds the maximum of its window. Ties are
// broken towards the first pixel in scan order so a flat top yields one star.
func isLocalMax(buf []float32, w, h, x, y, r int) bool {
	v := buf[y*w+x]
	for dy := -r; dy <= r; dy++ {
		yy := y + dy
		if yy < 0 || yy >= h {
			continue
		}
		for dx := -r; dx <= r; dx++ {
			xx := x + dx
			if xx < 0 || xx >= w || (dx == 0 && dy == 0) {
				continue
			}
			n := buf[yy*w+xx]
			if n > v || (n == v && (dy < 0 || (dy == 0 && dx < 0))) {
				return false
			}
		}
	}
	return true
}

func countAbove(buf []float32, w, h, x, y, r int, level float32) int {
	n := 0
	for yy := max(0, y-r); yy <= min(h-1, y+r); yy++ {
		for xx := max(0, x-r); xx <= min(w-1, x+r); xx++ {
			if buf[yy*w+xx] > level {
				n++
			}
		}
	}
	return n
}

// measure centroids a candidate and estimates its FWHM from the second
// moment of the background-subtracted flux in the window.
func measure(buf []float32, w, h, x, y, r int, bg float32) Star {
	var sum, sx, sy float64
	for yy := max(0, y-r); yy <= min(h-1, y+r); yy++ {
		for xx := max(0, x-r); xx <= min(w-1, x+r); xx++ {
			v := float64(buf[yy*w+xx] - bg)
			if !(v > 0) {
				continue
			}
			sum += v
			sx += v * float64(xx)
			sy += v * float64(yy)
		}
	}
	s := Star{X: float64(x), Y: float64(y), Peak: buf[y*w+x], Flux: sum}
	if sum <= 0 {
		return s
	}
	s.X, s.Y = sx/sum, sy/sum

	var m2 float64
	for yy := max(0, y-r); yy <= min(h-1, y+r); yy++ {
		for xx := max(0, x-r); xx <= min(w-1, x+r); xx++ {
			v := float64(buf[yy*w+xx] - bg)
			if !(v > 0) {
				continue
			}
			dx, dy := float64(xx)-s.X, float64(yy)-s.Y
			m2 += v * (dx*dx + dy*dy)
		}
	}
	// for a 2D Gaussian the radial second moment is 2*sigma^2
	s.FWHM = math.Sqrt(m2/(2*sum)) * FWHMPerSigma
	return s
}

func sortByPeak(stars []Star) {
	sort.SliceStable(stars, func(i, j int) bool { return stars[i].Peak > stars[j].Peak })
}
