package stats

import (
	"fmt"
	"math"

	mstats "github.com/montanaflynn/stats"
)

// Summary holds the global statistics of a buffer, NaN pixels excluded.
// It is a plain value; nothing caches it between calls.
type Summary struct {
	Min    float32
	Max    float32
	Mean   float32
	Median float32
	StdDev float32
	Count  int // number of non-NaN pixels
}

// Range returns Max-Min.
func (s Summary) Range() float32 {
	return s.Max - s.Min
}

// Degenerate reports whether the buffer has no usable dynamic range.
func (s Summary) Degenerate() bool {
	return s.Count == 0 || !(s.Max > s.Min)
}

func (s Summary) String() string {
	return fmt.Sprintf("n=%d min=%g max=%g mean=%g median=%g stddev=%g",
		s.Count, s.Min, s.Max, s.Mean, s.Median, s.StdDev)
}

// MinMax returns the smallest and largest non-NaN values of buf. ok is false
// when buf holds no such value.
func MinMax(buf []float32) (lo, hi float32, ok bool) {
	for _, v := range buf {
		if isNaN(v) {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, ok
}

// Mean returns the mean of the non-NaN values of buf, NaN when there are none.
func Mean(buf []float32) float32 {
	var sum float64
	n := 0
	for _, v := range buf {
		if !isNaN(v) {
			sum += float64(v)
			n++
		}
	}
	if n == 0 {
		return float32(math.NaN())
	}
	return float32(sum / float64(n))
}

// Summarize computes min, max, mean, median and population standard
// deviation over the non-NaN values of buf. An all-NaN or empty buffer
// yields a zero Summary with Count 0.
func Summarize(buf []float32) Summary {
	finite := Finite(buf)
	if len(finite) == 0 {
		return Summary{}
	}
	data := make(mstats.Float64Data, len(finite))
	for i, v := range finite {
		data[i] = float64(v)
	}
	mean, _ := mstats.Mean(data)
	std, _ := mstats.StandardDeviationPopulation(data)
	lo, _ := mstats.Min(data)
	hi, _ := mstats.Max(data)
	return Summary{
		Min:    float32(lo),
		Max:    float32(hi),
		Mean:   float32(mean),
		Median: medianInPlace(finite),
		StdDev: float32(std),
		Count:  len(finite),
	}
}

// ClipResult is the outcome of SigmaClip.
type ClipResult struct {
	Mean   float64
	Median float64
	StdDev float64
	N      int // samples surviving the final pass
	Passes int
}

// SigmaClip iteratively discards samples further than kappa standard
// deviations from the median. It stops after maxPasses passes, when a pass
// rejects nothing, or when fewer than minSamples would remain. samples is not
// modified. An empty input returns a zero ClipResult.
func SigmaClip(samples []float64, kappa float64, maxPasses, minSamples int) ClipResult {
	if len(samples) == 0 {
		return ClipResult{}
	}
	cur := make(mstats.Float64Data, len(samples))
	copy(cur, samples)
	next := make(mstats.Float64Data, 0, len(samples))

	var res ClipResult
	for res.Passes < maxPasses {
		res.Mean, _ = mstats.Mean(cur)
		res.Median, _ = mstats.Median(cur)
		res.StdDev, _ = mstats.StandardDeviationPopulation(cur)
		res.N = len(cur)
		res.Passes++
		if res.StdDev == 0 {
			break
		}

		lo, hi := res.Median-kappa*res.StdDev, res.Median+kappa*res.StdDev
		next = next[:0]
		for _, v := range cur {
			if v >= lo && v <= hi {
				next = append(next, v)
			}
		}
		if len(next) == len(cur) || len(next) < minSamples {
			break
		}
		cur, next = next, cur
	}
	return res
}
