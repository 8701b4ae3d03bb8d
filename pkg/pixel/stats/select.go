package stats

import "math"

// Select returns the k-th smallest (0-based) value of data using quickselect.
// data is partially reordered in place; callers that need the original order
// must pass a copy. k is clamped to the valid index range. data must not
// contain NaN. An empty slice yields NaN.
func Select(data []float32, k int) float32 {
	n := len(data)
	if n == 0 {
		return float32(math.NaN())
	}
	k = max(0, min(k, n-1))

	lo, hi := 0, n-1
	for lo < hi {
		// median of three keeps sorted and reversed input linear
		mid := lo + (hi-lo)/2
		if data[mid] < data[lo] {
			data[mid], data[lo] = data[lo], data[mid]
		}
		if data[hi] < data[lo] {
			data[hi], data[lo] = data[lo], data[hi]
		}
		if data[hi] < data[mid] {
			data[hi], data[mid] = data[mid], data[hi]
		}
		pivot := data[mid]

		i, j := lo, hi
		for i <= j {
			for data[i] < pivot {
				i++
			}
			for data[j] > pivot {
				j--
			}
			if i <= j {
				data[i], data[j] = data[j], data[i]
				i++
				j--
			}
		}

		switch {
		case k <= j:
			hi = j
		case k >= i:
			lo = i
		default:
			return data[k]
		}
	}
	return data[k]
}

// medianInPlace returns the median of data, reordering it. Even lengths
// average the two central values.
func medianInPlace(data []float32) float32 {
	n := len(data)
	if n == 0 {
		return float32(math.NaN())
	}
	upper := Select(data, n/2)
	if n%2 == 1 {
		return upper
	}
	// after selection everything left of n/2 is <= upper
	lower := data[0]
	for _, v := range data[1 : n/2] {
		if v > lower {
			lower = v
		}
	}
	return (lower + upper) / 2
}

// Finite copies the non-NaN values of buf into a new slice.
func Finite(buf []float32) []float32 {
	out := make([]float32, 0, len(buf))
	for _, v := range buf {
		if !isNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Median returns the median of the non-NaN values of buf. buf is not modified.
func Median(buf []float32) float32 {
	return medianInPlace(Finite(buf))
}

// Percentile returns the nearest-rank p-th percentile (p in [0,100]) of the
// non-NaN values of buf.
func Percentile(buf []float32, p float64) float32 {
	data := Finite(buf)
	if len(data) == 0 {
		return float32(math.NaN())
	}
	p = max(0, min(p, 100))
	k := int(math.Round(p / 100 * float64(len(data)-1)))
	return Select(data, k)
}

// MADToSigma converts a median absolute deviation of normally distributed
// data into a standard deviation estimate.
const MADToSigma = 1.4826

// MAD returns the median and the median absolute deviation of the non-NaN
// values of buf.
func MAD(buf []float32) (median, mad float32) {
	data := Finite(buf)
	if len(data) == 0 {
		nan := float32(math.NaN())
		return nan, nan
	}
	median = medianInPlace(data)
	for i, v := range data {
		data[i] = float32(math.Abs(float64(v - median)))
	}
	return median, medianInPlace(data)
}

func isNaN(v float32) bool { return v != v }
