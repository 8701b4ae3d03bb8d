package tone

import (
	"math"
	"sort"

	"github.com/jpfielding/astroimg.go/pkg/pixel/stats"
	"gonum.org/v1/gonum/interp"
)

// Point is a tone-curve control point on the normalized [0,1] scale.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

const curveLUTSize = 4096

// ApplyCurves maps the buffer through a tone curve defined by control points.
// The curve is an Akima sub-spline through the points (linear for two
// points, constant for one, identity for none), baked into a 4096-entry
// table. Outside the first and last control point the curve holds the
// endpoint values. Points need not be sorted; they are sorted on a copy and
// duplicate X values keep the last Y.
func ApplyCurves(buf []float32, points []Point) []float32 {
	if len(points) == 0 {
		return clone(buf)
	}
	lo, hi, ok := stats.MinMax(buf)
	if !ok || !(hi > lo) {
		return clone(buf)
	}
	lut := CurveLUT(points, curveLUTSize)

	rng := float64(hi - lo)
	out := make([]float32, len(buf))
	for i, v := range buf {
		if isNaN(v) {
			out[i] = v
			continue
		}
		n := (float64(v) - float64(lo)) / rng
		out[i] = float32(lookup(lut, n)*rng + float64(lo))
	}
	return out
}

// CurveLUT evaluates the interpolated curve at size evenly spaced positions
// over [0,1]. Values are clamped to [0,1].
func CurveLUT(points []Point, size int) []float64 {
	size = max(size, 2)
	pts := normalizePoints(points)
	lut := make([]float64, size)
	curve := fitCurve(pts)
	for i := range lut {
		x := float64(i) / float64(size-1)
		lut[i] = clamp64(curve(x), 0, 1)
	}
	return lut
}

// fitCurve returns the interpolant through pts, which must be sorted with
// distinct X. Outside the first and last X it holds the endpoint values.
func fitCurve(pts []Point) func(float64) float64 {
	switch len(pts) {
	case 0:
		return func(x float64) float64 { return x }
	case 1:
		y := pts[0].Y
		return func(float64) float64 { return y }
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	var fp interp.FittablePredictor = &interp.PiecewiseLinear{}
	if len(pts) >= 3 {
		fp = &interp.AkimaSpline{}
	}
	if err := fp.Fit(xs, ys); err != nil {
		lin := &interp.PiecewiseLinear{}
		if lin.Fit(xs, ys) != nil {
			return func(x float64) float64 { return x }
		}
		fp = lin
	}
	first, last := pts[0], pts[len(pts)-1]
	return func(x float64) float64 {
		switch {
		case x <= first.X:
			return first.Y
		case x >= last.X:
			return last.Y
		}
		return fp.Predict(x)
	}
}

func normalizePoints(points []Point) []Point {
	pts := make([]Point, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			continue
		}
		pts = append(pts, Point{X: clamp64(p.X, 0, 1), Y: clamp64(p.Y, 0, 1)})
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].X < pts[j].X })

	uniq := pts[:0]
	for _, p := range pts {
		if n := len(uniq); n > 0 && uniq[n-1].X == p.X {
			uniq[n-1] = p
			continue
		}
		uniq = append(uniq, p)
	}
	return uniq
}
