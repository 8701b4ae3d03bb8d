package pixelmath

import (
	"math"

	"github.com/jpfielding/astroimg.go/pkg/pixel/stats"
)

const (
	// divFloor replaces denominators closer to zero than itself.
	divFloor = 1e-10
	// lnFloor is the smallest argument ln and log10 see.
	lnFloor = 1e-10
	// expCeil caps the exponent passed to exp.
	expCeil = 20
)

// Vars holds the values variables resolve to.
type Vars struct {
	T      float64 // $T, the current pixel
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// VarsOf computes the buffer-level variables of buf, ignoring NaN. T is left
// zero.
func VarsOf(buf []float32) Vars {
	s := stats.Summarize(buf)
	return Vars{
		Mean:   float64(s.Mean),
		Median: float64(s.Median),
		Min:    float64(s.Min),
		Max:    float64(s.Max),
	}
}

// Eval evaluates the expression.
func (e *Expr) Eval(v Vars) float64 {
	return eval(e.root, &v)
}

// Apply evaluates expression once per pixel of buf with $T bound to the
// pixel. An expression that does not parse leaves every pixel unchanged, as
// does a non-finite result for a finite pixel.
func Apply(buf []float32, expression string) []float32 {
	out := make([]float32, len(buf))
	copy(out, buf)
	e, err := Parse(expression)
	if err != nil {
		return out
	}
	vars := VarsOf(buf)
	for i, t := range buf {
		vars.T = float64(t)
		r := float32(e.Eval(vars))
		if isFinite(r) || !isFinite(t) {
			out[i] = r
		}
	}
	return out
}

func isFinite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}

func eval(n *node, v *Vars) float64 {
	switch n.kind {
	case nodeNumber:
		return n.num
	case nodeVar:
		switch n.slot {
		case varT:
			return v.T
		case varMean:
			return v.Mean
		case varMedian:
			return v.Median
		case varMin:
			return v.Min
		case varMax:
			return v.Max
		}
	case nodeNeg:
		return -eval(n.args[0], v)
	case nodeBinary:
		a, b := eval(n.args[0], v), eval(n.args[1], v)
		switch n.op {
		case '+':
			return a + b
		case '-':
			return a - b
		case '*':
			return a * b
		case '/':
			if math.Abs(b) < divFloor {
				b = math.Copysign(divFloor, b)
			}
			return a / b
		case '^':
			return math.Pow(a, b)
		}
	case nodeCall:
		return call(n, v)
	}
	return math.NaN()
}

func call(n *node, v *Vars) float64 {
	x := eval(n.args[0], v)
	var y float64
	if len(n.args) > 1 {
		y = eval(n.args[1], v)
	}
	switch n.fn {
	case "min":
		return math.Min(x, y)
	case "max":
		return math.Max(x, y)
	case "abs":
		return math.Abs(x)
	case "sqrt":
		return math.Sqrt(max(0, x))
	case "log":
		return math.Log1p(max(0, x))
	case "ln":
		return math.Log(max(lnFloor, x))
	case "log10":
		return math.Log10(max(lnFloor, x))
	case "exp":
		return math.Exp(min(x, expCeil))
	case "sin":
		return math.Sin(x)
	case "cos":
		return math.Cos(x)
	case "atan2":
		return math.Atan2(x, y)
	case "clamp":
		hi := 1.0
		if len(n.args) > 1 {
			hi = y
		}
		return max(0, min(x, hi))
	case "pow":
		return math.Pow(max(0, x), y)
	case "avg":
		return (x + y) / 2
	case "round":
		return math.Round(x)
	case "floor":
		return math.Floor(x)
	case "ceil":
		return math.Ceil(x)
	case "iif":
		if x > 0 {
			return y
		}
		return 0
	}
	return math.NaN()
}
