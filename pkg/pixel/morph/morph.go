// Package morph implements grayscale morphology with a disk-shaped
// structuring element.
package morph

import "fmt"

// Radius bounds for Apply.
const (
	MinRadius = 1
	MaxRadius = 10
)

// Op selects a morphological operation.
type Op int

const (
	OpErode Op = iota
	OpDilate
	OpOpen
	OpClose
)

func (o Op) String() string {
	switch o {
	case OpErode:
		return "erode"
	case OpDilate:
		return "dilate"
	case OpOpen:
		return "open"
	case OpClose:
		return "close"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// ParseOp maps a name produced by Op.String back to the Op.
func ParseOp(name string) (Op, error) {
	for _, o := range []Op{OpErode, OpDilate, OpOpen, OpClose} {
		if o.String() == name {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown morphological op %q", name)
}

// offset is a relative position inside the structuring element.
type offset struct{ dx, dy int }

// disk returns the offsets of a disk of the given radius.
func disk(radius int) []offset {
	r2 := radius * radius
	var offs []offset
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= r2 {
				offs = append(offs, offset{dx, dy})
			}
		}
	}
	return offs
}

// Erode replaces every pixel by the minimum over a disk of the given
// radius, coordinates clamped to the image. radius < 1 returns a copy.
func Erode(buf []float32, w, h, radius int) []float32 {
	return rank(buf, w, h, radius, func(a, b float32) bool { return b < a })
}

// Dilate replaces every pixel by the maximum over a disk of the given
// radius, coordinates clamped to the image. radius < 1 returns a copy.
func Dilate(buf []float32, w, h, radius int) []float32 {
	return rank(buf, w, h, radius, func(a, b float32) bool { return b > a })
}

// rank keeps, for every pixel, the neighbour for which better(cur, cand)
// holds. NaN neighbours never win.
func rank(buf []float32, w, h, radius int, better func(cur, cand float32) bool) []float32 {
	out := make([]float32, len(buf))
	if radius < 1 {
		copy(out, buf)
		return out
	}
	offs := disk(radius)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cur := buf[y*w+x]
			for _, o := range offs {
				yy := max(0, min(y+o.dy, h-1))
				xx := max(0, min(x+o.dx, w-1))
				v := buf[yy*w+xx]
				if v != v {
					continue
				}
				if cur != cur || better(cur, v) {
					cur = v
				}
			}
			out[y*w+x] = cur
		}
	}
	return out
}

// Apply runs op with radius clamped to [MinRadius, MaxRadius]. OpOpen is
// dilate(erode(x)) and OpClose is erode(dilate(x)). Unknown ops return a copy.
func Apply(buf []float32, w, h int, op Op, radius int) []float32 {
	radius = max(MinRadius, min(radius, MaxRadius))
	switch op {
	case OpErode:
		return Erode(buf, w, h, radius)
	case OpDilate:
		return Dilate(buf, w, h, radius)
	case OpOpen:
		return Dilate(Erode(buf, w, h, radius), w, h, radius)
	case OpClose:
		return Erode(Dilate(buf, w, h, radius), w, h, radius)
	}
	out := make([]float32, len(buf))
	copy(out, buf)
	return out
}
