// Package geometry rearranges grayscale pixel buffers: quarter turns, flips,
// crops and arbitrary-angle rotation with bilinear resampling.
//
// Every function returns a freshly allocated buffer together with its
// dimensions; inputs are never modified.
package geometry

import "math"

// Rotate90CW rotates the image a quarter turn clockwise. The result is h
// pixels wide and w pixels high.
func Rotate90CW(buf []float32, w, h int) ([]float32, int, int) {
	out := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// source (x,y) lands on column h-1-y, row x
			out[x*h+(h-1-y)] = buf[y*w+x]
		}
	}
	return out, h, w
}

// Rotate90CCW rotates the image a quarter turn counter-clockwise. The result
// is h pixels wide and w pixels high.
func Rotate90CCW(buf []float32, w, h int) ([]float32, int, int) {
	out := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[(w-1-x)*h+y] = buf[y*w+x]
		}
	}
	return out, h, w
}

// Rotate180 turns the image upside down, which reverses the linear index.
func Rotate180(buf []float32, w, h int) ([]float32, int, int) {
	n := w * h
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = buf[i]
	}
	return out, w, h
}

// FlipHorizontal mirrors every row.
func FlipHorizontal(buf []float32, w, h int) []float32 {
	out := make([]float32, w*h)
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			out[row+w-1-x] = buf[row+x]
		}
	}
	return out
}

// FlipVertical mirrors every column.
func FlipVertical(buf []float32, w, h int) []float32 {
	out := make([]float32, w*h)
	for y := 0; y < h; y++ {
		copy(out[(h-1-y)*w:(h-y)*w], buf[y*w:(y+1)*w])
	}
	return out
}

// Crop extracts the cw x ch rectangle whose top-left corner is (x, y).
// The rectangle is intersected with the image first, so out-of-range
// requests shrink rather than read outside the buffer. An empty
// intersection yields an empty buffer of size 0x0.
func Crop(buf []float32, w, h, x, y, cw, ch int) ([]float32, int, int) {
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+cw, w), min(y+ch, h)
	if x1 <= x0 || y1 <= y0 {
		return []float32{}, 0, 0
	}
	nw, nh := x1-x0, y1-y0
	out := make([]float32, nw*nh)
	for row := 0; row < nh; row++ {
		src := (y0+row)*w + x0
		copy(out[row*nw:(row+1)*nw], buf[src:src+nw])
	}
	return out, nw, nh
}

// RotateArbitrary rotates the image clockwise by angleDeg degrees about its
// centre. The output is sized to the bounding box of the rotated content.
// Destination pixels are inverse-mapped into the source and sampled
// bilinearly; pixels that map outside the source stay zero.
func RotateArbitrary(buf []float32, w, h int, angleDeg float64) ([]float32, int, int) {
	if w == 0 || h == 0 {
		return []float32{}, 0, 0
	}
	rad := angleDeg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	// snap near-zero terms so quarter turns keep exact dimensions
	if math.Abs(sin) < 1e-12 {
		sin = 0
	}
	if math.Abs(cos) < 1e-12 {
		cos = 0
	}

	nw := int(math.Ceil(math.Abs(float64(w)*cos) + math.Abs(float64(h)*sin) - 1e-9))
	nh := int(math.Ceil(math.Abs(float64(w)*sin) + math.Abs(float64(h)*cos) - 1e-9))
	nw, nh = max(nw, 1), max(nh, 1)
	out := make([]float32, nw*nh)

	scx, scy := float64(w-1)/2, float64(h-1)/2
	dcx, dcy := float64(nw-1)/2, float64(nh-1)/2

	for dy := 0; dy < nh; dy++ {
		for dx := 0; dx < nw; dx++ {
			rx, ry := float64(dx)-dcx, float64(dy)-dcy
			// inverse rotation
			sx := rx*cos + ry*sin + scx
			sy := -rx*sin + ry*cos + scy
			if sx < -1e-9 || sy < -1e-9 || sx > float64(w-1)+1e-9 || sy > float64(h-1)+1e-9 {
				continue
			}
			out[dy*nw+dx] = bilinear(buf, w, h, sx, sy)
		}
	}
	return out, nw, nh
}

// bilinear samples buf at a fractional position inside the image.
func bilinear(buf []float32, w, h int, sx, sy float64) float32 {
	x0 := int(math.Floor(sx))
	y0 := int(math.Floor(sy))
	x0 = max(0, min(x0, w-1))
	y0 = max(0, min(y0, h-1))
	x1 := min(x0+1, w-1)
	y1 := min(y0+1, h-1)
	fx := float32(max(0, min(sx-float64(x0), 1)))
	fy := float32(max(0, min(sy-float64(y0), 1)))

	top := buf[y0*w+x0]*(1-fx) + buf[y0*w+x1]*fx
	bottom := buf[y1*w+x0]*(1-fx) + buf[y1*w+x1]*fx
	return top*(1-fy) + bottom*fy
}
