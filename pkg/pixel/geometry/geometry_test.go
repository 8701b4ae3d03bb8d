package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(w, h int) []float32 {
	buf := make([]float32, w*h)
	for i := range buf {
		buf[i] = float32(i + 1)
	}
	return buf
}

func TestRotate90_KnownValues(t *testing.T) {
	buf := []float32{1, 2, 3, 4, 5, 6} // 3x2

	cw, w, h := Rotate90CW(buf, 3, 2)
	assert.Equal(t, 2, w)
	assert.Equal(t, 3, h)
	assert.Equal(t, []float32{4, 1, 5, 2, 6, 3}, cw)

	ccw, w, h := Rotate90CCW(buf, 3, 2)
	assert.Equal(t, 2, w)
	assert.Equal(t, 3, h)
	assert.Equal(t, []float32{3, 6, 2, 5, 1, 4}, ccw)

	back, w, h := Rotate90CCW(cw, 2, 3)
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, buf, back)
}

func TestRotate90_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"1x1", 1, 1},
		{"1x7", 1, 7},
		{"7x1", 7, 1},
		{"4x4", 4, 4},
		{"5x3", 5, 3},
		{"16x9", 16, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := ramp(tt.w, tt.h)
			r, w, h := Rotate90CW(buf, tt.w, tt.h)
			back, w, h := Rotate90CCW(r, w, h)
			assert.Equal(t, tt.w, w)
			assert.Equal(t, tt.h, h)
			assert.Equal(t, buf, back)

			// four clockwise turns are the identity as well
			cur, cw, ch := buf, tt.w, tt.h
			for k := 0; k < 4; k++ {
				cur, cw, ch = Rotate90CW(cur, cw, ch)
			}
			assert.Equal(t, buf, cur)
		})
	}
}

func TestRotate180(t *testing.T) {
	buf := ramp(3, 2)
	out, w, h := Rotate180(buf, 3, 2)
	assert.Equal(t, []float32{6, 5, 4, 3, 2, 1}, out)
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)

	twice, _, _ := Rotate90CW(buf, 3, 2)
	twice, _, _ = Rotate90CW(twice, 2, 3)
	assert.Equal(t, out, twice)
}

func TestFlips(t *testing.T) {
	buf := ramp(3, 2)
	assert.Equal(t, []float32{3, 2, 1, 6, 5, 4}, FlipHorizontal(buf, 3, 2))
	assert.Equal(t, []float32{4, 5, 6, 1, 2, 3}, FlipVertical(buf, 3, 2))
	assert.Equal(t, buf, FlipHorizontal(FlipHorizontal(buf, 3, 2), 3, 2))
	assert.Equal(t, buf, FlipVertical(FlipVertical(buf, 3, 2), 3, 2))
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, buf, "input untouched")
}

func TestCrop(t *testing.T) {
	buf := ramp(4, 4)
	tests := []struct {
		name         string
		x, y, cw, ch int
		want         []float32
		wantW, wantH int
	}{
		{"inner", 1, 1, 2, 2, []float32{6, 7, 10, 11}, 2, 2},
		{"full", 0, 0, 4, 4, buf, 4, 4},
		{"overhang right bottom", 3, 2, 5, 5, []float32{12, 16}, 1, 2},
		{"negative origin", -2, -1, 3, 2, []float32{1}, 1, 1},
		{"outside", 10, 10, 2, 2, []float32{}, 0, 0},
		{"zero area", 1, 1, 0, 3, []float32{}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, w, h := Crop(buf, 4, 4, tt.x, tt.y, tt.cw, tt.ch)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestRotateArbitrary_Zero(t *testing.T) {
	buf := ramp(5, 3)
	out, w, h := RotateArbitrary(buf, 5, 3, 0)
	require.Equal(t, 5, w)
	require.Equal(t, 3, h)
	assert.Equal(t, buf, out)
}

func TestRotateArbitrary_QuarterTurnMatchesRotate90(t *testing.T) {
	buf := ramp(3, 2)
	out, w, h := RotateArbitrary(buf, 3, 2, 90)
	want, ww, wh := Rotate90CW(buf, 3, 2)
	require.Equal(t, ww, w)
	require.Equal(t, wh, h)
	assert.InDeltaSlice(t, want, out, 1e-4)
}

func TestRotateArbitrary_GrowsBoundingBox(t *testing.T) {
	buf := make([]float32, 20*10)
	for i := range buf {
		buf[i] = 1
	}
	out, w, h := RotateArbitrary(buf, 20, 10, 45)
	assert.Equal(t, 22, w)
	assert.Equal(t, 22, h)
	require.Len(t, out, w*h)

	// corners of the bounding box fall outside the source and stay zero
	assert.Equal(t, float32(0), out[0])
	assert.Equal(t, float32(0), out[w*h-1])
	// the centre is sampled from the uniform source
	assert.InDelta(t, 1, out[(h/2)*w+w/2], 1e-5)
}
