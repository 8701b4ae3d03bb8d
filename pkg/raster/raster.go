// Package raster moves pixels between image files and the flat buffers the
// pixel engine works on. Grayscale buffers hold luminance in [0,1]; color
// buffers hold non-premultiplied RGBA bytes.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// Gray is a grayscale buffer with its dimensions.
type Gray struct {
	Pix  []float32
	W, H int
}

// RGBA is an 8-bit color buffer with its dimensions.
type RGBA struct {
	Pix  []uint8
	W, H int
}

// GrayFromImage converts img to 16-bit luminance scaled to [0,1].
func GrayFromImage(img image.Image) Gray {
	b := img.Bounds()
	g := Gray{Pix: make([]float32, b.Dx()*b.Dy()), W: b.Dx(), H: b.Dy()}
	if src, ok := img.(*image.Gray16); ok {
		for y := 0; y < g.H; y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < g.W; x++ {
				g.Pix[y*g.W+x] = float32(uint16(row[2*x])<<8|uint16(row[2*x+1])) / 0xffff
			}
		}
		return g
	}
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			c := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			g.Pix[y*g.W+x] = float32(c.Y) / 0xffff
		}
	}
	return g
}

// Image renders the buffer as 16-bit gray, clamping to [0,1]. NaN becomes 0.
func (g Gray) Image() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, g.W, g.H))
	for i, v := range g.Pix[:g.W*g.H] {
		if v != v {
			v = 0
		}
		y := uint16(max(0, min(v, 1))*0xffff + 0.5)
		img.Pix[2*i] = uint8(y >> 8)
		img.Pix[2*i+1] = uint8(y)
	}
	return img
}

// RGBAFromImage converts img to non-premultiplied 8-bit RGBA.
func RGBAFromImage(img image.Image) RGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return RGBA{Pix: dst.Pix, W: b.Dx(), H: b.Dy()}
}

// Image wraps the buffer as an NRGBA image without copying.
func (c RGBA) Image() *image.NRGBA {
	return &image.NRGBA{Pix: c.Pix, Stride: 4 * c.W, Rect: image.Rect(0, 0, c.W, c.H)}
}

// Decode reads a PNG, JPEG, TIFF or BMP image, returning the format name.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode: %w", err)
	}
	return img, format, nil
}

// FormatOf derives the encoding format from a file extension, "png" when
// unknown.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return "tiff"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".bmp":
		return "bmp"
	}
	return "png"
}

// Encode writes img in format (png, tiff, jpeg or bmp).
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case "bmp":
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("unsupported format %q", format)
}

// ReadFile decodes the image at path.
func ReadFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	img, format, err := Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return img, format, nil
}

// WriteFile encodes img to path in the format its extension names.
func WriteFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img, FormatOf(path)); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// Thumbnail scales img down so its longer side is at most maxDim, keeping
// the aspect ratio. Smaller images are returned as is.
func Thumbnail(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	longest := max(b.Dx(), b.Dy())
	if maxDim <= 0 || longest <= maxDim {
		return img
	}
	w := max(1, b.Dx()*maxDim/longest)
	h := max(1, b.Dy()*maxDim/longest)
	dst := image.NewNRGBA64(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
