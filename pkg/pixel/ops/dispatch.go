package ops

import (
	"fmt"

	"github.com/jpfielding/astroimg.go/pkg/pixel/background"
	"github.com/jpfielding/astroimg.go/pkg/pixel/color"
	"github.com/jpfielding/astroimg.go/pkg/pixel/deconv"
	"github.com/jpfielding/astroimg.go/pkg/pixel/filter"
	"github.com/jpfielding/astroimg.go/pkg/pixel/geometry"
	"github.com/jpfielding/astroimg.go/pkg/pixel/morph"
	"github.com/jpfielding/astroimg.go/pkg/pixel/pixelmath"
	"github.com/jpfielding/astroimg.go/pkg/pixel/star"
	"github.com/jpfielding/astroimg.go/pkg/pixel/tone"
	"github.com/jpfielding/astroimg.go/pkg/pixel/wavelet"
)

// Apply runs a grayscale op over buf, returning the new buffer and its
// dimensions, which only geometry ops change.
func Apply(op Op, buf []float32, w, h int) ([]float32, int, int, error) {
	if w < 0 || h < 0 || len(buf) != w*h {
		return nil, 0, 0, fmt.Errorf("%w: %d pixels for %dx%d", ErrBufferShape, len(buf), w, h)
	}
	if IsColor(op) {
		return nil, 0, 0, fmt.Errorf("%s on grayscale: %w", Name(op), ErrWrongBufferKind)
	}
	same := func(out []float32) ([]float32, int, int, error) {
		return out, w, h, nil
	}
	switch o := op.(type) {
	case *Rotate90CW:
		out, nw, nh := geometry.Rotate90CW(buf, w, h)
		return out, nw, nh, nil
	case *Rotate90CCW:
		out, nw, nh := geometry.Rotate90CCW(buf, w, h)
		return out, nw, nh, nil
	case *Rotate180:
		out, nw, nh := geometry.Rotate180(buf, w, h)
		return out, nw, nh, nil
	case *FlipHorizontal:
		return same(geometry.FlipHorizontal(buf, w, h))
	case *FlipVertical:
		return same(geometry.FlipVertical(buf, w, h))
	case *Crop:
		out, nw, nh := geometry.Crop(buf, w, h, o.X, o.Y, o.Width, o.Height)
		return out, nw, nh, nil
	case *Rotate:
		out, nw, nh := geometry.RotateArbitrary(buf, w, h, o.Angle)
		return out, nw, nh, nil

	case *Brightness:
		return same(tone.AdjustBrightness(buf, o.Amount))
	case *Contrast:
		return same(tone.AdjustContrast(buf, o.Factor))
	case *Gamma:
		return same(tone.AdjustGamma(buf, o.Gamma))
	case *Levels:
		return same(tone.ApplyLevels(buf, tone.Levels(*o)))
	case *MTF:
		return same(tone.ApplyMTF(buf, o.Midtone, o.ShadowsClip, o.HighlightsClip))
	case *Curves:
		return same(tone.ApplyCurves(buf, o.Points))
	case *AutoStretch:
		return same(tone.AutoStretch(buf, o.TargetBackground))
	case *Invert:
		return same(tone.InvertPixels(buf))
	case *Binarize:
		return same(tone.Binarize(buf, o.Threshold))
	case *Rescale:
		return same(tone.RescalePixels(buf))
	case *RangeMask:
		return same(tone.CreateRangeMask(buf, o.Low, o.High, o.Fuzz))

	case *GaussianBlur:
		return same(filter.GaussianBlur(buf, w, h, o.Sigma))
	case *Sharpen:
		return same(filter.Sharpen(buf, w, h, o.Sigma, o.Amount))
	case *MedianFilter:
		return same(filter.MedianFilter(buf, w, h, o.Radius))
	case *HistogramEqualize:
		return same(filter.HistogramEqualize(buf, w, h))
	case *CLAHE:
		return same(filter.CLAHE(buf, w, h, o.TileGrid, o.ClipLimit))
	case *Morphology:
		mop, err := morph.ParseOp(o.Operation)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("morphology: %w", err)
		}
		return same(morph.Apply(buf, w, h, mop, o.Radius))

	case *ExtractBackground:
		return same(background.Extract(buf, w, h, o.GridX, o.GridY, o.Sigma))
	case *DynamicBackground:
		return same(background.DynamicExtract(buf, w, h, o.GridX, o.GridY, o.Sigma))

	case *StarMask:
		return same(star.GenerateMask(buf, w, h, o.Scale))
	case *ApplyStarMask:
		return same(star.ApplyStarMask(buf, w, h, o.Scale, o.Invert))
	case *StarReduction:
		return same(star.Reduce(buf, w, h, o.Amount, o.Scale))

	case *HDRMultiscale:
		return same(wavelet.HDRMultiscale(buf, w, h, o.Layers, o.Amount))
	case *MultiscaleDenoise:
		return same(wavelet.Denoise(buf, w, h, o.Layers, o.Threshold))
	case *Deconvolve:
		return same(deconv.RichardsonLucy(buf, w, h, deconv.Options{
			PSFSigma:   o.PSFSigma,
			Iterations: o.Iterations,
			Epsilon:    o.Epsilon,
			Clip:       o.Clip,
		}))
	case *PixelMath:
		return same(pixelmath.Apply(buf, o.Expression))
	}
	return nil, 0, 0, fmt.Errorf("%w: %T", ErrUnknownOp, op)
}

// ApplyRGBA runs a color op over an RGBA buffer of w x h pixels.
func ApplyRGBA(op Op, px []uint8, w, h int) ([]uint8, error) {
	if w < 0 || h < 0 || len(px) != 4*w*h {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d RGBA", ErrBufferShape, len(px), w, h)
	}
	switch o := op.(type) {
	case *SCNR:
		method, err := color.ParseSCNRMethod(o.Method)
		if err != nil {
			return nil, fmt.Errorf("scnr: %w", err)
		}
		return color.ApplySCNR(px, method, o.Amount), nil
	case *Saturation:
		return color.AdjustSaturation(px, o.Amount), nil
	case *ColorBalance:
		return color.AdjustColorBalance(px, o.Red, o.Green, o.Blue), nil
	case *ColorCalibration:
		return color.CalibrateColor(px), nil
	}
	if Name(op) != "" {
		return nil, fmt.Errorf("%s on RGBA: %w", Name(op), ErrWrongBufferKind)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownOp, op)
}
