// Package ops is the single entry point to the pixel engine: a closed set of
// operation descriptors, a dispatcher routing each to its implementation, and
// JSON/YAML codecs and pipelines built on them.
//
// Every descriptor is a pointer to one of the structs below. Parameters are
// passed through untouched; each implementation clamps its own.
package ops

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/jpfielding/astroimg.go/pkg/pixel/tone"
)

var (
	// ErrUnknownOp is returned for descriptors or names outside the op set.
	ErrUnknownOp = errors.New("unknown op")
	// ErrBufferShape is returned when a buffer does not match its dimensions.
	ErrBufferShape = errors.New("buffer does not match dimensions")
	// ErrWrongBufferKind is returned for color ops on grayscale buffers and
	// grayscale ops on color buffers.
	ErrWrongBufferKind = errors.New("op does not apply to this buffer kind")
)

// Op is an operation descriptor.
type Op interface {
	isOp()
}

// geometry

type Rotate90CW struct{}
type Rotate90CCW struct{}
type Rotate180 struct{}
type FlipHorizontal struct{}
type FlipVertical struct{}

// Crop keeps the intersection of the rectangle with the image.
type Crop struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Rotate turns the image clockwise by Angle degrees.
type Rotate struct {
	Angle float64 `json:"angle" yaml:"angle"`
}

// tone

type Brightness struct {
	Amount float32 `json:"amount" yaml:"amount"`
}

type Contrast struct {
	Factor float32 `json:"factor" yaml:"factor"`
}

type Gamma struct {
	Gamma float64 `json:"gamma" yaml:"gamma"`
}

// Levels mirrors tone.Levels with serialization tags.
type Levels struct {
	InBlack  float64 `json:"inBlack" yaml:"inBlack"`
	InWhite  float64 `json:"inWhite" yaml:"inWhite"`
	Gamma    float64 `json:"gamma" yaml:"gamma"`
	OutBlack float64 `json:"outBlack" yaml:"outBlack"`
	OutWhite float64 `json:"outWhite" yaml:"outWhite"`
}

type MTF struct {
	Midtone        float64 `json:"midtone" yaml:"midtone"`
	ShadowsClip    float64 `json:"shadowsClip" yaml:"shadowsClip"`
	HighlightsClip float64 `json:"highlightsClip" yaml:"highlightsClip"`
}

type Curves struct {
	Points []tone.Point `json:"points" yaml:"points"`
}

type AutoStretch struct {
	TargetBackground float64 `json:"targetBackground" yaml:"targetBackground"`
}

type Invert struct{}

type Binarize struct {
	Threshold float32 `json:"threshold" yaml:"threshold"`
}

type Rescale struct{}

type RangeMask struct {
	Low  float32 `json:"low" yaml:"low"`
	High float32 `json:"high" yaml:"high"`
	Fuzz float32 `json:"fuzz" yaml:"fuzz"`
}

// filter

type GaussianBlur struct {
	Sigma float64 `json:"sigma" yaml:"sigma"`
}

type Sharpen struct {
	Sigma  float64 `json:"sigma" yaml:"sigma"`
	Amount float64 `json:"amount" yaml:"amount"`
}

type MedianFilter struct {
	Radius int `json:"radius" yaml:"radius"`
}

type HistogramEqualize struct{}

type CLAHE struct {
	TileGrid  int     `json:"tileGrid" yaml:"tileGrid"`
	ClipLimit float64 `json:"clipLimit" yaml:"clipLimit"`
}

// Morphology runs erode, dilate, open or close.
type Morphology struct {
	Operation string `json:"operation" yaml:"operation"`
	Radius    int    `json:"radius" yaml:"radius"`
}

// background

type ExtractBackground struct {
	GridX int     `json:"gridX" yaml:"gridX"`
	GridY int     `json:"gridY" yaml:"gridY"`
	Sigma float64 `json:"sigma" yaml:"sigma"`
}

type DynamicBackground struct {
	GridX int     `json:"gridX" yaml:"gridX"`
	GridY int     `json:"gridY" yaml:"gridY"`
	Sigma float64 `json:"sigma" yaml:"sigma"`
}

// stars

// StarMask replaces the image with its star mask.
type StarMask struct {
	Scale float64 `json:"scale" yaml:"scale"`
}

// ApplyStarMask isolates stars, or removes them when Invert is set.
type ApplyStarMask struct {
	Scale  float64 `json:"scale" yaml:"scale"`
	Invert bool    `json:"invert" yaml:"invert"`
}

type StarReduction struct {
	Amount float64 `json:"amount" yaml:"amount"`
	Scale  float64 `json:"scale" yaml:"scale"`
}

// multiscale

type HDRMultiscale struct {
	Layers int     `json:"layers" yaml:"layers"`
	Amount float64 `json:"amount" yaml:"amount"`
}

type MultiscaleDenoise struct {
	Layers    int     `json:"layers" yaml:"layers"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// Deconvolve runs Richardson-Lucy; PSFSigma <= 0 estimates the PSF.
type Deconvolve struct {
	PSFSigma   float64 `json:"psfSigma" yaml:"psfSigma"`
	Iterations int     `json:"iterations" yaml:"iterations"`
	Epsilon    float64 `json:"epsilon" yaml:"epsilon"`
	Clip       bool    `json:"clip" yaml:"clip"`
}

type PixelMath struct {
	Expression string `json:"expression" yaml:"expression"`
}

// color, RGBA buffers only

type SCNR struct {
	Method string  `json:"method" yaml:"method"`
	Amount float64 `json:"amount" yaml:"amount"`
}

type Saturation struct {
	Amount float64 `json:"amount" yaml:"amount"`
}

type ColorBalance struct {
	Red   float64 `json:"red" yaml:"red"`
	Green float64 `json:"green" yaml:"green"`
	Blue  float64 `json:"blue" yaml:"blue"`
}

type ColorCalibration struct{}

func (*Rotate90CW) isOp()        {}
func (*Rotate90CCW) isOp()       {}
func (*Rotate180) isOp()         {}
func (*FlipHorizontal) isOp()    {}
func (*FlipVertical) isOp()      {}
func (*Crop) isOp()              {}
func (*Rotate) isOp()            {}
func (*Brightness) isOp()        {}
func (*Contrast) isOp()          {}
func (*Gamma) isOp()             {}
func (*Levels) isOp()            {}
func (*MTF) isOp()               {}
func (*Curves) isOp()            {}
func (*AutoStretch) isOp()       {}
func (*Invert) isOp()            {}
func (*Binarize) isOp()          {}
func (*Rescale) isOp()           {}
func (*RangeMask) isOp()         {}
func (*GaussianBlur) isOp()      {}
func (*Sharpen) isOp()           {}
func (*MedianFilter) isOp()      {}
func (*HistogramEqualize) isOp() {}
func (*CLAHE) isOp()             {}
func (*Morphology) isOp()        {}
func (*ExtractBackground) isOp() {}
func (*DynamicBackground) isOp() {}
func (*StarMask) isOp()          {}
func (*ApplyStarMask) isOp()     {}
func (*StarReduction) isOp()     {}
func (*HDRMultiscale) isOp()     {}
func (*MultiscaleDenoise) isOp() {}
func (*Deconvolve) isOp()        {}
func (*PixelMath) isOp()         {}
func (*SCNR) isOp()              {}
func (*Saturation) isOp()        {}
func (*ColorBalance) isOp()      {}
func (*ColorCalibration) isOp()  {}

// registry maps op names to constructors returning descriptors preset with
// the defaults used when a decoded step omits a parameter.
var registry = map[string]func() Op{
	"rotate90CW":        func() Op { return &Rotate90CW{} },
	"rotate90CCW":       func() Op { return &Rotate90CCW{} },
	"rotate180":         func() Op { return &Rotate180{} },
	"flipHorizontal":    func() Op { return &FlipHorizontal{} },
	"flipVertical":      func() Op { return &FlipVertical{} },
	"crop":              func() Op { return &Crop{} },
	"rotate":            func() Op { return &Rotate{} },
	"brightness":        func() Op { return &Brightness{} },
	"contrast":          func() Op { return &Contrast{Factor: 1} },
	"gamma":             func() Op { return &Gamma{Gamma: 1} },
	"levels":            func() Op { l := Levels(tone.DefaultLevels()); return &l },
	"mtf":               func() Op { return &MTF{Midtone: 0.5, HighlightsClip: 1} },
	"curves":            func() Op { return &Curves{} },
	"autoStretch":       func() Op { return &AutoStretch{TargetBackground: 0.25} },
	"invert":            func() Op { return &Invert{} },
	"binarize":          func() Op { return &Binarize{} },
	"rescale":           func() Op { return &Rescale{} },
	"rangeMask":         func() Op { return &RangeMask{High: 1, Fuzz: 0.1} },
	"gaussianBlur":      func() Op { return &GaussianBlur{Sigma: 1} },
	"sharpen":           func() Op { return &Sharpen{Sigma: 1, Amount: 1} },
	"medianFilter":      func() Op { return &MedianFilter{Radius: 1} },
	"histogramEqualize": func() Op { return &HistogramEqualize{} },
	"clahe":             func() Op { return &CLAHE{TileGrid: 8, ClipLimit: 2} },
	"morphology":        func() Op { return &Morphology{Operation: "open", Radius: 1} },
	"extractBackground": func() Op { return &ExtractBackground{GridX: 8, GridY: 8, Sigma: 3} },
	"dynamicBackground": func() Op { return &DynamicBackground{GridX: 8, GridY: 8, Sigma: 3} },
	"starMask":          func() Op { return &StarMask{Scale: 1} },
	"applyStarMask":     func() Op { return &ApplyStarMask{Scale: 1} },
	"starReduction":     func() Op { return &StarReduction{Amount: 0.5, Scale: 1} },
	"hdrMultiscale":     func() Op { return &HDRMultiscale{Layers: 4, Amount: 1} },
	"multiscaleDenoise": func() Op { return &MultiscaleDenoise{Layers: 4, Threshold: 3} },
	"deconvolve":        func() Op { return &Deconvolve{Iterations: 10} },
	"pixelMath":         func() Op { return &PixelMath{Expression: "$T"} },
	"scnr":              func() Op { return &SCNR{Method: "average", Amount: 1} },
	"saturation":        func() Op { return &Saturation{} },
	"colorBalance":      func() Op { return &ColorBalance{Red: 1, Green: 1, Blue: 1} },
	"colorCalibration":  func() Op { return &ColorCalibration{} },
}

var names = func() map[reflect.Type]string {
	m := make(map[reflect.Type]string, len(registry))
	for name, mk := range registry {
		m[reflect.TypeOf(mk())] = name
	}
	return m
}()

// New returns the descriptor registered under name, preset with defaults.
func New(name string) (Op, error) {
	mk, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, name)
	}
	return mk(), nil
}

// Name returns the registered name of op, or "" for foreign types.
func Name(op Op) string {
	return names[reflect.TypeOf(op)]
}

// Names lists every op name, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsColor reports whether op works on RGBA buffers rather than grayscale.
func IsColor(op Op) bool {
	switch op.(type) {
	case *SCNR, *Saturation, *ColorBalance, *ColorCalibration:
		return true
	}
	return false
}
