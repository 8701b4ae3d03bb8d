package ops

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jpfielding/astroimg.go/pkg/util"
)

// Image is the buffer a pipeline works on: grayscale when RGBA is nil,
// color otherwise.
type Image struct {
	Gray []float32
	RGBA []uint8
	W, H int
}

// IsColor reports whether the image carries an RGBA buffer.
func (img Image) IsColor() bool { return img.RGBA != nil }

// Pipeline is an ordered list of steps.
type Pipeline struct {
	Steps []Step `json:"steps" yaml:"steps"`
}

// NewPipeline wraps ops into a pipeline.
func NewPipeline(ops ...Op) *Pipeline {
	p := &Pipeline{Steps: make([]Step, len(ops))}
	for i, op := range ops {
		p.Steps[i] = Step{Op: op}
	}
	return p
}

// Names lists the op names of the steps in order.
func (p *Pipeline) Names() []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = Name(s.Op)
	}
	return out
}

// Fingerprint identifies the pipeline by its canonical JSON encoding, so two
// pipelines with the same steps and parameters share an id.
func (p *Pipeline) Fingerprint() (uuid.UUID, error) {
	return util.Fingerprint(p)
}

// Run applies the steps in order. The context is checked before each step;
// a step itself always runs to completion. The input image is not modified.
func (p *Pipeline) Run(ctx context.Context, img Image) (Image, error) {
	for i, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			return Image{}, fmt.Errorf("step %d: %w", i, err)
		}
		name := Name(step.Op)
		start := time.Now()
		next := Image{W: img.W, H: img.H}
		var err error
		if img.IsColor() {
			next.RGBA, err = ApplyRGBA(step.Op, img.RGBA, img.W, img.H)
		} else {
			next.Gray, next.W, next.H, err = Apply(step.Op, img.Gray, img.W, img.H)
		}
		if err != nil {
			return Image{}, fmt.Errorf("step %d (%s): %w", i, name, err)
		}
		slog.DebugContext(ctx, "applied op",
			"step", i,
			"op", name,
			"width", next.W,
			"height", next.H,
			"elapsed", time.Since(start),
		)
		img = next
	}
	return img, nil
}
