package cmd

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"time"

	"github.com/jpfielding/astroimg.go/pkg/logging"
	"github.com/jpfielding/astroimg.go/pkg/pixel/ops"
	"github.com/jpfielding/astroimg.go/pkg/raster"
	"github.com/spf13/cobra"
)

// NewProcessCmd creates the process cobra command
func NewProcessCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run a pipeline over one image",
		Long: `Runs the steps of a pipeline file and/or --step arguments over an image.
Steps are JSON or YAML objects naming the op, e.g. --step '{"op":"gaussianBlur","sigma":2}'.
Pipelines containing color ops (scnr, saturation, colorBalance, colorCalibration)
work on RGBA, all others on luminance.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			thumb, _ := cmd.Flags().GetString("thumb")
			thumbSize, _ := cmd.Flags().GetInt("thumb-size")
			p, err := pipelineFromFlags(cmd)
			if err != nil {
				return err
			}
			if in == "" || out == "" {
				return fmt.Errorf("--in and --out are required")
			}
			result, err := processFile(ctx, p, in, out)
			if err != nil {
				return err
			}
			if thumb != "" {
				return raster.WriteFile(thumb, raster.Thumbnail(result, thumbSize))
			}
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("in", "i", "", "input image (png, jpeg, tiff, bmp)")
	pf.StringP("out", "o", "", "output image, format from the extension")
	pf.StringP("pipeline", "p", "", "pipeline file (JSON or YAML)")
	pf.StringArray("step", nil, "extra step appended to the pipeline (repeatable)")
	pf.String("thumb", "", "also write a thumbnail of the result here")
	pf.Int("thumb-size", 256, "longest side of the thumbnail")
	return cmd
}

// pipelineFromFlags loads --pipeline and appends every --step.
func pipelineFromFlags(cmd *cobra.Command) (*ops.Pipeline, error) {
	path, _ := cmd.Flags().GetString("pipeline")
	steps, _ := cmd.Flags().GetStringArray("step")
	p := &ops.Pipeline{}
	if path != "" {
		loaded, err := ops.LoadPipeline(path)
		if err != nil {
			return nil, err
		}
		p = loaded
	}
	for _, s := range steps {
		op, err := ops.Decode([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", s, err)
		}
		p.Steps = append(p.Steps, ops.Step{Op: op})
	}
	if len(p.Steps) == 0 {
		return nil, fmt.Errorf("no steps: use --pipeline and/or --step")
	}
	return p, nil
}

// isColor reports whether the pipeline works on RGBA.
func isColor(p *ops.Pipeline) bool {
	return slices.ContainsFunc(p.Steps, func(s ops.Step) bool { return ops.IsColor(s.Op) })
}

// toImage converts a decoded file into the buffer kind the pipeline needs.
func toImage(src image.Image, color bool) ops.Image {
	if color {
		c := raster.RGBAFromImage(src)
		return ops.Image{RGBA: c.Pix, W: c.W, H: c.H}
	}
	g := raster.GrayFromImage(src)
	return ops.Image{Gray: g.Pix, W: g.W, H: g.H}
}

func fromImage(img ops.Image) image.Image {
	if img.IsColor() {
		return raster.RGBA{Pix: img.RGBA, W: img.W, H: img.H}.Image()
	}
	return raster.Gray{Pix: img.Gray, W: img.W, H: img.H}.Image()
}

// processFile runs p over the image at in and writes the result to out.
func processFile(ctx context.Context, p *ops.Pipeline, in, out string) (image.Image, error) {
	src, format, err := raster.ReadFile(in)
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("in", in), slog.String("format", format))
	return processImage(ctx, p, src, out)
}

// processImage runs p over src and writes the result to out.
func processImage(ctx context.Context, p *ops.Pipeline, src image.Image, out string) (image.Image, error) {
	start := time.Now()
	res, err := p.Run(ctx, toImage(src, isColor(p)))
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	dst := fromImage(res)
	if err := raster.WriteFile(out, dst); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "processed",
		"out", out,
		"steps", len(p.Steps),
		"width", res.W,
		"height", res.H,
		"elapsed", time.Since(start),
	)
	return dst, nil
}
