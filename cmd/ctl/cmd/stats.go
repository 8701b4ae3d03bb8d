package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jpfielding/astroimg.go/pkg/pixel/background"
	"github.com/jpfielding/astroimg.go/pkg/pixel/star"
	"github.com/jpfielding/astroimg.go/pkg/pixel/stats"
	"github.com/jpfielding/astroimg.go/pkg/raster"
	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats cobra command
func NewStatsCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Measure an image",
		Long:  "Prints robust statistics of an image's luminance, optionally with its background model and detected stars.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath, _ := cmd.Flags().GetString("file")
			format, _ := cmd.Flags().GetString("format")
			withStars, _ := cmd.Flags().GetBool("stars")
			grid, _ := cmd.Flags().GetInt("grid")

			if filePath == "" && len(args) > 0 {
				filePath = args[0]
			}
			if filePath == "" {
				return fmt.Errorf("file path is required. Use --file flag or provide as argument")
			}
			img, _, err := raster.ReadFile(filePath)
			if err != nil {
				return err
			}
			return writeStats(cmd.OutOrStdout(), raster.GrayFromImage(img), format, withStars, grid)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("file", "f", "", "image file to measure")
	pf.String("format", "text", "output format (text|json)")
	pf.Bool("stars", false, "detect stars and list them as CSV (text format)")
	pf.Int("grid", 0, "background grid size, 0 skips the background model")
	return cmd
}

// Report is the stats command's JSON output.
type Report struct {
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Summary    stats.Summary `json:"summary"`
	MAD        float32       `json:"mad"`
	Noise      float32       `json:"noise"`
	Background []float32     `json:"background,omitempty"`
	Stars      []star.Star   `json:"stars,omitempty"`
	MedianFWHM float64       `json:"medianFwhm,omitempty"`
}

func measure(g raster.Gray, withStars bool, grid int) (Report, *background.Model) {
	_, mad := stats.MAD(g.Pix)
	r := Report{
		Width:   g.W,
		Height:  g.H,
		Summary: stats.Summarize(g.Pix),
		MAD:     mad,
		Noise:   mad * stats.MADToSigma,
	}
	var model *background.Model
	if grid > 0 {
		model = background.Estimate(g.Pix, g.W, g.H, grid, grid, 3)
		r.Background = model.Cells
	}
	if withStars {
		r.Stars = star.Detect(g.Pix, g.W, g.H)
		r.MedianFWHM = star.MedianFWHM(r.Stars)
	}
	return r, model
}

func writeStats(w io.Writer, g raster.Gray, format string, withStars bool, grid int) error {
	r, model := measure(g, withStars, grid)
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "text":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	fmt.Fprintln(w, "=== Image ===")
	fmt.Fprintf(w, "Size: %dx%d\n", r.Width, r.Height)
	fmt.Fprintln(w, r.Summary)
	fmt.Fprintf(w, "MAD: %g (noise sigma %g)\n", r.MAD, r.Noise)
	if model != nil {
		fmt.Fprintln(w, "\n=== Background ===")
		fmt.Fprintln(w, model)
	}
	if withStars {
		fmt.Fprintf(w, "\n=== Stars (%d, median FWHM %.2f) ===\n", len(r.Stars), r.MedianFWHM)
		star.PrintStars(w, r.Stars)
	}
	return nil
}
