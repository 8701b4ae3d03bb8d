package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/jpfielding/astroimg.go/pkg/logging"
	"github.com/jpfielding/astroimg.go/pkg/pixel/ops"
	"github.com/jpfielding/astroimg.go/pkg/raster"
	"github.com/jpfielding/astroimg.go/pkg/util"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewBatchCmd creates the batch cobra command
func NewBatchCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [files...]",
		Short: "Run a pipeline over many images concurrently",
		Long:  "Runs the same pipeline over every input, writing <out-dir>/<name>.<ext>. Stops at the first failure unless --keep-going is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("out-dir")
			ext, _ := cmd.Flags().GetString("ext")
			jobs, _ := cmd.Flags().GetInt("jobs")
			keepGoing, _ := cmd.Flags().GetBool("keep-going")
			p, err := pipelineFromFlags(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return fmt.Errorf("no input files")
			}
			if outDir == "" {
				return fmt.Errorf("--out-dir is required")
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			return runBatch(ctx, p, args, batchOptions{
				OutDir:    outDir,
				Ext:       ext,
				Jobs:      jobs,
				KeepGoing: keepGoing,
			})
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("pipeline", "p", "", "pipeline file (JSON or YAML)")
	pf.StringArray("step", nil, "extra step appended to the pipeline (repeatable)")
	pf.StringP("out-dir", "o", "", "directory for the results")
	pf.String("ext", ".png", "extension (and so format) of the results")
	pf.IntP("jobs", "j", runtime.NumCPU(), "images processed at once")
	pf.Bool("keep-going", false, "log failures and continue with the remaining inputs")
	return cmd
}

type batchOptions struct {
	OutDir    string
	Ext       string
	Jobs      int
	KeepGoing bool
}

// outputPath maps an input file to its result inside dir.
func outputPath(dir, in, ext string) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(dir, base+ext)
}

func runBatch(ctx context.Context, p *ops.Pipeline, inputs []string, opts batchOptions) error {
	id, err := p.Fingerprint()
	if err != nil {
		return err
	}
	ctx = logging.AppendCtx(ctx,
		slog.String("run", util.RunID()),
		slog.String("pipeline", id.String()),
	)
	slog.InfoContext(ctx, "batch starting", "inputs", len(inputs), "jobs", opts.Jobs, "steps", p.Names())

	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, opts.Jobs))
	for _, in := range inputs {
		in := in
		g.Go(func() error {
			err := batchOne(gctx, p, in, outputPath(opts.OutDir, in, opts.Ext))
			if err == nil {
				return nil
			}
			failed.Add(1)
			if opts.KeepGoing {
				slog.ErrorContext(gctx, "batch input failed", "in", in, "error", err)
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d inputs failed", n, len(inputs))
	}
	slog.InfoContext(ctx, "batch done", "inputs", len(inputs))
	return nil
}

func batchOne(ctx context.Context, p *ops.Pipeline, in, out string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	src, format, err := raster.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	ctx = logging.AppendCtx(ctx,
		slog.String("in", in),
		slog.String("format", format),
		slog.String("md5", util.Md5ThenHex(data)),
	)
	if _, err := processImage(ctx, p, src, out); err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	return nil
}
