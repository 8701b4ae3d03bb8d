package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jpfielding/astroimg.go/pkg/pixel/ops"
	"github.com/jpfielding/astroimg.go/pkg/pixel/pixelmath"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewOpsCmd creates the ops cobra command
func NewOpsCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ops [name...]",
		Short: "List the available pipeline ops",
		Long:  "Lists every op name, or prints the named ops as YAML steps with their default parameters.",
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults, _ := cmd.Flags().GetBool("defaults")
			if defaults && len(args) == 0 {
				args = ops.Names()
			}
			return listOps(cmd.OutOrStdout(), args)
		},
	}
	pf := cmd.PersistentFlags()
	pf.Bool("defaults", false, "print every op with its default parameters")
	return cmd
}

func listOps(w io.Writer, names []string) error {
	if len(names) == 0 {
		for _, name := range ops.Names() {
			kind := "gray"
			if op, _ := ops.New(name); ops.IsColor(op) {
				kind = "rgba"
			}
			fmt.Fprintf(w, "%-18s %s\n", name, kind)
		}
		fmt.Fprintf(w, "\npixelMath functions: %v\n", pixelmath.Functions())
		return nil
	}
	p := &ops.Pipeline{}
	for _, name := range names {
		op, err := ops.New(name)
		if err != nil {
			return err
		}
		p.Steps = append(p.Steps, ops.Step{Op: op})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return err
	}
	return enc.Close()
}
