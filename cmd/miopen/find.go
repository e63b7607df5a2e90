package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/solaiys/MIOpen/internal/config"
	"github.com/solaiys/MIOpen/pkg/miopen"
)

// findCommand runs a full Find for one problem shape on the host
// emulation backend and prints the ranked results.
func findCommand(cfg **config.Config, log **zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "find",
		Usage: "Benchmark the applicable solvers for a convolution shape",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Value: "64x256x56x56", Usage: "Input shape NxCxHxW"},
			&cli.StringFlag{Name: "filter", Value: "128x256x1x1", Usage: "Filter shape KxCxRxS"},
			&cli.IntFlag{Name: "pad", Value: 0, Usage: "Symmetric padding"},
			&cli.IntFlag{Name: "stride", Value: 1, Usage: "Symmetric stride"},
			&cli.IntFlag{Name: "dilation", Value: 1, Usage: "Symmetric dilation"},
			&cli.IntFlag{Name: "groups", Value: 1, Usage: "Group count"},
			&cli.StringFlag{Name: "direction", Value: "fwd", Usage: "fwd, bwd or wrw"},
			&cli.StringFlag{Name: "arch", Value: "gfx908", Usage: "Target architecture name"},
			&cli.IntFlag{Name: "results", Value: 10, Usage: "Maximum result count"},
			&cli.BoolFlag{Name: "search", Usage: "Allow exhaustive-search solvers"},
		},
		Action: func(c *cli.Context) error {
			banner()

			in, err := parseShape(c.String("input"))
			if err != nil {
				return fmt.Errorf("parsing input shape: %w", err)
			}
			flt, err := parseShape(c.String("filter"))
			if err != nil {
				return fmt.Errorf("parsing filter shape: %w", err)
			}
			if len(in) != 4 || len(flt) != 4 {
				return fmt.Errorf("only 4-d shapes are supported")
			}

			pad, stride, dil := c.Int("pad"), c.Int("stride"), c.Int("dilation")
			cd, err := miopen.NewConvolutionDescriptor(
				[]int{pad, pad}, []int{stride, stride}, []int{dil, dil}, c.Int("groups"))
			if err != nil {
				return err
			}

			xDesc := miopen.NewTensorDescriptor(miopen.Float, miopen.NCHW, in...)
			wDesc := miopen.NewTensorDescriptor(miopen.Float, miopen.NCHW, flt...)
			outH := (in[2]+2*pad-dil*(flt[2]-1)-1)/stride + 1
			outW := (in[3]+2*pad-dil*(flt[3]-1)-1)/stride + 1
			yDesc := miopen.NewTensorDescriptor(miopen.Float, miopen.NCHW, in[0], flt[0], outH, outW)

			ctx := miopen.NewHostContext(c.String("arch"), miopen.Options{
				Config: *cfg,
				Logger: *log,
			})

			x := make([]byte, xDesc.NumBytes())
			w := make([]byte, wDesc.NumBytes())
			y := make([]byte, yDesc.NumBytes())
			workspace := make([]byte, 1<<28)

			var results []miopen.PerfField
			switch c.String("direction") {
			case "fwd":
				results, err = ctx.FindConvolutionForwardAlgorithm(
					xDesc, x, wDesc, w, cd, yDesc, y, c.Int("results"), workspace, c.Bool("search"))
			case "bwd":
				results, err = ctx.FindConvolutionBackwardDataAlgorithm(
					yDesc, y, wDesc, w, cd, xDesc, x, c.Int("results"), workspace, c.Bool("search"))
			case "wrw":
				results, err = ctx.FindConvolutionBackwardWeightsAlgorithm(
					yDesc, y, xDesc, x, cd, wDesc, w, c.Int("results"), workspace, c.Bool("search"))
			default:
				return fmt.Errorf("unknown direction %q", c.String("direction"))
			}
			if err != nil {
				return err
			}

			fmt.Printf("%-36s %-34s %12s %12s\n", "SOLVER", "ALGORITHM", "TIME (ms)", "WORKSPACE")
			for _, r := range results {
				t := fmt.Sprintf("%.4f", r.Time)
				if r.Estimated {
					t += "*"
				}
				fmt.Printf("%-36s %-34s %12s %12d\n", r.SolverID, r.Algorithm, t, r.Workspace)
			}
			return nil
		},
	}
}

func parseShape(s string) ([]int, error) {
	parts := strings.Split(s, "x")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("invalid dimension %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}
