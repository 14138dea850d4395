package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/replay-runner/pkg/imgdiff"
)

var compareCommand = &cli.Command{
	Name:      "compare",
	Usage:     "Compare two PNG images and write diff evidence",
	ArgsUsage: "BASELINE CANDIDATE",
	Flags: []cli.Flag{
		&cli.Float64Flag{
			Name:    "tolerance",
			Aliases: []string{"t"},
			Usage:   "Allowed differing pixel percentage",
		},
		&cli.BoolFlag{
			Name:  "ssim",
			Usage: "Also require a structural similarity score",
		},
		&cli.Float64Flag{
			Name:  "ssim-threshold",
			Usage: "Minimum SSIM score when --ssim is set",
			Value: 0.98,
		},
		&cli.StringFlag{
			Name:  "diff",
			Usage: "Write the per-pixel diff image to this path",
		},
		&cli.StringFlag{
			Name:  "highlight",
			Usage: "Write the highlighted baseline to this path",
		},
	},
	Action: runCompare,
}

func runCompare(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("compare needs a baseline and a candidate image")
	}
	baseline, err := imgdiff.LoadPNG(c.Args().Get(0))
	if err != nil {
		return err
	}
	candidate, err := imgdiff.LoadPNG(c.Args().Get(1))
	if err != nil {
		return err
	}

	cmp := imgdiff.Compare(baseline, candidate, imgdiff.Options{
		TolerancePercent: c.Float64("tolerance"),
		SSIM:             c.Bool("ssim"),
		SSIMThreshold:    c.Float64("ssim-threshold"),
		PadPixels:        3,
	})

	if path := c.String("diff"); path != "" {
		if err := cmp.WriteDiff(path); err != nil {
			return err
		}
	}
	if path := c.String("highlight"); path != "" {
		if _, err := cmp.WriteHighlight(path); err != nil {
			return err
		}
	}

	fmt.Printf("%.4f%% of pixels differ (%d/%d), %d region(s)\n",
		cmp.DiffPercent, cmp.DifferingPixels, cmp.TotalPixels, len(cmp.Regions))
	if cmp.SSIMApplied {
		fmt.Printf("ssim: %.4f\n", cmp.SSIMScore)
	}
	if !cmp.Passed {
		return fmt.Errorf("images differ beyond tolerance")
	}
	fmt.Println("match")
	return nil
}
