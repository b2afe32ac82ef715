package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qlinear/internal/config"
	"github.com/samcharles93/qlinear/internal/pipeline"
	"github.com/samcharles93/qlinear/internal/report"
	"github.com/samcharles93/qlinear/pkg/quant"
)

func quantizeCmd() *cli.Command {
	var (
		scheme string
		scale  float64
	)

	flags := append(dataFlags(), compressFlag(),
		&cli.StringFlag{
			Name:        "scheme",
			Usage:       "quantization scheme (sym-int8, fixed)",
			Value:       quant.SchemeSymmetricInt8,
			Destination: &scheme,
		},
		&cli.Float64Flag{
			Name:        "scale",
			Usage:       "scale for the fixed scheme",
			Destination: &scale,
		},
	)
	flags = append(flags, registryFlags()...)

	return &cli.Command{
		Name:  "quantize",
		Usage: "Quantize the trained model's parameters to int8 and report the error",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := commandConfig(ctx, cmd, func(cfg *config.Config) {
				if cmd.IsSet("scheme") {
					cfg.Scheme = scheme
				}
				if cmd.IsSet("scale") {
					cfg.FixedScale = scale
					if !cmd.IsSet("scheme") {
						cfg.Scheme = quant.SchemeFixed
					}
				}
			})
			if err != nil {
				return err
			}

			res, err := pipeline.Quantize(ctx, cfg)
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			if jsonOutput {
				return report.JSON(w, map[string]any{
					"run_id":               res.RunID,
					"scheme":               res.Scheme,
					"scale":                res.Scale,
					"clipped":              res.Clipped,
					"metrics":              report.Flatten(res.Metrics, res.Scale),
					"r2_original":          res.R2Original,
					"r2_dequantized":       res.R2Dequantized,
					"max_prediction_delta": res.MaxPredictionDelta,
					"paths":                res.Paths,
				})
			}
			report.WriteSummary(w, res.Summary())
			_, _ = fmt.Fprintln(w)
			report.WriteMetrics(w, res.Metrics, res.Scale)
			return nil
		},
	}
}
