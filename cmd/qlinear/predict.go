package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qlinear/internal/pipeline"
	"github.com/samcharles93/qlinear/internal/report"
)

func predictCmd() *cli.Command {
	var (
		which string
		rows  int64
	)

	return &cli.Command{
		Name:  "predict",
		Usage: "Predict the first samples of the dataset with the original or dequantized model",
		Flags: append(dataFlags(),
			&cli.StringFlag{
				Name:        "model",
				Aliases:     []string{"m"},
				Usage:       "model to use (original, dequantized)",
				Value:       pipeline.WhichOriginal,
				Destination: &which,
			},
			&cli.Int64Flag{
				Name:        "rows",
				Aliases:     []string{"n"},
				Usage:       "number of samples to predict",
				Value:       pipeline.DefaultPredictRows,
				Destination: &rows,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := commandConfig(ctx, cmd)
			if err != nil {
				return err
			}
			preds, err := pipeline.Predict(ctx, cfg, which, int(rows))
			if err != nil {
				return err
			}
			w := cmd.Root().Writer
			if jsonOutput {
				return report.JSON(w, map[string]any{
					"model":       preds.Which,
					"features":    preds.Features,
					"predictions": preds.Values,
					"targets":     preds.Truth,
				})
			}
			report.WritePredictions(w, preds.Features, preds.Values, preds.Truth)
			return nil
		},
	}
}
