package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qlinear/internal/pipeline"
	"github.com/samcharles93/qlinear/internal/report"
)

func trainCmd() *cli.Command {
	return &cli.Command{
		Name:  "train",
		Usage: "Fit a linear regression model and save it as an .mcf artifact",
		Flags: append(dataFlags(), compressFlag()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := commandConfig(ctx, cmd)
			if err != nil {
				return err
			}
			res, err := pipeline.Train(ctx, cfg)
			if err != nil {
				return err
			}
			if jsonOutput {
				return report.JSON(cmd.Root().Writer, map[string]any{
					"run_id":       res.RunID,
					"r2":           res.R2,
					"train_size":   res.TrainSize,
					"test_size":    res.TestSize,
					"coefficients": res.Model.Coefficients,
					"intercept":    res.Model.Intercept,
					"features":     res.Model.Features,
					"path":         res.Path,
				})
			}
			w := cmd.Root().Writer
			_, _ = fmt.Fprintf(w, "R2 Score: %.4f\n", res.R2)
			_, _ = fmt.Fprintf(w, "Model saved to %s\n", res.Path)
			return nil
		},
	}
}
