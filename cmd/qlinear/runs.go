package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qlinear/internal/registry"
	"github.com/samcharles93/qlinear/internal/report"
)

func runsCmd() *cli.Command {
	var limit int64

	return &cli.Command{
		Name:      "runs",
		Usage:     "List recorded quantization runs, or show one by id",
		ArgsUsage: "[id]",
		Flags: append(registryFlags(),
			&cli.Int64Flag{
				Name:        "limit",
				Usage:       "maximum number of runs to list (0 for all)",
				Value:       20,
				Destination: &limit,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := commandConfig(ctx, cmd)
			if err != nil {
				return err
			}
			db := cfg.RunDatabase()
			if !db.Enabled() {
				return fmt.Errorf("run database is disabled")
			}
			reg, err := registry.Open(db)
			if err != nil {
				return err
			}
			defer func() { _ = reg.Close() }()

			w := cmd.Root().Writer
			if id := cmd.Args().First(); id != "" {
				run, err := reg.Get(ctx, id)
				if err != nil {
					return err
				}
				return report.JSON(w, run)
			}

			runs, err := reg.List(ctx, int(limit))
			if err != nil {
				return err
			}
			if jsonOutput {
				return report.JSON(w, runs)
			}
			report.WriteRuns(w, runs)
			return nil
		},
	}
}
