package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qlinear/internal/artifact"
	"github.com/samcharles93/qlinear/internal/report"
)

func inspectCmd() *cli.Command {
	var file string

	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect the contents of an .mcf artifact",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to .mcf file (default: the quantized params artifact)",
				Destination: &file,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if file == "" {
				cfg, err := configFrom(ctx)
				if err != nil {
					return err
				}
				file = (&artifact.Store{Dir: cfg.ArtifactsDir}).Path(artifact.FileQuantized)
			}
			sum, err := artifact.Inspect(file)
			if err != nil {
				return err
			}
			w := cmd.Root().Writer
			if jsonOutput {
				return report.JSON(w, sum)
			}
			report.WriteInspect(w, sum)
			return nil
		},
	}
}
