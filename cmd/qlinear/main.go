package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	// QLINEAR_* settings may come from a .env file in the working directory.
	_ = godotenv.Load()

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:   "qlinear",
		Usage:  "Train a linear regression model and quantize its parameters to int8",
		Flags:  globalFlags(),
		Before: setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			trainCmd(),
			quantizeCmd(),
			predictCmd(),
			inspectCmd(),
			serveCmd(),
			runsCmd(),
			versionCmd(),
		},
	}
}
