package main

import "github.com/urfave/cli/v3"

var (
	configFile   string
	logLevel     string
	logFormat    string
	debug        bool
	artifactsDir string
	jsonOutput   bool
)

// Data and registry flags shared by several commands.
var (
	dataPath   string
	target     string
	testSize   float64
	seed       uint64
	samples    int64
	compress   bool
	sqlitePath string
	pgDSN      string
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: user config dir)",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
		&cli.StringFlag{
			Name:        "artifacts-dir",
			Aliases:     []string{"dir"},
			Usage:       "directory holding .mcf artifacts",
			Destination: &artifactsDir,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "print results as JSON",
			Destination: &jsonOutput,
		},
	}
}

func dataFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "data",
			Usage:       "CSV file with a header row (default: synthetic housing data)",
			Destination: &dataPath,
		},
		&cli.StringFlag{
			Name:        "target",
			Usage:       "target column name (default: last column)",
			Destination: &target,
		},
		&cli.Float64Flag{
			Name:        "test-size",
			Usage:       "held-out fraction for scoring",
			Value:       0.2,
			Destination: &testSize,
		},
		&cli.Uint64Flag{
			Name:        "seed",
			Usage:       "seed for the split and synthetic data",
			Value:       42,
			Destination: &seed,
		},
		&cli.Int64Flag{
			Name:        "samples",
			Usage:       "number of synthetic samples",
			Value:       2000,
			Destination: &samples,
		},
	}
}

func compressFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:        "compress",
		Usage:       "zstd-compress parameter payloads",
		Destination: &compress,
	}
}

func registryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sqlite",
			Usage:       "sqlite database for run history",
			Destination: &sqlitePath,
		},
		&cli.StringFlag{
			Name:        "postgres",
			Usage:       "postgres DSN for run history (overrides sqlite)",
			Destination: &pgDSN,
		},
	}
}
