package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qlinear/internal/config"
	"github.com/samcharles93/qlinear/internal/logger"
)

type configKey struct{}

// setup loads the config file, applies global flags and installs the
// logger and config in the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return ctx, err
	}
	if cmd.IsSet("artifacts-dir") {
		cfg.ArtifactsDir = artifactsDir
	}
	if cmd.IsSet("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = logLevel
	}
	if cmd.IsSet("log-format") || cfg.LogFormat == "" {
		cfg.LogFormat = logFormat
	}
	if debug {
		cfg.LogLevel = "debug"
	}

	log, err := logger.ForFormat(cfg.LogFormat, os.Stderr, logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		return ctx, err
	}
	ctx = logger.WithContext(ctx, log)
	return context.WithValue(ctx, configKey{}, cfg), nil
}

func configFrom(ctx context.Context) (config.Config, error) {
	cfg, ok := ctx.Value(configKey{}).(config.Config)
	if !ok {
		return config.Config{}, errors.New("configuration not initialised")
	}
	return cfg, nil
}

// applyDataConfig overrides data settings with flags set on the command
// line.
func applyDataConfig(c *cli.Command, cfg *config.Config) {
	if c.IsSet("data") {
		cfg.Data = dataPath
	}
	if c.IsSet("target") {
		cfg.TargetColumn = target
	}
	if c.IsSet("test-size") {
		cfg.TestSize = testSize
	}
	if c.IsSet("seed") {
		cfg.Seed = seed
	}
	if c.IsSet("samples") {
		cfg.SyntheticSamples = int(samples)
	}
	if c.IsSet("compress") {
		cfg.Compress = compress
	}
}

// applyRegistryConfig overrides the database settings.
func applyRegistryConfig(c *cli.Command, cfg *config.Config) {
	if c.IsSet("postgres") {
		cfg.Database = config.Database{Postgres: pgDSN}
	} else if c.IsSet("sqlite") {
		cfg.Database = config.Database{SQLite: sqlitePath}
	}
}

// commandConfig resolves the config for a subcommand and validates it.
// Command-specific overrides run before validation.
func commandConfig(ctx context.Context, c *cli.Command, overrides ...func(*config.Config)) (config.Config, error) {
	cfg, err := configFrom(ctx)
	if err != nil {
		return cfg, err
	}
	applyDataConfig(c, &cfg)
	applyRegistryConfig(c, &cfg)
	for _, fn := range overrides {
		fn(&cfg)
	}
	return cfg, cfg.Validate()
}
