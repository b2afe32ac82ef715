package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qlinear/internal/api"
	"github.com/samcharles93/qlinear/internal/artifact"
	"github.com/samcharles93/qlinear/internal/logger"
	"github.com/samcharles93/qlinear/internal/registry"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve predictions, parameters and run history over HTTP",
		Flags: append(registryFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			cfg, err := commandConfig(ctx, cmd)
			if err != nil {
				return err
			}
			if cfg.ServerAddress != "" && !cmd.IsSet("addr") {
				addr = cfg.ServerAddress
			}

			store, err := artifact.New(cfg.ArtifactsDir, cfg.Compress)
			if err != nil {
				return err
			}
			var runs api.RunStore
			if db := cfg.RunDatabase(); db.Enabled() {
				reg, err := registry.Open(db)
				if err != nil {
					return err
				}
				defer func() { _ = reg.Close() }()
				runs = reg
			}

			server := api.NewServer(store, api.NewCachedModelProvider(store), runs, log.With("component", "api"))
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, logger.KeyPath, cfg.ArtifactsDir)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
