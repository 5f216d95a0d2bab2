package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Black-And-White-Club/dingleup/app"
	"github.com/Black-And-White-Club/dingleup/config"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	cliApp := &cli.App{
		Name:    "dingleup",
		Usage:   "DingleUP! quiz backend",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API, websocket hub and event handlers",
				Action: serve,
			},
		},
		DefaultCommand: "serve",
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	obs, err := observability.Init(ctx, observability.Config{
		ServiceName:     "dingleup",
		Environment:     cfg.Observability.Environment,
		Version:         cfg.Observability.ServiceVersion,
		LogLevel:        cfg.Observability.LogLevel,
		OTLPEndpoint:    cfg.Observability.OTLPEndpoint,
		OTLPInsecure:    cfg.Observability.OTLPInsecure,
		TraceSampleRate: cfg.Observability.TraceSampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}

	application, err := app.Initialize(ctx, cfg, obs)
	if err != nil {
		_ = obs.Shutdown(context.Background())
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return application.Run(ctx)
}
