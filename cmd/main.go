package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/purelyd/internal/shared"
	"github.com/urfave/cli/v3"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger, ConfigPath: "config.toml"})

	app := &cli.Command{
		Name:    "purelyd",
		Usage:   "Resolve playable YouTube audio through federated extraction services",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("PURELYD_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotImplemented):
			logger.Warn("not implemented")
			os.Exit(0)
		case errors.Is(err, shared.ErrAllSourcesFailed):
			logger.Error("all sources failed", "err", err)
			os.Exit(2)
		case errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidArgument),
			errors.Is(err, shared.ErrInvalidFlag), errors.Is(err, shared.ErrInvalidIdentifier):
			logger.Error("usage error", "err", err)
			os.Exit(64)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}
