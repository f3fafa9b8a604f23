package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/purelyd/internal/relay"
	"github.com/desertthunder/purelyd/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP proxy until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for capability, names := range r.resolver.Strategies() {
		r.logger.Debug("strategies", "capability", capability, "order", names)
	}

	rl := relay.New(r.config.Relay, r.httpClient, r.logger)
	srv := server.New(cfg, r.resolver, rl, version, r.logger)
	return srv.ListenAndServe(ctx)
}
