package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/shared"
	"github.com/desertthunder/purelyd/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Prefetch resolves every entry of a playlist and reports the manifest location.
func (r *Runner) Prefetch(ctx context.Context, cmd *cli.Command) error {
	id := argument(cmd, "id")
	if id == "" {
		return fmt.Errorf("%w: playlist id or URL", shared.ErrMissingArgument)
	}

	opts := tasks.PrefetchOpts{
		OutputDir: r.config.Prefetch.OutputDir,
		RateLimit: r.config.Prefetch.RateLimit,
		Limit:     cmd.Int("limit"),
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}
	if cmd.IsSet("output-dir") {
		opts.OutputDir = cmd.String("output-dir")
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := r.engine.Prefetch(ctx, progress, models.CapabilityPlaylist, id, opts)
	close(progress)
	wg.Wait()

	if result != nil {
		r.writePlainln("Resolved %d/%d (%d failed), run %s", result.Resolved, result.Total, result.Failed, result.RunID)
		if result.ManifestPath != "" {
			r.writePlain("Manifest: %s\n", result.ManifestPath)
		}
	}
	return err
}
