package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/purelyd/internal/formatter"
	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/shared"
	"github.com/urfave/cli/v3"
)

// Resolve resolves a playable stream for a video id or URL.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	id := argument(cmd, "id")
	if id == "" {
		return fmt.Errorf("%w: video id or URL", shared.ErrMissingArgument)
	}

	res, err := r.resolver.Resolve(ctx, id, models.CapabilityStream).Get()
	if err != nil {
		return r.writeFailure(cmd, err)
	}

	item := res.Item
	if cmd.Bool("json") {
		if err := r.writeJSON(item, cmd.Bool("pretty")); err != nil {
			return err
		}
	} else {
		r.writePlainHeader(firstNonEmpty(item.Title, item.Identifier))
		r.writePlain("%s", formatter.ItemToText(item))
		if cmd.Bool("attempts") {
			r.writePlain("\n%s\n", formatter.AttemptsTable(res.Attempts))
		} else if skipped := res.Attempts.Failures(); len(skipped) > 0 {
			r.writePlain("\nSkipped:\n")
			for _, line := range skipped.Strings() {
				r.writePlain("  %s\n", line)
			}
		}
	}

	if cmd.Bool("open") {
		if err := r.open(item.URL); err != nil {
			return fmt.Errorf("failed to open browser: %w", err)
		}
	}
	return nil
}

// Search runs a search listing for the joined arguments.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	return r.listing(ctx, cmd, models.CapabilitySearch, query)
}

// Playlist lists the entries of a playlist id or URL.
func (r *Runner) Playlist(ctx context.Context, cmd *cli.Command) error {
	id := argument(cmd, "id")
	if id == "" {
		return fmt.Errorf("%w: playlist id or URL", shared.ErrMissingArgument)
	}
	return r.listing(ctx, cmd, models.CapabilityPlaylist, id)
}

// Trending lists trending videos for --region.
func (r *Runner) Trending(ctx context.Context, cmd *cli.Command) error {
	return r.listing(ctx, cmd, models.CapabilityTrending, cmd.String("region"))
}

func (r *Runner) listing(ctx context.Context, cmd *cli.Command, c models.Capability, query string) error {
	format := cmd.String("format")
	output := cmd.String("output")

	res, err := r.resolver.Resolve(ctx, query, c).Get()
	if err != nil {
		return r.writeFailure(cmd, err)
	}

	l := res.Listing
	if limit := cmd.Int("limit"); limit > 0 && limit < len(l.Items) {
		l.Items = l.Items[:limit]
	}

	if format != "" || output != "" {
		if format == "" {
			format = formatter.FormatJSON
		}
		files, err := formatter.WriteListingExport(l, format, output)
		if err != nil {
			return err
		}
		r.logger.Info("exported listing", "capability", c.String(), "items", len(l.Items), "source", l.Source)
		for _, f := range files {
			r.writePlain("%s\n", f)
		}
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(l, cmd.Bool("pretty"))
	}

	text, err := formatter.ListingToText(l)
	if err != nil {
		return err
	}
	return r.writePlain("%s", text)
}

// Info prints oEmbed metadata for a video.
func (r *Runner) Info(ctx context.Context, cmd *cli.Command) error {
	id, err := shared.ExtractVideoID(argument(cmd, "id"))
	if err != nil {
		return err
	}

	meta, err := r.oembed.Lookup(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: oembed lookup: %v", shared.ErrUpstream, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(meta, cmd.Bool("pretty"))
	}

	r.writePlain("Title:     %s\n", meta.Title)
	r.writePlain("Author:    %s\n", meta.AuthorName)
	r.writePlain("Thumbnail: %s\n", firstNonEmpty(meta.ThumbnailURL, shared.CoverURL(id)))
	return r.writePlain("URL:       %s\n", shared.WatchURL(id))
}

// writeFailure prints the attempt log of an exhausted resolution and returns err.
func (r *Runner) writeFailure(cmd *cli.Command, err error) error {
	var ee *models.ExhaustedError
	if !errors.As(err, &ee) {
		return err
	}

	if cmd.Bool("json") {
		attempts := ee.Attempts
		if attempts == nil {
			attempts = models.AttemptLog{}
		}
		r.writeJSON(map[string]any{
			"status":     "error",
			"message":    shared.ErrAllSourcesFailed.Error(),
			"identifier": ee.Identifier,
			"attempts":   attempts,
		}, cmd.Bool("pretty"))
		return err
	}

	if len(ee.Attempts) > 0 {
		r.writePlain("%s\n", formatter.AttemptsTable(ee.Attempts))
	}
	return err
}

// argument returns the named positional argument, falling back to the first raw argument.
func argument(cmd *cli.Command, name string) string {
	if v := strings.TrimSpace(cmd.StringArg(name)); v != "" {
		return v
	}
	return strings.TrimSpace(cmd.Args().First())
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
