package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/purelyd/internal/formatter"
	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/shared"
	"golang.org/x/time/rate"
)

// PrefetchOpts contains configuration for a prefetch run.
type PrefetchOpts struct {
	OutputDir string  // Manifest directory (default: prefetch_{epoch})
	RateLimit float64 // Resolutions per second (default: 2)
	Limit     int     // Maximum items resolved, 0 for all
}

// PrefetchEntry is the outcome of resolving one listing item.
type PrefetchEntry struct {
	ID       string               `json:"id"`
	Title    string               `json:"title"`
	Item     *models.ResolvedItem `json:"item,omitempty"`
	Error    string               `json:"error,omitempty"`
	Attempts models.AttemptLog    `json:"attempts,omitempty"`
}

// PrefetchResult summarizes a prefetch run and is serialized as its manifest.
type PrefetchResult struct {
	RunID        string          `json:"runId"`
	Capability   string          `json:"capability"`
	Query        string          `json:"query"`
	Source       string          `json:"source"`
	Title        string          `json:"title,omitempty"`
	StartedAt    time.Time       `json:"startedAt"`
	FinishedAt   time.Time       `json:"finishedAt"`
	Total        int             `json:"total"`
	Resolved     int             `json:"resolved"`
	Failed       int             `json:"failed"`
	Entries      []PrefetchEntry `json:"entries"`
	ManifestPath string          `json:"-"`
}

// Prefetch fetches the listing for query and resolves a stream for every entry.
func (e *Engine) Prefetch(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	capability models.Capability,
	query string,
	opts PrefetchOpts,
) (*PrefetchResult, error) {
	if e.resolver == nil {
		return nil, fmt.Errorf("%w: resolver not initialized", shared.ErrMissingConfig)
	}

	e.sendProgress(prog, fetchListingUpdate(capability, query))
	listing, err := e.resolver.Listing(ctx, capability, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", capability, err)
	}
	e.sendProgress(prog, foundListingUpdate(listing))

	return e.PrefetchListing(ctx, prog, listing, opts)
}

// PrefetchListing resolves every entry of listing sequentially under a rate limiter and writes a JSON manifest.
//
// Failed entries are recorded with their attempt log and do not stop the run;
// cancellation stops it and still writes the partial manifest.
func (e *Engine) PrefetchListing(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	listing *models.Listing,
	opts PrefetchOpts,
) (*PrefetchResult, error) {
	if e.resolver == nil {
		return nil, fmt.Errorf("%w: resolver not initialized", shared.ErrMissingConfig)
	}
	if listing == nil {
		return nil, fmt.Errorf("%w: nil listing", shared.ErrInvalidInput)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("prefetch_%d", time.Now().Unix())
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	items := listing.Items
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &PrefetchResult{
		RunID:      shared.GenerateID(),
		Capability: listing.Capability.String(),
		Query:      listing.Query,
		Source:     listing.Source,
		Title:      listing.Title,
		StartedAt:  time.Now().UTC(),
		Total:      len(items),
		Entries:    make([]PrefetchEntry, 0, len(items)),
	}
	logger := e.logger.With("run", result.RunID)

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	var runErr error
	for i, item := range items {
		if err := limiter.Wait(ctx); err != nil {
			runErr = err
			break
		}

		e.sendProgress(prog, resolvingUpdate(i+1, len(items), item))
		entry := e.resolveEntry(ctx, item)
		if ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}

		result.Entries = append(result.Entries, entry)
		if entry.Item != nil {
			result.Resolved++
			e.sendProgress(prog, resolvedUpdate(i+1, len(items), entry))
		} else {
			result.Failed++
			logger.Warn("prefetch failed", "id", entry.ID, "err", entry.Error)
			e.sendProgress(prog, resolveFailedUpdate(i+1, len(items), entry))
		}
	}
	result.FinishedAt = time.Now().UTC()

	manifestPath := filepath.Join(opts.OutputDir, "manifest_"+result.RunID+".json")
	if err := formatter.WriteJSON(result, manifestPath); err != nil {
		return result, fmt.Errorf("prefetch completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))

	logger.Info("prefetch finished", "resolved", result.Resolved, "failed", result.Failed, "manifest", manifestPath)
	if runErr != nil {
		return result, fmt.Errorf("prefetch interrupted: %w", runErr)
	}
	return result, nil
}

func (e *Engine) resolveEntry(ctx context.Context, item models.ListingItem) PrefetchEntry {
	entry := PrefetchEntry{ID: item.ID, Title: item.Title}

	resolved, err := e.resolver.Stream(ctx, item.ID)
	if err != nil {
		entry.Error = err.Error()
		var ee *models.ExhaustedError
		if errors.As(err, &ee) {
			entry.Attempts = ee.Attempts
		}
		return entry
	}

	if resolved.Title == "" {
		resolved.Title = item.Title
	}
	if resolved.Artist == "" {
		resolved.Artist = item.Artist
	}
	entry.Item = resolved
	return entry
}
