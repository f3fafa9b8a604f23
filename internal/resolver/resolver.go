// package resolver walks the ordered strategies for a capability and returns the first success
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/services"
	"github.com/desertthunder/purelyd/internal/shared"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Resolver holds the registered strategies per capability.
//
// It keeps no state between calls; a single value is safe for concurrent use once built.
type Resolver struct {
	streams  []services.StreamStrategy
	listings map[models.Capability][]services.ListingStrategy
	logger   *log.Logger
}

// Option configures a [Resolver].
type Option func(*Resolver)

// WithLogger sets the logger used for attempt and exhaustion records.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithStreams appends stream strategies in priority order.
func WithStreams(s ...services.StreamStrategy) Option {
	return func(r *Resolver) { r.streams = append(r.streams, s...) }
}

// WithListings appends listing strategies for c in priority order.
func WithListings(c models.Capability, s ...services.ListingStrategy) Option {
	return func(r *Resolver) { r.listings[c] = append(r.listings[c], s...) }
}

// New creates a resolver; with no options every capability has an empty registry.
func New(opts ...Option) *Resolver {
	r := &Resolver{listings: make(map[models.Capability][]services.ListingStrategy)}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	return r
}

// FromConfig registers every enabled strategy in the default priority order:
//
//	stream:   cobalt, piped, invidious, innertube
//	search:   piped, invidious
//	trending: piped, invidious
//	playlist: piped, invidious, scrape
func FromConfig(cfg *shared.Config, client *http.Client, logger *log.Logger) *Resolver {
	if client == nil {
		client = services.NewHTTPClient()
	}

	s := cfg.Strategies
	opts := []Option{WithLogger(logger)}

	if s.Cobalt.Enabled && len(s.Cobalt.Instances) > 0 {
		opts = append(opts, WithStreams(services.NewCobaltService(s.Cobalt, client).StreamStrategy()))
	}

	if s.Piped.Enabled && len(s.Piped.Instances) > 0 {
		p := services.NewPipedService(s.Piped, client)
		opts = append(opts,
			WithStreams(p.StreamStrategy()),
			WithListings(models.CapabilitySearch, p.SearchStrategy()),
			WithListings(models.CapabilityPlaylist, p.PlaylistStrategy()),
			WithListings(models.CapabilityTrending, p.TrendingStrategy()),
		)
	}

	if s.Invidious.Enabled && len(s.Invidious.Instances) > 0 {
		v := services.NewInvidiousService(s.Invidious, client)
		opts = append(opts,
			WithStreams(v.StreamStrategy()),
			WithListings(models.CapabilitySearch, v.SearchStrategy()),
			WithListings(models.CapabilityPlaylist, v.PlaylistStrategy()),
			WithListings(models.CapabilityTrending, v.TrendingStrategy()),
		)
	}

	if s.Innertube.Enabled && len(s.Innertube.Clients) > 0 {
		opts = append(opts, WithStreams(services.NewInnertubeService(s.Innertube, client).StreamStrategy()))
	}

	if s.Scrape.Enabled && s.Scrape.Endpoint != "" {
		var oembed *services.OEmbedService
		if s.Scrape.Enrich {
			oembed = services.NewOEmbedService(cfg.OEmbed, client)
		}
		opts = append(opts, WithListings(models.CapabilityPlaylist, services.NewScrapeService(s.Scrape, oembed, client).PlaylistStrategy()))
	}

	return New(opts...)
}

// Strategies returns the registered strategy names per capability, in priority order.
func (r *Resolver) Strategies() map[string][]string {
	out := map[string][]string{
		models.CapabilityStream.String(): lo.Map(r.streams, func(s services.StreamStrategy, _ int) string { return s.Name() }),
	}
	for _, c := range models.Capabilities[1:] {
		out[c.String()] = lo.Map(r.listings[c], func(s services.ListingStrategy, _ int) string { return s.Name() })
	}
	return out
}

// Resolve dispatches identifier to the walk for capability.
//
// A validation failure or exhaustion is the Err side; the error is an [*models.ExhaustedError] for exhaustion.
func (r *Resolver) Resolve(ctx context.Context, identifier string, capability models.Capability) mo.Result[models.Resolution] {
	if capability == models.CapabilityStream {
		item, attempts, err := r.stream(ctx, identifier)
		if err != nil {
			return mo.Err[models.Resolution](err)
		}
		return mo.Ok(models.Resolution{Capability: capability, Item: item, Attempts: attempts})
	}

	listing, attempts, err := r.listing(ctx, capability, identifier)
	if err != nil {
		return mo.Err[models.Resolution](err)
	}
	return mo.Ok(models.Resolution{Capability: capability, Listing: listing, Attempts: attempts})
}

// Stream resolves a video id (or any URL carrying one) to a playable audio URL.
func (r *Resolver) Stream(ctx context.Context, identifier string) (*models.ResolvedItem, error) {
	item, _, err := r.stream(ctx, identifier)
	return item, err
}

// Listing resolves a search query, playlist id or trending region to a listing.
func (r *Resolver) Listing(ctx context.Context, capability models.Capability, query string) (*models.Listing, error) {
	listing, _, err := r.listing(ctx, capability, query)
	return listing, err
}

func (r *Resolver) stream(ctx context.Context, identifier string) (*models.ResolvedItem, models.AttemptLog, error) {
	id, err := shared.ExtractVideoID(identifier)
	if err != nil {
		return nil, nil, err
	}
	return walk(ctx, r.logger, models.CapabilityStream, id, r.streams, validateItem)
}

func (r *Resolver) listing(ctx context.Context, capability models.Capability, query string) (*models.Listing, models.AttemptLog, error) {
	query = strings.TrimSpace(query)

	switch capability {
	case models.CapabilityStream:
		return nil, nil, fmt.Errorf("%w: stream is not a listing capability", shared.ErrInvalidArgument)
	case models.CapabilitySearch:
		if query == "" {
			return nil, nil, fmt.Errorf("%w: search query", shared.ErrMissingArgument)
		}
	case models.CapabilityPlaylist:
		id, err := shared.ExtractPlaylistID(query)
		if err != nil {
			return nil, nil, err
		}
		query = id
	case models.CapabilityTrending:
		query = strings.ToUpper(query)
	default:
		return nil, nil, fmt.Errorf("%w: %s", shared.ErrInvalidArgument, capability)
	}

	return walk(ctx, r.logger, capability, query, r.listings[capability], validateListing)
}

// walk tries each strategy's instances in order, each attempt under its own deadline.
//
// The first success returns with the log so far. Parent cancellation stops the walk with the
// cancellation as the exhaustion cause.
func walk[T any](
	ctx context.Context,
	logger *log.Logger,
	capability models.Capability,
	identifier string,
	strategies []services.Strategy[T],
	check func(T) error,
) (T, models.AttemptLog, error) {
	var zero T
	attempts := models.AttemptLog{}

	exhausted := func(cause error) error {
		logger.Warn("all sources failed",
			"capability", capability.String(),
			"identifier", identifier,
			"attempts", attempts.Strings(),
			"cause", cause,
		)
		return &models.ExhaustedError{Identifier: identifier, Capability: capability, Attempts: attempts, Cause: cause}
	}

	if len(strategies) == 0 {
		return zero, attempts, exhausted(shared.ErrNoStrategies)
	}

	for _, s := range strategies {
		for _, instance := range s.Instances() {
			for try := 0; try <= max(s.Retries(), 0); try++ {
				if err := ctx.Err(); err != nil {
					return zero, attempts, exhausted(err)
				}

				result, elapsed, err := attempt(ctx, s, instance, identifier, check)
				a := models.NewAttempt(s.Name(), instance, err, elapsed)
				attempts = append(attempts, a)

				logger.Debug("attempt",
					"capability", capability.String(),
					"strategy", a.Strategy,
					"instance", a.Instance,
					"outcome", string(a.Outcome),
					"detail", a.Detail,
					"elapsed", elapsed.Round(time.Millisecond),
				)

				if err == nil {
					return result, attempts, nil
				}
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return zero, attempts, exhausted(err)
	}
	return zero, attempts, exhausted(nil)
}

// attempt runs one call under the strategy's timeout and classifies the failure.
func attempt[T any](
	parent context.Context,
	s services.Strategy[T],
	instance, identifier string,
	check func(T) error,
) (T, time.Duration, error) {
	ctx, cancel := context.WithTimeout(parent, s.Timeout())
	defer cancel()

	start := time.Now()
	result, err := s.Attempt(ctx, instance, identifier)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
			err = models.TransportError(fmt.Errorf("%s: %w", instance, context.DeadlineExceeded))
		}
		return result, elapsed, err
	}

	if err := check(result); err != nil {
		var zero T
		return zero, elapsed, err
	}
	return result, elapsed, nil
}

func validateItem(item *models.ResolvedItem) error {
	if item == nil {
		return models.EmptyResultError("no result")
	}
	if err := item.Validate(); err != nil {
		return models.ParseError("%v", err)
	}
	return nil
}

func validateListing(l *models.Listing) error {
	if l == nil || len(l.Items) == 0 {
		return models.EmptyResultError("no results")
	}
	return nil
}
