package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/shared"
)

// OEmbed is the metadata returned by the oEmbed endpoint for a single video.
type OEmbed struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// OEmbedService looks up titles and authors for video ids without resolving streams.
type OEmbedService struct {
	config     shared.OEmbedConfig
	httpClient *http.Client
}

// NewOEmbedService creates a metadata client. A nil client uses [http.DefaultClient].
func NewOEmbedService(config shared.OEmbedConfig, client *http.Client) *OEmbedService {
	if client == nil {
		client = http.DefaultClient
	}
	return &OEmbedService{config: config, httpClient: client}
}

// Lookup fetches oEmbed metadata for videoID, bounded by the configured timeout.
func (o *OEmbedService) Lookup(ctx context.Context, videoID string) (*OEmbed, error) {
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	req, err := newGet(ctx, o.config.Endpoint, "", url.Values{"url": {shared.WatchURL(videoID)}, "format": {"json"}})
	if err != nil {
		return nil, err
	}

	data, err := do(o.httpClient, req)
	if err != nil {
		return nil, err
	}

	var meta OEmbed
	if err := decode(data, &meta); err != nil {
		return nil, err
	}
	if meta.Title == "" {
		return nil, models.EmptyResultError("oembed response without title")
	}
	return &meta, nil
}

// Enrich fills in title, artist and cover of item from oEmbed; lookup failures leave it unchanged.
func (o *OEmbedService) Enrich(ctx context.Context, item *models.ListingItem) bool {
	meta, err := o.Lookup(ctx, item.ID)
	if err != nil {
		return false
	}
	item.Title = meta.Title
	item.Artist = meta.AuthorName
	if meta.ThumbnailURL != "" {
		item.Cover = meta.ThumbnailURL
	}
	return true
}
