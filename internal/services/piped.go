// Piped API [Strategy] implementation
//
// Piped mirrors serve streams, search, playlists and trending from a shared JSON schema.
package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/shared"
	"github.com/samber/lo"
)

const pipedName = "piped"

// PipedService resolves streams and listings through Piped API mirrors.
type PipedService struct {
	config     shared.MirrorConfig
	httpClient *http.Client
}

// NewPipedService creates a Piped adapter. A nil client uses [http.DefaultClient].
func NewPipedService(config shared.MirrorConfig, client *http.Client) *PipedService {
	if client == nil {
		client = http.DefaultClient
	}
	return &PipedService{config: config, httpClient: client}
}

// Name returns the strategy name.
func (p *PipedService) Name() string { return pipedName }

func (p *PipedService) StreamStrategy() StreamStrategy {
	return NewStrategy(pipedName, p.config.Instances, p.config.Timeout, p.config.Retries, p.Stream)
}

func (p *PipedService) SearchStrategy() ListingStrategy {
	return NewStrategy(pipedName, p.config.Instances, p.config.Timeout, p.config.Retries, p.Search)
}

func (p *PipedService) PlaylistStrategy() ListingStrategy {
	return NewStrategy(pipedName, p.config.Instances, p.config.Timeout, p.config.Retries, p.Playlist)
}

func (p *PipedService) TrendingStrategy() ListingStrategy {
	return NewStrategy(pipedName, p.config.Instances, p.config.Timeout, p.config.Retries, p.Trending)
}

type pipedStreams struct {
	Title        string `json:"title"`
	Uploader     string `json:"uploader"`
	Duration     int    `json:"duration"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Error        string `json:"error"`
	Message      string `json:"message"`
	AudioStreams []struct {
		URL      string  `json:"url"`
		MimeType string  `json:"mimeType"`
		Bitrate  flexInt `json:"bitrate"`
	} `json:"audioStreams"`
}

// pipedItem is the shared shape of search, playlist and trending entries.
type pipedItem struct {
	URL          string `json:"url"`
	Type         string `json:"type"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	UploaderName string `json:"uploaderName"`
	Thumbnail    string `json:"thumbnail"`
	Duration     int    `json:"duration"`
}

type pipedSearch struct {
	Items []pipedItem `json:"items"`
	Error string      `json:"error"`
}

type pipedPlaylist struct {
	Name           string      `json:"name"`
	RelatedStreams []pipedItem `json:"relatedStreams"`
	Error          string      `json:"error"`
}

// Stream calls /streams/{id} on instance.
func (p *PipedService) Stream(ctx context.Context, instance, videoID string) (*models.ResolvedItem, error) {
	data, err := p.get(ctx, joinURL(instance, "streams", videoID), nil)
	if err != nil {
		return nil, err
	}

	item, err := parsePipedStreams(videoID, data)
	if err != nil {
		return nil, err
	}
	item.Source = pipedName
	item.Instance = instance
	return item, nil
}

// Search calls /search with the music songs filter.
func (p *PipedService) Search(ctx context.Context, instance, query string) (*models.Listing, error) {
	data, err := p.get(ctx, joinURL(instance, "search"), url.Values{"q": {query}, "filter": {"music_songs"}})
	if err != nil {
		return nil, err
	}

	var resp pipedSearch
	if err := decode(data, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, models.ParseError("piped error: %s", resp.Error)
	}

	return p.listing(models.CapabilitySearch, query, instance, "", resp.Items)
}

// Playlist calls /playlists/{id}.
func (p *PipedService) Playlist(ctx context.Context, instance, playlistID string) (*models.Listing, error) {
	data, err := p.get(ctx, joinURL(instance, "playlists", playlistID), nil)
	if err != nil {
		return nil, err
	}

	var resp pipedPlaylist
	if err := decode(data, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, models.ParseError("piped error: %s", resp.Error)
	}

	return p.listing(models.CapabilityPlaylist, playlistID, instance, resp.Name, resp.RelatedStreams)
}

// Trending calls /trending for region; an empty region defaults to US.
func (p *PipedService) Trending(ctx context.Context, instance, region string) (*models.Listing, error) {
	if region == "" {
		region = "US"
	}

	data, err := p.get(ctx, joinURL(instance, "trending"), url.Values{"region": {region}})
	if err != nil {
		return nil, err
	}

	var items []pipedItem
	if err := decode(data, &items); err != nil {
		return nil, err
	}

	return p.listing(models.CapabilityTrending, region, instance, "", items)
}

func (p *PipedService) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	req, err := newGet(ctx, endpoint, p.config.UserAgent, query)
	if err != nil {
		return nil, err
	}
	return do(p.httpClient, req)
}

func (p *PipedService) listing(c models.Capability, query, instance, title string, raw []pipedItem) (*models.Listing, error) {
	items := pipedItems(raw)
	if len(items) == 0 {
		return nil, models.EmptyResultError("no results")
	}
	return &models.Listing{
		Capability: c,
		Query:      query,
		Source:     pipedName,
		Instance:   instance,
		Title:      title,
		Items:      items,
	}, nil
}

// parsePipedStreams maps a /streams payload to the best audio stream.
func parsePipedStreams(videoID string, data []byte) (*models.ResolvedItem, error) {
	var resp pipedStreams
	if err := decode(data, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, models.ParseError("piped error: %s", firstNonEmpty(resp.Message, resp.Error))
	}

	candidates := make([]models.Candidate, 0, len(resp.AudioStreams))
	for _, s := range resp.AudioStreams {
		candidates = append(candidates, models.Candidate{URL: s.URL, MimeType: s.MimeType, Bitrate: int(s.Bitrate)})
	}

	best, err := SelectBest(candidates)
	if err != nil {
		return nil, models.EmptyResultError("no audio streams")
	}

	item := models.FromCandidate(videoID, best)
	item.Title = resp.Title
	item.Artist = resp.Uploader
	item.Duration = resp.Duration
	if resp.ThumbnailURL != "" {
		item.Cover = resp.ThumbnailURL
	}
	return item, nil
}

// pipedItems keeps stream entries whose url names a video and normalizes them.
func pipedItems(raw []pipedItem) []models.ListingItem {
	return lo.FilterMap(raw, func(it pipedItem, _ int) (models.ListingItem, bool) {
		if it.Type != "" && it.Type != "stream" {
			return models.ListingItem{}, false
		}
		id, err := shared.ExtractVideoID(it.URL)
		if err != nil {
			return models.ListingItem{}, false
		}

		item := models.NewVideoItem(id, firstNonEmpty(it.Title, it.Name), it.UploaderName)
		item.Duration = it.Duration
		if it.Thumbnail != "" {
			item.Cover = it.Thumbnail
		}
		return item, true
	})
}
