// Invidious API [Strategy] implementation
package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/shared"
	"github.com/samber/lo"
)

const invidiousName = "invidious"

// InvidiousService resolves streams and listings through Invidious mirrors.
type InvidiousService struct {
	config     shared.MirrorConfig
	httpClient *http.Client
}

// NewInvidiousService creates an Invidious adapter. A nil client uses [http.DefaultClient].
func NewInvidiousService(config shared.MirrorConfig, client *http.Client) *InvidiousService {
	if client == nil {
		client = http.DefaultClient
	}
	return &InvidiousService{config: config, httpClient: client}
}

func (v *InvidiousService) Name() string { return invidiousName }

func (v *InvidiousService) StreamStrategy() StreamStrategy {
	return NewStrategy(invidiousName, v.config.Instances, v.config.Timeout, v.config.Retries, v.Stream)
}

func (v *InvidiousService) SearchStrategy() ListingStrategy {
	return NewStrategy(invidiousName, v.config.Instances, v.config.Timeout, v.config.Retries, v.Search)
}

func (v *InvidiousService) PlaylistStrategy() ListingStrategy {
	return NewStrategy(invidiousName, v.config.Instances, v.config.Timeout, v.config.Retries, v.Playlist)
}

func (v *InvidiousService) TrendingStrategy() ListingStrategy {
	return NewStrategy(invidiousName, v.config.Instances, v.config.Timeout, v.config.Retries, v.Trending)
}

type invidiousThumbnail struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
	Width   int    `json:"width"`
}

type invidiousVideo struct {
	Title           string               `json:"title"`
	Author          string               `json:"author"`
	LengthSeconds   flexInt              `json:"lengthSeconds"`
	VideoThumbnails []invidiousThumbnail `json:"videoThumbnails"`
	Error           string               `json:"error"`
	AdaptiveFormats []invidiousFormat    `json:"adaptiveFormats"`
}

type invidiousFormat struct {
	URL     string  `json:"url"`
	Type    string  `json:"type"`
	Bitrate flexInt `json:"bitrate"`
}

// invidiousEntry is the shared shape of search, playlist and trending entries.
type invidiousEntry struct {
	Type          string  `json:"type"`
	VideoID       string  `json:"videoId"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	LengthSeconds flexInt `json:"lengthSeconds"`
}

type invidiousPlaylist struct {
	Title  string           `json:"title"`
	Videos []invidiousEntry `json:"videos"`
	Error  string           `json:"error"`
}

// Stream calls /api/v1/videos/{id} on instance.
func (v *InvidiousService) Stream(ctx context.Context, instance, videoID string) (*models.ResolvedItem, error) {
	data, err := v.get(ctx, joinURL(instance, "api/v1/videos", videoID), nil)
	if err != nil {
		return nil, err
	}

	item, err := parseInvidiousVideo(videoID, data)
	if err != nil {
		return nil, err
	}
	item.Source = invidiousName
	item.Instance = instance
	return item, nil
}

// Search calls /api/v1/search restricted to videos.
func (v *InvidiousService) Search(ctx context.Context, instance, query string) (*models.Listing, error) {
	data, err := v.get(ctx, joinURL(instance, "api/v1/search"), url.Values{"q": {query}, "type": {"video"}})
	if err != nil {
		return nil, err
	}

	var entries []invidiousEntry
	if err := decode(data, &entries); err != nil {
		return nil, err
	}
	return v.listing(models.CapabilitySearch, query, instance, "", entries)
}

// Playlist calls /api/v1/playlists/{id}.
func (v *InvidiousService) Playlist(ctx context.Context, instance, playlistID string) (*models.Listing, error) {
	data, err := v.get(ctx, joinURL(instance, "api/v1/playlists", playlistID), nil)
	if err != nil {
		return nil, err
	}

	var resp invidiousPlaylist
	if err := decode(data, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, models.ParseError("invidious error: %s", resp.Error)
	}
	return v.listing(models.CapabilityPlaylist, playlistID, instance, resp.Title, resp.Videos)
}

// Trending calls /api/v1/trending in the music category.
func (v *InvidiousService) Trending(ctx context.Context, instance, region string) (*models.Listing, error) {
	if region == "" {
		region = "US"
	}

	data, err := v.get(ctx, joinURL(instance, "api/v1/trending"), url.Values{"type": {"music"}, "region": {region}})
	if err != nil {
		return nil, err
	}

	var entries []invidiousEntry
	if err := decode(data, &entries); err != nil {
		return nil, err
	}
	return v.listing(models.CapabilityTrending, region, instance, "", entries)
}

func (v *InvidiousService) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	req, err := newGet(ctx, endpoint, v.config.UserAgent, query)
	if err != nil {
		return nil, err
	}
	return do(v.httpClient, req)
}

func (v *InvidiousService) listing(c models.Capability, query, instance, title string, raw []invidiousEntry) (*models.Listing, error) {
	items := invidiousItems(raw)
	if len(items) == 0 {
		return nil, models.EmptyResultError("no results")
	}
	return &models.Listing{
		Capability: c,
		Query:      query,
		Source:     invidiousName,
		Instance:   instance,
		Title:      title,
		Items:      items,
	}, nil
}

// parseInvidiousVideo maps a /videos payload to the best audio-only adaptive format.
func parseInvidiousVideo(videoID string, data []byte) (*models.ResolvedItem, error) {
	var resp invidiousVideo
	if err := decode(data, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, models.ParseError("invidious error: %s", resp.Error)
	}

	candidates := lo.FilterMap(resp.AdaptiveFormats, func(f invidiousFormat, _ int) (models.Candidate, bool) {
		return models.Candidate{URL: f.URL, MimeType: f.Type, Bitrate: int(f.Bitrate)}, isAudioMime(f.Type)
	})

	best, err := SelectBest(candidates)
	if err != nil {
		return nil, models.EmptyResultError("no audio formats")
	}

	item := models.FromCandidate(videoID, best)
	item.Title = resp.Title
	item.Artist = resp.Author
	item.Duration = int(resp.LengthSeconds)
	if len(resp.VideoThumbnails) > 0 {
		thumb := lo.MaxBy(resp.VideoThumbnails, func(a, b invidiousThumbnail) bool { return a.Width > b.Width })
		if shared.IsAbsoluteURL(thumb.URL) {
			item.Cover = thumb.URL
		}
	}
	return item, nil
}

func invidiousItems(raw []invidiousEntry) []models.ListingItem {
	return lo.FilterMap(raw, func(e invidiousEntry, _ int) (models.ListingItem, bool) {
		if e.Type != "" && e.Type != "video" {
			return models.ListingItem{}, false
		}
		if !shared.IsVideoID(e.VideoID) {
			return models.ListingItem{}, false
		}
		item := models.NewVideoItem(e.VideoID, e.Title, e.Author)
		item.Duration = int(e.LengthSeconds)
		return item, true
	})
}
