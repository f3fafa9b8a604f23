// Playlist page scraping [Strategy] implementation
//
// Last-resort playlist source: fetches the public playlist page and pulls video ids out of the embedded data.
package services

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/shared"
	"github.com/samber/lo"
)

const scrapeName = "scrape"

var (
	scrapeVideoIDPattern = regexp.MustCompile(`"videoId":"([A-Za-z0-9_-]{11})"`)
	scrapeTitlePattern   = regexp.MustCompile(`(?s)<title>(.*?)</title>`)
)

// ScrapeService lists playlist entries by scraping the playlist page.
type ScrapeService struct {
	config     shared.ScrapeConfig
	oembed     *OEmbedService
	httpClient *http.Client
}

// NewScrapeService creates the scraper. When oembed is non-nil and enrichment is enabled,
// the first EnrichLimit entries get real titles and authors.
func NewScrapeService(config shared.ScrapeConfig, oembed *OEmbedService, client *http.Client) *ScrapeService {
	if client == nil {
		client = http.DefaultClient
	}
	return &ScrapeService{config: config, oembed: oembed, httpClient: client}
}

func (s *ScrapeService) Name() string { return scrapeName }

// PlaylistStrategy exposes the scraper with the page endpoint as its single instance.
func (s *ScrapeService) PlaylistStrategy() ListingStrategy {
	return NewStrategy(scrapeName, []string{s.config.Endpoint}, s.config.Timeout, 0, s.Playlist)
}

// Playlist fetches endpoint?list={id} and extracts its entries.
func (s *ScrapeService) Playlist(ctx context.Context, instance, playlistID string) (*models.Listing, error) {
	req, err := newGet(ctx, instance, s.config.UserAgent, url.Values{"list": {playlistID}})
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	data, err := do(s.httpClient, req)
	if err != nil {
		return nil, err
	}

	title, items := parsePlaylistPage(string(data))
	if len(items) == 0 {
		return nil, models.EmptyResultError("no video ids in playlist page")
	}

	if s.config.Enrich && s.oembed != nil {
		limit := min(s.config.EnrichLimit, len(items))
		for n := range limit {
			if ctx.Err() != nil {
				break
			}
			s.oembed.Enrich(ctx, &items[n])
		}
	}

	return &models.Listing{
		Capability: models.CapabilityPlaylist,
		Query:      playlistID,
		Source:     scrapeName,
		Instance:   instance,
		Title:      title,
		Items:      items,
	}, nil
}

// parsePlaylistPage returns the page title and one placeholder entry per distinct video id, in page order.
func parsePlaylistPage(page string) (string, []models.ListingItem) {
	ids := lo.Uniq(lo.Map(scrapeVideoIDPattern.FindAllStringSubmatch(page, -1), func(m []string, _ int) string {
		return m[1]
	}))

	items := make([]models.ListingItem, 0, len(ids))
	for n, id := range ids {
		items = append(items, models.NewVideoItem(id, fmt.Sprintf("Track %d", n+1), ""))
	}

	var title string
	if m := scrapeTitlePattern.FindStringSubmatch(page); m != nil {
		title = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(html.UnescapeString(m[1])), "- YouTube"))
	}
	return title, items
}
