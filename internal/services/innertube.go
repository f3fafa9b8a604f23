// Platform player [Strategy] implementation
//
// Calls the Innertube player endpoint directly while presenting one of the configured client identities.
// Instances for this strategy are client names rather than mirror URLs.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/shared"
	"github.com/samber/lo"
)

const innertubeName = "innertube"

// InnertubeService resolves streams from the platform player endpoint.
type InnertubeService struct {
	config     shared.InnertubeConfig
	clients    map[string]shared.InnertubeClient
	httpClient *http.Client
}

// NewInnertubeService creates the platform-direct adapter. A nil client uses [http.DefaultClient].
func NewInnertubeService(config shared.InnertubeConfig, client *http.Client) *InnertubeService {
	if client == nil {
		client = http.DefaultClient
	}
	return &InnertubeService{
		config:     config,
		clients:    lo.KeyBy(config.Clients, func(c shared.InnertubeClient) string { return c.Name }),
		httpClient: client,
	}
}

func (i *InnertubeService) Name() string { return innertubeName }

// ClientNames returns the configured client identities in order.
func (i *InnertubeService) ClientNames() []string {
	return lo.Map(i.config.Clients, func(c shared.InnertubeClient, _ int) string { return c.Name })
}

func (i *InnertubeService) StreamStrategy() StreamStrategy {
	return NewStrategy(innertubeName, i.ClientNames(), i.config.Timeout, i.config.Retries, i.Stream)
}

type innertubeRequest struct {
	VideoID        string           `json:"videoId"`
	Context        innertubeContext `json:"context"`
	ContentCheckOK bool             `json:"contentCheckOk"`
	RacyCheckOK    bool             `json:"racyCheckOk"`
}

type innertubeContext struct {
	Client innertubeClientContext `json:"client"`
}

type innertubeClientContext struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSDKVersion int    `json:"androidSdkVersion,omitempty"`
	HL                string `json:"hl,omitempty"`
	GL                string `json:"gl,omitempty"`
}

type innertubeFormat struct {
	URL      string  `json:"url"`
	MimeType string  `json:"mimeType"`
	Bitrate  flexInt `json:"bitrate"`
}

type innertubePlayer struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	StreamingData struct {
		AdaptiveFormats []innertubeFormat `json:"adaptiveFormats"`
	} `json:"streamingData"`
	VideoDetails struct {
		Title         string  `json:"title"`
		Author        string  `json:"author"`
		LengthSeconds flexInt `json:"lengthSeconds"`
		Thumbnail     struct {
			Thumbnails []struct {
				URL   string `json:"url"`
				Width int    `json:"width"`
			} `json:"thumbnails"`
		} `json:"thumbnail"`
	} `json:"videoDetails"`
}

// Stream issues one player call as the client named by instance.
func (i *InnertubeService) Stream(ctx context.Context, instance, videoID string) (*models.ResolvedItem, error) {
	client, ok := i.clients[instance]
	if !ok {
		return nil, models.ParseError("%w: %s", shared.ErrUnknownClient, instance)
	}

	body := innertubeRequest{
		VideoID: videoID,
		Context: innertubeContext{Client: innertubeClientContext{
			ClientName:        client.Name,
			ClientVersion:     client.Version,
			AndroidSDKVersion: client.AndroidSDK,
			HL:                client.HL,
			GL:                client.GL,
		}},
		ContentCheckOK: true,
		RacyCheckOK:    true,
	}

	req, err := newJSONPost(ctx, i.endpoint(), client.UserAgent, body)
	if err != nil {
		return nil, err
	}

	data, err := do(i.httpClient, req)
	if err != nil {
		return nil, err
	}

	item, err := parseInnertubePlayer(videoID, data)
	if err != nil {
		return nil, err
	}
	item.Source = innertubeName
	item.Instance = instance
	return item, nil
}

// endpoint returns the player URL with the api key when one is configured.
func (i *InnertubeService) endpoint() string {
	q := url.Values{"prettyPrint": {"false"}}
	if i.config.APIKey != "" {
		q.Set("key", i.config.APIKey)
	}
	sep := "?"
	if strings.Contains(i.config.Endpoint, "?") {
		sep = "&"
	}
	return i.config.Endpoint + sep + q.Encode()
}

// parseInnertubePlayer maps a player response to the best audio format.
//
// Anything other than a playable OK status is a parse failure carrying the upstream reason.
func parseInnertubePlayer(videoID string, data []byte) (*models.ResolvedItem, error) {
	var resp innertubePlayer
	if err := decode(data, &resp); err != nil {
		return nil, err
	}

	if status := resp.PlayabilityStatus.Status; status != "OK" {
		reason := firstNonEmpty(resp.PlayabilityStatus.Reason, "no reason given")
		if status == "" {
			status = "missing"
		}
		return nil, models.ParseError("playability %s: %s", status, reason)
	}

	candidates := lo.FilterMap(resp.StreamingData.AdaptiveFormats, func(f innertubeFormat, _ int) (models.Candidate, bool) {
		return models.Candidate{URL: f.URL, MimeType: f.MimeType, Bitrate: int(f.Bitrate)}, isAudioMime(f.MimeType) && f.URL != ""
	})

	best, err := SelectBest(candidates)
	if err != nil {
		return nil, models.EmptyResultError(fmt.Sprintf("no direct audio urls in %d formats", len(resp.StreamingData.AdaptiveFormats)))
	}

	d := resp.VideoDetails
	item := models.FromCandidate(videoID, best)
	item.Title = d.Title
	item.Artist = d.Author
	item.Duration = int(d.LengthSeconds)
	if thumbs := d.Thumbnail.Thumbnails; len(thumbs) > 0 {
		largest := thumbs[0]
		for _, t := range thumbs[1:] {
			if t.Width > largest.Width {
				largest = t
			}
		}
		if shared.IsAbsoluteURL(largest.URL) {
			item.Cover = largest.URL
		}
	}
	return item, nil
}
