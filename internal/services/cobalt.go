// Cobalt download-tool [Strategy] implementation
//
// Posts a watch URL to each configured cobalt instance and asks for an audio-only download.
package services

import (
	"context"
	"net/http"
	"path"
	"strings"

	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/shared"
)

const cobaltName = "cobalt"

// CobaltService resolves streams through cobalt API instances.
type CobaltService struct {
	config     shared.CobaltConfig
	httpClient *http.Client
}

// NewCobaltService creates a cobalt adapter. A nil client uses [http.DefaultClient].
func NewCobaltService(config shared.CobaltConfig, client *http.Client) *CobaltService {
	if client == nil {
		client = http.DefaultClient
	}
	if config.DownloadMode == "" {
		config.DownloadMode = "audio"
	}
	return &CobaltService{config: config, httpClient: client}
}

// Name returns the strategy name.
func (c *CobaltService) Name() string { return cobaltName }

// StreamStrategy exposes the adapter as a [StreamStrategy] over the configured mirrors.
func (c *CobaltService) StreamStrategy() StreamStrategy {
	return NewStrategy(cobaltName, c.config.Instances, c.config.Timeout, c.config.Retries, c.Stream)
}

type cobaltRequest struct {
	URL          string `json:"url"`
	DownloadMode string `json:"downloadMode"`
	AudioFormat  string `json:"audioFormat,omitempty"`
}

type cobaltResponse struct {
	Status   string `json:"status"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Text     string `json:"text"`
	Audio    string `json:"audio"`
	Picker   []struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"picker"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

// cobaltResult is the parsed form of a cobalt response.
type cobaltResult struct {
	Candidates []models.Candidate
	Filename   string
}

// Stream performs one cobalt call against instance.
func (c *CobaltService) Stream(ctx context.Context, instance, videoID string) (*models.ResolvedItem, error) {
	body := cobaltRequest{
		URL:          "https://youtube.com/watch?v=" + videoID,
		DownloadMode: c.config.DownloadMode,
		AudioFormat:  c.config.AudioFormat,
	}

	req, err := newJSONPost(ctx, strings.TrimRight(instance, "/")+"/", c.config.UserAgent, body)
	if err != nil {
		return nil, err
	}
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Api-Key "+c.config.APIKey)
	}

	data, err := do(c.httpClient, req)
	if err != nil {
		return nil, err
	}

	parsed, err := parseCobalt(data, audioMime(c.config.AudioFormat))
	if err != nil {
		return nil, err
	}

	best, err := SelectBest(parsed.Candidates)
	if err != nil {
		return nil, err
	}

	item := models.FromCandidate(videoID, best)
	item.Source = cobaltName
	item.Instance = instance
	item.Title = strings.TrimSuffix(parsed.Filename, path.Ext(parsed.Filename))
	return item, nil
}

// parseCobalt maps a cobalt payload to candidates.
//
// tunnel, redirect and stream carry one URL; picker carries several; error is a parse failure.
func parseCobalt(data []byte, mime string) (*cobaltResult, error) {
	var resp cobaltResponse
	if err := decode(data, &resp); err != nil {
		return nil, err
	}

	result := &cobaltResult{Filename: resp.Filename}

	switch resp.Status {
	case "tunnel", "redirect", "stream":
		if resp.URL == "" {
			return nil, models.EmptyResultError("status=" + resp.Status + " without url")
		}
		result.Candidates = []models.Candidate{{URL: resp.URL, MimeType: mime}}
	case "picker":
		if resp.Audio != "" {
			result.Candidates = append(result.Candidates, models.Candidate{URL: resp.Audio, MimeType: mime})
		}
		for _, p := range resp.Picker {
			if p.Type != "photo" && p.URL != "" {
				result.Candidates = append(result.Candidates, models.Candidate{URL: p.URL, MimeType: mime})
			}
		}
		if len(result.Candidates) == 0 {
			return nil, models.EmptyResultError("status=picker without audio")
		}
	case "error":
		code := resp.Text
		if resp.Error != nil && resp.Error.Code != "" {
			code = resp.Error.Code
		}
		return nil, models.ParseError("status=error %s", code)
	case "":
		return nil, models.ParseError("missing status field")
	default:
		return nil, models.EmptyResultError(strings.TrimSpace("status=" + resp.Status + " " + resp.Text))
	}

	return result, nil
}

// audioMime maps a cobalt audio format to a mime type, or "" when unknown.
func audioMime(format string) string {
	switch strings.ToLower(format) {
	case "opus", "ogg":
		return "audio/ogg"
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	default:
		return ""
	}
}
