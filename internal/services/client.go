package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/purelyd/internal/models"
)

// maxPayload bounds how much of an upstream JSON or HTML body is read.
const maxPayload = 8 << 20

// NewHTTPClient returns the outbound client shared by all strategies.
//
// It carries no overall timeout: every attempt is bounded by its own context deadline.
func NewHTTPClient() *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 50
	t.MaxIdleConnsPerHost = 4
	t.IdleConnTimeout = 30 * time.Second
	return &http.Client{Transport: t}
}

// do executes req and returns the body of a 2xx response.
//
// Transport and read failures become [models.TransportError]; other statuses become [models.UpstreamStatusError].
func do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, models.TransportError(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, models.UpstreamStatusError(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayload))
	if err != nil {
		return nil, models.TransportError(fmt.Errorf("failed to read response: %w", err))
	}
	return body, nil
}

// newJSONPost builds a POST request carrying payload as JSON.
func newJSONPost(ctx context.Context, endpoint, userAgent string, payload any) (*http.Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, models.TransportError(fmt.Errorf("failed to create request: %w", err))
	}
	r.Header.Set("Accept", "application/json")
	r.Header.Set("Content-Type", "application/json")
	if userAgent != "" {
		r.Header.Set("User-Agent", userAgent)
	}
	return r, nil
}

// newGet builds a GET request with the given query parameters.
func newGet(ctx context.Context, endpoint, userAgent string, query url.Values) (*http.Request, error) {
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, models.TransportError(fmt.Errorf("failed to create request: %w", err))
	}
	r.Header.Set("Accept", "application/json")
	if userAgent != "" {
		r.Header.Set("User-Agent", userAgent)
	}
	return r, nil
}

// joinURL appends path segments to a base instance URL.
func joinURL(base string, segments ...string) string {
	out := strings.TrimRight(base, "/")
	for _, s := range segments {
		out += "/" + strings.Trim(s, "/")
	}
	return out
}

// flexInt decodes integers that upstreams send either as JSON numbers or as numeric strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", data)
	}
	*f = flexInt(n)
	return nil
}

// decode unmarshals an upstream payload, mapping failures to [models.ParseError].
func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return models.ParseError("invalid JSON: %v", err)
	}
	return nil
}
