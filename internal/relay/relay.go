// package relay streams upstream media bytes to a client, preserving range semantics
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/purelyd/internal/shared"
)

const (
	defaultBufferSize  = 32 << 10
	defaultContentType = "audio/webm"
)

// copied from upstream to client when present
var passthroughHeaders = []string{"Content-Length", "Content-Range", "Last-Modified", "ETag"}

// Relay forwards GET requests for media URLs.
type Relay struct {
	client             *http.Client
	userAgent          string
	defaultContentType string
	bufferSize         int
	allowedHosts       []string
	logger             *log.Logger
}

// New creates a relay from its configuration. A nil client uses [http.DefaultClient].
func New(config shared.RelayConfig, client *http.Client, logger *log.Logger) *Relay {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	r := &Relay{
		client:             client,
		userAgent:          config.UserAgent,
		defaultContentType: config.DefaultContentType,
		bufferSize:         config.BufferSize,
		logger:             logger,
	}
	for _, h := range config.AllowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			r.allowedHosts = append(r.allowedHosts, h)
		}
	}
	if r.defaultContentType == "" {
		r.defaultContentType = defaultContentType
	}
	if r.bufferSize <= 0 {
		r.bufferSize = defaultBufferSize
	}
	return r
}

// Allowed reports whether host passes the allow-list. An empty list allows any host.
func (r *Relay) Allowed(host string) bool {
	if len(r.allowedHosts) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, h := range r.allowedHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Forward fetches mediaURL with the optional Range header and streams the response to w.
//
// Error responses are written as JSON `{error}` bodies; the returned error describes what went wrong
// for logging and is nil once streaming started cleanly.
func (r *Relay) Forward(ctx context.Context, w http.ResponseWriter, mediaURL, rangeHeader string) error {
	u, err := url.Parse(mediaURL)
	if err != nil || !shared.IsAbsoluteURL(mediaURL) {
		writeError(w, http.StatusBadRequest, "Invalid URL")
		return fmt.Errorf("%w: media url %q", shared.ErrInvalidArgument, mediaURL)
	}
	if !r.Allowed(u.Hostname()) {
		writeError(w, http.StatusForbidden, "Host not allowed")
		return fmt.Errorf("%w: %s", shared.ErrHostNotAllowed, u.Hostname())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid URL")
		return fmt.Errorf("failed to create request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return fmt.Errorf("%w: %v", shared.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		writeError(w, resp.StatusCode, "Upstream: "+strconv.Itoa(resp.StatusCode))
		return fmt.Errorf("%w: status %d", shared.ErrUpstream, resp.StatusCode)
	}

	h := w.Header()
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = r.defaultContentType
	}
	h.Set("Content-Type", contentType)
	for _, name := range passthroughHeaders {
		if v := resp.Header.Get(name); v != "" {
			h.Set(name, v)
		}
	}
	h.Set("Accept-Ranges", "bytes")
	w.WriteHeader(resp.StatusCode)

	n, err := io.CopyBuffer(flushWriter{w}, resp.Body, make([]byte, r.bufferSize))
	if err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Debug("relay copy interrupted", "url", u.Host, "bytes", n, "err", err)
		return fmt.Errorf("copy interrupted after %d bytes: %w", n, err)
	}
	return nil
}

// flushWriter flushes after every write so clients receive bytes as they arrive.
type flushWriter struct {
	w http.ResponseWriter
}

func (f flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if fl, ok := f.w.(http.Flusher); ok {
		fl.Flush()
	}
	return n, err
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
