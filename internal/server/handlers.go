package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/shared"
)

// Routes lists the public routes reported by the index handler.
var Routes = []string{
	"/stream?v=VIDEO_ID",
	"/search?q=QUERY",
	"/playlist?list=PLAYLIST_ID",
	"/trending?region=REGION",
	"/proxy?url=AUDIO_URL",
	"/health",
}

// Error messages returned to clients.
const (
	msgMissingVideoID  = "Missing video ID"
	msgMissingQuery    = "Missing query"
	msgMissingPlaylist = "Missing playlist ID"
	msgMissingURL      = "Missing URL"
	msgStreamFailed    = "Could not extract audio from any source"
	msgListingFailed   = "Could not fetch results from any source"
)

type errorResponse struct {
	Error string `json:"error"`
}

type streamResponse struct {
	Status string `json:"status"`
	*models.ResolvedItem
}

type listingResponse struct {
	Status  string               `json:"status"`
	Source  string               `json:"source"`
	Title   string               `json:"title,omitempty"`
	Results []models.ListingItem `json:"results"`
}

type failureResponse struct {
	Status     string            `json:"status"`
	Message    string            `json:"message"`
	Identifier string            `json:"identifier"`
	Attempts   models.AttemptLog `json:"attempts"`
}

type healthResponse struct {
	Status     string              `json:"status"`
	Version    string              `json:"version"`
	Strategies map[string][]string `json:"strategies"`
}

// APIHandler serves the resolution routes.
type APIHandler struct {
	resolver Resolver
	version  string
	logger   *log.Logger
}

// Stream handles GET /stream?v=.
func (h *APIHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("v")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgMissingVideoID})
		return
	}

	res, err := h.resolver.Resolve(r.Context(), id, models.CapabilityStream).Get()
	if err != nil {
		h.writeFailure(w, id, msgStreamFailed, err)
		return
	}
	writeJSON(w, http.StatusOK, streamResponse{Status: "ok", ResolvedItem: res.Item})
}

// Search handles GET /search?q=.
func (h *APIHandler) Search(w http.ResponseWriter, r *http.Request) {
	h.listing(w, r, models.CapabilitySearch, r.URL.Query().Get("q"), msgMissingQuery)
}

// Playlist handles GET /playlist?list=.
func (h *APIHandler) Playlist(w http.ResponseWriter, r *http.Request) {
	h.listing(w, r, models.CapabilityPlaylist, r.URL.Query().Get("list"), msgMissingPlaylist)
}

// Trending handles GET /trending?region=; the region is optional.
func (h *APIHandler) Trending(w http.ResponseWriter, r *http.Request) {
	h.listing(w, r, models.CapabilityTrending, r.URL.Query().Get("region"), "")
}

func (h *APIHandler) listing(w http.ResponseWriter, r *http.Request, c models.Capability, query, missing string) {
	if query == "" && missing != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: missing})
		return
	}

	res, err := h.resolver.Resolve(r.Context(), query, c).Get()
	if err != nil {
		h.writeFailure(w, query, msgListingFailed, err)
		return
	}

	l := res.Listing
	writeJSON(w, http.StatusOK, listingResponse{Status: "ok", Source: l.Source, Title: l.Title, Results: l.Items})
}

// Health handles GET /health.
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: h.version, Strategies: h.resolver.Strategies()})
}

// Index handles GET / with the route listing.
func (h *APIHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"routes": Routes})
}

// NotFound answers unknown paths with the route listing and 404.
func (h *APIHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not found", "routes": Routes})
}

// writeFailure maps resolver errors: validation is 400, exhaustion is 500 with the attempt log.
func (h *APIHandler) writeFailure(w http.ResponseWriter, identifier, message string, err error) {
	var ee *models.ExhaustedError
	if !errors.As(err, &ee) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if errors.Is(err, shared.ErrNoStrategies) {
		h.logger.Warn("no strategies registered", "capability", ee.Capability.String())
	}

	attempts := ee.Attempts
	if attempts == nil {
		attempts = models.AttemptLog{}
	}
	writeJSON(w, http.StatusInternalServerError, failureResponse{
		Status:     "error",
		Message:    message,
		Identifier: firstNonEmpty(ee.Identifier, identifier),
		Attempts:   attempts,
	})
}

// ProxyHandler relays media bytes for GET /proxy?url=.
type ProxyHandler struct {
	relay  Forwarder
	logger *log.Logger
}

func (p *ProxyHandler) Routes() []string { return []string{"/proxy"} }

func (p *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	target := r.URL.Query().Get("url")
	if target == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgMissingURL})
		return
	}

	if err := p.relay.Forward(r.Context(), w, target, r.Header.Get("Range")); err != nil {
		p.logger.Debug("proxy", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
