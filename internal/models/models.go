// package models defines the data model for the audio resolution proxy
package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/purelyd/internal/shared"
)

// Capability names the kind of content a caller wants resolved.
type Capability int

const (
	CapabilityStream Capability = iota
	CapabilitySearch
	CapabilityPlaylist
	CapabilityTrending
)

// Capabilities lists every capability in declaration order.
var Capabilities = []Capability{CapabilityStream, CapabilitySearch, CapabilityPlaylist, CapabilityTrending}

func (c Capability) String() string {
	switch c {
	case CapabilityStream:
		return "stream"
	case CapabilitySearch:
		return "search"
	case CapabilityPlaylist:
		return "playlist"
	case CapabilityTrending:
		return "trending"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

// MarshalText implements [encoding.TextMarshaler] so capabilities serialize by name.
func (c Capability) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler] using [ParseCapability].
func (c *Capability) UnmarshalText(b []byte) error {
	parsed, err := ParseCapability(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCapability maps a capability name back to its value.
func ParseCapability(s string) (Capability, error) {
	for _, c := range Capabilities {
		if strings.EqualFold(strings.TrimSpace(s), c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown capability %q", shared.ErrInvalidArgument, s)
}

// Candidate is one media track option returned by an upstream before bitrate selection.
type Candidate struct {
	URL      string
	MimeType string
	Bitrate  int
}

// ResolvedItem is the normalized result of a successful stream resolution.
//
// URL is always absolute; Bitrate, when set, is the highest among the winning upstream's candidates.
type ResolvedItem struct {
	Identifier string `json:"identifier"`
	Source     string `json:"source"`
	Instance   string `json:"instance,omitempty"`
	URL        string `json:"url"`
	MimeType   string `json:"mimeType,omitempty"`
	Bitrate    int    `json:"bitrate,omitempty"`
	Title      string `json:"title,omitempty"`
	Artist     string `json:"artist,omitempty"`
	Duration   int    `json:"duration,omitempty"` // seconds
	Cover      string `json:"cover,omitempty"`
}

// FromCandidate builds a [ResolvedItem] for identifier from the winning candidate.
func FromCandidate(identifier string, c Candidate) *ResolvedItem {
	return &ResolvedItem{
		Identifier: identifier,
		URL:        c.URL,
		MimeType:   c.MimeType,
		Bitrate:    c.Bitrate,
		Cover:      shared.CoverURL(identifier),
	}
}

// Validate checks the media URL invariant.
func (r *ResolvedItem) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil item", shared.ErrInvalidInput)
	}
	if !shared.IsAbsoluteURL(r.URL) {
		return fmt.Errorf("%w: media url %q is not absolute", shared.ErrInvalidInput, r.URL)
	}
	return nil
}

// ListingItem is one entry of a search, playlist or trending listing.
type ListingItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	URL      string `json:"url"`
	Cover    string `json:"cover"`
	Type     string `json:"type"`
	Duration int    `json:"duration,omitempty"`
}

// ItemTypeYouTube marks listing entries that name a YouTube video.
const ItemTypeYouTube = "youtube"

// NewVideoItem builds a [ListingItem] for a video id with the canonical watch URL and a derived cover.
func NewVideoItem(videoID, title, artist string) ListingItem {
	return ListingItem{
		ID:     videoID,
		Title:  title,
		Artist: artist,
		URL:    shared.WatchURL(videoID),
		Cover:  shared.CoverURL(videoID),
		Type:   ItemTypeYouTube,
	}
}

// Listing is the normalized result of a search, playlist or trending resolution.
type Listing struct {
	Capability Capability    `json:"capability"`
	Query      string        `json:"query,omitempty"`
	Source     string        `json:"source"`
	Instance   string        `json:"instance,omitempty"`
	Title      string        `json:"title,omitempty"`
	Items      []ListingItem `json:"results"`
}

// Resolution is the success side of a resolution result: exactly one of Item or Listing is set.
type Resolution struct {
	Capability Capability
	Item       *ResolvedItem
	Listing    *Listing
	Attempts   AttemptLog
}

// Source returns the name of the strategy that produced the resolution.
func (r Resolution) Source() string {
	switch {
	case r.Item != nil:
		return r.Item.Source
	case r.Listing != nil:
		return r.Listing.Source
	default:
		return ""
	}
}
