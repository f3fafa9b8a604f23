// Identifier extraction for YouTube URLs.
package shared

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	videoIDPattern     = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	videoURLPattern    = regexp.MustCompile(`(?:v=|/v/|embed/|youtu\.be/|/shorts/)([^#&?/]{11})`)
	playlistURLPattern = regexp.MustCompile(`[?&]list=([^#&?]+)`)
	playlistIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// IsVideoID reports whether s has the shape of a bare 11 character video id.
func IsVideoID(s string) bool {
	return videoIDPattern.MatchString(s)
}

// ExtractVideoID returns the video id contained in input.
//
// Accepts bare ids and watch, youtu.be, embed, /v/ and shorts URLs.
func ExtractVideoID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: video id", ErrMissingArgument)
	}
	if IsVideoID(input) {
		return input, nil
	}
	if m := videoURLPattern.FindStringSubmatch(input); len(m) == 2 && IsVideoID(m[1]) {
		return m[1], nil
	}
	return "", fmt.Errorf("%w: no video id in %q", ErrInvalidIdentifier, input)
}

// ExtractPlaylistID returns the playlist id from a bare id or any URL carrying a list parameter.
func ExtractPlaylistID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: playlist id", ErrMissingArgument)
	}
	if m := playlistURLPattern.FindStringSubmatch(input); len(m) == 2 {
		if !playlistIDPattern.MatchString(m[1]) {
			return "", fmt.Errorf("%w: malformed playlist id %q", ErrInvalidIdentifier, m[1])
		}
		return m[1], nil
	}
	if playlistIDPattern.MatchString(input) {
		return input, nil
	}
	return "", fmt.Errorf("%w: no playlist id in %q", ErrInvalidIdentifier, input)
}

// WatchURL returns the canonical watch URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// CoverURL returns the max resolution thumbnail URL for a video id, or "" when id is not a video id.
func CoverURL(videoID string) string {
	if !IsVideoID(videoID) {
		return ""
	}
	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", videoID)
}
