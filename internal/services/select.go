package services

import (
	"strings"

	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/shared"
	"github.com/samber/lo"
)

// SelectBest returns the highest-bitrate candidate that carries an absolute media URL.
//
// Ties keep the upstream's order, so the same payload always yields the same winner.
func SelectBest(candidates []models.Candidate) (models.Candidate, error) {
	usable := lo.Filter(candidates, func(c models.Candidate, _ int) bool {
		return shared.IsAbsoluteURL(c.URL)
	})
	if len(usable) == 0 {
		return models.Candidate{}, models.EmptyResultError("no candidates with a media url")
	}

	return lo.MaxBy(usable, func(a, b models.Candidate) bool {
		return a.Bitrate > b.Bitrate
	}), nil
}

// isAudioMime reports whether a mime type (possibly with codec parameters) is audio.
func isAudioMime(mime string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), "audio/")
}

// firstNonEmpty returns the first non-blank value.
func firstNonEmpty(values ...string) string {
	v, _ := lo.Find(values, func(s string) bool { return strings.TrimSpace(s) != "" })
	return v
}
