package tasks

import (
	"fmt"

	"github.com/desertthunder/purelyd/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchListing Phase = iota
	ResolveItems
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchListing:
		return "fetch_listing"
	case ResolveItems:
		return "resolve_items"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func fetchListingUpdate(c models.Capability, query string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchListing,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching %s %s...", c, query),
	}
}

func foundListingUpdate(l *models.Listing) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchListing,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %s via %s (%d items)", l.Capability, l.Source, len(l.Items)),
		Data:    l,
	}
}

func resolvingUpdate(step, total int, item models.ListingItem) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Resolving: %s...", step, total, item.Title),
	}
}

func resolvedUpdate(step, total int, entry PrefetchEntry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, entry.Title, entry.Item.Source),
		Data:    entry,
	}
}

func resolveFailedUpdate(step, total int, entry PrefetchEntry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, entry.Title, entry.Error),
		Data:    entry,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Manifest written to %s", path),
	}
}
