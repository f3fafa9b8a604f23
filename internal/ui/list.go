package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/shared"
)

var _ list.Item = listingItem{}

// listingItem wraps [models.ListingItem] to implement [list.Item].
type listingItem struct {
	item models.ListingItem
}

func (i listingItem) FilterValue() string { return i.item.Title + " " + i.item.Artist }
func (i listingItem) Title() string       { return i.item.Title }
func (i listingItem) Description() string {
	desc := i.item.Artist
	if i.item.Duration > 0 {
		desc = fmt.Sprintf("%s • %s", desc, shared.FormatDuration(i.item.Duration))
	}
	return desc
}

func listItems(items []models.ListingItem) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = listingItem{item: it}
	}
	return out
}
