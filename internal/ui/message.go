package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/purelyd/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgListingFetched MsgKind = iota
	MsgStreamResolved
	MsgBrowserOpened
)

type listingResult struct {
	seq     int
	listing *models.Listing
	err     error
}

type streamResult struct {
	seq  int
	item *models.ResolvedItem
	err  error
}

// listingFetchedMsg is the constructor for [MsgListingFetched]
func listingFetchedMsg(seq int, l *models.Listing, err error) Msg {
	return Msg{kind: MsgListingFetched, data: listingResult{seq, l, err}}
}

// streamResolvedMsg is the constructor for [MsgStreamResolved]
func streamResolvedMsg(seq int, item *models.ResolvedItem, err error) Msg {
	return Msg{kind: MsgStreamResolved, data: streamResult{seq, item, err}}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: err}
}
