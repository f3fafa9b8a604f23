// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI drives the same resolver as the HTTP server:
//  1. [SearchView] : Type a search query, a video URL or a playlist URL (ctrl+t loads trending)
//  2. [ListView] : Browse and filter the listing
//  3. [LoadingView] : Spinner while a listing or stream resolves; esc cancels the request
//  4. [ItemView] : The winning source and media URL, or the attempt log when every source failed
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Each request carries a sequence number so results of cancelled requests are dropped.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, o, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
