package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/purelyd/internal/formatter"
	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	ListView
	LoadingView
	ItemView
)

// Resolver is the resolution core as used by the TUI.
type Resolver interface {
	Stream(ctx context.Context, identifier string) (*models.ResolvedItem, error)
	Listing(ctx context.Context, capability models.Capability, query string) (*models.Listing, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	view     ViewState
	previous ViewState
	resolver Resolver
	opener   func(string) error
	width    int
	height   int
	input    textinput.Model
	results  list.Model
	listing  *models.Listing
	spinner  spinner.Model
	loading  string
	seq      int
	selected *models.ListingItem
	item     *models.ResolvedItem
	err      error
	status   string
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model backed by r.
func NewModel(ctx context.Context, r Resolver) *Model {
	input := textinput.New()
	input.Placeholder = "Search YouTube or paste a video/playlist URL"
	input.CharLimit = 256
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.accent

	return &Model{
		ctx:      ctx,
		view:     SearchView,
		resolver: r,
		opener:   shared.OpenBrowser,
		input:    input,
		results:  list.New(nil, list.NewDefaultDelegate(), 0, 0),
		spinner:  sp,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init focuses the search input.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.results.SetSize(msg.Width-4, msg.Height-6)
		m.input.Width = max(msg.Width-8, 20)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case ListView:
			return m.handleListKeys(msg)
		case LoadingView:
			return m.handleLoadingKeys(msg)
		case ItemView:
			return m.handleItemKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != LoadingView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateComponents(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgListingFetched:
		res := msg.data.(listingResult)
		// stale or cancelled
		if m.view != LoadingView || res.seq != m.seq {
			return m, nil
		}
		m.finishLoading()
		if res.err != nil {
			m.err = res.err
			m.view = m.previous
			if m.view == SearchView {
				m.input.Focus()
			}
			return m, nil
		}
		m.err = nil
		m.listing = res.listing
		m.results.SetItems(listItems(res.listing.Items))
		m.results.ResetSelected()
		m.results.Title = listingTitle(res.listing)
		m.view = ListView
		return m, nil

	case MsgStreamResolved:
		res := msg.data.(streamResult)
		if m.view != LoadingView || res.seq != m.seq {
			return m, nil
		}
		m.finishLoading()
		m.item = res.item
		m.err = res.err
		m.view = ItemView
		return m, nil

	case MsgBrowserOpened:
		if err, _ := msg.data.(error); err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Could not open browser: %v", err))
		} else {
			m.status = styles.ok.Render("Opened in browser")
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case SearchView:
		return m.renderSearch()
	case ListView:
		return m.renderList()
	case LoadingView:
		return m.renderLoading()
	case ItemView:
		return m.renderItem()
	default:
		return ""
	}
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.enter):
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		return m.submit(query)
	case key.Matches(msg, m.keys.trending):
		return m, m.startLoading("Fetching trending...", m.fetchListing(models.CapabilityTrending, ""))
	case key.Matches(msg, m.keys.back):
		if m.listing != nil {
			m.view = ListView
			m.input.Blur()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit routes the input: video ids and URLs resolve directly, playlist URLs list, anything else searches.
func (m *Model) submit(query string) (tea.Model, tea.Cmd) {
	m.err = nil
	if id, err := shared.ExtractVideoID(query); err == nil {
		m.selected = &models.ListingItem{ID: id, Title: id}
		return m, m.startLoading(fmt.Sprintf("Resolving %s...", id), m.resolveStream(id))
	}
	if strings.Contains(query, "list=") {
		return m, m.startLoading("Fetching playlist...", m.fetchListing(models.CapabilityPlaylist, query))
	}
	return m, m.startLoading(fmt.Sprintf("Searching %q...", query), m.fetchListing(models.CapabilitySearch, query))
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.results.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SearchView
		m.input.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.enter):
		if sel, ok := m.results.SelectedItem().(listingItem); ok {
			item := sel.item
			m.selected = &item
			return m, m.startLoading(fmt.Sprintf("Resolving %s...", item.Title), m.resolveStream(item.ID))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) handleLoadingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.back) {
		m.finishLoading()
		m.view = m.previous
		if m.view == SearchView {
			m.input.Focus()
		}
	}
	return m, nil
}

func (m *Model) handleItemKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.status = ""
		if m.listing != nil {
			m.view = ListView
			return m, nil
		}
		m.view = SearchView
		m.input.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.open):
		if m.item != nil {
			return m, m.openBrowser(m.item.URL)
		}
	case key.Matches(msg, m.keys.retry):
		if m.selected != nil {
			m.status = ""
			return m, m.startLoading(fmt.Sprintf("Resolving %s...", m.selected.Title), m.resolveStream(m.selected.ID))
		}
	}
	return m, nil
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SearchView:
		m.input, cmd = m.input.Update(msg)
	case ListView:
		m.results, cmd = m.results.Update(msg)
	}
	return m, cmd
}

// startLoading switches to the spinner view and runs work under a cancellable context.
func (m *Model) startLoading(label string, work func(context.Context, int) tea.Cmd) tea.Cmd {
	if m.view != LoadingView {
		m.previous = m.view
	}
	m.finishLoading()

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.seq++
	m.loading = label
	m.view = LoadingView
	m.input.Blur()
	return tea.Batch(m.spinner.Tick, work(ctx, m.seq))
}

func (m *Model) finishLoading() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.loading = ""
}

func (m *Model) fetchListing(c models.Capability, query string) func(context.Context, int) tea.Cmd {
	return func(ctx context.Context, seq int) tea.Cmd {
		return func() tea.Msg {
			l, err := m.resolver.Listing(ctx, c, query)
			return listingFetchedMsg(seq, l, err)
		}
	}
}

func (m *Model) resolveStream(id string) func(context.Context, int) tea.Cmd {
	return func(ctx context.Context, seq int) tea.Cmd {
		return func() tea.Msg {
			item, err := m.resolver.Stream(ctx, id)
			return streamResolvedMsg(seq, item, err)
		}
	}
}

func (m *Model) openBrowser(target string) tea.Cmd {
	opener := m.opener
	return func() tea.Msg {
		return browserOpenedMsg(opener(target))
	}
}

func (m *Model) renderSearch() string {
	title := styles.title.Render("purelyd")
	body := m.input.View()
	if m.err != nil {
		body += "\n\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.trending}
	if m.listing != nil {
		helpKeys = append(helpKeys, m.keys.back)
	}
	helpKeys = append(helpKeys, key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")))
	return fmt.Sprintf("%s\n%s\n\n%s", title, body, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderList() string {
	resolveKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "resolve"))
	helpKeys := []key.Binding{resolveKey, m.keys.back, m.keys.quit}
	source := styles.help.Render(fmt.Sprintf("via %s", m.listing.Source))
	return fmt.Sprintf("%s\n%s\n\n%s", m.results.View(), source, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderLoading() string {
	cancelKey := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), m.loading, m.help.ShortHelpView([]key.Binding{cancelKey}))
}

func (m *Model) renderItem() string {
	var b strings.Builder

	if m.err != nil {
		b.WriteString(styles.err.Render("✗ Could not extract audio from any source"))
		b.WriteString("\n\n")

		var ee *models.ExhaustedError
		if errors.As(m.err, &ee) && len(ee.Attempts) > 0 {
			b.WriteString(formatter.AttemptsTable(ee.Attempts))
		} else {
			b.WriteString(m.err.Error())
		}
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.retry, m.keys.back, m.keys.quit}))
		return b.String()
	}

	if m.item == nil {
		return styles.warn.Render("No result available")
	}

	title := m.item.Title
	if title == "" && m.selected != nil {
		title = m.selected.Title
	}
	b.WriteString(styles.ok.Render("✓ " + title))
	b.WriteString("\n\n")
	b.Write(formatter.ItemToText(m.item))
	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.open, m.keys.retry, m.keys.back, m.keys.quit}))
	return b.String()
}

func listingTitle(l *models.Listing) string {
	if l.Title != "" {
		return l.Title
	}
	if l.Query != "" {
		return fmt.Sprintf("%s: %s", l.Capability, l.Query)
	}
	return l.Capability.String()
}
