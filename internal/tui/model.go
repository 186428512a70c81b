// Package tui is an interactive terminal browser for the product pages.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"productpager/internal/catalog"
	"productpager/internal/presentation"
)

// PageLoader performs the initial page load of a view.
type PageLoader interface {
	LoadPage(ctx context.Context, after string) catalog.Response
}

type Config struct {
	Loader       PageLoader
	Fetcher      catalog.PageFetcher
	Dispatcher   presentation.Dispatcher
	View         catalog.View
	GalleryMode  presentation.GalleryMode
	FetchTimeout time.Duration
}

type (
	initialLoadMsg struct{ resp catalog.Response }
	loadMoreMsg    struct{ err error }
	bulkDoneMsg    struct{ err error }
)

// Model is the bubbletea model of the product browser. All accumulator
// writes go through commands it issues, one fetch at a time.
type Model struct {
	ctx         context.Context
	loader      PageLoader
	acc         *catalog.Accumulator
	selection   *presentation.Selection
	actions     *presentation.BulkActions
	notifier    *ChannelNotifier
	view        catalog.View
	galleryMode presentation.GalleryMode

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	loaded   bool
	cursor   int
	toast    string
	width    int
	quitting bool
}

func NewModel(ctx context.Context, cfg Config) *Model {
	opts := []catalog.AccumulatorOption{}
	if cfg.FetchTimeout > 0 {
		opts = append(opts, catalog.WithFetchTimeout(cfg.FetchTimeout))
	}

	view := cfg.View
	if view == "" {
		view = catalog.ViewList
	}
	mode := cfg.GalleryMode
	if mode == "" {
		mode = presentation.GalleryPerProduct
	}

	notifier := NewChannelNotifier(8)

	s := spinner.New()
	s.Spinner = spinner.Dot

	return &Model{
		ctx:         ctx,
		loader:      cfg.Loader,
		acc:         catalog.NewAccumulator(cfg.Fetcher, opts...),
		selection:   presentation.NewSelection(),
		actions:     presentation.NewBulkActions(notifier, cfg.Dispatcher),
		notifier:    notifier,
		view:        view,
		galleryMode: mode,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		spinner:     s,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadInitial(), m.notifier.Wait())
}

func (m *Model) loadInitial() tea.Cmd {
	return func() tea.Msg {
		return initialLoadMsg{resp: m.loader.LoadPage(m.ctx, "")}
	}
}

func (m *Model) loadMore() tea.Cmd {
	return func() tea.Msg {
		return loadMoreMsg{err: m.acc.LoadMore(m.ctx)}
	}
}

func (m *Model) retry() tea.Cmd {
	return func() tea.Msg {
		return loadMoreMsg{err: m.acc.Retry(m.ctx)}
	}
}

func (m *Model) perform(kind catalog.ActionKind) tea.Cmd {
	ids := m.selection.IDs()
	return func() tea.Msg {
		return bulkDoneMsg{err: m.actions.Perform(m.ctx, kind, ids)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case initialLoadMsg:
		if err := m.acc.Seed(msg.resp); err != nil {
			// A fetch in flight owns the list.
			return m, nil
		}
		m.loaded = true
		m.clampCursor()
		return m, nil

	case loadMoreMsg:
		// ErrBusy and ErrNoMorePages mean the keypress was a no-op; failures
		// are already reflected in the accumulator state.
		m.clampCursor()
		return m, nil

	case bulkDoneMsg:
		if msg.err == nil {
			m.selection.Clear()
		}
		return m, nil

	case toastMsg:
		m.toast = string(msg)
		return m, m.notifier.Wait()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case !m.loaded:
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.entries()-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if id, ok := m.currentProductID(); ok {
			m.selection.Toggle(id)
		}
	case key.Matches(msg, m.keys.LoadMore):
		if m.acc.Snapshot().CanLoadMore() {
			return m, m.loadMore()
		}
	case key.Matches(msg, m.keys.Retry):
		if m.acc.State() == catalog.StateError {
			return m, m.retry()
		}
	case key.Matches(msg, m.keys.ToggleView):
		if m.view == catalog.ViewList {
			m.view = catalog.ViewGallery
		} else {
			m.view = catalog.ViewList
		}
		m.cursor = 0
	case key.Matches(msg, m.keys.EditProduct):
		return m, m.perform(catalog.ActionEditProducts)
	case key.Matches(msg, m.keys.AddTags):
		return m, m.perform(catalog.ActionAddTags)
	case key.Matches(msg, m.keys.RemoveTags):
		return m, m.perform(catalog.ActionRemoveTags)
	case key.Matches(msg, m.keys.Delete):
		return m, m.perform(catalog.ActionDeleteProducts)
	}
	return m, nil
}

// entries is the number of navigable rows or cards in the current view.
func (m *Model) entries() int {
	snap := m.acc.Snapshot()
	if m.view == catalog.ViewGallery {
		return len(presentation.BuildGallery(snap.Items, m.galleryMode))
	}
	return len(snap.Items)
}

func (m *Model) currentProductID() (string, bool) {
	snap := m.acc.Snapshot()
	if m.view == catalog.ViewGallery {
		cards := presentation.BuildGallery(snap.Items, m.galleryMode)
		if m.cursor < len(cards) {
			return cards[m.cursor].ProductID, true
		}
		return "", false
	}
	if m.cursor < len(snap.Items) {
		return snap.Items[m.cursor].ID, true
	}
	return "", false
}

func (m *Model) clampCursor() {
	if n := m.entries(); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

// Snapshot exposes the accumulated state, e.g. for the dump command.
func (m *Model) Snapshot() catalog.Snapshot {
	return m.acc.Snapshot()
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(presentation.PageTitle + " · " + string(m.view)))
	b.WriteString("\n")

	if m.toast != "" {
		b.WriteString(toastStyle.Render(m.toast))
		b.WriteString("\n\n")
	}

	if !m.loaded {
		b.WriteString(fmt.Sprintf("%s Loading products...\n", m.spinner.View()))
		return b.String()
	}

	snap := m.acc.Snapshot()
	var status presentation.Status
	if m.view == catalog.ViewGallery {
		gv := presentation.BuildGalleryView(snap, m.galleryMode)
		b.WriteString(m.renderGallery(gv.Cards))
		status = gv.Status
	} else {
		lv := presentation.BuildListView(snap, m.selection)
		b.WriteString(m.renderList(lv.Rows))
		status = lv.Status
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus(status, len(snap.Items)))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderList(rows []presentation.Row) string {
	var b strings.Builder
	for i, row := range rows {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		check := "[ ]"
		if row.Selected {
			check = "[x]"
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", marker, check, row.Title))
		if row.Description != "" {
			b.WriteString(dimStyle.Render("      "+truncate(row.Description, 72)) + "\n")
		}
	}
	return b.String()
}

func (m *Model) renderGallery(cards []presentation.Card) string {
	var rows []string
	for start := 0; start < len(cards); start += galleryColumns {
		end := min(start+galleryColumns, len(cards))
		tiles := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			tiles = append(tiles, m.renderCard(cards[i], i == m.cursor))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, tiles...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...) + "\n"
}

func (m *Model) renderCard(card presentation.Card, active bool) string {
	style := cardStyle
	if active {
		style = activeCardStyle
	}
	check := "[ ]"
	if m.selection.Has(card.ProductID) {
		check = "[x]"
	}
	image := card.ImageURL
	if image == "" {
		image = "(no image)"
	}
	body := fmt.Sprintf("%s %s\n%s\n%s",
		check,
		truncate(card.Title, 22),
		dimStyle.Render(truncate(card.AltText+": "+image, 26)),
		truncate(card.Description, 26),
	)
	return style.Render(body)
}

func (m *Model) renderStatus(s presentation.Status, count int) string {
	var parts []string
	if s.EmptyState != "" {
		parts = append(parts, s.EmptyState)
	}
	if s.Notice != "" {
		parts = append(parts, noticeStyle.Render(s.Notice))
	}

	switch {
	case s.Loading:
		parts = append(parts, m.spinner.View()+" Loading more...")
	case s.NeedsAuth:
		parts = append(parts, dimStyle.Render("run the install flow again"))
	case s.Retryable:
		parts = append(parts, dimStyle.Render("press r to retry"))
	case s.CanLoadMore:
		parts = append(parts, dimStyle.Render(fmt.Sprintf("%d products · press n for more", count)))
	case count > 0:
		parts = append(parts, dimStyle.Render(fmt.Sprintf("%d products · end of list", count)))
	}
	if n := m.selection.Len(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	return strings.Join(parts, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// IsAuthError reports whether the browser stopped on a rejected session.
func (m *Model) IsAuthError() bool {
	return errors.Is(m.acc.Snapshot().Err, catalog.ErrAuth)
}
