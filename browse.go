package main

import (
	"context"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ---------- 模型 ----------

// screenState is the coarse screen variant. Loading and Error only
// apply when there is nothing useful to show; once items are on
// screen, later failures surface as a banner instead.
type screenState int

const (
	stateLoading screenState = iota
	stateBrowse
	stateError
)

// failedOp remembers the last failed operation so the retry key can
// re-issue it.
type failedOp int

const (
	opNone failedOp = iota
	opPage
	opSearch
	opRefresh
)

// searchDebounce is how long the search input has to go quiet before
// a query hits the repository.
const searchDebounce = 300 * time.Millisecond

// BrowseModel is the Bubble Tea model for the catalog screen. It owns
// every piece of UI state; the repository and favorites store are its
// only collaborators.
type BrowseModel struct {
	repo      Repository
	favorites *Favorites
	keymap    Keymap
	pageSize  int
	lastSync  func() time.Time
	notify    func()

	state screenState

	// items is whatever the grid currently shows: appended catalog
	// pages, or search results while a query is active. loadSeq is the
	// pagination generation; a refresh bumps it so page fetches started
	// against the old catalog cannot land in the new one.
	items       []Amiibo
	page        int
	endReached  bool
	loadingMore bool
	refreshing  bool
	loadSeq     int

	// Error state. errKind/errMsg are set both for the full-screen
	// error view and for the banner over cached items.
	errKind    ErrorKind
	errMsg     string
	lastFailed failedOp
	failedPage int

	// Search state. searching means the input has focus; searchActive
	// means a non-empty query's results are on screen.
	searching    bool
	searchActive bool
	searchSeq    int
	input        textinput.Model

	// The paginated list is parked here while search results are
	// shown, so clearing the query restores it exactly.
	pagedItems  []Amiibo
	pagedPage   int
	pagedEnd    bool
	pagedCursor int

	favOnly bool
	cursor  int
	offset  int // first visible grid row
	width   int
	height  int

	spin spinner.Model
}

// NewBrowseModel builds the initial model. lastSync and notify may be
// nil.
func NewBrowseModel(repo Repository, favorites *Favorites, cfg *Config, lastSync func() time.Time, notify func()) BrowseModel {
	input := textinput.New()
	input.Placeholder = "search figures"
	input.Prompt = "/ "
	input.CharLimit = 64

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return BrowseModel{
		repo:      repo,
		favorites: favorites,
		keymap:    cfg.Keymap,
		pageSize:  cfg.App.PageSize,
		lastSync:  lastSync,
		notify:    notify,
		state:     stateLoading,
		input:     input,
		spin:      spin,
		width:     80,
		height:    24,
	}
}

// Init kicks off the first page load.
func (m BrowseModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.loadPageCmd(0))
}

// ---------- 命令 ----------

func (m BrowseModel) loadPageCmd(index int) tea.Cmd {
	repo, size, seq := m.repo, m.pageSize, m.loadSeq
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		items, err := repo.FetchPage(ctx, index, size)
		if err != nil {
			return pageLoadedMsg{seq: seq, index: index, err: err}
		}
		hasMore, err := repo.HasMorePages(ctx, index, size)
		if err != nil {
			return pageLoadedMsg{seq: seq, index: index, err: err}
		}
		return pageLoadedMsg{seq: seq, index: index, items: items, hasMore: hasMore}
	}
}

func (m BrowseModel) searchCmd(query string, seq int) tea.Cmd {
	repo := m.repo
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		items, err := repo.FetchByQuery(ctx, query)
		return searchResultsMsg{seq: seq, query: query, items: items, err: err}
	}
}

func (m BrowseModel) refreshCmd() tea.Cmd {
	repo := m.repo
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := repo.Refresh(ctx); err != nil {
			return refreshedMsg{err: err}
		}
		return refreshedMsg{}
	}
}

func debounceCmd(seq int) tea.Cmd {
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return debounceMsg{seq: seq}
	})
}

// ---------- 更新 ----------

// Update is the single reducer for every screen event.
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case debounceMsg:
		// Only the newest generation may fire a query.
		if msg.seq != m.searchSeq {
			return m, nil
		}
		query := m.input.Value()
		if query == "" {
			return m, nil
		}
		return m, m.searchCmd(query, msg.seq)

	case pageLoadedMsg:
		return m.handlePageLoaded(msg)

	case searchResultsMsg:
		return m.handleSearchResults(msg)

	case refreshedMsg:
		return m.handleRefreshed(msg)
	}

	return m, nil
}

// busy reports whether any spinner-worthy work is in flight.
func (m BrowseModel) busy() bool {
	return m.state == stateLoading || m.loadingMore || m.refreshing
}

func (m BrowseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.keymap.Global.Quit.Matches(msg) {
		return m, tea.Quit
	}

	if m.searching {
		return m.handleSearchKey(msg)
	}

	keys := m.keymap.Browse
	switch {
	case keys.Search.Matches(msg):
		m.searching = true
		m.input.Focus()
		return m, textinput.Blink

	case keys.EscapeSearch.Matches(msg):
		if m.searchActive {
			return m.clearSearch(), nil
		}
		return m, nil

	case keys.Refresh.Matches(msg):
		if m.refreshing {
			return m, nil
		}
		m.refreshing = true
		return m, tea.Batch(m.spin.Tick, m.refreshCmd())

	case keys.Retry.Matches(msg):
		return m.retry()

	case keys.ToggleFavorite.Matches(msg):
		return m.toggleFavorite()

	case keys.FavoritesOnly.Matches(msg):
		m.favOnly = !m.favOnly
		m.cursor = 0
		m.offset = 0
		return m, nil

	case keys.NavUp.Matches(msg):
		return m.moveCursor(-m.columns())
	case keys.NavDown.Matches(msg):
		return m.moveCursor(m.columns())
	case keys.NavLeft.Matches(msg):
		return m.moveCursor(-1)
	case keys.NavRight.Matches(msg):
		return m.moveCursor(1)
	}

	return m, nil
}

// handleSearchKey routes keystrokes to the search input and re-arms
// the debounce timer whenever the query text changes.
func (m BrowseModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.keymap.Browse
	switch {
	case keys.EscapeSearch.Matches(msg):
		m.searching = false
		m.input.Blur()
		if m.input.Value() == "" && m.searchActive {
			return m.clearSearch(), nil
		}
		return m, nil

	case keys.ConfirmSearch.Matches(msg):
		m.searching = false
		m.input.Blur()
		query := m.input.Value()
		if query == "" {
			if m.searchActive {
				return m.clearSearch(), nil
			}
			return m, nil
		}
		// Skip the debounce on an explicit confirm.
		m.searchSeq++
		return m, m.searchCmd(query, m.searchSeq)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	after := m.input.Value()
	if after == before {
		return m, cmd
	}

	m.searchSeq++
	if after == "" {
		// An emptied query restores the paginated list right away.
		if m.searchActive {
			restored := m.clearSearch()
			restored.searching = true
			restored.input.Focus()
			return restored, cmd
		}
		return m, cmd
	}
	return m, tea.Batch(cmd, debounceCmd(m.searchSeq))
}

func (m BrowseModel) handlePageLoaded(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	m.loadingMore = false
	if msg.seq != m.loadSeq {
		return m, nil // fetched against a catalog a refresh replaced
	}
	if msg.err != nil {
		log.Printf("browse: page %d load failed: %v", msg.index, msg.err)
		return m.fail(opPage, msg.index, msg.err), nil
	}

	if m.searchActive {
		// A page that raced a search update belongs to the parked
		// paginated list, not the visible search results.
		if msg.index == 0 {
			m.pagedItems = msg.items
		} else {
			m.pagedItems = append(m.pagedItems, msg.items...)
		}
		m.pagedPage = msg.index
		m.pagedEnd = !msg.hasMore
		return m, nil
	}

	if msg.index == 0 {
		m.items = msg.items
		m.cursor = 0
		m.offset = 0
	} else {
		m.items = append(m.items, msg.items...)
	}
	m.page = msg.index
	m.endReached = !msg.hasMore
	m.state = stateBrowse
	m.clearError()
	return m, nil
}

func (m BrowseModel) handleSearchResults(msg searchResultsMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.searchSeq {
		return m, nil // stale generation
	}
	if msg.err != nil {
		log.Printf("browse: search %q failed: %v", msg.query, msg.err)
		return m.fail(opSearch, 0, msg.err), nil
	}

	if !m.searchActive {
		// First applied result: park the paginated list.
		m.pagedItems = m.items
		m.pagedPage = m.page
		m.pagedEnd = m.endReached
		m.pagedCursor = m.cursor
		m.searchActive = true
	}
	m.items = msg.items
	m.cursor = 0
	m.offset = 0
	m.state = stateBrowse
	m.clearError()
	return m, nil
}

func (m BrowseModel) handleRefreshed(msg refreshedMsg) (tea.Model, tea.Cmd) {
	m.refreshing = false
	if msg.err != nil {
		log.Printf("browse: refresh failed: %v", msg.err)
		return m.fail(opRefresh, 0, msg.err), nil
	}

	if m.notify != nil {
		m.notify()
	}

	// A refresh resets pagination to the first page and drops any
	// active search.
	if m.searchActive {
		m = m.clearSearch()
	}
	m.page = 0
	m.endReached = false
	m.loadSeq++ // invalidate page fetches started before the refresh
	m.clearError()
	if m.state == stateError {
		m.state = stateLoading
	}
	return m, tea.Batch(m.spin.Tick, m.loadPageCmd(0))
}

// clearSearch leaves search mode and restores the parked paginated
// list, cursor included.
func (m BrowseModel) clearSearch() BrowseModel {
	m.searchActive = false
	m.searching = false
	m.input.Reset()
	m.input.Blur()
	m.searchSeq++ // invalidate in-flight queries
	m.items = m.pagedItems
	m.page = m.pagedPage
	m.endReached = m.pagedEnd
	m.cursor = m.pagedCursor
	m.pagedItems = nil
	m.clampCursor()
	return m
}

// fail records an error. With cached items on screen the state stays
// browsable and the error shows as a banner; with nothing to show it
// becomes the full-screen error view.
func (m BrowseModel) fail(op failedOp, page int, err error) BrowseModel {
	m.errKind = Classify(err)
	m.errMsg = err.Error()
	m.lastFailed = op
	m.failedPage = page
	if len(m.items) == 0 {
		m.state = stateError
	} else {
		m.state = stateBrowse
	}
	return m
}

func (m *BrowseModel) clearError() {
	m.errKind = ErrorUnknown
	m.errMsg = ""
	m.lastFailed = opNone
}

// retry re-issues the last failed operation.
func (m BrowseModel) retry() (tea.Model, tea.Cmd) {
	switch m.lastFailed {
	case opPage:
		if m.failedPage == 0 && len(m.items) == 0 {
			m.state = stateLoading
		}
		m.loadingMore = m.failedPage > 0
		return m, tea.Batch(m.spin.Tick, m.loadPageCmd(m.failedPage))
	case opSearch:
		query := m.input.Value()
		if query == "" {
			return m, nil
		}
		m.searchSeq++
		return m, m.searchCmd(query, m.searchSeq)
	case opRefresh:
		m.refreshing = true
		return m, tea.Batch(m.spin.Tick, m.refreshCmd())
	}
	return m, nil
}

func (m BrowseModel) toggleFavorite() (tea.Model, tea.Cmd) {
	visible := m.visibleItems()
	if m.cursor >= len(visible) {
		return m, nil
	}
	m.favorites.Toggle(visible[m.cursor].ID)
	if err := m.favorites.Save(); err != nil {
		log.Printf("browse: save favorites: %v", err)
	}
	// The marked figure may have just left a favorites-only view.
	if m.favOnly {
		m.clampCursor()
	}
	return m, nil
}

// moveCursor shifts the grid cursor and triggers the next page load
// when the cursor enters the last loaded row.
func (m BrowseModel) moveCursor(delta int) (tea.Model, tea.Cmd) {
	visible := m.visibleItems()
	if len(visible) == 0 {
		return m, nil
	}
	next := m.cursor + delta
	if next < 0 || next >= len(visible) {
		// Horizontal moves stop at the edges; vertical moves past the
		// last row still pull the next page in.
		if next >= len(visible) && delta >= m.columns() {
			return m.maybeLoadMore()
		}
		return m, nil
	}
	m.cursor = next
	m.scrollToCursor()

	// Infinite scroll: start fetching when the cursor reaches the
	// final loaded row.
	if m.cursor >= len(visible)-m.columns() {
		return m.maybeLoadMore()
	}
	return m, nil
}

// maybeLoadMore appends the next page unless search or the favorites
// filter is active, the catalog is exhausted, a load is already in
// flight, or a refresh is about to replace the list anyway.
func (m BrowseModel) maybeLoadMore() (tea.Model, tea.Cmd) {
	if m.searchActive || m.favOnly || m.endReached || m.loadingMore || m.refreshing || m.state != stateBrowse {
		return m, nil
	}
	m.loadingMore = true
	return m, tea.Batch(m.spin.Tick, m.loadPageCmd(m.page+1))
}

// visibleItems applies the favorites filter to the current list.
func (m BrowseModel) visibleItems() []Amiibo {
	if m.favOnly {
		return m.favorites.Filter(m.items)
	}
	return m.items
}

func (m *BrowseModel) clampCursor() {
	visible := m.visibleItems()
	if m.cursor >= len(visible) {
		m.cursor = len(visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.scrollToCursor()
}

// scrollToCursor keeps the cursor row inside the visible window.
func (m *BrowseModel) scrollToCursor() {
	cols := m.columns()
	rows := m.visibleRows()
	cursorRow := m.cursor / cols
	if cursorRow < m.offset {
		m.offset = cursorRow
	}
	if cursorRow >= m.offset+rows {
		m.offset = cursorRow - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}
