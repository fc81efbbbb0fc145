package main

// Custom tea.Msg types for the browse screen.

// pageLoadedMsg is sent when a catalog page fetch completes. seq is
// the pagination generation the fetch started under; a refresh bumps
// the generation, so fetches that straddle it are dropped.
type pageLoadedMsg struct {
	seq     int
	index   int
	items   []Amiibo
	hasMore bool
	err     error
}

// searchResultsMsg is sent when a debounced search completes. seq ties
// the result back to the keystroke generation that started it; stale
// results are dropped.
type searchResultsMsg struct {
	seq   int
	query string
	items []Amiibo
	err   error
}

// refreshedMsg is sent when a full catalog refresh completes.
type refreshedMsg struct {
	err error
}

// debounceMsg fires when the search debounce timer elapses.
type debounceMsg struct {
	seq int
}
