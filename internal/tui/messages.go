package tui

import (
	"github.com/blackwell-systems/brewpick/internal/preview"
	"github.com/blackwell-systems/brewpick/internal/search"
)

// searchResultsMsg carries a finished brew search. seq identifies the search
// so that a slow earlier search cannot replace a newer one.
type searchResultsMsg struct {
	seq  int
	snap search.Snapshot
	err  error
}

// previewMsg carries a finished metadata fetch; the loader decides whether
// it is still current.
type previewMsg struct {
	resp preview.Response
}
