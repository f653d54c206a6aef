// Package search holds the current set of search results and resolves the
// opaque selection tokens handed to the UI back to concrete packages.
package search

import (
	"sync"

	"github.com/google/uuid"

	"github.com/blackwell-systems/brewpick/internal/brew"
	"github.com/blackwell-systems/brewpick/internal/notify"
)

// Snapshot is an immutable copy of the tracker contents.
type Snapshot struct {
	Query    string
	Formulae []brew.Package
	Casks    []brew.Package
}

// Len returns the total number of packages in both sections.
func (s Snapshot) Len() int {
	return len(s.Formulae) + len(s.Casks)
}

// Tracker holds the found packages, partitioned by category.
type Tracker struct {
	mu       sync.RWMutex
	query    string
	formulae []brew.Package
	casks    []brew.Package
	subs     notify.List[Snapshot]
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// SetResults replaces both sections at once. Tokens that are not part of the
// new sections stop resolving.
func (t *Tracker) SetResults(formulae, casks []brew.Package) {
	t.Replace(Snapshot{Formulae: formulae, Casks: casks})
}

// Replace is SetResults with the originating query attached.
func (t *Tracker) Replace(snap Snapshot) {
	t.mu.Lock()
	t.query = snap.Query
	t.formulae = clonePackages(snap.Formulae)
	t.casks = clonePackages(snap.Casks)
	out := t.snapshotLocked()
	t.mu.Unlock()

	t.subs.Publish(out)
}

// Snapshot returns a copy of the current results.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	return Snapshot{
		Query:    t.query,
		Formulae: clonePackages(t.formulae),
		Casks:    clonePackages(t.casks),
	}
}

// Formulae returns a copy of the formula section.
func (t *Tracker) Formulae() []brew.Package {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return clonePackages(t.formulae)
}

// Casks returns a copy of the cask section.
func (t *Tracker) Casks() []brew.Package {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return clonePackages(t.casks)
}

// FindByToken returns the package carrying token, or ErrNotFound.
func (t *Tracker) FindByToken(token uuid.UUID) (brew.Package, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return find(t.formulae, t.casks, token)
}

// Subscribe registers fn to be called with the new contents after every
// replacement.
func (t *Tracker) Subscribe(fn func(Snapshot)) (cancel func()) {
	return t.subs.Subscribe(fn)
}

func clonePackages(pkgs []brew.Package) []brew.Package {
	out := make([]brew.Package, len(pkgs))
	copy(out, pkgs)
	return out
}
