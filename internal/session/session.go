// Package session coordinates one search -> select -> preview -> queue
// workflow over the search, preview and install state containers.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/blackwell-systems/brewpick/internal/brew"
	"github.com/blackwell-systems/brewpick/internal/install"
	"github.com/blackwell-systems/brewpick/internal/preview"
	"github.com/blackwell-systems/brewpick/internal/search"
)

var (
	// ErrCouldNotAssociatePackage is returned by Confirm when the selected
	// token no longer resolves to a package. The workflow is dismissed and
	// nothing is queued; the caller decides how to alert the user.
	ErrCouldNotAssociatePackage = errors.New("could not associate package with UUID")
	// ErrNoSelection is returned by Confirm when nothing is selected.
	ErrNoSelection = errors.New("no package selected")
)

// Options configures a Session. Runner is required; the state containers are
// created when nil.
type Options struct {
	Runner  brew.Runner
	Results *search.Tracker
	Preview *preview.Loader
	Install *install.Tracker
	Aliases map[string]string
	Logger  *slog.Logger
}

// Session holds the app-level rules that bind the state containers together:
// a new search clears the selection, and a selection that cannot be resolved
// at confirm time dismisses the workflow instead of queueing anything.
type Session struct {
	runner  brew.Runner
	results *search.Tracker
	preview *preview.Loader
	install *install.Tracker
	aliases map[string]string
	logger  *slog.Logger

	mu        sync.Mutex
	selection *uuid.UUID
	dismissed bool
}

// New creates a Session.
func New(opts Options) (*Session, error) {
	if opts.Runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}

	s := &Session{
		runner:  opts.Runner,
		results: opts.Results,
		preview: opts.Preview,
		install: opts.Install,
		aliases: opts.Aliases,
		logger:  opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.results == nil {
		s.results = search.NewTracker()
	}
	if s.install == nil {
		s.install = install.NewTracker()
	}
	if s.preview == nil {
		loader, err := preview.New(preview.Options{Runner: opts.Runner, Logger: s.logger})
		if err != nil {
			return nil, err
		}
		s.preview = loader
	}

	return s, nil
}

// Results returns the search result tracker.
func (s *Session) Results() *search.Tracker { return s.results }

// Preview returns the preview loader.
func (s *Session) Preview() *preview.Loader { return s.preview }

// Install returns the installation progress tracker.
func (s *Session) Install() *install.Tracker { return s.install }

// ExpandQuery replaces a query that exactly matches a configured alias.
func (s *Session) ExpandQuery(query string) string {
	query = strings.TrimSpace(query)
	if target, ok := s.aliases[query]; ok && target != "" {
		return target
	}
	return query
}

// Search runs brew search, replaces the results and clears the selection.
// On failure the previous results stay in place.
func (s *Session) Search(ctx context.Context, query string) (search.Snapshot, error) {
	snap, err := s.Find(ctx, query)
	if err != nil {
		return search.Snapshot{}, err
	}

	s.ApplyResults(snap)
	s.logger.Debug("search results replaced",
		"query", snap.Query,
		"formulae", len(snap.Formulae),
		"casks", len(snap.Casks))

	return s.results.Snapshot(), nil
}

// Find runs brew search for the alias-expanded query without touching any
// state. Pair it with ApplyResults when the search runs off the UI goroutine.
func (s *Session) Find(ctx context.Context, query string) (search.Snapshot, error) {
	query = s.ExpandQuery(query)

	formulae, casks, err := brew.Search(ctx, s.runner, query)
	if err != nil {
		return search.Snapshot{}, fmt.Errorf("failed to search for %q: %w", query, err)
	}

	return search.Snapshot{Query: query, Formulae: formulae, Casks: casks}, nil
}

// ApplyResults installs snap as the current results, clearing the selection
// and the preview.
func (s *Session) ApplyResults(snap search.Snapshot) {
	s.results.Replace(snap)
	s.ClearSelection()
}

// Select records token as the selection and starts a preview of its package.
// The selection is recorded even when the token does not resolve, so that a
// later Confirm reports the failure. ok is false when there is nothing to
// fetch.
func (s *Session) Select(token uuid.UUID) (req preview.Request, ok bool, err error) {
	s.mu.Lock()
	t := token
	s.selection = &t
	s.dismissed = false
	s.mu.Unlock()

	pkg, err := s.results.FindByToken(token)
	if err != nil {
		s.logger.Error("could not associate selection with a package", "token", token.String(), "error", err)
		return preview.Request{}, false, err
	}

	req, ok = s.preview.Show(&pkg)
	return req, ok, nil
}

// SetSelection records token as the selection without previewing it. It is
// enough for Confirm, which resolves the token itself.
func (s *Session) SetSelection(token uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := token
	s.selection = &t
	s.dismissed = false
}

// ClearSelection drops the selection and empties the preview.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	s.selection = nil
	s.mu.Unlock()

	s.preview.Show(nil)
}

// Selection returns the selected token, if any.
func (s *Session) Selection() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return uuid.Nil, false
	}
	return *s.selection, true
}

// Confirm resolves the selection and queues its package for installation.
// If the token does not resolve, the workflow is dismissed and an error
// wrapping both ErrCouldNotAssociatePackage and search.ErrNotFound is
// returned; the install tracker is not touched.
func (s *Session) Confirm() (brew.Package, error) {
	token, ok := s.Selection()
	if !ok {
		return brew.Package{}, ErrNoSelection
	}

	pkg, err := s.results.FindByToken(token)
	if err != nil {
		s.mu.Lock()
		s.dismissed = true
		s.mu.Unlock()

		s.logger.Error("failed while associating package with its ID", "token", token.String(), "error", err)
		return brew.Package{}, fmt.Errorf("%w: %w", ErrCouldNotAssociatePackage, err)
	}

	s.install.Enqueue(pkg)
	s.logger.Info("package queued for installation", "package", pkg.Name, "category", pkg.Category.String())

	return pkg, nil
}

// Dismissed reports whether the last Confirm aborted the workflow.
func (s *Session) Dismissed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dismissed
}
