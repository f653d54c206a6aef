// Package preview loads brew info metadata for the currently selected package.
//
// Loading is split so that all state changes happen on the caller's goroutine
// and only the brew invocation runs elsewhere:
//
//	req, ok := loader.Show(&pkg)    // mutate: loading=true, new generation
//	resp := loader.Fetch(ctx, req)  // suspend: runs brew, touches no state
//	loader.Apply(resp)              // mutate: commit unless superseded
//
// Every Show bumps the generation and cancels the previous fetch. Apply drops
// any response whose generation is no longer current, so a slow response for
// an earlier selection can never overwrite a newer one.
package preview

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/blackwell-systems/brewpick/internal/brew"
	"github.com/blackwell-systems/brewpick/internal/notify"
)

// State is what a preview pane renders.
type State struct {
	Package    *brew.Package // nil when nothing is previewed
	Metadata   brew.Metadata
	Loading    bool
	Visible    bool
	Generation uint64
	Err        error // last soft failure for the current package
}

// Request identifies a single fetch.
type Request struct {
	Generation uint64
	Package    brew.Package

	// done is closed when the request is superseded.
	done context.Context
}

// Response is the outcome of Fetch, handed back to Apply.
type Response struct {
	Generation uint64
	Package    brew.Package
	Metadata   brew.Metadata
	Err        error
	Cached     bool
}

// DependencyMarker annotates dependencies with local install status.
// *brew.Inventory implements it.
type DependencyMarker interface {
	Mark(deps []brew.Dependency)
}

// Options configures a Loader.
type Options struct {
	Runner    brew.Runner
	Logger    *slog.Logger
	Inventory DependencyMarker
	CacheSize int           // parsed metadata kept per package; 0 disables
	Timeout   time.Duration // per fetch; 0 means no limit
}

// Loader fetches and holds preview metadata.
type Loader struct {
	runner    brew.Runner
	logger    *slog.Logger
	inventory DependencyMarker
	cache     *lru.Cache[cacheKey, brew.Metadata]
	timeout   time.Duration

	mu         sync.Mutex
	state      State
	generation uint64
	cancel     context.CancelFunc
	subs       notify.List[State]
}

type cacheKey struct {
	category brew.Category
	name     string
}

// New creates a Loader. The preview starts visible and empty.
func New(opts Options) (*Loader, error) {
	if opts.Runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}

	l := &Loader{
		runner:    opts.Runner,
		logger:    opts.Logger,
		inventory: opts.Inventory,
		timeout:   opts.Timeout,
		state:     State{Visible: true},
	}
	if l.logger == nil {
		l.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New[cacheKey, brew.Metadata](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create metadata cache: %w", err)
		}
		l.cache = cache
	}

	return l, nil
}

// State returns a copy of the current preview state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyStateLocked()
}

func (l *Loader) copyStateLocked() State {
	s := l.state
	s.Metadata = s.Metadata.Clone()
	if s.Package != nil {
		p := *s.Package
		s.Package = &p
	}
	return s
}

// Subscribe registers fn to be called after every state change.
func (l *Loader) Subscribe(fn func(State)) (cancel func()) {
	return l.subs.Subscribe(fn)
}

// SetVisible shows or hides the preview without touching its contents.
func (l *Loader) SetVisible(visible bool) {
	l.mu.Lock()
	l.state.Visible = visible
	s := l.copyStateLocked()
	l.mu.Unlock()

	l.subs.Publish(s)
}

// Show switches the preview to pkg. With a nil pkg the preview is emptied and
// ok is false: there is nothing to fetch. Otherwise the preview enters the
// loading state, prior dependencies are cleared, and the returned Request
// must be passed to Fetch.
func (l *Loader) Show(pkg *brew.Package) (req Request, ok bool) {
	l.mu.Lock()

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.generation++
	l.state.Generation = l.generation
	l.state.Err = nil

	if pkg == nil {
		l.state.Package = nil
		l.state.Loading = false
		l.state.Metadata = brew.Metadata{}
		s := l.copyStateLocked()
		l.mu.Unlock()

		l.subs.Publish(s)
		return Request{}, false
	}

	p := *pkg
	l.state.Package = &p
	l.state.Loading = true
	l.state.Metadata.Dependencies = nil

	done, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	req = Request{Generation: l.generation, Package: p, done: done}

	s := l.copyStateLocked()
	l.mu.Unlock()

	l.subs.Publish(s)
	return req, true
}

// Fetch runs brew info for req and parses the result. It does not modify the
// loader state and is safe to call from any goroutine. The fetch is aborted
// when ctx is done, when the timeout elapses, or when a later Show supersedes
// req.
func (l *Loader) Fetch(ctx context.Context, req Request) Response {
	resp := Response{Generation: req.Generation, Package: req.Package}

	key := cacheKey{category: req.Package.Category, name: req.Package.Name}
	if l.cache != nil {
		if md, ok := l.cache.Get(key); ok {
			resp.Metadata = md.Clone()
			resp.Cached = true
			return resp
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if req.done != nil {
		stop := context.AfterFunc(req.done, cancel)
		defer stop()
	}
	if l.timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, l.timeout)
		defer cancelTimeout()
	}

	md, err := brew.FetchMetadata(ctx, l.runner, req.Package)
	if err != nil {
		resp.Err = err
		return resp
	}

	if l.inventory != nil {
		l.inventory.Mark(md.Dependencies)
	}
	if l.cache != nil {
		l.cache.Add(key, md.Clone())
	}

	resp.Metadata = md
	return resp
}

// Apply commits resp if it belongs to the current generation and reports
// whether it did. On failure the previous description, homepage and tap are
// kept and the error is logged; the preview just stops loading.
func (l *Loader) Apply(resp Response) bool {
	l.mu.Lock()

	if resp.Generation != l.generation || l.state.Package == nil {
		current := l.generation
		l.mu.Unlock()

		l.logger.Debug("discarding stale preview response",
			"package", resp.Package.Name,
			"generation", resp.Generation,
			"current", current)
		return false
	}

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.state.Loading = false

	if resp.Err != nil {
		l.state.Err = resp.Err
		l.logger.Warn("failed to load package preview",
			"package", resp.Package.Name,
			"category", resp.Package.Category.String(),
			"error", resp.Err)
	} else {
		l.state.Metadata = resp.Metadata.Clone()
		l.state.Err = nil
	}

	s := l.copyStateLocked()
	l.mu.Unlock()

	l.subs.Publish(s)
	return true
}

// Load runs Show, Fetch and Apply in sequence. It returns the resulting state
// and the soft failure, if any, so a CLI can report it.
func (l *Loader) Load(ctx context.Context, pkg *brew.Package) (State, error) {
	req, ok := l.Show(pkg)
	if !ok {
		return l.State(), nil
	}

	resp := l.Fetch(ctx, req)
	l.Apply(resp)

	return l.State(), resp.Err
}
