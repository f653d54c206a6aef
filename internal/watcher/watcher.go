package watcher

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultDebounce = 100 * time.Millisecond
	defaultPoll     = 5 * time.Second
)

// Watcher calls onChange after the watched database file changes.
type Watcher struct {
	path     string
	onChange func()
	logger   *slog.Logger
	debounce time.Duration
	poll     time.Duration

	fs       *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger used for watch errors.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long a burst of events is coalesced.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPoll sets the fallback poll interval. Zero disables polling.
func WithPoll(d time.Duration) Option {
	return func(w *Watcher) { w.poll = d }
}

// New creates a new Watcher for the database at path.
func New(path string, onChange func(), opts ...Option) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}
	if onChange == nil {
		return nil, fmt.Errorf("onChange cannot be nil")
	}

	w := &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		debounce: defaultDebounce,
		poll:     defaultPoll,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching the database directory.
func (w *Watcher) Start() error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(w.path)); err != nil {
		fs.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.fs = fs

	w.wg.Add(1)
	go w.run()

	return nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var pollC <-chan time.Time
	if w.poll > 0 {
		ticker := time.NewTicker(w.poll)
		defer ticker.Stop()
		pollC = ticker.C
	}

	// debounceC is nil until a matching event arrives.
	var debounceC <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.Matches(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			if debounceC == nil {
				debounceC = time.After(w.debounce)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watch error", "path", w.path, "error", err)
		case <-debounceC:
			debounceC = nil
			w.onChange()
		case <-pollC:
			w.onChange()
		case <-w.stopCh:
			return
		}
	}
}

// Matches reports whether name is the database file or one of the SQLite
// side files written alongside it.
func (w *Watcher) Matches(name string) bool {
	name = filepath.Clean(name)
	if filepath.Dir(name) != filepath.Dir(w.path) {
		return false
	}
	base := filepath.Base(w.path)
	switch filepath.Base(name) {
	case base, base + "-wal", base + "-journal":
		return true
	}
	return false
}

// Stop halts the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		if w.fs != nil {
			err = w.fs.Close()
		}
	})
	return err
}
