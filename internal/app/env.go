package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/blackwell-systems/brewpick/internal/brew"
	"github.com/blackwell-systems/brewpick/internal/config"
	"github.com/blackwell-systems/brewpick/internal/install"
	"github.com/blackwell-systems/brewpick/internal/logging"
	"github.com/blackwell-systems/brewpick/internal/preview"
	"github.com/blackwell-systems/brewpick/internal/search"
	"github.com/blackwell-systems/brewpick/internal/session"
	"github.com/blackwell-systems/brewpick/internal/store"
)

// lockTimeout bounds how long a writer waits for another brewpick process.
var lockTimeout = 5 * time.Second

// newRunner builds the brew runner; tests replace it with a fake.
var newRunner = func(path string) brew.Runner {
	return brew.NewExecRunner(path)
}

// env is everything a command needs: config, logger, brew and the store.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	runner   brew.Runner
	store    *store.Store
	dbPath   string
	closeLog func() error
}

func openEnv() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if brewPath != "" {
		cfg.BrewPath = brewPath
	}

	level, logFile := cfg.Log.Level, cfg.Log.File
	if verbose {
		level, logFile = "debug", ""
	}
	logger, closeLog, err := logging.Open(logFile, level)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	path, err := getDBPath()
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("failed to get database path: %w", err)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			closeLog()
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	st, err := store.New(path)
	if err != nil {
		closeLog()
		return nil, err
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		closeLog()
		return nil, err
	}

	return &env{
		cfg:      cfg,
		logger:   logger,
		runner:   newRunner(cfg.BrewPath),
		store:    st,
		dbPath:   path,
		closeLog: closeLog,
	}, nil
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadDefault()
}

func (e *env) Close() error {
	err := e.store.Close()
	if cerr := e.closeLog(); err == nil {
		err = cerr
	}
	return err
}

// withLock runs fn while holding the brewpick.lock file next to the
// database, so concurrent writers do not interleave read-modify-write cycles.
func (e *env) withLock(ctx context.Context, fn func() error) error {
	if e.dbPath == ":memory:" {
		return fn()
	}

	lock := flock.New(filepath.Join(filepath.Dir(e.dbPath), "brewpick.lock"))

	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another brewpick process is writing %s", e.dbPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			e.logger.Warn("failed to release lock", "error", err)
		}
	}()

	return fn()
}

// loadResults restores the last recorded search into a tracker.
func (e *env) loadResults() (*search.Tracker, error) {
	snap, err := e.store.LoadSearch()
	if err != nil {
		return nil, err
	}
	tr := search.NewTracker()
	tr.Replace(snap)
	return tr, nil
}

// loadInstall restores the persisted install record into a tracker.
func (e *env) loadInstall() (*install.Tracker, error) {
	st, err := e.store.LoadInstallState()
	if err != nil {
		return nil, err
	}
	tr := install.NewTracker()
	if st.Queued() {
		tr.Restore(st)
	}
	return tr, nil
}

// newLoader builds a preview loader from the config. With markInstalled the
// local inventory is loaded so dependencies can be ticked; that is best
// effort, and without it dependencies are simply not marked.
func (e *env) newLoader(ctx context.Context, markInstalled bool) (*preview.Loader, error) {
	timeout, err := e.cfg.PreviewTimeout()
	if err != nil {
		return nil, err
	}

	opts := preview.Options{
		Runner:    e.runner,
		Logger:    e.logger,
		CacheSize: e.cfg.Preview.CacheSize,
		Timeout:   timeout,
	}

	if markInstalled {
		inv, err := brew.LoadInventory(ctx, e.runner)
		if err != nil {
			e.logger.Warn("could not load installed packages", "error", err)
		} else {
			opts.Inventory = inv
		}
	}

	return preview.New(opts)
}

// newSession wires a session over the given state containers. The trackers
// may be nil.
func (e *env) newSession(loader *preview.Loader, results *search.Tracker, inst *install.Tracker) (*session.Session, error) {
	return session.New(session.Options{
		Runner:  e.runner,
		Results: results,
		Preview: loader,
		Install: inst,
		Aliases: e.cfg.Aliases,
		Logger:  e.logger,
	})
}

// resolveToken turns a full token or a unique prefix into a token. A full
// token is returned as is even when it is not among the results, so the
// caller reports it the same way as any other stale selection.
func resolveToken(results *search.Tracker, arg string) (uuid.UUID, error) {
	if token, err := uuid.Parse(arg); err == nil {
		return token, nil
	}
	pkg, err := search.ResolvePrefix(results, arg)
	if err != nil {
		return uuid.Nil, err
	}
	return pkg.Token, nil
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}
