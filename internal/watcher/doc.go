// Package watcher notices changes to the brewpick database so that
// `brewpick queue --follow` can re-render the install record as soon as an
// installer reports progress from another process.
//
// The database directory is watched with fsnotify rather than the file
// itself: SQLite in WAL mode writes to brewpick.db-wal and replaces files,
// which would drop a watch placed on a single path. Bursts of events are
// coalesced, and a slow poll ticker covers filesystems that do not deliver
// events.
//
// Example usage:
//
//	w, err := watcher.New(dbPath, func() { redraw() })
//	if err != nil {
//		return err
//	}
//	if err := w.Start(); err != nil {
//		return err
//	}
//	defer w.Stop()
package watcher
