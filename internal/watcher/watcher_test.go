package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func notifyFunc(ch chan struct{}) func() {
	return func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("", func() {}); err == nil {
		t.Error("New(\"\") expected error, got nil")
	}
	if _, err := New("/tmp/brewpick.db", nil); err == nil {
		t.Error("New(nil onChange) expected error, got nil")
	}
}

func TestMatches(t *testing.T) {
	w, err := New("/home/u/.brewpick/brewpick.db", func() {})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name string
		want bool
	}{
		{"/home/u/.brewpick/brewpick.db", true},
		{"/home/u/.brewpick/brewpick.db-wal", true},
		{"/home/u/.brewpick/brewpick.db-journal", true},
		{"/home/u/.brewpick/brewpick.db-shm", false},
		{"/home/u/.brewpick/brewpick.lock", false},
		{"/elsewhere/brewpick.db", false},
	}
	for _, tt := range tests {
		if got := w.Matches(tt.name); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWatcher_NotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brewpick.db")
	if err := os.WriteFile(path, []byte("a"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	changed := make(chan struct{}, 10)
	w, err := New(path, notifyFunc(changed), WithPoll(0), WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	// unrelated files are ignored
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(path+"-wal", []byte("b"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("onChange was not called after the database changed")
	}
}

func TestWatcher_PollFallback(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan struct{}, 10)

	w, err := New(filepath.Join(dir, "brewpick.db"), notifyFunc(changed), WithPoll(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("poll ticker did not fire")
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
