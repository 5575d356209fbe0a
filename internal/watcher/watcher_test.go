package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func startWatcher(t *testing.T, files []string) *atomic.Int32 {
	t.Helper()
	var fired atomic.Int32
	w, err := New(files, func() { fired.Add(1) })
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx, nil)
	t.Cleanup(func() {
		cancel()
		_ = w.Close()
	})
	return &fired
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcherFiresForWatchedFile(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "active-tasks.json")
	fired := startWatcher(t, []string{store})

	// Created after the watcher started.
	if err := os.WriteFile(store, []byte("[]"), 0o600); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return fired.Load() >= 1 })
}

func TestWatcherFiresOnAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "active-tasks.json")
	if err := os.WriteFile(store, []byte("[]"), 0o600); err != nil {
		t.Fatal(err)
	}
	fired := startWatcher(t, []string{store})

	tmp := filepath.Join(dir, ".active-tasks.json.tmp")
	if err := os.WriteFile(tmp, []byte(`[{"id":"a"}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, store); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return fired.Load() >= 1 })
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	fired := startWatcher(t, []string{filepath.Join(dir, "active-tasks.json")})

	if err := os.WriteFile(filepath.Join(dir, "other.log"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(4 * debounceDelay)
	if n := fired.Load(); n != 0 {
		t.Errorf("callback fired %d times for an unwatched file", n)
	}
}

func TestWatcherDebounces(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "active-tasks.json")
	fired := startWatcher(t, []string{store})

	for i := range 5 {
		if err := os.WriteFile(store, []byte{byte('0' + i)}, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool { return fired.Load() >= 1 })
	time.Sleep(3 * debounceDelay)
	if n := fired.Load(); n != 1 {
		t.Errorf("callback fired %d times, want 1", n)
	}
}

func TestNewMissingDirectory(t *testing.T) {
	if _, err := New([]string{filepath.Join(t.TempDir(), "nope", "store.json")}, func() {}); err == nil {
		t.Error("New() should fail when the parent directory is missing")
	}
}
