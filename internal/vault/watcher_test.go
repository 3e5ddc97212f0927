package vault

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tannerhall/mathdex/internal/index"
)

func testWatcher(t *testing.T, debounce time.Duration) (*Watcher, *index.Indexer, string) {
	t.Helper()
	dir := t.TempDir()
	idx := index.NewIndexer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	w, err := New(dir, idx, slog.New(slog.NewTextHandler(io.Discard, nil)), debounce, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w, idx, dir
}

func TestCloseCancelsPendingDebounce(t *testing.T) {
	w, idx, dir := testWatcher(t, time.Hour)
	path := filepath.Join(dir, "a.md")
	if err := os.WriteFile(path, []byte("# A\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Re-arming must not leak waitgroup slots, and Close must return
	// promptly with the timer still pending.
	w.schedule(path)
	w.schedule(path)

	done := make(chan struct{})
	go func() {
		w.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return with a pending debounce timer")
	}

	if p := idx.Load("a.md"); p != nil {
		t.Errorf("cancelled debounce still indexed: %+v", p)
	}
}

func TestCloseWaitsForFiredDebounce(t *testing.T) {
	w, idx, dir := testWatcher(t, time.Millisecond)
	path := filepath.Join(dir, "b.md")
	if err := os.WriteFile(path, []byte("# B\nbody\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w.schedule(path)
	time.Sleep(50 * time.Millisecond) // let the timer fire
	w.Close()

	// Close returns only after the fired timer's index pass finished.
	if p := idx.Load("b.md"); p == nil {
		t.Error("document scheduled before Close is not indexed after it")
	}
}
