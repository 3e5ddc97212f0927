// Package vault watches a directory of markdown documents and feeds
// document-changed notifications into the indexer: a full concurrent scan at
// startup, then debounced fsnotify events for the lifetime of the process.
package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/tannerhall/mathdex/internal/index"
)

// Watcher drives re-indexing for one vault directory.
type Watcher struct {
	dir      string
	idx      *index.Indexer
	log      *slog.Logger
	debounce time.Duration
	maxBytes int64

	fsw *fsnotify.Watcher
	wg  sync.WaitGroup

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func New(dir string, idx *index.Indexer, log *slog.Logger, debounce time.Duration, maxBytes int64) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		dir:      dir,
		idx:      idx,
		log:      log,
		debounce: debounce,
		maxBytes: maxBytes,
		fsw:      fsw,
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Start indexes every markdown file in the vault with bounded concurrency,
// registers directory watches, and launches the event loop.
func (w *Watcher) Start(ctx context.Context, scanConcurrency int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)

	err := filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != w.dir {
				return filepath.SkipDir
			}
			return w.fsw.Add(path)
		}
		if !isMarkdown(path) {
			return nil
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			w.indexFile(path)
			return nil
		})
		return nil
	})
	if err != nil {
		return err
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Close stops watching and waits for in-flight work, including any debounce
// timer that has already fired.
func (w *Watcher) Close() {
	w.fsw.Close()
	w.mu.Lock()
	for p, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, p)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.fsw.Add(ev.Name)
			return
		}
		if isMarkdown(ev.Name) {
			w.schedule(ev.Name)
		}
	case ev.Op.Has(fsnotify.Write):
		if isMarkdown(ev.Name) {
			w.schedule(ev.Name)
		}
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		if isMarkdown(ev.Name) {
			w.idx.Remove(w.rel(ev.Name))
		}
	}
}

// schedule coalesces bursts of write events per file. Only the build that
// follows the last event in a burst reaches the indexer; the indexer's own
// generation check supersedes anything already in flight.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok && t.Stop() {
		w.wg.Done()
	}
	// The timer body is wg-tracked so Close waits for a fire that is already
	// in flight; a timer stopped before firing gives its slot back above.
	w.wg.Add(1)
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.indexFile(path)
	})
}

func (w *Watcher) indexFile(path string) {
	info, err := os.Stat(path)
	if err != nil {
		w.log.Warn("stat failed", "path", path, "error", err)
		return
	}
	if w.maxBytes > 0 && info.Size() > w.maxBytes {
		w.log.Warn("file too large, skipping", "path", path, "size", info.Size())
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Warn("read failed", "path", path, "error", err)
		return
	}
	w.idx.Update(w.rel(path), data)
}

func (w *Watcher) rel(path string) string {
	r, err := filepath.Rel(w.dir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(r)
}

func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}
