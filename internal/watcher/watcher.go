// Package watcher re-runs a callback when any of a fixed set of files
// changes on disk. Events are coalesced over a debounce window so an editor
// saving a file in several steps produces a single call.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 500 * time.Millisecond

// Handler receives the files that changed since its previous call, sorted.
type Handler func(ctx context.Context, changed []string) error

// Watcher watches the parent directories of its files, so files replaced
// through a rename are still seen.
type Watcher struct {
	Debounce time.Duration
	// OnError receives handler errors. When nil, the first handler error
	// stops Run.
	OnError func(error)

	files map[string]bool
	dirs  []string
	ready chan struct{}
}

// New returns a Watcher for paths. Every path must name an existing file.
func New(paths ...string) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("watcher: no files to watch")
	}
	w := &Watcher{
		Debounce: DefaultDebounce,
		files:    make(map[string]bool, len(paths)),
		ready:    make(chan struct{}),
	}
	seenDir := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve %s", p)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, errors.Wrapf(err, "watch %s", p)
		}
		if info.IsDir() {
			return nil, errors.Newf("watch %s: is a directory", p)
		}
		w.files[abs] = true
		if dir := filepath.Dir(abs); !seenDir[dir] {
			seenDir[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	sort.Strings(w.dirs)
	return w, nil
}

// Files returns the watched files as absolute paths, sorted.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Run blocks until ctx is done, calling h after each burst of changes.
// It returns nil when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, h Handler) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create file watcher")
	}
	defer fw.Close()

	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			return errors.Wrapf(err, "watch %s", dir)
		}
	}
	close(w.ready)

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	pending := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(ev.Name)
			if !w.files[name] || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			pending[name] = true
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logf("", "watch error: %v", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for f := range pending {
				changed = append(changed, f)
			}
			sort.Strings(changed)
			clear(pending)

			logf("", "%d file(s) changed", len(changed))
			if err := h(ctx, changed); err != nil {
				if w.OnError == nil {
					return err
				}
				w.OnError(err)
			}
		}
	}
}
