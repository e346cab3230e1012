// Package watch signals when any of a small set of files changes. It backs
// `lessondeck build -watch`, which rebuilds the deck when the config or the
// content file is edited.
package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is the stat interval used when fsnotify is unavailable.
const DefaultPollInterval = 2 * time.Second

// ///////////////////////////////////////////////
// Watcher
// ///////////////////////////////////////////////

// Watcher monitors files using fsnotify with a polling fallback.
//
// Parent directories are watched rather than the files themselves, so
// editors that save by writing a temp file and renaming it over the original
// are still seen.
type Watcher struct {
	// files holds the cleaned absolute paths being watched.
	files map[string]bool
	// dirs are the unique parent directories of files.
	dirs []string
	// events delivers a signal each time a watched file changes.
	// The channel is buffered to 1 so back-to-back writes coalesce.
	events chan struct{}
	// done is closed by [Watcher.Close] to signal goroutines to exit.
	done chan struct{}

	mu sync.Mutex
	// fsw is the underlying fsnotify watcher; nil when polling.
	fsw *fsnotify.Watcher

	once         sync.Once
	polling      atomic.Bool
	pollInterval time.Duration
	log          *slog.Logger
}

// Options tunes a [Watcher].
type Options struct {
	// PollInterval overrides DefaultPollInterval.
	PollInterval time.Duration
	// Poll skips fsnotify entirely.
	Poll   bool
	Logger *slog.Logger
}

// New creates a Watcher for files. Files that do not exist yet are watched
// for creation.
func New(files []string, opts Options) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	w := &Watcher{
		files:        make(map[string]bool, len(files)),
		events:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		pollInterval: opts.PollInterval,
		log:          opts.Logger,
	}
	if w.pollInterval <= 0 {
		w.pollInterval = DefaultPollInterval
	}
	if w.log == nil {
		w.log = slog.Default()
	}

	seen := map[string]bool{}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		w.files[abs] = true
		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}

	if opts.Poll {
		w.startPolling()
		return w, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Info("fsnotify unavailable, falling back to polling", "error", err)
		w.startPolling()
		return w, nil
	}
	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			w.log.Info("cannot watch directory, falling back to polling", "path", dir, "error", err)
			fsw.Close()
			w.startPolling()
			return w, nil
		}
	}

	w.fsw = fsw
	go w.watch(fsw)
	return w, nil
}

// Polling reports whether the watcher is using polling instead of fsnotify.
func (w *Watcher) Polling() bool {
	return w.polling.Load()
}

// Events returns a channel that receives a signal when a watched file changes.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.fsw != nil {
			if closeErr := w.fsw.Close(); closeErr != nil {
				err = fmt.Errorf("closing fsnotify watcher: %w", closeErr)
			}
			w.fsw = nil
		}
	})
	return err
}

// tracked reports whether an event path is one of the watched files.
func (w *Watcher) tracked(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return w.files[abs]
}

// watch loops over fsnotify events and forwards write, create and rename
// notifications for watched files. On an fsnotify error it closes the native
// watcher and falls back to polling.
func (w *Watcher) watch(fsw *fsnotify.Watcher) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				if w.tracked(event.Name) {
					w.notify()
				}
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Info("fsnotify error, switching to polling", "error", err)
			w.mu.Lock()
			if w.fsw != nil {
				w.fsw.Close()
				w.fsw = nil
			}
			w.mu.Unlock()
			w.startPolling()
			return
		}
	}
}

func (w *Watcher) startPolling() {
	w.polling.Store(true)
	go w.poll()
}

// poll periodically stats the watched files and sends a notification when
// the newest modification time advances.
func (w *Watcher) poll() {
	lastMod := w.latestMod()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if mod := w.latestMod(); mod.After(lastMod) {
				lastMod = mod
				w.notify()
			}
		}
	}
}

// latestMod returns the most recent modification time among watched files.
// Missing files are ignored.
func (w *Watcher) latestMod() time.Time {
	var latest time.Time
	for f := range w.files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	return latest
}

// notify sends a single signal to the events channel. If a signal is already
// pending the call is a no-op, coalescing rapid successive changes.
func (w *Watcher) notify() {
	select {
	case w.events <- struct{}{}:
	default:
	}
}

// ///////////////////////////////////////////////
// Debounce
// ///////////////////////////////////////////////

// Settle waits until no further event has arrived for quiet, so a save that
// fires several events triggers one rebuild. It returns false if done closes
// first.
func (w *Watcher) Settle(quiet time.Duration, done <-chan struct{}) bool {
	t := time.NewTimer(quiet)
	defer t.Stop()
	for {
		select {
		case <-done:
			return false
		case <-w.events:
			t.Reset(quiet)
		case <-t.C:
			return true
		}
	}
}
