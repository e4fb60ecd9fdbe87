// Package watcher rescans a workspace when manifests change on disk.
//
// A recursive fsnotify watcher covers every directory under the root,
// including directories created after the watch starts. Events are
// debounced so a burst of writes produces a single rescan, and each
// flush hands the fresh scan result to a callback.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/packsmith/packsmith/internal/observability/logging"
	"github.com/packsmith/packsmith/internal/scanner"
)

const (
	// DefaultDebounce is the quiet window after the last event before
	// a rescan fires.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultMaxBatch flushes early once this many distinct manifests
	// have changed, so a mass update cannot defer the rescan forever.
	DefaultMaxBatch = 64
)

// relevantOps are the event kinds that can change what a scan finds.
// Chmod is deliberately absent.
const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Config tunes a Watcher.
type Config struct {
	// Root is the workspace directory to watch. Required.
	Root string

	// Exclude holds doublestar patterns matched against slash-separated
	// paths relative to Root, with the same semantics as a scan:
	// matching directories are never registered and events on matching
	// manifests are dropped.
	Exclude []string

	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration

	// MaxBatch overrides DefaultMaxBatch when positive.
	MaxBatch int

	// OnScan receives the result of each rescan together with the
	// root-relative manifest paths that triggered it. A non-nil error
	// stops the watcher. May be nil.
	OnScan func(ctx context.Context, res *scanner.Result, changed []string) error
}

// Watcher debounces manifest events into workspace rescans.
type Watcher struct {
	cfg Config
	fw  *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool

	flush chan []string
}

// New validates cfg and registers every directory under the root.
// The watcher does nothing until Run is called.
func New(cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, errors.New("watch: root directory required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s: not a directory", root)
	}
	cfg.Root = root
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxBatch
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create filesystem watcher: %w", err)
	}
	w := &Watcher{
		cfg:     cfg,
		fw:      fw,
		pending: make(map[string]struct{}),
		flush:   make(chan []string, 1),
	}
	if err := w.addDirectories(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Run blocks until ctx is cancelled, the underlying watcher fails, or
// the OnScan callback returns an error. Cancellation returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()

	log := logging.From(ctx)
	log.Info("watcher", "watching for manifest changes",
		"root", w.cfg.Root,
		"debounce", w.cfg.Debounce.String())

	for {
		select {
		case <-ctx.Done():
			w.stop()
			return nil
		case batch := <-w.flush:
			if err := w.rescan(ctx, batch); err != nil {
				if ctx.Err() != nil {
					w.stop()
					return nil
				}
				w.stop()
				return err
			}
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			if isFatalWatchError(err) {
				w.stop()
				return fmt.Errorf("filesystem watcher failed: %w", err)
			}
			log.Warn("watcher", "filesystem watch error", "error", err.Error())
		}
	}
}

// stop marks the watcher finished and silences the debounce timer so
// no flush fires after Run returns.
func (w *Watcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	log := logging.From(ctx)

	// New directories join the watch before any basename filtering so
	// manifests created inside them are seen.
	if ev.Op.Has(fsnotify.Create) {
		w.maybeWatchDir(ev.Name, log)
	}

	if filepath.Base(ev.Name) != scanner.ManifestName {
		return
	}
	if ev.Op&relevantOps == 0 {
		return
	}
	rel, err := filepath.Rel(w.cfg.Root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if scanner.Excluded(w.cfg.Exclude, rel) {
		return
	}

	log.Debug("watcher", "manifest event", "op", ev.Op.String(), "path", rel)
	w.record(rel)
}

// record adds a changed manifest to the pending set and re-arms the
// debounce timer. A full batch flushes immediately.
func (w *Watcher) record(rel string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.pending[rel] = struct{}{}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.cfg.Debounce, w.emit)
	} else {
		w.timer.Reset(w.cfg.Debounce)
	}
	if len(w.pending) >= w.cfg.MaxBatch {
		w.timer.Reset(0)
	}
}

// emit moves the pending set onto the flush channel. When a previous
// flush is still queued the paths are put back and the timer re-armed,
// so nothing is lost while a rescan is running.
func (w *Watcher) emit() {
	w.mu.Lock()
	if w.stopped || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := make([]string, 0, len(w.pending))
	for rel := range w.pending {
		batch = append(batch, rel)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	sort.Strings(batch)

	select {
	case w.flush <- batch:
	default:
		w.mu.Lock()
		if !w.stopped {
			for _, rel := range batch {
				w.pending[rel] = struct{}{}
			}
			w.timer.Reset(w.cfg.Debounce)
		}
		w.mu.Unlock()
	}
}

func (w *Watcher) rescan(ctx context.Context, changed []string) error {
	log := logging.From(ctx)
	log.Info("watcher", "manifest changes detected", "changed", len(changed))

	res, err := scanner.Scan(ctx, w.cfg.Root, scanner.Options{Exclude: w.cfg.Exclude})
	if err != nil {
		return fmt.Errorf("rescan %s: %w", w.cfg.Root, err)
	}
	if w.cfg.OnScan == nil {
		return nil
	}
	return w.cfg.OnScan(ctx, res, changed)
}

// addDirectories registers root and every subdirectory. Unreadable
// subtrees are skipped rather than failing the watch.
func (w *Watcher) addDirectories(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root {
			rel, relErr := filepath.Rel(root, path)
			if relErr == nil && scanner.Excluded(w.cfg.Exclude, filepath.ToSlash(rel)) {
				return fs.SkipDir
			}
		}
		if err := w.fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// maybeWatchDir registers a directory that appeared after the watch
// started. Non-directories and excluded paths are ignored.
func (w *Watcher) maybeWatchDir(path string, log logging.Logger) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if rel, relErr := filepath.Rel(w.cfg.Root, path); relErr == nil {
		if scanner.Excluded(w.cfg.Exclude, filepath.ToSlash(rel)) {
			return
		}
	}
	if err := w.fw.Add(path); err != nil {
		log.Warn("watcher", "cannot watch new directory", "path", path, "error", err.Error())
		return
	}
	log.Debug("watcher", "watching new directory", "path", path)
}
