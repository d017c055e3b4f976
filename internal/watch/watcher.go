// Package watch ingests transcript files as they appear in a directory tree
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/shivavenkatesh/wordline/internal/extract"
	"github.com/shivavenkatesh/wordline/internal/logging"
)

// Config configures a Watcher
type Config struct {
	Root         string        // Directory to watch recursively
	Debounce     time.Duration // Quiet period before a changed file is handled
	Ignore       []string      // Directory name patterns to skip
	ScanExisting bool          // Handle files already present at startup
}

// Watcher reports settled, supported files under a directory
type Watcher struct {
	cfg     Config
	handle  func(path string)
	logger  *slog.Logger
	ready   chan struct{}
	watcher *fsnotify.Watcher
}

// New creates a watcher that calls handle for each settled file
func New(cfg Config, handle func(path string), logger *slog.Logger) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Watcher{
		cfg:    cfg,
		handle: handle,
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the directory tree is being watched
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. It may be called once.
func (w *Watcher) Run(ctx context.Context) error {
	root, err := filepath.Abs(w.cfg.Root)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to access path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", root)
	}

	w.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.watcher.Close()

	debouncer := NewDebouncer(w.cfg.Debounce, func(path string) {
		if ctx.Err() != nil {
			return
		}
		w.handle(path)
	})
	defer debouncer.Stop()

	if err := w.addTree(root, debouncer, w.cfg.ScanExisting); err != nil {
		return err
	}
	w.logger.Info("watching directory", "path", root, "debounce", w.cfg.Debounce)
	close(w.ready)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event, debouncer)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, debouncer *Debouncer) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// files created before the watch was added are picked up by the scan
			if err := w.addTree(event.Name, debouncer, true); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	if w.wanted(event.Name) {
		debouncer.Trigger(event.Name)
	}
}

// addTree watches dir and its subdirectories, optionally queueing existing files
func (w *Watcher) addTree(dir string, debouncer *Debouncer, scan bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && w.ignored(d.Name()) {
				return filepath.SkipDir
			}
			if err := w.watcher.Add(path); err != nil {
				w.logger.Warn("failed to watch directory", "path", path, "error", err)
			}
			return nil
		}
		if scan && w.wanted(path) {
			debouncer.Trigger(path)
		}
		return nil
	})
}

func (w *Watcher) wanted(path string) bool {
	return extract.IsSupported(path) && !extract.IsTemporary(path)
}

func (w *Watcher) ignored(name string) bool {
	for _, pattern := range w.cfg.Ignore {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
