// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watcher watches input directories with fsnotify and hands new or
// changed documents to a handler after a per-path debounce. The handler runs
// on a single goroutine, so extractions never overlap.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-extractor/internal/logging"
	"github.com/pdiddy/pdf-extractor/pkg/types"
)

const defaultDebounce = 400 * time.Millisecond

// Handler processes one settled file.
type Handler func(ctx context.Context, path string)

// Watcher watches directories and invokes the handler on file changes.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	syncFirst  bool
	debounce   time.Duration
	handle     Handler
	logger     *zap.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]bool
	ready   chan string
}

// New creates a watcher for cfg.Directories. Extensions are matched case
// insensitively, with or without the leading dot; an empty list matches
// every file.
func New(cfg types.WatchConfig, handle Handler, logger *zap.Logger) *Watcher {
	logger = logging.OrNop(logger)
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		roots:      slices.Clone(cfg.Directories),
		extensions: slices.Clone(cfg.Extensions),
		recursive:  cfg.Recursive,
		syncFirst:  cfg.SyncExisting,
		debounce:   debounce,
		handle:     handle,
		logger:     logger,
		timers:     make(map[string]*time.Timer),
		pending:    make(map[string]bool),
		ready:      make(chan string, 64),
	}
}

// Run watches until ctx is cancelled. It returns nil on cancellation and an
// error when the watch could not be set up.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	for _, root := range w.roots {
		if err := w.addRoot(fw, root); err != nil {
			return err
		}
	}
	w.logger.Info("watching",
		zap.Strings("roots", w.roots),
		zap.Strings("extensions", w.extensions),
		zap.Bool("recursive", w.recursive))

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.drain(ctx)
	}()
	defer func() {
		cancel()
		w.stopTimers()
		<-done
	}()

	if w.syncFirst {
		for _, root := range w.roots {
			w.syncDirectory(ctx, root)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// drain feeds settled paths to the handler one at a time.
func (w *Watcher) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.ready:
			w.mu.Lock()
			delete(w.pending, path)
			w.mu.Unlock()
			if _, err := os.Stat(path); err != nil {
				w.logger.Debug("settled file vanished", zap.String("path", path))
				continue
			}
			w.handle(ctx, path)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fw *fsnotify.Watcher, ev fsnotify.Event) {
	path := ev.Name
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))

	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			if w.recursive {
				w.addNewDirectory(ctx, fw, path)
			}
			return
		}
		if w.matchExtension(path) {
			w.schedule(ctx, path)
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.cancel(path)
	}
}

func (w *Watcher) addRoot(fw *fsnotify.Watcher, root string) error {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	if !w.recursive {
		return fw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}

// addNewDirectory watches a directory created or moved in under a root and
// schedules the files it already holds.
func (w *Watcher) addNewDirectory(ctx context.Context, fw *fsnotify.Watcher, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := fw.Add(path); err != nil {
				w.logger.Warn("watching new directory", zap.String("path", path), zap.Error(err))
			}
			return nil
		}
		if w.matchExtension(path) {
			w.schedule(ctx, path)
		}
		return nil
	})
}

func (w *Watcher) syncDirectory(ctx context.Context, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && !w.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if w.matchExtension(path) {
			w.enqueue(ctx, path)
		}
		return nil
	})
}

func (w *Watcher) matchExtension(path string) bool {
	return MatchExtension(path, w.extensions)
}

// MatchExtension reports whether path has one of extensions.
func MatchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// schedule restarts the quiet period for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.enqueue(ctx, path)
	})
}

// enqueue hands path to the drain loop unless it is already waiting there.
func (w *Watcher) enqueue(ctx context.Context, path string) {
	w.mu.Lock()
	if w.pending[path] {
		w.mu.Unlock()
		return
	}
	w.pending[path] = true
	w.mu.Unlock()
	select {
	case w.ready <- path:
	case <-ctx.Done():
	}
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}
