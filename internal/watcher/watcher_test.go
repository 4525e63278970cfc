// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// recorder collects handled paths.
type recorder struct {
	mu     sync.Mutex
	paths  []string
	active int
	maxAct int
}

func (r *recorder) handle(_ context.Context, path string) {
	r.mu.Lock()
	r.active++
	if r.active > r.maxAct {
		r.maxAct = r.active
	}
	r.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	r.mu.Lock()
	r.active--
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func startWatcher(t *testing.T, cfg types.WatchConfig, rec *recorder) {
	t.Helper()
	if cfg.Debounce == 0 {
		cfg.Debounce = 30 * time.Millisecond
	}
	w := New(cfg, rec.handle, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-errc)
	})
	// Give fsnotify time to register the roots.
	time.Sleep(50 * time.Millisecond)
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcher_DebounceAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, types.WatchConfig{Directories: []string{dir}, Extensions: []string{".pdf"}}, rec)

	pdf := filepath.Join(dir, "report.pdf")
	for i := 0; i < 5; i++ {
		write(t, pdf, "chunk")
		time.Sleep(5 * time.Millisecond)
	}
	write(t, filepath.Join(dir, "notes.md"), "ignored")

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{pdf}, rec.snapshot())
}

func TestWatcher_RemovedBeforeSettling(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, types.WatchConfig{Directories: []string{dir}, Extensions: []string{"pdf"}, Debounce: 200 * time.Millisecond}, rec)

	pdf := filepath.Join(dir, "temp.pdf")
	write(t, pdf, "partial")
	require.NoError(t, os.Remove(pdf))

	time.Sleep(400 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestWatcher_SerializesHandler(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, types.WatchConfig{Directories: []string{dir}, Extensions: []string{".pdf"}}, rec)

	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf"} {
		write(t, filepath.Join(dir, name), name)
	}

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 4 }, 2*time.Second, 10*time.Millisecond)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.maxAct)
}

func TestWatcher_SyncExisting(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "2025")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	top := filepath.Join(dir, "top.pdf")
	nested := filepath.Join(sub, "nested.pdf")
	write(t, top, "x")
	write(t, nested, "y")

	rec := &recorder{}
	startWatcher(t, types.WatchConfig{Directories: []string{dir}, Extensions: []string{".pdf"}, SyncExisting: true}, rec)
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{top}, rec.snapshot())

	recursive := &recorder{}
	startWatcher(t, types.WatchConfig{Directories: []string{dir}, Extensions: []string{".pdf"}, SyncExisting: true, Recursive: true}, recursive)
	require.Eventually(t, func() bool { return len(recursive.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{top, nested}, recursive.snapshot())
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, types.WatchConfig{Directories: []string{dir}, Extensions: []string{".pdf"}, Recursive: true}, rec)

	sub := filepath.Join(dir, "incoming")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(50 * time.Millisecond)
	pdf := filepath.Join(sub, "late.pdf")
	write(t, pdf, "z")

	require.Eventually(t, func() bool {
		for _, p := range rec.snapshot() {
			if p == pdf {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_CreatesMissingRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inbox")
	startWatcher(t, types.WatchConfig{Directories: []string{dir}}, &recorder{})
	assert.DirExists(t, dir)
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path string
		exts []string
		want bool
	}{
		{"/a/b.pdf", []string{".pdf"}, true},
		{"/a/B.PDF", []string{"pdf"}, true},
		{"/a/b.txt", []string{".pdf", ".txt"}, true},
		{"/a/b.md", []string{".pdf"}, false},
		{"/a/noext", []string{".pdf"}, false},
		{"/a/anything", nil, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchExtension(tt.path, tt.exts), tt.path)
	}
}
