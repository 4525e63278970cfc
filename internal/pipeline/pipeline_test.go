// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-extractor/internal/chunk"
	"github.com/pdiddy/pdf-extractor/internal/httputil"
	"github.com/pdiddy/pdf-extractor/internal/loader"
	"github.com/pdiddy/pdf-extractor/internal/report"
	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// fakeLoader returns canned pages or an error for every path.
type fakeLoader struct {
	pages []loader.RawPage
	err   error

	mu    sync.Mutex
	calls []string
}

func (f *fakeLoader) Name() string { return "fake" }

func (f *fakeLoader) Load(_ context.Context, path string) (*loader.RawDocument, error) {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &loader.RawDocument{Path: path, Pages: f.pages, Metadata: types.Metadata{Title: "Fund"}}, nil
}

// fakeRecorder remembers recorded documents.
type fakeRecorder struct {
	mu   sync.Mutex
	docs []*types.Document
	err  error
}

func (r *fakeRecorder) Record(_ context.Context, doc *types.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, doc)
	return r.err
}

func samplePages() []loader.RawPage {
	return []loader.RawPage{
		{Number: 1, Text: "CONFIDENTIAL MEMORANDUM\nThe portfolio holds three assets."},
		{Number: 2, Text: "Returns by year\n2021 2022 2023\n4 5 6", Images: []loader.RawImage{{Name: "Im0", Width: 600, Height: 400}}},
	}
}

var fixedClock = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 15, 0, time.Local) }

func newTestPipeline(t *testing.T, l loader.Loader, mutate func(*types.Config), opts ...Option) (*Pipeline, string) {
	t.Helper()
	out := t.TempDir()
	cfg := types.Config{Extract: types.ExtractConfig{OutputDir: out}}
	if mutate != nil {
		mutate(&cfg)
	}
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return New(l, cfg, nil, opts...), out
}

func TestExtractDocument(t *testing.T) {
	rec := &fakeRecorder{}
	p, out := newTestPipeline(t, &fakeLoader{pages: samplePages()}, func(c *types.Config) {
		c.Extract.WriteJSON = true
		c.Extract.WriteRawText = true
		c.Extract.WriteWorkbook = true
		c.Extract.WriteChunks = true
	}, WithRecorder(rec))

	var log bytes.Buffer
	res := p.ExtractDocument(context.Background(), "/in/fund.pdf", &log)
	require.NoError(t, res.Err)
	assert.Equal(t, types.ExtractionDone, res.Status)
	assert.Equal(t, "extracted: fund (2 pages, 16 words, 1 images)\n", log.String())

	for _, suffix := range []string{SuffixMarkdown, SuffixJSON, SuffixRawText, SuffixWorkbook, SuffixChunks} {
		assert.FileExists(t, filepath.Join(out, "fund"+suffix))
	}
	assert.Len(t, res.Outputs, 5)
	assert.Equal(t, filepath.Join(out, "fund"+SuffixMarkdown), res.Outputs[4])

	data, err := os.ReadFile(filepath.Join(out, "fund"+SuffixChunks))
	require.NoError(t, err)
	var set chunk.Set
	require.NoError(t, json.Unmarshal(data, &set))
	require.Len(t, set.Chunks, 1)
	assert.Equal(t, []int{1, 2}, set.Chunks[0].Metadata.Pages)
	assert.Equal(t, 1000, set.Document.ChunkSize)

	doc := res.Document
	require.NotNil(t, doc)
	assert.Equal(t, "fake", doc.Backend)
	assert.Equal(t, "Fund", doc.Metadata.Title)
	assert.Equal(t, types.ContentStructured, doc.Pages[0].Type)
	assert.Equal(t, types.ContentChart, doc.Pages[1].Type)

	require.Len(t, rec.docs, 1)
	assert.Equal(t, doc.ID, rec.docs[0].ID)

	rep, err := report.ParseFile(filepath.Join(out, "fund"+SuffixMarkdown))
	require.NoError(t, err)
	assert.Empty(t, rep.Verify(3000))
	assert.Equal(t, 16, rep.TotalWords)
}

func TestExtractDocument_SkipAndForce(t *testing.T) {
	l := &fakeLoader{pages: samplePages()}
	p, out := newTestPipeline(t, l, nil)
	require.NoError(t, os.WriteFile(filepath.Join(out, "fund"+SuffixMarkdown), []byte("old"), 0o644))

	var log bytes.Buffer
	res := p.ExtractDocument(context.Background(), "/in/fund.pdf", &log)
	assert.Equal(t, types.ExtractionSkipped, res.Status)
	assert.Contains(t, log.String(), "skipped: fund (already exists)")
	assert.Empty(t, l.calls)

	forced, _ := newTestPipeline(t, l, func(c *types.Config) {
		c.Extract.OutputDir = out
		c.Extract.Force = true
	})
	res = forced.ExtractDocument(context.Background(), "/in/fund.pdf", &log)
	assert.Equal(t, types.ExtractionDone, res.Status)
	data, err := os.ReadFile(filepath.Join(out, "fund"+SuffixMarkdown))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# fund\n"))
}

func TestExtractDocument_LoaderFailure(t *testing.T) {
	p, out := newTestPipeline(t, &fakeLoader{err: loader.ErrNoPages}, nil)

	var log bytes.Buffer
	res := p.ExtractDocument(context.Background(), "/in/empty.pdf", &log)
	assert.Equal(t, types.ExtractionFailed, res.Status)
	assert.ErrorIs(t, res.Err, loader.ErrNoPages)
	assert.Contains(t, log.String(), "failed:  empty")
	assert.NoFileExists(t, filepath.Join(out, "empty"+SuffixMarkdown))
}

func TestExtractDocument_RecorderFailureIsNotFatal(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("database is locked")}
	p, _ := newTestPipeline(t, &fakeLoader{pages: samplePages()}, nil, WithRecorder(rec))

	res := p.ExtractDocument(context.Background(), "/in/fund.pdf", &bytes.Buffer{})
	assert.Equal(t, types.ExtractionDone, res.Status)
}

func TestExtractDocument_SavesImages(t *testing.T) {
	pages := []loader.RawPage{{
		Number: 1,
		Text:   "Chart page",
		Images: []loader.RawImage{
			{Name: "Im0", Width: 4, Height: 3, Pixels: image.NewGray(image.Rect(0, 0, 4, 3))},
			{Name: "Im1", Width: 800, Height: 600, Filter: "DCTDecode", DecodeErr: errors.New("image Im1: unsupported encoding DCTDecode")},
			{Name: "Im2", Width: 2, Height: 2},
		},
	}}
	p, out := newTestPipeline(t, &fakeLoader{pages: pages}, func(c *types.Config) { c.Extract.SaveImages = true })

	res := p.ExtractDocument(context.Background(), "/in/scan.pdf", &bytes.Buffer{})
	require.NoError(t, res.Err)

	imgs := res.Document.Pages[0].Images
	require.Len(t, imgs, 3)
	want := filepath.Join(out, "images", "scan_page1_img1.png")
	assert.Equal(t, want, imgs[0].Path)
	assert.FileExists(t, want)
	assert.Empty(t, imgs[1].Path)
	assert.Contains(t, imgs[1].SaveError, "DCTDecode")
	assert.Equal(t, "pixel data not available", imgs[2].SaveError)

	assert.Equal(t, 3, res.Document.Summary.TotalImages)
	assert.Equal(t, []string{want}, res.Document.Summary.ExtractedImages)
}

func TestExtractDocument_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, "FUND NOTICE\nRemote body\fSecond page")
	}))
	defer srv.Close()

	fetcher := &httputil.Fetcher{Client: srv.Client(), Token: "s3cret", MaxRetries: 1}
	p, out := newTestPipeline(t, loader.NewTextLoader(), nil, WithFetcher(fetcher))

	var log bytes.Buffer
	res := p.ExtractDocument(context.Background(), srv.URL+"/files/notice.txt?sig=1", &log)
	require.NoError(t, res.Err)
	assert.Equal(t, "notice", res.Document.Name)
	assert.Equal(t, 2, res.Document.PageCount())
	assert.FileExists(t, filepath.Join(out, "notice"+SuffixMarkdown))

	noFetch, _ := newTestPipeline(t, loader.NewTextLoader(), nil)
	res = noFetch.ExtractDocument(context.Background(), srv.URL+"/files/notice.txt", &log)
	assert.ErrorIs(t, res.Err, loader.ErrUnsupported)
}

func TestRun_Batch(t *testing.T) {
	in := t.TempDir()
	var sources []string
	for i := 1; i <= 4; i++ {
		path := filepath.Join(in, fmt.Sprintf("doc%d.txt", i))
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("page one of doc %d\fpage two", i)), 0o644))
		sources = append(sources, path)
	}
	sources = append(sources, filepath.Join(in, "missing.txt"))

	p, out := newTestPipeline(t, loader.NewTextLoader(), func(c *types.Config) { c.Extract.Workers = 3 })

	var log bytes.Buffer
	batch, err := p.Run(context.Background(), sources, &log)
	require.NoError(t, err)
	assert.Equal(t, 4, batch.Extracted)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, 5, batch.Total())
	assert.True(t, batch.HasFailures())
	assert.Contains(t, log.String(), "Batch summary: 4 extracted, 0 skipped, 1 failed (total: 5)")

	for i := 1; i <= 4; i++ {
		assert.FileExists(t, filepath.Join(out, fmt.Sprintf("doc%d%s", i, SuffixMarkdown)))
	}

	// A second run skips everything that was extracted.
	log.Reset()
	batch, err = p.Run(context.Background(), sources[:4], &log)
	require.NoError(t, err)
	assert.Equal(t, 4, batch.Skipped)
	assert.False(t, batch.HasFailures())
}

func TestRun_NameConflict(t *testing.T) {
	in := t.TempDir()
	for _, name := range []string{"report.pdf", "report.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(in, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(in, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(in, "b"), 0o755))
	sources, err := Sources([]string{in}, []string{".pdf", ".txt"})
	require.NoError(t, err)
	sources = append(sources, filepath.Join(in, "a", "x.pdf"), filepath.Join(in, "b", "x.pdf"))

	l := &fakeLoader{pages: samplePages()}
	p, _ := newTestPipeline(t, l, func(c *types.Config) { c.Extract.Workers = 4 })

	var log bytes.Buffer
	batch, err := p.Run(context.Background(), sources, &log)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Extracted)
	assert.Equal(t, 0, batch.Skipped)
	assert.Equal(t, 2, batch.Failed)

	var failed []string
	for _, r := range batch.Results {
		if r.Status == types.ExtractionFailed {
			assert.ErrorIs(t, r.Err, ErrNameConflict)
			failed = append(failed, r.Source)
		}
	}
	assert.ElementsMatch(t, []string{filepath.Join(in, "report.txt"), filepath.Join(in, "b", "x.pdf")}, failed)
	assert.Contains(t, log.String(), "Batch summary: 2 extracted, 0 skipped, 2 failed (total: 4)")

	// The owner keeps its name on later runs; the other source still fails.
	res := p.ExtractDocument(context.Background(), filepath.Join(in, "report.txt"), &bytes.Buffer{})
	assert.ErrorIs(t, res.Err, ErrNameConflict)
	res = p.Refresh(context.Background(), filepath.Join(in, "report.pdf"), &bytes.Buffer{})
	assert.Equal(t, types.ExtractionSkipped, res.Status)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := &fakeLoader{pages: samplePages()}
	p, _ := newTestPipeline(t, l, nil)

	batch, err := p.Run(ctx, []string{"/in/a.pdf", "/in/b.pdf"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, batch.Total())
	assert.Empty(t, l.calls)
}

func TestExtractDocument_BackendOfRoutedLoader(t *testing.T) {
	src := filepath.Join(t.TempDir(), "memo.txt")
	require.NoError(t, os.WriteFile(src, []byte("plain memo"), 0o644))
	auto := &loader.Auto{PDF: &fakeLoader{pages: samplePages()}, Text: loader.NewTextLoader()}
	p, _ := newTestPipeline(t, auto, nil)

	res := p.ExtractDocument(context.Background(), src, &bytes.Buffer{})
	require.NoError(t, res.Err)
	assert.Equal(t, "text", res.Document.Backend)
}

func TestDocumentName(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"/data/Q1 Report.pdf", "Q1 Report"},
		{"relative/notes.txt", "notes"},
		{"https://example.com/docs/fund.pdf?token=x", "fund"},
		{"https://example.com/", "download"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DocumentName(tt.source), tt.source)
	}
}

func TestRefresh(t *testing.T) {
	in := t.TempDir()
	src := filepath.Join(in, "memo.txt")
	require.NoError(t, os.WriteFile(src, []byte("first draft"), 0o644))
	p, out := newTestPipeline(t, loader.NewTextLoader(), nil)
	report := filepath.Join(out, "memo"+SuffixMarkdown)

	res := p.Refresh(context.Background(), src, &bytes.Buffer{})
	require.Equal(t, types.ExtractionDone, res.Status)

	// Report newer than source: nothing to do.
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(src, old, old))
	res = p.Refresh(context.Background(), src, &bytes.Buffer{})
	assert.Equal(t, types.ExtractionSkipped, res.Status)

	// Source edited after the report was written.
	require.NoError(t, os.WriteFile(src, []byte("second draft with more words"), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(src, future, future))
	res = p.Refresh(context.Background(), src, &bytes.Buffer{})
	require.Equal(t, types.ExtractionDone, res.Status)
	assert.Equal(t, 5, res.Document.Summary.TotalWords)
	assert.FileExists(t, report)
}

func TestSources(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.PDF", "notes.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755))

	got, err := Sources([]string{
		dir,
		"https://example.com/fund.pdf",
		filepath.Join(dir, "b.pdf"),
		"/does/not/exist.pdf",
	}, []string{".pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.PDF"),
		filepath.Join(dir, "b.pdf"),
		"https://example.com/fund.pdf",
		"/does/not/exist.pdf",
	}, got)
}
