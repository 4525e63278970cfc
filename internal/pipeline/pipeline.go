// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the extraction stages for one document or a batch:
// load, analyze, aggregate, render, and write the outputs.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pdf-extractor/internal/aggregate"
	"github.com/pdiddy/pdf-extractor/internal/analyze"
	"github.com/pdiddy/pdf-extractor/internal/chunk"
	"github.com/pdiddy/pdf-extractor/internal/httputil"
	"github.com/pdiddy/pdf-extractor/internal/loader"
	"github.com/pdiddy/pdf-extractor/internal/logging"
	"github.com/pdiddy/pdf-extractor/internal/render"
	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// Output file suffixes, appended to the document name.
const (
	SuffixMarkdown = "_extracted.md"
	SuffixJSON     = "_data.json"
	SuffixRawText  = "_raw_text.txt"
	SuffixWorkbook = "_pages.xlsx"
	SuffixChunks   = "_chunks.json"

	imagesDir = "images"
)

// ErrNameConflict is returned for a source whose output name is already
// owned by another source handled by the same pipeline.
var ErrNameConflict = errors.New("output name already in use")

// Recorder stores finished extractions. The history store implements it.
type Recorder interface {
	Record(ctx context.Context, doc *types.Document) error
}

// Result is the outcome for one source.
type Result struct {
	Source   string
	Status   types.ExtractionStatus
	Document *types.Document
	Outputs  []string
	Err      error
}

// BatchResult holds the outcome of a batch run.
type BatchResult struct {
	Extracted int
	Skipped   int
	Failed    int
	Results   []Result
}

// Total returns the number of sources processed.
func (r BatchResult) Total() int {
	return r.Extracted + r.Skipped + r.Failed
}

// HasFailures reports whether any source failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Pipeline wires the stages together. It is safe for concurrent use when
// its loader and recorder are.
type Pipeline struct {
	loader   loader.Loader
	analyzer *analyze.Analyzer
	cfg      types.ExtractConfig
	render   render.Options
	fetcher  *httputil.Fetcher
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	owners map[string]string // document name -> source
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFetcher enables http and https sources.
func WithFetcher(f *httputil.Fetcher) Option {
	return func(p *Pipeline) { p.fetcher = f }
}

// WithRecorder records every extracted document.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithClock overrides the extraction timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New builds a pipeline around l. Zero config values get their defaults.
func New(l loader.Loader, cfg types.Config, logger *zap.Logger, opts ...Option) *Pipeline {
	types.ApplyDefaults(&cfg)
	logger = logging.OrNop(logger)
	p := &Pipeline{
		loader:   l,
		analyzer: analyze.New(cfg.Extract.HeadingKeywords),
		cfg:      cfg.Extract,
		render:   render.OptionsFrom(cfg.Render),
		logger:   logger,
		now:      time.Now,
		owners:   make(map[string]string),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// DocumentName returns the report name for a source: the file name without
// extension, taken from the URL path for remote sources.
func DocumentName(source string) string {
	if httputil.IsRemote(source) {
		if u, err := url.Parse(source); err == nil {
			if base := path.Base(u.Path); base != "/" && base != "." {
				return aggregate.Stem(base)
			}
		}
		return "download"
	}
	return aggregate.Stem(source)
}

// claim reserves the output name of source. Sources whose names collide,
// such as report.pdf and report.txt, would overwrite each other's files, so
// only the first one to claim a name may use it.
func (p *Pipeline) claim(source string) error {
	name := DocumentName(source)
	key := source
	if !httputil.IsRemote(source) {
		if abs, err := filepath.Abs(source); err == nil {
			key = abs
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	owner, ok := p.owners[name]
	if !ok {
		p.owners[name] = key
		return nil
	}
	if owner != key {
		return fmt.Errorf("%w: %q is used by %s", ErrNameConflict, name, owner)
	}
	return nil
}

func (p *Pipeline) conflict(source string, err error, w io.Writer) Result {
	p.logger.Warn("output name conflict", zap.String("source", source), zap.Error(err))
	fmt.Fprintf(w, "failed:  %s (%v)\n", source, err)
	return Result{Source: source, Status: types.ExtractionFailed, Err: err}
}

// ReportPath returns where the Markdown report for source is written.
func (p *Pipeline) ReportPath(source string) string {
	return filepath.Join(p.cfg.OutputDir, DocumentName(source)+SuffixMarkdown)
}

// ExtractDocument runs every stage for one source and writes its outputs.
// A source whose report already exists is skipped unless Force is set.
// Progress lines go to w.
func (p *Pipeline) ExtractDocument(ctx context.Context, source string, w io.Writer) Result {
	if err := p.claim(source); err != nil {
		return p.conflict(source, err, w)
	}
	if !p.cfg.Force {
		if _, err := os.Stat(p.ReportPath(source)); err == nil {
			return p.skip(source, w)
		}
	}
	return p.process(ctx, source, w)
}

// Refresh extracts a local source that has no report yet or was modified
// after its report was written. The watcher uses it for changed files.
func (p *Pipeline) Refresh(ctx context.Context, source string, w io.Writer) Result {
	if err := p.claim(source); err != nil {
		return p.conflict(source, err, w)
	}
	if !p.cfg.Force && !httputil.IsRemote(source) {
		src, serr := os.Stat(source)
		rep, rerr := os.Stat(p.ReportPath(source))
		if serr == nil && rerr == nil && !src.ModTime().After(rep.ModTime()) {
			return p.skip(source, w)
		}
	}
	return p.process(ctx, source, w)
}

func (p *Pipeline) skip(source string, w io.Writer) Result {
	fmt.Fprintf(w, "skipped: %s (already exists)\n", DocumentName(source))
	return Result{Source: source, Status: types.ExtractionSkipped}
}

func (p *Pipeline) process(ctx context.Context, source string, w io.Writer) Result {
	name := DocumentName(source)
	res := Result{Source: source}

	doc, outputs, err := p.extract(ctx, source, name)
	if err != nil {
		p.logger.Error("extraction failed", zap.String("source", source), zap.Error(err))
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		res.Status = types.ExtractionFailed
		res.Err = err
		return res
	}

	if p.recorder != nil {
		if err := p.recorder.Record(ctx, doc); err != nil {
			p.logger.Warn("recording extraction", zap.String("document", doc.Name), zap.Error(err))
		}
	}

	fmt.Fprintf(w, "extracted: %s (%d pages, %s words, %d images)\n",
		name, doc.PageCount(), render.Thousands(doc.Summary.TotalWords), doc.Summary.TotalImages)
	res.Status = types.ExtractionDone
	res.Document = doc
	res.Outputs = outputs
	return res
}

func (p *Pipeline) extract(ctx context.Context, source, name string) (*types.Document, []string, error) {
	local := source
	if httputil.IsRemote(source) {
		if p.fetcher == nil {
			return nil, nil, fmt.Errorf("%w: remote sources are not enabled", loader.ErrUnsupported)
		}
		downloaded, err := p.fetcher.Fetch(ctx, source, "")
		if err != nil {
			return nil, nil, err
		}
		defer os.RemoveAll(filepath.Dir(downloaded))
		local = downloaded
	}

	start := time.Now()
	raw, err := p.loader.Load(ctx, local)
	if err != nil {
		return nil, nil, err
	}
	backend := raw.Backend
	if backend == "" {
		backend = p.loader.Name()
	}
	p.logger.Debug("document loaded",
		zap.String("source", source),
		zap.String("backend", backend),
		zap.Int("pages", len(raw.Pages)),
		zap.Duration("elapsed", time.Since(start)))

	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating output directory: %w", err)
	}

	pages := make([]types.Page, 0, len(raw.Pages))
	for _, rp := range raw.Pages {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		page := p.analyzer.Page(rp)
		if p.cfg.SaveImages {
			p.saveImages(name, &page, rp.Images)
		}
		pages = append(pages, page)
	}

	doc, err := aggregate.Build(aggregate.Source{
		Name:     name,
		Path:     source,
		Backend:  backend,
		Metadata: raw.Metadata,
	}, pages, p.now())
	if err != nil {
		return nil, nil, err
	}

	outputs, err := p.writeOutputs(doc)
	if err != nil {
		return nil, nil, err
	}
	return doc, outputs, nil
}

// writeOutputs writes the side files first and the Markdown report last, so
// a report on disk always marks a completed extraction.
func (p *Pipeline) writeOutputs(doc *types.Document) ([]string, error) {
	base := filepath.Join(p.cfg.OutputDir, doc.Name)
	var written []string
	write := func(path string, data []byte) error {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	if p.cfg.WriteJSON {
		var buf bytes.Buffer
		if err := render.JSON(&buf, doc); err != nil {
			return nil, err
		}
		if err := write(base+SuffixJSON, buf.Bytes()); err != nil {
			return nil, err
		}
	}
	if p.cfg.WriteRawText {
		if err := write(base+SuffixRawText, []byte(render.RawText(doc))); err != nil {
			return nil, err
		}
	}
	if p.cfg.WriteWorkbook {
		var buf bytes.Buffer
		if err := render.Workbook(&buf, doc); err != nil {
			return nil, err
		}
		if err := write(base+SuffixWorkbook, buf.Bytes()); err != nil {
			return nil, err
		}
	}
	if p.cfg.WriteChunks {
		set := chunk.Split(doc, chunk.Options{Size: p.cfg.ChunkSize, Overlap: p.cfg.ChunkOverlap})
		var buf bytes.Buffer
		if err := render.Chunks(&buf, set); err != nil {
			return nil, err
		}
		if err := write(base+SuffixChunks, buf.Bytes()); err != nil {
			return nil, err
		}
	}
	if err := write(base+SuffixMarkdown, []byte(render.Markdown(doc, p.render))); err != nil {
		return nil, err
	}
	return written, nil
}

// Run extracts sources with at most cfg.Workers documents in flight. Each
// document is still processed page by page. A failed source is counted and
// does not stop the batch; cancelling ctx does, and Run then returns ctx.Err().
// Output names are claimed in source order before any work starts, so which
// of two colliding sources fails does not depend on scheduling.
func (p *Pipeline) Run(ctx context.Context, sources []string, w io.Writer) (BatchResult, error) {
	sw := &syncWriter{w: w}
	results := make([]Result, len(sources))

	for i, src := range sources {
		if err := p.claim(src); err != nil {
			results[i] = p.conflict(src, err, sw)
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Workers)
	for i, src := range sources {
		if ctx.Err() != nil {
			break
		}
		if results[i].Status == types.ExtractionFailed {
			continue
		}
		i, src := i, src
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = Result{Source: src, Status: types.ExtractionNone, Err: ctx.Err()}
				return nil
			}
			results[i] = p.ExtractDocument(ctx, src, sw)
			return nil
		})
	}
	_ = g.Wait()

	var batch BatchResult
	for _, r := range results {
		switch r.Status {
		case types.ExtractionDone:
			batch.Extracted++
		case types.ExtractionSkipped:
			batch.Skipped++
		case types.ExtractionFailed:
			batch.Failed++
		default:
			continue
		}
		batch.Results = append(batch.Results, r)
	}
	fmt.Fprintf(sw, "\nBatch summary: %d extracted, %d skipped, %d failed (total: %d)\n",
		batch.Extracted, batch.Skipped, batch.Failed, batch.Total())
	return batch, ctx.Err()
}

// syncWriter serializes progress lines from concurrent workers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(b)
}
