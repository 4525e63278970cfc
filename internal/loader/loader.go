// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package loader opens source documents and yields their raw per-page
// content: text, page size, embedded images and vector rectangles. It does
// no classification; that is the analyzer's job.
package loader

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf-extractor/internal/container"
	"github.com/pdiddy/pdf-extractor/internal/logging"
	"github.com/pdiddy/pdf-extractor/pkg/types"
)

var (
	// ErrUnsupported is returned for sources a backend cannot open.
	ErrUnsupported = errors.New("unsupported source")

	// ErrNoPages is returned when a source contains no pages at all.
	ErrNoPages = errors.New("document has no pages")
)

// RawImage is an image XObject found in a page's resources.
type RawImage struct {
	Name             string
	Width            int
	Height           int
	Filter           string
	ColorSpace       string
	BitsPerComponent int

	// Pixels holds the decoded raster when the loader was asked to decode
	// images and the encoding is supported. Otherwise DecodeErr says why not.
	Pixels    image.Image
	DecodeErr error
}

// RawPage is the unanalyzed content of one page.
type RawPage struct {
	// Number is the 1-based page index.
	Number int
	Text   string
	Width  float64
	Height float64
	Images []RawImage

	// Rects counts rectangles drawn by the page's content stream.
	Rects int

	// Err is set when the page could only be partially read.
	Err error
}

// RawDocument is the output of a Loader.
type RawDocument struct {
	Path string
	// Backend names the loader that read the document.
	Backend  string
	Metadata types.Metadata
	Pages    []RawPage
}

// Loader opens a document and returns its pages in order.
type Loader interface {
	// Name identifies the backend ("native", "text", "container").
	Name() string

	// Load reads the document at path. It checks ctx between pages.
	Load(ctx context.Context, path string) (*RawDocument, error)
}

// New builds the loader selected by cfg.Backend. The container backend
// detects docker or podman and verifies that the configured image exists.
func New(ctx context.Context, cfg types.ExtractConfig, logger *zap.Logger) (Loader, error) {
	logger = logging.OrNop(logger)
	switch cfg.Backend {
	case types.BackendNative, "":
		return NewPDFLoader(cfg.SaveImages, logger), nil
	case types.BackendText:
		return NewTextLoader(), nil
	case types.BackendContainer:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		return NewContainerLoader(ctx, rt, cfg.ContainerImage, logger)
	default:
		return nil, fmt.Errorf("%w: unknown loader backend %q", ErrUnsupported, cfg.Backend)
	}
}

// Auto wraps a PDF loader and a text loader and picks one by file
// extension: .txt and .text go to the text loader, everything else to pdf.
type Auto struct {
	PDF  Loader
	Text Loader
}

// Name returns the PDF backend's name. The backend that actually read a
// document is reported in RawDocument.Backend.
func (a *Auto) Name() string { return a.PDF.Name() }

func (a *Auto) Load(ctx context.Context, path string) (*RawDocument, error) {
	l := a.PDF
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		l = a.Text
	}
	doc, err := l.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	if doc.Backend == "" {
		doc.Backend = l.Name()
	}
	return doc, nil
}

// recoverErr converts a panic raised by a parser into an error.
func recoverErr(err *error, what string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: malformed content: %v", what, r)
	}
}
