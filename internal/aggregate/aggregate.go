// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate assembles analyzed pages into a Document and derives
// its Summary. The Summary is only ever computed from the pages.
package aggregate

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// ErrInvariant is wrapped by every error Validate returns.
var ErrInvariant = errors.New("document invariant violated")

// Source describes where a document came from.
type Source struct {
	// Name overrides the document name, which defaults to the stem of Path.
	Name     string
	Path     string
	Backend  string
	Metadata types.Metadata
}

// Build assembles a Document from pages in source order. The extraction
// timestamp is truncated to seconds since that is all the report shows.
func Build(src Source, pages []types.Page, extractedAt time.Time) (*types.Document, error) {
	name := src.Name
	if name == "" {
		name = Stem(src.Path)
	}
	doc := &types.Document{
		ID:          uuid.NewString(),
		Name:        name,
		SourcePath:  src.Path,
		Backend:     src.Backend,
		ExtractedAt: extractedAt.Truncate(time.Second),
		Metadata:    src.Metadata,
		Pages:       pages,
		Summary:     Summarize(pages),
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Stem returns the file name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Summarize derives the document totals from its pages.
func Summarize(pages []types.Page) types.Summary {
	var s types.Summary
	for _, p := range pages {
		s.TotalWords += p.WordCount
		s.TotalImages += p.ImageCount
		if p.HasCharts() {
			s.PagesWithCharts++
		}
		if p.HasTables() {
			s.PagesWithTables++
		}
		for _, img := range p.Images {
			if img.Path != "" {
				s.ExtractedImages = append(s.ExtractedImages, img.Path)
			}
		}
	}
	return s
}

// Validate checks that page numbers run 1..N without gaps and that the
// summary totals equal the sums over the pages. All violations are joined
// into one error.
func Validate(doc *types.Document) error {
	var errs []error
	for i, p := range doc.Pages {
		if p.Number != i+1 {
			errs = append(errs, fmt.Errorf("%w: page at position %d has number %d", ErrInvariant, i+1, p.Number))
		}
		if p.ImageCount < len(p.Images) {
			errs = append(errs, fmt.Errorf("%w: page %d lists %d images but counts %d", ErrInvariant, p.Number, len(p.Images), p.ImageCount))
		}
	}

	want := Summarize(doc.Pages)
	got := doc.Summary
	if got.TotalWords != want.TotalWords {
		errs = append(errs, fmt.Errorf("%w: total words %d, pages sum to %d", ErrInvariant, got.TotalWords, want.TotalWords))
	}
	if got.TotalImages != want.TotalImages {
		errs = append(errs, fmt.Errorf("%w: total images %d, pages sum to %d", ErrInvariant, got.TotalImages, want.TotalImages))
	}
	if got.PagesWithCharts != want.PagesWithCharts {
		errs = append(errs, fmt.Errorf("%w: %d chart pages reported, %d found", ErrInvariant, got.PagesWithCharts, want.PagesWithCharts))
	}
	if got.PagesWithTables != want.PagesWithTables {
		errs = append(errs, fmt.Errorf("%w: %d table pages reported, %d found", ErrInvariant, got.PagesWithTables, want.PagesWithTables))
	}
	return errors.Join(errs...)
}
