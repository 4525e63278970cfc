// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// pageBreak separates pages in pdftotext output and in plain-text sources.
const pageBreak = "\f"

// TextLoader reads pre-extracted text, one page per form-feed separated
// section. Text pages have no images, no size and no vector content.
type TextLoader struct{}

// NewTextLoader returns the text backend.
func NewTextLoader() *TextLoader { return &TextLoader{} }

func (l *TextLoader) Name() string { return string(types.BackendText) }

func (l *TextLoader) Load(ctx context.Context, path string) (*RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	pages := splitPages(string(data))
	if len(pages) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoPages)
	}
	return &RawDocument{Path: path, Backend: l.Name(), Pages: pages}, nil
}

// splitPages splits text on form feeds. Invalid UTF-8 is replaced with
// U+FFFD. A trailing form feed does not start a new page, and an input with
// no content at all yields no pages.
func splitPages(text string) []RawPage {
	text = strings.ToValidUTF8(text, "�")
	text = strings.TrimSuffix(text, pageBreak)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	parts := strings.Split(text, pageBreak)
	pages := make([]RawPage, len(parts))
	for i, part := range parts {
		pages[i] = RawPage{Number: i + 1, Text: part}
	}
	return pages
}
