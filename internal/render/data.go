// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdf-extractor/internal/chunk"
	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// JSON writes the full document, pages and summary included, as indented
// JSON.
func JSON(w io.Writer, doc *types.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding %s as JSON: %w", doc.Name, err)
	}
	return nil
}

// Chunks writes a chunk set as indented JSON.
func Chunks(w io.Writer, set *chunk.Set) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("encoding chunks of %s: %w", set.Document.Name, err)
	}
	return nil
}

// RawText renders every page's untruncated text under a page marker.
func RawText(doc *types.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "EXTRAÇÃO DE TEXTO BRUTO - %s\n", filepath.Base(doc.SourcePath))
	fmt.Fprintf(&b, "Data: %s\n", doc.ExtractedAt.Format(TimestampLayout))
	b.WriteString(strings.Repeat("=", 80))
	b.WriteString("\n\n")
	for _, p := range doc.Pages {
		fmt.Fprintf(&b, "\n--- PÁGINA %d ---\n\n", p.Number)
		b.WriteString(p.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}
