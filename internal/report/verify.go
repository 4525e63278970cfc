// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"unicode/utf8"

	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// Violation is one failed consistency check.
type Violation struct {
	// Page is the page the violation refers to, 0 for document-level checks.
	Page    int
	Message string
}

func (v Violation) String() string {
	if v.Page > 0 {
		return fmt.Sprintf("page %d: %s", v.Page, v.Message)
	}
	return v.Message
}

// Verify checks the report's internal consistency and returns every
// violation found. maxTextChars is the text limit the report was rendered
// with; zero skips the truncation checks.
func (r *Report) Verify(maxTextChars int) []Violation {
	var out []Violation
	add := func(page int, format string, args ...any) {
		out = append(out, Violation{Page: page, Message: fmt.Sprintf(format, args...)})
	}

	if r.PageCount != len(r.Pages) {
		add(0, "header reports %d pages, found %d page sections", r.PageCount, len(r.Pages))
	}

	var words, images, charts, tables int
	for i, pg := range r.Pages {
		if pg.Number != i+1 {
			add(pg.Number, "expected page %d at position %d", i+1, i+1)
		}
		words += pg.Words
		images += pg.Images
		if pg.Type == types.ContentChart {
			charts++
		}
		if pg.HasTables {
			tables++
		}
		if pg.ImageLines > pg.Images {
			add(pg.Number, "lists %d images but counts %d", pg.ImageLines, pg.Images)
		}
		if pg.Type == types.ContentTable && !pg.HasTables {
			add(pg.Number, "typed %s without detected table lines", pg.Type)
		}
		if maxTextChars > 0 && pg.HasText {
			n := utf8.RuneCountInString(pg.Text)
			if n > maxTextChars {
				add(pg.Number, "text has %d characters, limit is %d", n, maxTextChars)
			}
		}
	}

	if words != r.TotalWords {
		add(0, "page word counts sum to %d, summary reports %d", words, r.TotalWords)
	}
	if images != r.TotalImages {
		add(0, "page image counts sum to %d, summary reports %d", images, r.TotalImages)
	}
	if charts != r.ChartPages {
		add(0, "%d chart pages found, summary reports %d", charts, r.ChartPages)
	}
	if tables != r.TablePages {
		add(0, "%d pages with tables found, summary reports %d", tables, r.TablePages)
	}
	if len(r.AppendixImages) > images {
		add(0, "appendix lists %d images, pages count %d", len(r.AppendixImages), images)
	}
	return out
}
