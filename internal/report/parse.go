// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report reads extraction reports back from Markdown and checks
// that their numbers agree with each other.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/pdf-extractor/internal/render"
	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// Report is the parsed content of an extraction report.
type Report struct {
	Title       string
	ExtractedAt time.Time
	PageCount   int

	TotalWords  int
	TotalImages int
	ChartPages  int
	TablePages  int

	Pages          []PageEntry
	AppendixImages []string
}

// PageEntry is one "### Página N" block.
type PageEntry struct {
	Number int
	Type   types.ContentType
	Words  int
	Images int

	Headings []string

	// ImageLines counts the image detail lines listed under the page.
	ImageLines int

	// TableLines counts shown and elided table rows.
	TableLines int
	HasTables  bool

	// Text is the fenced page text, without the truncation marker.
	Text      string
	HasText   bool
	Truncated bool
}

type section int

const (
	sectionHeader section = iota
	sectionSummary
	sectionPages
	sectionAppendix
)

type block int

const (
	blockNone block = iota
	blockHeadings
	blockImages
	blockTables
	blockText
	blockAppendixImages
)

// ParseFile opens path and parses it.
func ParseFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()
	rep, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rep, nil
}

// Parse reads a report. Numbers may carry thousands separators. Unknown
// lines outside fenced blocks are ignored.
func Parse(r io.Reader) (*Report, error) {
	p := &parser{rep: &Report{}}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		p.lineNo++
		if err := p.line(sc.Text()); err != nil {
			return nil, fmt.Errorf("line %d: %w", p.lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	if p.rep.Title == "" {
		return nil, fmt.Errorf("not an extraction report: missing title line")
	}
	p.flush()
	return p.rep, nil
}

type parser struct {
	rep     *Report
	lineNo  int
	section section
	block   block
	fence   string // open fence, empty outside one
	page    *PageEntry
	text    []string
}

func (p *parser) line(l string) error {
	if p.fence != "" {
		if render.IsFence(l) && len(l) >= len(p.fence) {
			p.fence = ""
			if p.block == blockText && p.page != nil {
				p.page.Text = strings.Join(p.text, "\n")
				p.text = nil
			}
			return nil
		}
		return p.fenced(l)
	}

	switch {
	case render.IsFence(l):
		p.fence = l
		if p.block == blockTables && p.page != nil {
			p.page.TableLines++
		}
		return nil
	case strings.HasPrefix(l, "# ") && p.rep.Title == "":
		p.rep.Title = strings.TrimPrefix(l, "# ")
		return nil
	case l == render.SectionSummary:
		p.section = sectionSummary
		return nil
	case l == render.SectionPages:
		p.section = sectionPages
		return nil
	case l == render.SectionAppendix:
		p.flush()
		p.section = sectionAppendix
		p.block = blockNone
		return nil
	}

	switch p.section {
	case sectionHeader:
		return p.header(l)
	case sectionSummary:
		return p.summary(l)
	case sectionPages:
		return p.pageLine(l)
	case sectionAppendix:
		return p.appendix(l)
	}
	return nil
}

func (p *parser) header(l string) error {
	switch {
	case strings.HasPrefix(l, render.LabelExtractedAt):
		ts, err := time.Parse(render.TimestampLayout, strings.TrimPrefix(l, render.LabelExtractedAt))
		if err != nil {
			return fmt.Errorf("parsing extraction timestamp: %w", err)
		}
		p.rep.ExtractedAt = ts
	case strings.HasPrefix(l, render.LabelPageCount):
		return parseInt(strings.TrimPrefix(l, render.LabelPageCount), &p.rep.PageCount)
	}
	return nil
}

func (p *parser) summary(l string) error {
	fields := []struct {
		label string
		dst   *int
	}{
		{render.LabelTotalWords, &p.rep.TotalWords},
		{render.LabelTotalImages, &p.rep.TotalImages},
		{render.LabelChartPages, &p.rep.ChartPages},
		{render.LabelTablePages, &p.rep.TablePages},
	}
	for _, f := range fields {
		if strings.HasPrefix(l, f.label) {
			return parseInt(strings.TrimPrefix(l, f.label), f.dst)
		}
	}
	return nil
}

func (p *parser) pageLine(l string) error {
	if strings.HasPrefix(l, render.PagePrefix) {
		p.flush()
		p.page = &PageEntry{}
		p.block = blockNone
		return parseInt(strings.TrimPrefix(l, render.PagePrefix), &p.page.Number)
	}
	if p.page == nil {
		return nil
	}

	switch {
	case strings.HasPrefix(l, render.LabelType):
		p.page.Type = types.ContentType(strings.TrimPrefix(l, render.LabelType))
	case strings.HasPrefix(l, render.LabelWords):
		return parseInt(strings.TrimPrefix(l, render.LabelWords), &p.page.Words)
	case strings.HasPrefix(l, render.LabelImages):
		return parseInt(strings.TrimPrefix(l, render.LabelImages), &p.page.Images)
	case l == render.BlockHeadings:
		p.block = blockHeadings
	case l == render.BlockImages:
		p.block = blockImages
	case l == render.BlockTables:
		p.block = blockTables
		p.page.HasTables = true
	case l == render.BlockText:
		p.block = blockText
		p.page.HasText = true
	case l == render.PageSeparator:
		p.block = blockNone
	case p.block == blockHeadings && strings.HasPrefix(l, "- "):
		p.page.Headings = append(p.page.Headings, strings.TrimPrefix(l, "- "))
	case p.block == blockImages && strings.HasPrefix(l, "- **Imagem "):
		p.page.ImageLines++
	case p.block == blockTables && strings.HasPrefix(l, "*(... e mais "):
		var n int
		if err := parseInt(strings.TrimSuffix(strings.TrimPrefix(l, "*(... e mais "), " linhas)*"), &n); err != nil {
			return err
		}
		p.page.TableLines += n
	}
	return nil
}

func (p *parser) fenced(l string) error {
	if p.block != blockText || p.page == nil {
		return nil
	}
	if l == render.TruncatedMarker {
		p.page.Truncated = true
		// The marker follows a blank separator line added by truncation.
		if n := len(p.text); n > 0 && p.text[n-1] == "" {
			p.text = p.text[:n-1]
		}
		return nil
	}
	p.text = append(p.text, l)
	return nil
}

func (p *parser) appendix(l string) error {
	switch {
	case l == render.AppendixImages:
		p.block = blockAppendixImages
	case p.block == blockAppendixImages && strings.HasPrefix(l, "- `"):
		p.rep.AppendixImages = append(p.rep.AppendixImages, strings.TrimSuffix(strings.TrimPrefix(l, "- `"), "`"))
	}
	return nil
}

func (p *parser) flush() {
	if p.page != nil {
		p.rep.Pages = append(p.rep.Pages, *p.page)
		p.page = nil
	}
}

// parseInt reads a decimal that may use "," as thousands separator.
func parseInt(s string, dst *int) error {
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*dst = n
	return nil
}
