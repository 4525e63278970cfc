// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render serializes an extracted Document: the Markdown report,
// a JSON data file, a raw-text dump and an XLSX workbook of page statistics.
package render

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// Report labels. The report parser matches on these exact strings.
const (
	LabelExtractedAt = "**Extraído em:** "
	LabelPageCount   = "**Total de páginas:** "

	SectionSummary  = "## Resumo Executivo"
	SectionPages    = "## Conteúdo por Página"
	SectionAppendix = "## Apêndices"

	LabelTotalWords  = "- **Palavras totais:** "
	LabelTotalImages = "- **Imagens totais:** "
	LabelChartPages  = "- **Páginas com gráficos:** "
	LabelTablePages  = "- **Páginas com tabelas:** "

	PagePrefix      = "### Página "
	LabelType       = "**Tipo:** "
	LabelWords      = "**Palavras:** "
	LabelImages     = "**Imagens:** "
	BlockHeadings   = "#### Cabeçalhos Detectados"
	BlockImages     = "#### Imagens"
	BlockTables     = "#### Tabelas Detectadas"
	BlockText       = "#### Conteúdo Textual"
	AppendixImages  = "### Imagens Extraídas"
	PageSeparator   = "---"
	Fence           = "```" // shortest fence; see FenceFor
	ChartMark       = " 📊 (Possível gráfico)"
	TruncatedMarker = "*(... conteúdo truncado)*"

	// TimestampLayout is the format of the extraction timestamp.
	TimestampLayout = "2006-01-02 15:04:05"
)

var blankRuns = regexp.MustCompile(`\n\s*\n`)

// Options bound the size of per-page blocks.
type Options struct {
	MaxTextChars  int
	MaxTableLines int
}

// OptionsFrom converts render configuration.
func OptionsFrom(cfg types.RenderConfig) Options {
	return Options{MaxTextChars: cfg.MaxTextChars, MaxTableLines: cfg.MaxTableLines}.withDefaults()
}

// withDefaults falls back to 3000 characters and 5 table lines.
func (o Options) withDefaults() Options {
	if o.MaxTextChars <= 0 {
		o.MaxTextChars = 3000
	}
	if o.MaxTableLines <= 0 {
		o.MaxTableLines = 5
	}
	return o
}

// Thousands formats n with comma digit grouping ("2,566").
func Thousands(n int) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

// Markdown renders the extraction report.
func Markdown(doc *types.Document, opts Options) string {
	opts = opts.withDefaults()
	s := doc.Summary

	lines := []string{
		"# " + doc.Name,
		LabelExtractedAt + doc.ExtractedAt.Format(TimestampLayout),
		LabelPageCount + fmt.Sprint(doc.PageCount()),
		"",
		SectionSummary,
		"",
		LabelTotalWords + Thousands(s.TotalWords),
		LabelTotalImages + fmt.Sprint(s.TotalImages),
		LabelChartPages + fmt.Sprint(s.PagesWithCharts),
		LabelTablePages + fmt.Sprint(s.PagesWithTables),
		"",
		SectionPages,
		"",
	}

	for _, p := range doc.Pages {
		lines = append(lines, pageBlock(p, opts)...)
	}

	lines = append(lines, SectionAppendix, "")
	if len(s.ExtractedImages) > 0 {
		lines = append(lines, AppendixImages)
		for _, path := range s.ExtractedImages {
			lines = append(lines, "- `"+path+"`")
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func pageBlock(p types.Page, opts Options) []string {
	lines := []string{
		PagePrefix + fmt.Sprint(p.Number),
		"",
		LabelType + string(p.Type),
		LabelWords + fmt.Sprint(p.WordCount),
		LabelImages + fmt.Sprint(p.ImageCount),
		"",
	}

	if len(p.Headings) > 0 {
		lines = append(lines, BlockHeadings)
		for _, h := range p.Headings {
			lines = append(lines, "- "+h)
		}
		lines = append(lines, "")
	}

	if p.ImageCount > 0 {
		lines = append(lines, BlockImages)
		for _, img := range p.Images {
			mark := ""
			if img.LikelyChart {
				mark = ChartMark
			}
			lines = append(lines, fmt.Sprintf("- **Imagem %d:** %dx%d (%s pixels)%s",
				img.Index, img.Width, img.Height, Thousands(img.Pixels()), mark))
			if img.Path != "" {
				lines = append(lines, "  - Arquivo: `"+filepath.Base(img.Path)+"`")
			}
		}
		lines = append(lines, "")
	}

	if len(p.Tables) > 0 {
		lines = append(lines, BlockTables)
		shown := p.Tables
		if len(shown) > opts.MaxTableLines {
			shown = shown[:opts.MaxTableLines]
		}
		for _, row := range shown {
			fence := FenceFor(row.Content)
			lines = append(lines, fence, row.Content, fence)
		}
		if extra := len(p.Tables) - len(shown); extra > 0 {
			lines = append(lines, fmt.Sprintf("*(... e mais %d linhas)*", extra))
		}
		lines = append(lines, "")
	}

	if p.HasContent() {
		text := TruncateText(p.Text, opts.MaxTextChars)
		fence := FenceFor(text)
		lines = append(lines, BlockText, fence, text, fence, "")
	}

	return append(lines, PageSeparator, "")
}

// FenceFor returns a backtick fence longer than any backtick run in content,
// so no line of content can close it.
func FenceFor(content string) string {
	longest, run := 0, 0
	for _, r := range content {
		if r != '`' {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	if longest < len(Fence) {
		return Fence
	}
	return strings.Repeat("`", longest+1)
}

// IsFence reports whether line is a bare backtick fence.
func IsFence(line string) bool {
	return len(line) >= len(Fence) && strings.Trim(line, "`") == ""
}

// TruncateText cuts text to limit runes, appends the truncation marker when
// anything was cut, and collapses runs of blank lines to one.
func TruncateText(text string, limit int) string {
	if r := []rune(text); len(r) > limit {
		text = string(r[:limit]) + "\n\n" + TruncatedMarker
	}
	return blankRuns.ReplaceAllString(text, "\n\n")
}
