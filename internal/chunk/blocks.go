// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chunk

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"

	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// block is a run of page text with a single type.
type block struct {
	id   string
	page int
	typ  BlockType
	text string
}

// pageBlocks cuts a page's text into blocks. A heading line is a block of
// its own, consecutive table lines form a table block, and the remaining
// lines form paragraphs separated by blank lines. Paragraphs longer than
// size are split further. The page's visual context (image, chart and
// table counts) is appended to its first heading or paragraph, or becomes a
// block of its own when the page has none.
func pageBlocks(p types.Page, size int) []block {
	headings := make(map[string]bool, len(p.Headings))
	for _, h := range p.Headings {
		headings[h] = true
	}
	tables := make(map[string]bool, len(p.Tables))
	for _, t := range p.Tables {
		tables[t.Content] = true
	}

	var (
		out  []block
		run  []string
		kind BlockType
	)
	add := func(typ BlockType, text string) {
		out = append(out, block{
			id:   fmt.Sprintf("p%d_b%d", p.Number, len(out)+1),
			page: p.Number,
			typ:  typ,
			text: text,
		})
	}
	flush := func() {
		if len(run) == 0 {
			return
		}
		text := strings.Join(run, "\n")
		run = nil
		if kind == BlockTable {
			add(kind, text)
			return
		}
		for _, piece := range splitLong(text, size) {
			add(kind, piece)
		}
	}

	for _, line := range strings.Split(p.Text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			flush()
		case headings[line]:
			flush()
			add(BlockHeading, line)
		case tables[line]:
			if kind != BlockTable {
				flush()
			}
			kind = BlockTable
			run = append(run, line)
		default:
			if kind != BlockParagraph {
				flush()
			}
			kind = BlockParagraph
			run = append(run, line)
		}
	}
	flush()

	visual := visualContext(p)
	if visual == "" {
		return out
	}
	for i := range out {
		if out[i].typ == BlockHeading || out[i].typ == BlockParagraph {
			out[i].text += "\n" + visual
			return out
		}
	}
	add(BlockVisual, visual)
	return out
}

// visualContext describes a page's images and tables in bracketed markers.
func visualContext(p types.Page) string {
	var lines []string
	if len(p.Images) > 0 {
		lines = append(lines, fmt.Sprintf("[PÁGINA %d CONTÉM %d IMAGENS]", p.Number, len(p.Images)))
		for _, img := range p.Images {
			if img.LikelyChart {
				lines = append(lines, fmt.Sprintf("[GRÁFICO: %dx%d]", img.Width, img.Height))
			}
		}
	}
	if len(p.Tables) > 0 {
		lines = append(lines, fmt.Sprintf("[PÁGINA %d CONTÉM %d LINHAS DE TABELA]", p.Number, len(p.Tables)))
	}
	return strings.Join(lines, "\n")
}

// splitLong cuts text into pieces of at most size characters. Whole
// sentences are packed together; a sentence longer than size is cut at its
// last space before the limit, or hard when it has none.
func splitLong(text string, size int) []string {
	if utf8.RuneCountInString(text) <= size {
		return []string{text}
	}

	var (
		pieces []string
		cur    []string
		curLen int
	)
	flush := func() {
		if len(cur) > 0 {
			pieces = append(pieces, strings.Join(cur, " "))
			cur, curLen = nil, 0
		}
	}
	for _, s := range sentences(text) {
		n := utf8.RuneCountInString(s)
		if n > size {
			flush()
			pieces = append(pieces, hardSplit(s, size)...)
			continue
		}
		if curLen > 0 && curLen+1+n > size {
			flush()
		}
		if curLen > 0 {
			curLen++
		}
		cur = append(cur, s)
		curLen += n
	}
	flush()
	return pieces
}

// sentences segments text with prose's sentence tokenizer.
func sentences(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithTokenization(false))
	if err != nil {
		return []string{text}
	}
	var out []string
	for _, s := range doc.Sentences() {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

func hardSplit(text string, size int) []string {
	var pieces []string
	for utf8.RuneCountInString(text) > size {
		r := []rune(text)
		cut := size
		for i := size; i > 0; i-- {
			if unicode.IsSpace(r[i]) {
				cut = i
				break
			}
		}
		pieces = append(pieces, strings.TrimSpace(string(r[:cut])))
		text = strings.TrimSpace(string(r[cut:]))
	}
	if text != "" {
		pieces = append(pieces, text)
	}
	return pieces
}
