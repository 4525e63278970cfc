// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze classifies raw pages: word and image counts, headings,
// table-like lines, chart-like images and the page's content type.
package analyze

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pdiddy/pdf-extractor/internal/loader"
	"github.com/pdiddy/pdf-extractor/pkg/types"
)

const (
	// maxHeadingLen is the exclusive upper bound on heading length, in runes.
	maxHeadingLen = 100

	// Image size and shape that mark a likely chart.
	chartMinPixels = 50_000
	chartMinAspect = 0.5
	chartMaxAspect = 3.0
)

var (
	tableRowPattern = regexp.MustCompile(`\d+\s+\d+\s+\d+`)
	digitsOnly      = regexp.MustCompile(`^\d+$`)
)

// Analyzer turns loader pages into typed pages. It holds no per-document
// state and is safe for concurrent use.
type Analyzer struct {
	keywords []string
}

// New returns an Analyzer that treats lines containing any of keywords as
// headings. A nil slice selects types.DefaultHeadingKeywords.
func New(keywords []string) *Analyzer {
	if keywords == nil {
		keywords = types.DefaultHeadingKeywords
	}
	upper := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToUpper(strings.TrimSpace(k)); k != "" {
			upper = append(upper, k)
		}
	}
	return &Analyzer{keywords: upper}
}

// Page analyzes one raw page. Image paths are left empty; saving images is
// up to the caller.
func (a *Analyzer) Page(raw loader.RawPage) types.Page {
	text := strings.TrimSpace(raw.Text)
	page := types.Page{
		Number:     raw.Number,
		WordCount:  len(strings.Fields(text)),
		ImageCount: len(raw.Images),
		Text:       text,
		Width:      raw.Width,
		Height:     raw.Height,
		Headings:   a.Headings(text),
		Tables:     TableLines(text),
		Images:     classifyImages(raw.Images),
	}
	if raw.Err != nil {
		page.Error = raw.Err.Error()
	}

	score := ScoreChart(page, raw.Rects)
	page.ChartScore = score.Value
	page.ChartConfidence = score.Confidence
	page.Indicators = score.Indicators

	page.Type = contentType(page)
	return page
}

// Headings returns the lines of text that read as headings: lines containing
// a heading keyword that are either all upper case or shorter than 100
// characters. Bare page numbers are never headings.
func (a *Analyzer) Headings(text string) []string {
	var headings []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || digitsOnly.MatchString(line) {
			continue
		}
		short := len([]rune(line)) < maxHeadingLen
		if (isUpper(line) || short) && a.hasKeyword(line) {
			headings = append(headings, line)
		}
	}
	return headings
}

func (a *Analyzer) hasKeyword(line string) bool {
	upper := strings.ToUpper(line)
	for _, k := range a.keywords {
		if strings.Contains(upper, k) {
			return true
		}
	}
	return false
}

// isUpper reports whether s has at least one letter and no lower-case ones.
func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// TableLines returns the lines that look like rows of tabular data: three
// whitespace-separated numbers or a tab character.
func TableLines(text string) []types.TableLine {
	if text == "" {
		return nil
	}
	var rows []types.TableLine
	for i, line := range strings.Split(text, "\n") {
		if tableRowPattern.MatchString(line) || strings.Contains(line, "\t") {
			rows = append(rows, types.TableLine{LineNumber: i + 1, Content: strings.TrimSpace(line)})
		}
	}
	return rows
}

// IsLikelyChart applies the size and aspect-ratio rule for chart images.
func IsLikelyChart(img types.ImageInfo) bool {
	aspect := img.AspectRatio()
	return img.Pixels() > chartMinPixels && aspect >= chartMinAspect && aspect <= chartMaxAspect
}

func classifyImages(raw []loader.RawImage) []types.ImageInfo {
	if len(raw) == 0 {
		return nil
	}
	images := make([]types.ImageInfo, len(raw))
	for i, r := range raw {
		img := types.ImageInfo{
			Index:  i + 1,
			Name:   r.Name,
			Width:  r.Width,
			Height: r.Height,
			Filter: r.Filter,
		}
		img.LikelyChart = IsLikelyChart(img)
		images[i] = img
	}
	return images
}

// contentType picks the page type by precedence: chart, table, structured
// document, text.
func contentType(p types.Page) types.ContentType {
	for _, img := range p.Images {
		if img.LikelyChart {
			return types.ContentChart
		}
	}
	switch {
	case len(p.Tables) > 0:
		return types.ContentTable
	case len(p.Headings) > 0:
		return types.ContentStructured
	default:
		return types.ContentText
	}
}
