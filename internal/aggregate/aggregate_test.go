// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// reportPages mirrors an eight-page fund report: 2,566 words and 9 images.
func reportPages() []types.Page {
	words := []int{412, 388, 120, 301, 502, 276, 333, 234}
	images := []int{1, 0, 3, 1, 0, 2, 1, 1}
	pages := make([]types.Page, len(words))
	for i := range pages {
		pages[i] = types.Page{
			Number:     i + 1,
			Type:       types.ContentText,
			WordCount:  words[i],
			ImageCount: images[i],
		}
	}
	pages[2].Type = types.ContentChart
	pages[2].Images = []types.ImageInfo{{Index: 1, Width: 600, Height: 400, LikelyChart: true, Path: "images/report_page3_img1.png"}}
	pages[4].Type = types.ContentTable
	pages[4].Tables = []types.TableLine{{LineNumber: 4, Content: "2021 2022 2023"}}
	return pages
}

func TestBuild(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 30, 15, 987654321, time.UTC)
	doc, err := Build(Source{Path: "/data/in/Fund Report.pdf", Backend: "native", Metadata: types.Metadata{Title: "Q1"}}, reportPages(), at)
	require.NoError(t, err)

	_, err = uuid.Parse(doc.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Fund Report", doc.Name)
	assert.Equal(t, "/data/in/Fund Report.pdf", doc.SourcePath)
	assert.Equal(t, "native", doc.Backend)
	assert.Equal(t, "Q1", doc.Metadata.Title)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 30, 15, 0, time.UTC), doc.ExtractedAt)
	assert.Equal(t, 8, doc.PageCount())

	assert.Equal(t, 2566, doc.Summary.TotalWords)
	assert.Equal(t, 9, doc.Summary.TotalImages)
	assert.Equal(t, 1, doc.Summary.PagesWithCharts)
	assert.Equal(t, 1, doc.Summary.PagesWithTables)
	assert.Equal(t, []string{"images/report_page3_img1.png"}, doc.Summary.ExtractedImages)
}

func TestBuild_RejectsGap(t *testing.T) {
	pages := reportPages()
	pages[5].Number = 9

	_, err := Build(Source{Path: "r.pdf"}, pages, time.Now())
	require.ErrorIs(t, err, ErrInvariant)
	assert.Contains(t, err.Error(), "position 6")
}

func TestBuild_EmptyDocument(t *testing.T) {
	doc, err := Build(Source{Path: "empty.txt"}, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, doc.PageCount())
	assert.Equal(t, types.Summary{}, doc.Summary)
}

func TestValidate_ReportsAllViolations(t *testing.T) {
	doc := &types.Document{Pages: reportPages()}
	doc.Summary = Summarize(doc.Pages)
	require.NoError(t, Validate(doc))

	doc.Summary.TotalWords = 2500
	doc.Summary.TotalImages = 10
	doc.Summary.PagesWithCharts = 0
	err := Validate(doc)
	require.ErrorIs(t, err, ErrInvariant)
	assert.Contains(t, err.Error(), "total words 2500, pages sum to 2566")
	assert.Contains(t, err.Error(), "total images 10, pages sum to 9")
	assert.Contains(t, err.Error(), "0 chart pages reported, 1 found")
}

func TestValidate_ImageCountBelowDetails(t *testing.T) {
	pages := reportPages()
	pages[2].ImageCount = 0
	doc := &types.Document{Pages: pages, Summary: Summarize(pages)}

	err := Validate(doc)
	require.ErrorIs(t, err, ErrInvariant)
	assert.Contains(t, err.Error(), "page 3 lists 1 images but counts 0")
}

func TestBuild_NameOverride(t *testing.T) {
	doc, err := Build(Source{Name: "report", Path: "https://example.com/files/report.pdf?sig=abc"}, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "report", doc.Name)
	assert.Equal(t, "https://example.com/files/report.pdf?sig=abc", doc.SourcePath)
}

func TestStem(t *testing.T) {
	assert.Equal(t, "report", Stem("/tmp/report.pdf"))
	assert.Equal(t, "archive.tar", Stem("archive.tar.gz"))
	assert.Equal(t, "README", Stem("README"))
}
