// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ContentType classifies the dominant content of a page.
type ContentType string

const (
	ContentText       ContentType = "text"
	ContentStructured ContentType = "structured_document"
	ContentTable      ContentType = "table"
	// ContentChart marks a graphic page: at least one image looks like a chart.
	ContentChart ContentType = "chart"
)

// Confidence grades a page's chart score.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ExtractionStatus indicates the outcome of running the pipeline on one document.
type ExtractionStatus string

const (
	ExtractionNone    ExtractionStatus = "none"
	ExtractionDone    ExtractionStatus = "extracted"
	ExtractionSkipped ExtractionStatus = "skipped"
	ExtractionFailed  ExtractionStatus = "failed"
)

// Metadata holds document-level information read from the source.
type Metadata struct {
	Title            string `json:"title,omitempty" yaml:"title,omitempty"`
	Author           string `json:"author,omitempty" yaml:"author,omitempty"`
	Subject          string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Creator          string `json:"creator,omitempty" yaml:"creator,omitempty"`
	Producer         string `json:"producer,omitempty" yaml:"producer,omitempty"`
	CreationDate     string `json:"creation_date,omitempty" yaml:"creation_date,omitempty"`
	ModificationDate string `json:"modification_date,omitempty" yaml:"modification_date,omitempty"`
}

// ImageInfo describes one image embedded in a page.
type ImageInfo struct {
	// Index is the 1-based position of the image within its page.
	Index int `json:"index" yaml:"index"`

	// Name is the resource name of the image (e.g. "Im0").
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	// Filter is the stream filter the image was stored with (e.g. "DCTDecode").
	Filter string `json:"filter,omitempty" yaml:"filter,omitempty"`

	// LikelyChart reports whether size and aspect ratio fit a chart.
	LikelyChart bool `json:"likely_chart" yaml:"likely_chart"`

	// Path is the file the image was written to, empty when not saved.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// SaveError explains why the image could not be written.
	SaveError string `json:"save_error,omitempty" yaml:"save_error,omitempty"`
}

// Pixels returns width times height.
func (i ImageInfo) Pixels() int {
	return i.Width * i.Height
}

// AspectRatio returns width over height, or 0 when height is zero.
func (i ImageInfo) AspectRatio() float64 {
	if i.Height <= 0 {
		return 0
	}
	return float64(i.Width) / float64(i.Height)
}

// TableLine is a line of page text that looks like a row of tabular data.
type TableLine struct {
	// LineNumber is the 1-based line within the page text.
	LineNumber int    `json:"line_number" yaml:"line_number"`
	Content    string `json:"content" yaml:"content"`
}

// Page is one ordered unit of a Document. Pages are produced once by the
// extraction pass and never modified afterwards.
type Page struct {
	// Number is the 1-based page index. Indices are contiguous within a Document.
	Number int `json:"page_number" yaml:"page_number"`

	Type      ContentType `json:"content_type" yaml:"content_type"`
	WordCount int         `json:"word_count" yaml:"word_count"`

	// ImageCount is the number of images embedded in the page, including
	// images whose details could not be read.
	ImageCount int `json:"image_count" yaml:"image_count"`

	// Text is the trimmed raw text of the page.
	Text string `json:"raw_text" yaml:"raw_text"`

	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`

	Headings []string    `json:"headings,omitempty" yaml:"headings,omitempty"`
	Images   []ImageInfo `json:"images,omitempty" yaml:"images,omitempty"`
	Tables   []TableLine `json:"tables,omitempty" yaml:"tables,omitempty"`

	ChartScore      float64    `json:"chart_score" yaml:"chart_score"`
	ChartConfidence Confidence `json:"chart_confidence" yaml:"chart_confidence"`
	Indicators      []string   `json:"indicators,omitempty" yaml:"indicators,omitempty"`

	// Error records a page-level extraction failure; the page is kept with
	// whatever content was recovered.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// HasContent reports whether the page carries any text.
func (p Page) HasContent() bool {
	return p.Text != ""
}

// HasCharts reports whether the page is a graphic page.
func (p Page) HasCharts() bool {
	return p.Type == ContentChart
}

// HasTables reports whether table lines were detected on the page.
func (p Page) HasTables() bool {
	return len(p.Tables) > 0
}

// Summary is derived from a Document's pages and never mutated on its own.
type Summary struct {
	TotalWords      int      `json:"total_words" yaml:"total_words"`
	TotalImages     int      `json:"total_images" yaml:"total_images"`
	PagesWithCharts int      `json:"pages_with_charts" yaml:"pages_with_charts"`
	PagesWithTables int      `json:"pages_with_tables" yaml:"pages_with_tables"`
	ExtractedImages []string `json:"extracted_images,omitempty" yaml:"extracted_images,omitempty"`
}

// Document is the result of one extraction pass over a source.
type Document struct {
	// ID identifies the extraction run.
	ID string `json:"id" yaml:"id"`

	// Name is the source file name without extension.
	Name string `json:"document" yaml:"document"`

	SourcePath  string    `json:"source_path" yaml:"source_path"`
	Backend     string    `json:"backend" yaml:"backend"`
	ExtractedAt time.Time `json:"extraction_timestamp" yaml:"extraction_timestamp"`

	Metadata Metadata `json:"metadata" yaml:"metadata"`
	Pages    []Page   `json:"pages" yaml:"pages"`
	Summary  Summary  `json:"summary" yaml:"summary"`
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return len(d.Pages)
}
