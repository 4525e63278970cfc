// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits an extracted document into overlapping text chunks
// for retrieval. Pages are cut into blocks (headings, paragraphs, table
// rows), and blocks are packed into chunks of about Options.Size characters.
// Each chunk after the first starts with the tail of its predecessor,
// trimmed to a sentence boundary, and chunks are linked to their
// neighbours.
package chunk

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// Default chunk sizes, in characters.
const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

const (
	// minChunkChars is the size a chunk must exceed before it may be closed.
	minChunkChars = 100

	// summaryWords is the number of words kept from each end of a chunk in
	// the previous-chunk summary.
	summaryWords = 10
)

// BlockType classifies the content a chunk was built from.
type BlockType string

const (
	BlockHeading   BlockType = "heading"
	BlockParagraph BlockType = "paragraph"
	BlockTable     BlockType = "table"
	BlockVisual    BlockType = "visual"
)

// Options controls chunk sizes, in characters.
type Options struct {
	Size    int
	Overlap int
}

func (o Options) withDefaults() Options {
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
	if o.Overlap <= 0 {
		o.Overlap = DefaultOverlap
	}
	if o.Overlap >= o.Size {
		o.Overlap = o.Size / 5
	}
	return o
}

// Chunk is one unit of retrievable text.
type Chunk struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
	Context  Context  `json:"context"`
}

// Metadata describes where a chunk's content came from.
type Metadata struct {
	Pages        []int       `json:"pages"`
	Elements     []string    `json:"elements"`
	ContentTypes []BlockType `json:"content_types"`
	WordCount    int         `json:"word_count"`
	CharCount    int         `json:"char_count"`
}

// Context links a chunk to its surroundings.
type Context struct {
	PreviousSummary  string `json:"previous_chunk_summary,omitempty"`
	Section          string `json:"section_context"`
	DocumentPosition string `json:"document_position"`
	Position         string `json:"chunk_position"`
	PreviousID       string `json:"previous_chunk_id,omitempty"`
	NextID           string `json:"next_chunk_id,omitempty"`
}

// Set is the content of a <name>_chunks.json file.
type Set struct {
	Document DocumentInfo `json:"document_info"`
	Chunks   []Chunk      `json:"content_chunks"`
	Summary  Summary      `json:"summary"`
}

// DocumentInfo identifies the chunked document and the settings used.
type DocumentInfo struct {
	Name        string         `json:"document"`
	SourcePath  string         `json:"source_path"`
	Metadata    types.Metadata `json:"metadata"`
	ChunkSize   int            `json:"chunk_size"`
	Overlap     int            `json:"overlap"`
	ExtractedAt time.Time      `json:"extraction_timestamp"`
}

// Summary holds totals over the chunk set. TotalWords counts overlapping
// text once per chunk it appears in.
type Summary struct {
	TotalChunks  int         `json:"total_chunks"`
	TotalPages   int         `json:"total_pages"`
	TotalWords   int         `json:"total_words"`
	TotalImages  int         `json:"total_images"`
	TableLines   int         `json:"total_table_lines"`
	ContentTypes []BlockType `json:"content_types"`
}

// Split chunks doc and wraps the result with document information.
func Split(doc *types.Document, opts Options) *Set {
	opts = opts.withDefaults()
	chunks := Build(doc.Pages, opts)

	set := &Set{
		Document: DocumentInfo{
			Name:        doc.Name,
			SourcePath:  doc.SourcePath,
			Metadata:    doc.Metadata,
			ChunkSize:   opts.Size,
			Overlap:     opts.Overlap,
			ExtractedAt: doc.ExtractedAt,
		},
		Chunks: chunks,
		Summary: Summary{
			TotalChunks:  len(chunks),
			TotalPages:   len(doc.Pages),
			TotalImages:  doc.Summary.TotalImages,
			ContentTypes: []BlockType{},
		},
	}
	for _, p := range doc.Pages {
		set.Summary.TableLines += len(p.Tables)
	}
	for _, c := range chunks {
		set.Summary.TotalWords += c.Metadata.WordCount
		for _, t := range c.Metadata.ContentTypes {
			set.Summary.ContentTypes = appendUnique(set.Summary.ContentTypes, t)
		}
	}
	return set
}

// Build packs the blocks of pages into chunks. A chunk is closed when the
// next block would push it past opts.Size and it already holds more than
// 100 characters; the next chunk starts with the closed chunk's overlap.
func Build(pages []types.Page, opts Options) []Chunk {
	opts = opts.withDefaults()

	var all []block
	for _, p := range pages {
		all = append(all, pageBlocks(p, opts.Size)...)
	}
	total := 0
	for _, b := range all {
		total += utf8.RuneCountInString(b.text)
	}

	var (
		chunks []Chunk
		cur    Chunk
		size   int // runes in cur.Content
		done   int // runes of block text consumed so far
	)
	closeChunk := func() {
		cur.ID = fmt.Sprintf("chunk_%d", len(chunks)+1)
		cur.Metadata.WordCount = len(strings.Fields(cur.Content))
		cur.Metadata.CharCount = size
		if total > 0 {
			cur.Context.DocumentPosition = fmt.Sprintf("~%.1f%% do documento", float64(done)*100/float64(total))
		}
		chunks = append(chunks, cur)
	}

	for _, b := range all {
		n := utf8.RuneCountInString(b.text)
		if size+n > opts.Size && size > minChunkChars && len(cur.Metadata.Elements) > 0 {
			prev := cur.Content
			closeChunk()
			cur = Chunk{Content: overlapTail(prev, opts.Overlap)}
			cur.Context.PreviousSummary = summarize(prev)
			size = utf8.RuneCountInString(cur.Content)
		}
		if len(cur.Metadata.Elements) == 0 {
			cur.Context.Section = Section(b.text)
		}
		if cur.Content != "" {
			cur.Content += "\n\n"
			size += 2
		}
		cur.Content += b.text
		size += n
		done += n

		cur.Metadata.Pages = appendUnique(cur.Metadata.Pages, b.page)
		cur.Metadata.Elements = append(cur.Metadata.Elements, b.id)
		cur.Metadata.ContentTypes = appendUnique(cur.Metadata.ContentTypes, b.typ)
	}
	if len(cur.Metadata.Elements) > 0 && strings.TrimSpace(cur.Content) != "" {
		closeChunk()
	}

	for i := range chunks {
		chunks[i].Context.Position = fmt.Sprintf("%d/%d", i+1, len(chunks))
		if i > 0 {
			chunks[i].Context.PreviousID = chunks[i-1].ID
		}
		if i < len(chunks)-1 {
			chunks[i].Context.NextID = chunks[i+1].ID
		}
	}
	return chunks
}

var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

// overlapTail returns the last overlap characters of content, starting at
// the first sentence boundary inside them when there is one.
func overlapTail(content string, overlap int) string {
	r := []rune(content)
	if len(r) <= overlap {
		return content
	}
	tail := string(r[len(r)-overlap:])
	if loc := sentenceEnd.FindStringIndex(tail); loc != nil && loc[1] < len(tail) {
		return tail[loc[1]:]
	}
	return strings.TrimSpace(tail)
}

// summarize keeps the first and last words of content.
func summarize(content string) string {
	words := strings.Fields(content)
	if len(words) <= 2*summaryWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:summaryWords], " ") + " ... " + strings.Join(words[len(words)-summaryWords:], " ")
}

func appendUnique[T comparable](s []T, v T) []T {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}
