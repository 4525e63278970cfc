// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// Entry is one row of the extraction history.
type Entry struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"document" yaml:"document"`
	SourcePath  string        `json:"source_path" yaml:"source_path"`
	Backend     string        `json:"backend" yaml:"backend"`
	ExtractedAt time.Time     `json:"extraction_timestamp" yaml:"extraction_timestamp"`
	PageCount   int           `json:"page_count" yaml:"page_count"`
	Summary     types.Summary `json:"summary" yaml:"summary"`
}

// Hit is a page matching a full-text search.
type Hit struct {
	ExtractionID string  `json:"extraction_id" yaml:"extraction_id"`
	Document     string  `json:"document" yaml:"document"`
	Page         int     `json:"page" yaml:"page"`
	Snippet      string  `json:"snippet" yaml:"snippet"`
	Rank         float64 `json:"rank" yaml:"rank"`
}

const entryColumns = `id, name, source_path, backend, extracted_at, page_count,
	total_words, total_images, chart_pages, table_pages, extracted_images`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		e          Entry
		backend    sql.NullString
		at         string
		imagesJSON sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Name, &e.SourcePath, &backend, &at, &e.PageCount,
		&e.Summary.TotalWords, &e.Summary.TotalImages,
		&e.Summary.PagesWithCharts, &e.Summary.PagesWithTables, &imagesJSON); err != nil {
		return Entry{}, err
	}
	e.Backend = backend.String
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp of %s: %w", e.ID, err)
	}
	// Stored in UTC; shown in local time like a freshly written report.
	e.ExtractedAt = t.Local()
	if imagesJSON.Valid && imagesJSON.String != "" {
		if err := json.Unmarshal([]byte(imagesJSON.String), &e.Summary.ExtractedImages); err != nil {
			return Entry{}, fmt.Errorf("decoding image paths of %s: %w", e.ID, err)
		}
	}
	return e, nil
}

// List returns the most recent extractions, newest first. A limit of zero
// uses the store default.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM extractions
		 ORDER BY extracted_at DESC, name LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing extractions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Show rebuilds the Document recorded under id. A unique ID prefix is
// accepted.
func (s *Store) Show(ctx context.Context, id string) (*types.Document, error) {
	fullID, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	e, err := scanEntry(s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM extractions WHERE id = ?`, fullID))
	if err != nil {
		return nil, fmt.Errorf("reading extraction %s: %w", fullID, err)
	}
	var metaJSON sql.NullString
	if err := s.db.QueryRowContext(ctx,
		`SELECT metadata FROM extractions WHERE id = ?`, fullID).Scan(&metaJSON); err != nil {
		return nil, fmt.Errorf("reading metadata of %s: %w", fullID, err)
	}

	doc := &types.Document{
		ID:          e.ID,
		Name:        e.Name,
		SourcePath:  e.SourcePath,
		Backend:     e.Backend,
		ExtractedAt: e.ExtractedAt,
		Summary:     e.Summary,
	}
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata of %s: %w", fullID, err)
		}
	}

	pages, err := s.pages(ctx, fullID)
	if err != nil {
		return nil, err
	}
	doc.Pages = pages
	return doc, nil
}

func (s *Store) resolveID(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: empty id", ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM extractions WHERE id = ? OR substr(id, 1, length(?)) = ? LIMIT 2`, id, id, id)
	if err != nil {
		return "", fmt.Errorf("resolving id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var got string
		if err := rows.Scan(&got); err != nil {
			return "", fmt.Errorf("scanning id: %w", err)
		}
		if got == id {
			return got, nil
		}
		ids = append(ids, got)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous", id)
	}
}

func (s *Store) pages(ctx context.Context, id string) ([]types.Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT number, type, words, images, chart_score, text, detail
		 FROM pages WHERE extraction_id = ? ORDER BY number`, id)
	if err != nil {
		return nil, fmt.Errorf("reading pages: %w", err)
	}
	defer rows.Close()

	var pages []types.Page
	for rows.Next() {
		var (
			p          types.Page
			pageType   string
			score      sql.NullFloat64
			detailJSON sql.NullString
		)
		if err := rows.Scan(&p.Number, &pageType, &p.WordCount, &p.ImageCount, &score, &p.Text, &detailJSON); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		p.Type = types.ContentType(pageType)
		p.ChartScore = score.Float64
		if detailJSON.Valid && detailJSON.String != "" {
			var d pageDetail
			if err := json.Unmarshal([]byte(detailJSON.String), &d); err != nil {
				return nil, fmt.Errorf("decoding page %d: %w", p.Number, err)
			}
			p.Width, p.Height = d.Width, d.Height
			p.Headings = d.Headings
			p.Images = d.Images
			p.Tables = d.Tables
			p.ChartConfidence = d.ChartConfidence
			p.Indicators = d.Indicators
			p.Error = d.Error
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// Search runs an FTS5 query over page text and returns matching pages by
// relevance. A limit of zero uses the store default.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if query == "" {
		return nil, errors.New("search query is empty")
	}
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.extraction_id, e.name, p.number,
			snippet(pages_fts, 0, '[', ']', '...', 12), pages_fts.rank
		 FROM pages_fts
		 JOIN pages p ON p.rowid = pages_fts.rowid
		 JOIN extractions e ON e.id = p.extraction_id
		 WHERE pages_fts MATCH ?
		 ORDER BY pages_fts.rank
		 LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching pages: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ExtractionID, &h.Document, &h.Page, &h.Snippet, &h.Rank); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
