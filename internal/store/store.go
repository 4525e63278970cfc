// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps the extraction history in SQLite: one row per
// extraction, one row per page, and an FTS5 index over page text.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// ErrNotFound is returned when no extraction matches an ID.
var ErrNotFound = errors.New("extraction not found")

// Store manages the history database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the database at cfg.Path and creates the schema if
// it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	s := &Store{db: db, maxResults: maxResults}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS extractions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			source_path TEXT NOT NULL,
			backend TEXT,
			extracted_at TEXT NOT NULL,
			metadata TEXT,
			page_count INTEGER NOT NULL,
			total_words INTEGER NOT NULL,
			total_images INTEGER NOT NULL,
			chart_pages INTEGER NOT NULL,
			table_pages INTEGER NOT NULL,
			extracted_images TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			extraction_id TEXT NOT NULL REFERENCES extractions(id) ON DELETE CASCADE,
			number INTEGER NOT NULL,
			type TEXT NOT NULL,
			words INTEGER NOT NULL,
			images INTEGER NOT NULL,
			chart_score REAL,
			text TEXT NOT NULL,
			detail TEXT,
			UNIQUE (extraction_id, number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_extractions_name ON extractions(name)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_extraction ON pages(extraction_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table kept in sync by triggers.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='pages_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE pages_fts USING fts5(text, content=pages, content_rowid=rowid)`,
		`CREATE TRIGGER pages_ai AFTER INSERT ON pages BEGIN
			INSERT INTO pages_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
		`CREATE TRIGGER pages_ad AFTER DELETE ON pages BEGIN
			INSERT INTO pages_fts(pages_fts, rowid, text) VALUES('delete', old.rowid, old.text);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// pageDetail holds the page fields that have no column of their own.
type pageDetail struct {
	Width           float64           `json:"width,omitempty"`
	Height          float64           `json:"height,omitempty"`
	Headings        []string          `json:"headings,omitempty"`
	Images          []types.ImageInfo `json:"images,omitempty"`
	Tables          []types.TableLine `json:"tables,omitempty"`
	ChartConfidence types.Confidence  `json:"chart_confidence,omitempty"`
	Indicators      []string          `json:"indicators,omitempty"`
	Error           string            `json:"error,omitempty"`
}

// Record stores a finished extraction and its pages in one transaction.
// Recording the same extraction ID twice replaces the earlier rows.
func (s *Store) Record(ctx context.Context, doc *types.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE extraction_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("deleting old pages: %w", err)
	}

	metaJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	imagesJSON, err := json.Marshal(doc.Summary.ExtractedImages)
	if err != nil {
		return fmt.Errorf("marshaling image paths: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO extractions (id, name, source_path, backend, extracted_at, metadata,
			page_count, total_words, total_images, chart_pages, table_pages, extracted_images)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, source_path=excluded.source_path, backend=excluded.backend,
			extracted_at=excluded.extracted_at, metadata=excluded.metadata,
			page_count=excluded.page_count, total_words=excluded.total_words,
			total_images=excluded.total_images, chart_pages=excluded.chart_pages,
			table_pages=excluded.table_pages, extracted_images=excluded.extracted_images`,
		doc.ID, doc.Name, doc.SourcePath, doc.Backend, doc.ExtractedAt.UTC().Format(time.RFC3339), string(metaJSON),
		doc.PageCount(), doc.Summary.TotalWords, doc.Summary.TotalImages,
		doc.Summary.PagesWithCharts, doc.Summary.PagesWithTables, string(imagesJSON),
	)
	if err != nil {
		return fmt.Errorf("upserting extraction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pages (extraction_id, number, type, words, images, chart_score, text, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range doc.Pages {
		detail, err := json.Marshal(pageDetail{
			Width:           p.Width,
			Height:          p.Height,
			Headings:        p.Headings,
			Images:          p.Images,
			Tables:          p.Tables,
			ChartConfidence: p.ChartConfidence,
			Indicators:      p.Indicators,
			Error:           p.Error,
		})
		if err != nil {
			return fmt.Errorf("marshaling page %d: %w", p.Number, err)
		}
		if _, err := stmt.ExecContext(ctx,
			doc.ID, p.Number, string(p.Type), p.WordCount, p.ImageCount, p.ChartScore, p.Text, string(detail),
		); err != nil {
			return fmt.Errorf("inserting page %d: %w", p.Number, err)
		}
	}

	return tx.Commit()
}

// Delete removes an extraction and its pages.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM extractions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting extraction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
