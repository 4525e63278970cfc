// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-extractor/internal/httputil"
	"github.com/pdiddy/pdf-extractor/internal/loader"
	"github.com/pdiddy/pdf-extractor/internal/pipeline"
	"github.com/pdiddy/pdf-extractor/internal/secrets"
	"github.com/pdiddy/pdf-extractor/internal/store"
	"github.com/pdiddy/pdf-extractor/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [files or directories...]",
	Short: "Extract PDF documents into Markdown reports",
	Long: `Extract loads each document, analyzes it page by page and writes
<name>_extracted.md into the output directory. Directories are expanded to
the PDF files they contain; http and https URLs are downloaded first.

Documents whose report already exists are skipped unless --force is set.
A failed document is reported and does not stop the rest of the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

var extractFlagKeys = map[string]string{
	"extract.backend":        "backend",
	"extract.output_dir":     "output-dir",
	"extract.force":          "force",
	"extract.workers":        "workers",
	"extract.write_json":     "json",
	"extract.write_raw_text": "raw-text",
	"extract.write_workbook": "xlsx",
	"extract.write_chunks":   "chunks",
	"extract.chunk_size":     "chunk-size",
	"extract.chunk_overlap":  "chunk-overlap",
	"extract.save_images":    "save-images",
	"store.disabled":         "no-history",
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, extractFlagKeys)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p, cleanup, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	sources, err := pipeline.Sources(args, []string{".pdf", ".txt"})
	if err != nil {
		return err
	}

	batch, err := p.Run(ctx, sources, os.Stdout)
	if err != nil {
		return err
	}
	if batch.HasFailures() {
		return fmt.Errorf("%d document(s) failed extraction", batch.Failed)
	}
	return nil
}

// newPipeline wires the loader, fetcher and history store selected by cfg.
// The returned cleanup closes the store.
func newPipeline(ctx context.Context, cfg types.Config) (*pipeline.Pipeline, func(), error) {
	l, err := loader.New(ctx, cfg.Extract, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Extract.Backend == types.BackendNative {
		l = &loader.Auto{PDF: l, Text: loader.NewTextLoader()}
	}

	s, err := secrets.Load(cfg.Fetch.SecretsDir, logger)
	if err != nil {
		return nil, nil, err
	}
	fetcher := &httputil.Fetcher{
		Client:     &http.Client{Timeout: cfg.Fetch.Timeout},
		UserAgent:  cfg.Fetch.UserAgent,
		Token:      s.Get(secrets.FetchToken),
		MaxRetries: cfg.Fetch.MaxRetries,
		Logger:     logger,
	}
	opts := []pipeline.Option{pipeline.WithFetcher(fetcher)}

	cleanup := func() {}
	if !cfg.Store.Disabled {
		st, err := store.Open(cfg.Store)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, pipeline.WithRecorder(st))
		cleanup = func() {
			if err := st.Close(); err != nil {
				logger.Warn("closing history store", zap.Error(err))
			}
		}
	}

	logger.Debug("pipeline ready",
		zap.String("backend", l.Name()),
		zap.String("output_dir", cfg.Extract.OutputDir),
		zap.Int("workers", cfg.Extract.Workers),
		zap.Bool("history", !cfg.Store.Disabled))
	return pipeline.New(l, cfg, logger, opts...), cleanup, nil
}

func init() {
	extractCmd.Flags().String("backend", "", "loader backend: native, text, or container (default native)")
	extractCmd.Flags().String("output-dir", "", "directory for reports and side files (default extracted)")
	extractCmd.Flags().Bool("force", false, "re-extract documents whose report already exists")
	extractCmd.Flags().Int("workers", 0, "documents extracted concurrently (default 1)")
	extractCmd.Flags().Bool("json", false, "also write <name>_data.json")
	extractCmd.Flags().Bool("raw-text", false, "also write <name>_raw_text.txt")
	extractCmd.Flags().Bool("xlsx", false, "also write <name>_pages.xlsx")
	extractCmd.Flags().Bool("chunks", false, "also write <name>_chunks.json")
	extractCmd.Flags().Int("chunk-size", 0, "target chunk length in characters (default 1000)")
	extractCmd.Flags().Int("chunk-overlap", 0, "characters carried over between chunks (default 200)")
	extractCmd.Flags().Bool("save-images", false, "write decodable page images as PNG under images/")
	extractCmd.Flags().Bool("no-history", false, "do not record extractions in the history store")

	rootCmd.AddCommand(extractCmd)
}
