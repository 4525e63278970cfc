// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-extractor/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directories...]",
	Short: "Extract documents as they appear in watched directories",
	Long: `Watch monitors the given directories (or watch.directories from the
config) and extracts every new or modified PDF once it has stopped changing
for the debounce period. A document is extracted again when its file is
newer than its report. Runs until interrupted.`,
	RunE: runWatch,
}

var watchFlagKeys = map[string]string{
	"extract.backend":        "backend",
	"extract.output_dir":     "output-dir",
	"extract.write_json":     "json",
	"extract.write_raw_text": "raw-text",
	"extract.write_workbook": "xlsx",
	"extract.write_chunks":   "chunks",
	"extract.chunk_size":     "chunk-size",
	"extract.chunk_overlap":  "chunk-overlap",
	"extract.save_images":    "save-images",
	"store.disabled":         "no-history",
	"watch.debounce":         "debounce",
	"watch.recursive":        "recursive",
	"watch.sync_existing":    "sync-existing",
	"watch.extensions":       "ext",
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, watchFlagKeys)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Watch.Directories = args
	}
	if len(cfg.Watch.Directories) == 0 {
		return fmt.Errorf("no directories to watch: pass them as arguments or set watch.directories")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p, cleanup, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	w := watcher.New(cfg.Watch, func(ctx context.Context, path string) {
		res := p.Refresh(ctx, path, os.Stdout)
		if res.Err != nil {
			logger.Debug("watched document failed", zap.String("path", path), zap.Error(res.Err))
		}
	}, logger)

	fmt.Fprintf(os.Stdout, "Watching %v (Ctrl-C to stop)\n", cfg.Watch.Directories)
	return w.Run(ctx)
}

func init() {
	watchCmd.Flags().String("backend", "", "loader backend: native, text, or container (default native)")
	watchCmd.Flags().String("output-dir", "", "directory for reports and side files (default extracted)")
	watchCmd.Flags().Bool("json", false, "also write <name>_data.json")
	watchCmd.Flags().Bool("raw-text", false, "also write <name>_raw_text.txt")
	watchCmd.Flags().Bool("xlsx", false, "also write <name>_pages.xlsx")
	watchCmd.Flags().Bool("chunks", false, "also write <name>_chunks.json")
	watchCmd.Flags().Int("chunk-size", 0, "target chunk length in characters (default 1000)")
	watchCmd.Flags().Int("chunk-overlap", 0, "characters carried over between chunks (default 200)")
	watchCmd.Flags().Bool("save-images", false, "write decodable page images as PNG under images/")
	watchCmd.Flags().Bool("no-history", false, "do not record extractions in the history store")
	watchCmd.Flags().Duration("debounce", 0, "quiet period before a changed file is extracted (default 400ms)")
	watchCmd.Flags().Bool("recursive", false, "also watch subdirectories")
	watchCmd.Flags().Bool("sync-existing", false, "extract matching files already present at startup")
	watchCmd.Flags().StringSlice("ext", nil, "file extensions to extract (default .pdf)")

	rootCmd.AddCommand(watchCmd)
}
