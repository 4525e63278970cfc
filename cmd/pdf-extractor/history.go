// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-extractor/internal/render"
	"github.com/pdiddy/pdf-extractor/internal/store"
	"github.com/pdiddy/pdf-extractor/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the extraction history (list, show, search, export)",
	Long: `History reads the SQLite database every extraction is recorded in.
Use subcommands to list recent extractions, show one again, search page text
or export the history.`,
}

var historyFlagKeys = map[string]string{
	"store.path":            "db",
	"store.max_results":     "max-results",
	"render.max_text_chars": "max-text-chars",
}

func openHistory(cmd *cobra.Command) (*store.Store, types.Config, error) {
	cfg, err := loadConfig(cmd, historyFlagKeys)
	if err != nil {
		return nil, cfg, err
	}
	s, err := store.Open(cfg.Store)
	if err != nil {
		return nil, cfg, err
	}
	return s, cfg, nil
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent extractions, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	s, _, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := s.List(context.Background(), 0)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No extractions recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-8s  %-19s  %-30s  %5s  %8s  %6s\n",
		"ID", "Extracted", "Document", "Pages", "Words", "Images")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 85))
	for _, e := range entries {
		name := e.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-8s  %-19s  %-30s  %5d  %8s  %6d\n",
			shortID(e.ID), e.ExtractedAt.Format(render.TimestampLayout), name,
			e.PageCount, render.Thousands(e.Summary.TotalWords), e.Summary.TotalImages)
	}
	fmt.Fprintf(os.Stdout, "\n%d extractions\n", len(entries))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recorded extraction",
	Long: `Show rebuilds a recorded extraction. The default markdown format
renders the same report extract writes; yaml and json print the stored
document. A unique ID prefix is enough.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	s, cfg, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	doc, err := s.Show(context.Background(), args[0])
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "markdown", "md", "":
		fmt.Println(render.Markdown(doc, render.OptionsFrom(cfg.Render)))
	case "json":
		return render.JSON(os.Stdout, doc)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q: use markdown, yaml or json", format)
	}
	return nil
}

// --- search subcommand ---

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over the page text of recorded extractions",
	Long: `Search runs an FTS5 query over the text of every recorded page and
prints the matching pages by relevance with a highlighted snippet.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHistorySearch,
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	s, _, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	hits, err := s.Search(context.Background(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for i, h := range hits {
		fmt.Fprintf(os.Stdout, "%2d. %s page %d [%s]\n    %s\n",
			i+1, h.Document, h.Page, shortID(h.ExtractionID), strings.ReplaceAll(h.Snippet, "\n", " "))
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(hits))
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the extraction history to YAML or JSON",
	Long: `Export writes one entry per recorded extraction with its summary
totals to stdout, or to --output when given.`,
	Args: cobra.NoArgs,
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	s, _, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	out := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		out = f
	}
	if err := s.Export(context.Background(), out, format); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", output)
	}
	return nil
}

// --- delete subcommand ---

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a recorded extraction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		doc, err := s.Show(context.Background(), args[0])
		if err != nil {
			return err
		}
		if err := s.Delete(context.Background(), doc.ID); err != nil {
			return err
		}
		fmt.Printf("Deleted %s (%s)\n", doc.ID, doc.Name)
		return nil
	},
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	historyCmd.PersistentFlags().String("db", "", "history database (default extracted/history.db)")
	historyCmd.PersistentFlags().Int("max-results", 0, "default number of listed or searched entries (default 20)")

	historyShowCmd.Flags().String("format", "markdown", "output format: markdown, yaml, or json")
	historyShowCmd.Flags().Int("max-text-chars", 0, "truncate page text in markdown output (default 3000)")

	historySearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	historySearchCmd.Flags().Bool("json", false, "output results as JSON")

	historyExportCmd.Flags().String("format", store.FormatYAML, "export format: yaml or json")
	historyExportCmd.Flags().String("output", "", "write the export to this file instead of stdout")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	rootCmd.AddCommand(historyCmd)
}
