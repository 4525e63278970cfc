// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-extractor/internal/report"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <report.md...>",
	Short: "Check extracted reports for internal consistency",
	Long: `Verify parses each Markdown report and checks that the summary totals
match the per-page counts, that page sections run from 1 without gaps and
that truncation markers appear only on texts over the limit. Every violation
is printed; the command fails when any report has one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

var verifyFlagKeys = map[string]string{
	"render.max_text_chars": "max-text-chars",
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, verifyFlagKeys)
	if err != nil {
		return err
	}

	bad := 0
	for _, path := range args {
		rep, err := report.ParseFile(path)
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed:  %s (%v)\n", path, err)
			bad++
			continue
		}
		violations := rep.Verify(cfg.Render.MaxTextChars)
		if len(violations) == 0 {
			fmt.Fprintf(os.Stdout, "ok:      %s (%d pages, %d words, %d images)\n",
				path, rep.PageCount, rep.TotalWords, rep.TotalImages)
			continue
		}
		bad++
		fmt.Fprintf(os.Stdout, "invalid: %s\n", path)
		for _, v := range violations {
			fmt.Fprintf(os.Stdout, "  - %s\n", v)
		}
	}

	if bad > 0 {
		return fmt.Errorf("%d of %d report(s) failed verification", bad, len(args))
	}
	return nil
}

func init() {
	verifyCmd.Flags().Int("max-text-chars", 0, "text limit the reports were rendered with (default 3000)")

	rootCmd.AddCommand(verifyCmd)
}
