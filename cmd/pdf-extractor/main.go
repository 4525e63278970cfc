// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf-extractor CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-extractor/internal/logging"
	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built once the config has been read.
var logger = zap.NewNop()

// rootCmd is the base command for the pdf-extractor CLI.
var rootCmd = &cobra.Command{
	Use:   "pdf-extractor",
	Short: "Extract text, images and page statistics from PDF documents",
	Long: `pdf-extractor turns PDF documents into a Markdown report with a summary
and one section per page, plus optional JSON, raw text and XLSX outputs.

Every extraction is recorded in a local SQLite history that can be listed,
searched and exported. The watch command extracts documents as they land
in a directory; verify checks reports written earlier.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(viper.GetBool("log.debug"))
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdf-extractor.yaml or ~/.config/pdf-extractor/pdf-extractor.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	_ = viper.BindPFlag("log.debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdf-extractor")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdf-extractor"))
		}
	}

	viper.SetEnvPrefix("PDF_EXTRACTOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so environment variables are
// honoured even when no config file mentions the key.
func setDefaults() {
	var cfg types.Config
	types.ApplyDefaults(&cfg)

	viper.SetDefault("extract.backend", string(cfg.Extract.Backend))
	viper.SetDefault("extract.container_image", cfg.Extract.ContainerImage)
	viper.SetDefault("extract.output_dir", cfg.Extract.OutputDir)
	viper.SetDefault("extract.force", false)
	viper.SetDefault("extract.workers", cfg.Extract.Workers)
	viper.SetDefault("extract.write_json", false)
	viper.SetDefault("extract.write_raw_text", false)
	viper.SetDefault("extract.write_workbook", false)
	viper.SetDefault("extract.write_chunks", false)
	viper.SetDefault("extract.chunk_size", cfg.Extract.ChunkSize)
	viper.SetDefault("extract.chunk_overlap", cfg.Extract.ChunkOverlap)
	viper.SetDefault("extract.save_images", false)
	viper.SetDefault("extract.heading_keywords", cfg.Extract.HeadingKeywords)
	viper.SetDefault("render.max_text_chars", cfg.Render.MaxTextChars)
	viper.SetDefault("render.max_table_lines", cfg.Render.MaxTableLines)
	viper.SetDefault("store.path", cfg.Store.Path)
	viper.SetDefault("store.disabled", false)
	viper.SetDefault("store.max_results", cfg.Store.MaxResults)
	viper.SetDefault("watch.directories", []string{})
	viper.SetDefault("watch.extensions", cfg.Watch.Extensions)
	viper.SetDefault("watch.debounce", cfg.Watch.Debounce)
	viper.SetDefault("watch.recursive", false)
	viper.SetDefault("watch.sync_existing", false)
	viper.SetDefault("fetch.timeout", cfg.Fetch.Timeout)
	viper.SetDefault("fetch.user_agent", cfg.Fetch.UserAgent)
	viper.SetDefault("fetch.max_retries", cfg.Fetch.MaxRetries)
	viper.SetDefault("fetch.secrets_dir", cfg.Fetch.SecretsDir)
	viper.SetDefault("log.debug", false)
}

// loadConfig binds the command's flags to their config keys and decodes
// the merged settings. Flags are bound per invocation because several
// commands share keys.
func loadConfig(cmd *cobra.Command, flagKeys map[string]string) (types.Config, error) {
	for key, name := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return types.Config{}, fmt.Errorf("binding --%s: %w", name, err)
		}
	}

	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	types.ApplyDefaults(&cfg)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
