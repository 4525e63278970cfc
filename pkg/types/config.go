// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// LoaderBackend identifies how source documents are opened.
type LoaderBackend string

const (
	// BackendNative parses PDFs in-process.
	BackendNative LoaderBackend = "native"
	// BackendText reads plain text with form-feed page breaks.
	BackendText LoaderBackend = "text"
	// BackendContainer runs pdftotext inside a docker or podman container.
	BackendContainer LoaderBackend = "container"
)

// HTTPConfig holds settings for downloading remote sources.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// SecretsDir holds credential files; "fetch-token" is sent as a bearer token.
	SecretsDir string `json:"secrets_dir" yaml:"secrets_dir" mapstructure:"secrets_dir"`
}

// ExtractConfig holds settings for the extraction pipeline.
type ExtractConfig struct {
	// Backend selects the loader: native, text, or container.
	Backend LoaderBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// ContainerImage is the image used by the container backend.
	ContainerImage string `json:"container_image" yaml:"container_image" mapstructure:"container_image"`

	// OutputDir receives the Markdown report and the side files.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Force re-extracts documents whose report already exists.
	Force bool `json:"force" yaml:"force" mapstructure:"force"`

	// Workers is the number of documents extracted concurrently (default 1).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// WriteJSON, WriteRawText and WriteWorkbook enable the side outputs.
	WriteJSON     bool `json:"write_json" yaml:"write_json" mapstructure:"write_json"`
	WriteRawText  bool `json:"write_raw_text" yaml:"write_raw_text" mapstructure:"write_raw_text"`
	WriteWorkbook bool `json:"write_workbook" yaml:"write_workbook" mapstructure:"write_workbook"`

	// WriteChunks enables <name>_chunks.json: the page text split into
	// overlapping chunks of about ChunkSize characters.
	WriteChunks  bool `json:"write_chunks" yaml:"write_chunks" mapstructure:"write_chunks"`
	ChunkSize    int  `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size"`
	ChunkOverlap int  `json:"chunk_overlap" yaml:"chunk_overlap" mapstructure:"chunk_overlap"`

	// SaveImages writes decodable page images as PNG under OutputDir/images.
	SaveImages bool `json:"save_images" yaml:"save_images" mapstructure:"save_images"`

	// HeadingKeywords mark short lines as headings.
	HeadingKeywords []string `json:"heading_keywords" yaml:"heading_keywords" mapstructure:"heading_keywords"`
}

// RenderConfig holds settings for the Markdown report.
type RenderConfig struct {
	// MaxTextChars truncates each page's text block (default 3000).
	MaxTextChars int `json:"max_text_chars" yaml:"max_text_chars" mapstructure:"max_text_chars"`

	// MaxTableLines limits the table lines shown per page (default 5).
	MaxTableLines int `json:"max_table_lines" yaml:"max_table_lines" mapstructure:"max_table_lines"`
}

// StoreConfig holds settings for the extraction history database.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// Disabled skips recording extractions.
	Disabled bool `json:"disabled" yaml:"disabled" mapstructure:"disabled"`

	// MaxResults is the default limit for list and search (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// WatchConfig holds settings for the directory watcher.
type WatchConfig struct {
	Directories []string `json:"directories" yaml:"directories" mapstructure:"directories"`

	// Extensions filters watched files (default .pdf).
	Extensions []string `json:"extensions" yaml:"extensions" mapstructure:"extensions"`

	// Debounce is the quiet period before a changed file is extracted.
	Debounce time.Duration `json:"debounce" yaml:"debounce" mapstructure:"debounce"`

	// Recursive also watches subdirectories, including ones created later.
	Recursive bool `json:"recursive" yaml:"recursive" mapstructure:"recursive"`

	// SyncExisting extracts matching files already present at startup.
	SyncExisting bool `json:"sync_existing" yaml:"sync_existing" mapstructure:"sync_existing"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Debug bool `json:"debug" yaml:"debug" mapstructure:"debug"`
}

// Config groups all settings.
type Config struct {
	Extract ExtractConfig `json:"extract" yaml:"extract" mapstructure:"extract"`
	Render  RenderConfig  `json:"render" yaml:"render" mapstructure:"render"`
	Store   StoreConfig   `json:"store" yaml:"store" mapstructure:"store"`
	Watch   WatchConfig   `json:"watch" yaml:"watch" mapstructure:"watch"`
	Fetch   HTTPConfig    `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultHeadingKeywords are the words that promote a short line to a heading.
var DefaultHeadingKeywords = []string{"CONFIDENTIAL", "MEMORANDUM", "FUND", "NOTICE", "REGULATORY"}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Extract.Backend == "" {
		cfg.Extract.Backend = BackendNative
	}
	if cfg.Extract.ContainerImage == "" {
		cfg.Extract.ContainerImage = "pdftotext:latest"
	}
	if cfg.Extract.OutputDir == "" {
		cfg.Extract.OutputDir = "extracted"
	}
	if cfg.Extract.Workers <= 0 {
		cfg.Extract.Workers = 1
	}
	if cfg.Extract.ChunkSize <= 0 {
		cfg.Extract.ChunkSize = 1000
	}
	if cfg.Extract.ChunkOverlap <= 0 {
		cfg.Extract.ChunkOverlap = 200
	}
	if cfg.Extract.HeadingKeywords == nil {
		cfg.Extract.HeadingKeywords = DefaultHeadingKeywords
	}
	if cfg.Render.MaxTextChars <= 0 {
		cfg.Render.MaxTextChars = 3000
	}
	if cfg.Render.MaxTableLines <= 0 {
		cfg.Render.MaxTableLines = 5
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "extracted/history.db"
	}
	if cfg.Store.MaxResults <= 0 {
		cfg.Store.MaxResults = 20
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf"}
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 400 * time.Millisecond
	}
	if cfg.Fetch.Timeout <= 0 {
		cfg.Fetch.Timeout = 60 * time.Second
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = "pdf-extractor/0.1"
	}
	if cfg.Fetch.MaxRetries <= 0 {
		cfg.Fetch.MaxRetries = 5
	}
	if cfg.Fetch.SecretsDir == "" {
		cfg.Fetch.SecretsDir = ".secrets"
	}
}
