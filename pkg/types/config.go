package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "dhnotes/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RegistryConfig holds settings for the ClinicalTrials.gov StudyFields fetcher.
type RegistryConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL overrides the StudyFields endpoint. Empty uses the public
	// ClinicalTrials.gov API.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// PageSize is the rank-window size per request (default 1000, the
	// maximum the registry serves).
	PageSize int `json:"page_size" yaml:"page_size"`

	// ResultLimit caps the total number of records fetched. Zero means no
	// cap. The fetcher still downloads whole pages; it never truncates a
	// page server-side.
	ResultLimit int `json:"result_limit" yaml:"result_limit"`
}

// EutilsConfig holds settings for the NCBI E-utilities client.
type EutilsConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL overrides the E-utilities endpoint root. Empty uses the
	// public NCBI service.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey is an optional NCBI API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Email and Tool identify the caller per NCBI usage policy.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
	Tool  string `json:"tool,omitempty" yaml:"tool,omitempty"`

	// RetMax is the maximum number of UIDs an esearch returns (default 9999).
	RetMax int `json:"retmax" yaml:"retmax"`
}

// StoreConfig holds settings for the study archive.
type StoreConfig struct {
	// DataDir is the base directory for archive state (contains index/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// NotesConfig maps note-metadata CSV columns onto the statistics functions.
type NotesConfig struct {
	// PeriodColumn is the time-period column (e.g. "year").
	PeriodColumn string `json:"period_column" yaml:"period_column"`

	// CategoryColumn is the grouping column (e.g. "department_specialty").
	CategoryColumn string `json:"category_column" yaml:"category_column"`

	// TopN restricts category breakdowns to the N largest categories by
	// overall note volume. Zero keeps all categories.
	TopN int `json:"top_n" yaml:"top_n"`
}

// PipelineConfig groups all stage configurations for the CLI. HTTP holds
// shared settings the CLI copies into each network stage.
type PipelineConfig struct {
	HTTP     HTTPConfig     `json:"http" yaml:"http"`
	Registry RegistryConfig `json:"registry" yaml:"registry"`
	Eutils   EutilsConfig   `json:"eutils" yaml:"eutils"`
	Store    StoreConfig    `json:"store" yaml:"store"`
	Notes    NotesConfig    `json:"notes" yaml:"notes"`
}
