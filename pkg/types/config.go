// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-call HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "empathy-scale/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call the text-completion
// collaborator.
type AIConfig struct {
	// Model is the model identifier (e.g. "gpt-4o").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the completion API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint. Tests point this at an
	// httptest server.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of retry attempts for transient failures
	// (default 1).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SynthesisConfig holds settings for the query synthesis stage.
type SynthesisConfig struct {
	AIConfig `yaml:",inline"`

	// QueryCount is the target number of queries (default 6).
	QueryCount int `json:"query_count" yaml:"query_count"`

	// MinUsable is the minimum number of parsed queries below which the
	// synthesizer falls back to templates (default 2).
	MinUsable int `json:"min_usable" yaml:"min_usable"`
}

// SearchConfig holds settings for the backend search and aggregation stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxPerBackend caps results per (query, backend) call (default 20).
	MaxPerBackend int `json:"max_per_backend" yaml:"max_per_backend"`

	// ScreeningCap truncates the deduplicated candidate set before
	// screening (default 80). Truncation keeps earliest-discovered
	// candidates and is logged, since it silently reduces coverage.
	ScreeningCap int `json:"screening_cap" yaml:"screening_cap"`

	// Concurrency bounds simultaneous in-flight (query, backend) calls
	// (default 4). Excess work queues.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// EnableArxiv controls whether the arXiv backend is used.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv"`

	// EnableSemanticScholar controls whether the Semantic Scholar backend is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`

	// EnableOpenAlex controls whether the OpenAlex backend is used.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex"`

	// EnablePubMed controls whether the PubMed backend is used.
	EnablePubMed bool `json:"enable_pubmed" yaml:"enable_pubmed"`

	// EnableCrossref controls whether the Crossref backend is used.
	EnableCrossref bool `json:"enable_crossref" yaml:"enable_crossref"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool
	// access; Crossref uses the same parameter and shares this value.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`
}

// ScreeningConfig holds settings for the relevance scoring stage.
type ScreeningConfig struct {
	AIConfig `yaml:",inline"`

	// Threshold is the minimum accepted score (default 3). A candidate
	// strong on either scoring criterion alone clears it.
	Threshold int `json:"threshold" yaml:"threshold"`

	// Concurrency bounds simultaneous in-flight scoring calls (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// ExtractionConfig holds settings for the findings extraction stage.
type ExtractionConfig struct {
	AIConfig `yaml:",inline"`

	// MaxCandidates caps how many accepted candidates are extracted,
	// by score descending then first-seen order (default 50).
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`

	// Concurrency bounds simultaneous in-flight extraction calls (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// DownloadConfig holds settings for the categorized PDF download stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxDownloads caps how many candidates are downloaded (default 50).
	MaxDownloads int `json:"max_downloads" yaml:"max_downloads"`

	// RetryAttempts is the number of retries after a transient failure
	// (default 1).
	RetryAttempts int `json:"retry_attempts" yaml:"retry_attempts"`

	// RetryDelay is the pause before the retry (default 1s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`

	// Concurrency bounds simultaneous in-flight downloads (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// RunConfig holds settings for the per-run storage layer.
type RunConfig struct {
	// DataDir is the base directory under which run directories are
	// allocated (default "data/runs").
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// PipelineConfig groups all stage configurations for one pipeline run.
type PipelineConfig struct {
	Synthesis  SynthesisConfig  `json:"synthesis" yaml:"synthesis"`
	Search     SearchConfig     `json:"search" yaml:"search"`
	Screening  ScreeningConfig  `json:"screening" yaml:"screening"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Download   DownloadConfig   `json:"download" yaml:"download"`
	Run        RunConfig        `json:"run" yaml:"run"`
}

// Validate checks the configuration for errors that must abort the run
// before any stage executes. Per-stage zero values are not errors; stages
// substitute their documented defaults.
func (c PipelineConfig) Validate() error {
	if c.Screening.Threshold < 0 || c.Screening.Threshold > 5 {
		return fmt.Errorf("screening threshold %d out of range [0,5]", c.Screening.Threshold)
	}
	if !c.Search.EnableArxiv && !c.Search.EnableSemanticScholar && !c.Search.EnableOpenAlex &&
		!c.Search.EnablePubMed && !c.Search.EnableCrossref {
		return fmt.Errorf("no search backends enabled")
	}
	if c.Run.DataDir == "" {
		return fmt.Errorf("run data directory not configured")
	}
	return nil
}
