// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "bookmark-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call a generative model API.
type AIConfig struct {
	// Model is the model identifier (default "gemini-1.5-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the model API. When empty, every call
	// site falls back to its deterministic heuristic path.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed model calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ClassifierConfig holds settings for the content classification stage.
type ClassifierConfig struct {
	AIConfig `yaml:",inline"`
}

// DiscoveryConfig holds settings for the repository resolution stage.
type DiscoveryConfig struct {
	HTTPConfig `yaml:",inline"`
	AIConfig   `yaml:",inline"`

	// Token is an optional code-hosting API token for higher rate limits.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
}

// SandboxConfig holds settings for the sandboxed execution stage.
type SandboxConfig struct {
	HTTPConfig `yaml:",inline"`
	AIConfig   `yaml:",inline"`

	// SandboxAPIKey authenticates against the remote execution service.
	// When empty the runner uses a local container runtime instead.
	SandboxAPIKey string `json:"sandbox_api_key,omitempty" yaml:"sandbox_api_key,omitempty"`

	// Image is the container image used by the local runtime (default
	// "python:3.12-slim").
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	// WorkDir is where the local runtime checks out repositories.
	WorkDir string `json:"work_dir,omitempty" yaml:"work_dir,omitempty"`
}

// SynthesisConfig holds settings for the content synthesis stage.
type SynthesisConfig struct {
	AIConfig `yaml:",inline"`
}

// NotesConfig holds settings for the notes database where synthesized
// bookmarks are persisted.
type NotesConfig struct {
	HTTPConfig `yaml:",inline"`

	// Token authenticates against the notes API.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// DatabaseID is the target notes database.
	DatabaseID string `json:"database_id,omitempty" yaml:"database_id,omitempty"`
}

// SourceConfig holds settings for the bookmark source API.
type SourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the bookmark source.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// WebhookSecret verifies incoming bookmark webhooks.
	WebhookSecret string `json:"webhook_secret,omitempty" yaml:"webhook_secret,omitempty"`
}

// JobsConfig holds settings for the local job-tracking store.
type JobsConfig struct {
	// Path is the sqlite database file (default "bookmark-engine.db").
	Path string `json:"path" yaml:"path"`

	// CacheTTL bounds how long cached bookmark listings are served (default 5m).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`

	// ProcessedTTL bounds how long processed markers suppress reprocessing
	// (default 24h).
	ProcessedTTL time.Duration `json:"processed_ttl" yaml:"processed_ttl"`
}

// ServerConfig holds settings for the webhook receiver.
type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// DiscoveryStrategy selects how wide repository resolution searches.
type DiscoveryStrategy string

const (
	// DiscoveryAggressive searches user repositories with a wide page size
	// and lets a model guess owner/repo pairs when nothing else was found.
	DiscoveryAggressive DiscoveryStrategy = "aggressive"

	// DiscoveryConservative validates explicit references with a narrow
	// search and never guesses.
	DiscoveryConservative DiscoveryStrategy = "conservative"
)

// ExecutionStrategy selects which resolved repositories get executed.
type ExecutionStrategy string

const (
	ExecutionQuick    ExecutionStrategy = "quick"
	ExecutionThorough ExecutionStrategy = "thorough"
)

// PipelineOptions are the per-run knobs the orchestrator accepts. Validated
// at the pipeline boundary; unknown values are rejected, not defaulted.
type PipelineOptions struct {
	DiscoveryStrategy DiscoveryStrategy `json:"discovery_strategy" yaml:"discovery_strategy" validate:"oneof=aggressive conservative"`
	ExecutionStrategy ExecutionStrategy `json:"execution_strategy" yaml:"execution_strategy" validate:"oneof=quick thorough"`
	SynthesisStyle    SynthesisStyle    `json:"synthesis_style" yaml:"synthesis_style" validate:"oneof=detailed summary actionable"`

	// MaxRepositories caps how many repositories the sandbox stage may run.
	MaxRepositories int `json:"max_repositories" yaml:"max_repositories" validate:"gt=0"`

	// StageTimeout is the per-stage deadline. The sandbox stage gets twice
	// this value.
	StageTimeout time.Duration `json:"stage_timeout" yaml:"stage_timeout" validate:"gt=0"`
}

// DefaultPipelineOptions returns the documented defaults.
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		DiscoveryStrategy: DiscoveryAggressive,
		ExecutionStrategy: ExecutionQuick,
		SynthesisStyle:    StyleDetailed,
		MaxRepositories:   3,
		StageTimeout:      60 * time.Second,
	}
}

// PipelineConfig groups all stage and collaborator configurations.
type PipelineConfig struct {
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier"`
	Discovery  DiscoveryConfig  `json:"discovery" yaml:"discovery"`
	Sandbox    SandboxConfig    `json:"sandbox" yaml:"sandbox"`
	Synthesis  SynthesisConfig  `json:"synthesis" yaml:"synthesis"`
	Notes      NotesConfig      `json:"notes" yaml:"notes"`
	Source     SourceConfig     `json:"source" yaml:"source"`
	Jobs       JobsConfig       `json:"jobs" yaml:"jobs"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	Options    PipelineOptions  `json:"options" yaml:"options"`
}
