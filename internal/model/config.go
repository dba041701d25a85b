package model

import "time"

// Config is the full application configuration, loadable from
// ~/.pagewarden/config.yaml, PAGEWARDEN_* environment variables, or flags.
type Config struct {
	HTTP   HTTPConfig   `yaml:"http" mapstructure:"http"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Audit  AuditConfig  `yaml:"audit" mapstructure:"audit"`
	LLM    LLMConfig    `yaml:"llm" mapstructure:"llm"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls page fetching.
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CacheConfig controls fetch/extraction caching.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// AuditConfig controls the auditor ensemble and the filter pass.
type AuditConfig struct {
	// EnsembleSize is the number of independent auditor calls per run.
	EnsembleSize int `yaml:"ensemble_size" mapstructure:"ensemble_size"`
	// MaxConcurrent caps in-flight auditor calls regardless of ensemble
	// size, to respect remote rate limits.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// Stagger delays call i by i*Stagger to smooth burst arrival.
	Stagger       time.Duration `yaml:"stagger" mapstructure:"stagger"`
	CallTimeout   time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
	FilterTimeout time.Duration `yaml:"filter_timeout" mapstructure:"filter_timeout"`
	// InjectContext prepends page-global context lines into every chunk
	// before dispatch so per-section auditors keep page-level awareness.
	InjectContext bool `yaml:"inject_context" mapstructure:"inject_context"`
	// NoIssueTypes is the sanitizer policy table: violation_type values
	// (case-folded) that mean "no issue found".
	NoIssueTypes []string `yaml:"no_issue_types" mapstructure:"no_issue_types"`
}

// LLMConfig selects and configures the auditor backend.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"`
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`

	// RatePerSecond smooths auditor call bursts toward the provider.
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
	Debug         bool `yaml:"debug" mapstructure:"debug"`
}

// DefaultNoIssueTypes is the evidenced "no issue" vocabulary. Locale
// variants beyond these are deliberately not guessed.
func DefaultNoIssueTypes() []string {
	return []string{
		"no violation",
		"no violations found",
		"no violation found",
		"compliant",
		"n/a",
		"none",
		"safe",
		"passed",
	}
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Pagewarden/0.2 (+https://github.com/pagewarden/pagewarden)",
			MaxBodyBytes:  5 * 1024 * 1024,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Audit: AuditConfig{
			EnsembleSize:  5,
			MaxConcurrent: 5,
			Stagger:       time.Second,
			CallTimeout:   5 * time.Minute,
			FilterTimeout: 400 * time.Second,
			InjectContext: true,
			NoIssueTypes:  DefaultNoIssueTypes(),
		},
		LLM: LLMConfig{
			Provider:      "openai",
			Model:         "",
			MaxTokens:     4096,
			RatePerSecond: 2,
			RateBurst:     5,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
			Debug:         false,
		},
	}
}
