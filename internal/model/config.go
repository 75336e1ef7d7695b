package model

import "time"

// Config is the full runtime configuration, assembled from defaults, the
// config file, GROUNDER_* environment variables and CLI flags.
type Config struct {
	Paths     PathsConfig     `yaml:"paths" json:"paths"`
	LLM       LLMConfig       `yaml:"llm" json:"llm"`
	NER       NERConfig       `yaml:"ner" json:"ner"`
	Validator ValidatorConfig `yaml:"validator" json:"validator"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Output    OutputConfig    `yaml:"output" json:"output"`
}

// PathsConfig locates the durable JSON artifact directories.
type PathsConfig struct {
	ArticlesDir    string `yaml:"articles_dir" json:"articles_dir"`
	SpansDir       string `yaml:"spans_dir" json:"spans_dir"`
	VerifiedDir    string `yaml:"verified_dir" json:"verified_dir"`
	ExtractionsDir string `yaml:"extractions_dir" json:"extractions_dir"`
	ReportsDir     string `yaml:"reports_dir" json:"reports_dir"`
}

// LLMConfig configures the external model capability.
type LLMConfig struct {
	Provider    string        `yaml:"provider" json:"provider"` // "ollama", "openai", ""
	Model       string        `yaml:"model" json:"model"`
	APIKey      string        `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	BaseURL     string        `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens"`
	Temperature float32       `yaml:"temperature" json:"temperature"`
}

// NERConfig selects and configures the NER backend.
type NERConfig struct {
	Backend      string        `yaml:"backend" json:"backend"` // auto|annotator|tokencls|simple|none
	AnnotatorURL string        `yaml:"annotator_url,omitempty" json:"annotator_url,omitempty"`
	TokenClsURL  string        `yaml:"tokencls_url,omitempty" json:"tokencls_url,omitempty"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
}

// ValidatorConfig tunes both validation strategies.
type ValidatorConfig struct {
	Model            string        `yaml:"model" json:"model"`
	MaxPassageChars  int           `yaml:"max_passage_chars" json:"max_passage_chars"`
	RateLimit        time.Duration `yaml:"rate_limit" json:"rate_limit"` // minimum delay between hosted calls
	AmountCeilingVND int64         `yaml:"amount_ceiling_vnd" json:"amount_ceiling_vnd"`
	SkipExisting     bool          `yaml:"skip_existing" json:"skip_existing"`
	DryRun           bool          `yaml:"dry_run" json:"dry_run"`
}

// CacheConfig configures the layered cross-check response cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Dir       string        `yaml:"dir" json:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
}

// OutputConfig controls rendering behavior.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
	Pretty  bool `yaml:"pretty" json:"pretty"`
}

// DefaultConfig returns sensible defaults for local runs.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			ArticlesDir:    "data/clean_text",
			SpansDir:       "data/cache/baseline_spans",
			VerifiedDir:    "data/cache/verified_spans",
			ExtractionsDir: "data/cache/extractions",
			ReportsDir:     "data/cache/reports",
		},
		LLM: LLMConfig{
			Provider:    "ollama",
			Model:       "qwen2.5:14b",
			BaseURL:     "",
			Timeout:     2 * time.Minute,
			MaxTokens:   2048,
			Temperature: 0,
		},
		NER: NERConfig{
			Backend: "auto",
			Timeout: 30 * time.Second,
		},
		Validator: ValidatorConfig{
			Model:            "qwen2.5:14b",
			MaxPassageChars:  12000,
			RateLimit:        0,
			AmountCeilingVND: 1_000_000_000_000, // 1 trillion VND
			SkipExisting:     true,
			DryRun:           false,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "data/cache/responses",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Output: OutputConfig{},
	}
}
