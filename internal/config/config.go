// Package config provides configuration loading and validation for the service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Defaults applied when neither the environment nor a config file sets a value.
const (
	DefaultAddr              = ":8080"
	DefaultMinVideoSeconds   = 30
	DefaultMaxVideoSeconds   = 90
	DefaultMaxConcurrentJobs = 2
	DefaultMaxSnippets       = 12
	DefaultCallTimeout       = 45 * time.Second
	DefaultStageRetries      = 2
	DefaultGapTolerance      = 0.75
	DefaultWorkDir           = "work"
	DefaultRetentionDays     = 7
)

// Default models per pipeline stage, used when a job does not override them.
const (
	DefaultResearchModel  = "gemini-2.0-flash"
	DefaultScriptingModel = "gemini-2.5-flash"
)

// Config holds everything the service needs to run. All fields are optional in
// the JSON file; missing values fall back to environment variables, then to
// defaults.
type Config struct {
	// Server
	Addr string `json:"addr,omitempty"` // HTTP listen address

	// Credentials
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	SearchKey   string `json:"search_key,omitempty"`   // Google Custom Search API key
	SearchCX    string `json:"search_cx,omitempty"`    // Custom Search engine ID
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL; empty selects the in-memory store

	// Assets
	WorkDir         string `json:"work_dir,omitempty"`         // Root for per-job scratch and output files
	TemplateCatalog string `json:"template_catalog,omitempty"` // YAML catalog of background video templates
	MusicCatalog    string `json:"music_catalog,omitempty"`    // YAML catalog of background music tracks

	// Pipeline limits
	MinVideoSeconds   float64       `json:"min_video_seconds,omitempty"`
	MaxVideoSeconds   float64       `json:"max_video_seconds,omitempty"`
	MaxConcurrentJobs int           `json:"max_concurrent_jobs,omitempty"`
	MaxSnippets       int           `json:"max_snippets,omitempty"` // Snippet cap on the research bundle
	CallTimeout       time.Duration `json:"-"`                      // Per external call; set via CALL_TIMEOUT_SECONDS
	StageRetries      int           `json:"stage_retries,omitempty"`
	GapTolerance      float64       `json:"gap_tolerance,omitempty"` // Max subtitle gap in seconds
	RetentionDays     int           `json:"retention_days,omitempty"`

	// Behavior
	Verbose bool `json:"verbose,omitempty"`
}

// Load builds the configuration from the environment, optionally overlaid on a
// JSON file. Environment variables win over file values.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Addr, "ADDR")
	setString(&c.APIKey, "GEMINI_API_KEY")
	setString(&c.SearchKey, "GOOGLE_SEARCH_API_KEY")
	setString(&c.SearchCX, "GOOGLE_SEARCH_CX")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.WorkDir, "WORK_DIR")
	setString(&c.TemplateCatalog, "TEMPLATE_CATALOG")
	setString(&c.MusicCatalog, "MUSIC_CATALOG")
	setFloat(&c.MinVideoSeconds, "MIN_VIDEO_SECONDS")
	setFloat(&c.MaxVideoSeconds, "MAX_VIDEO_SECONDS")
	setInt(&c.MaxConcurrentJobs, "MAX_CONCURRENT_JOBS")
	setInt(&c.MaxSnippets, "MAX_SNIPPETS")
	setInt(&c.StageRetries, "STAGE_RETRIES")
	setInt(&c.RetentionDays, "RETENTION_DAYS")
	setFloat(&c.GapTolerance, "GAP_TOLERANCE")
	if v := os.Getenv("CALL_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.CallTimeout = time.Duration(secs) * time.Second
		}
	}
	if os.Getenv("VERBOSE") == "1" || os.Getenv("VERBOSE") == "true" {
		c.Verbose = true
	}
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.WorkDir == "" {
		c.WorkDir = DefaultWorkDir
	}
	if c.MinVideoSeconds == 0 {
		c.MinVideoSeconds = DefaultMinVideoSeconds
	}
	if c.MaxVideoSeconds == 0 {
		c.MaxVideoSeconds = DefaultMaxVideoSeconds
	}
	if c.MaxConcurrentJobs == 0 {
		c.MaxConcurrentJobs = DefaultMaxConcurrentJobs
	}
	if c.MaxSnippets == 0 {
		c.MaxSnippets = DefaultMaxSnippets
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.StageRetries == 0 {
		c.StageRetries = DefaultStageRetries
	}
	if c.GapTolerance == 0 {
		c.GapTolerance = DefaultGapTolerance
	}
	if c.RetentionDays == 0 {
		c.RetentionDays = DefaultRetentionDays
	}
}

// Validate checks that the configuration has usable values. Credentials are
// not checked here; connectors that need them fail at call time with a clear
// error instead.
func (c *Config) Validate() error {
	if c.MinVideoSeconds <= 0 {
		return fmt.Errorf("config error: 'min_video_seconds' must be positive")
	}
	if c.MaxVideoSeconds <= c.MinVideoSeconds {
		return fmt.Errorf("config error: 'max_video_seconds' must exceed 'min_video_seconds'")
	}
	if c.MaxConcurrentJobs < 1 {
		return fmt.Errorf("config error: 'max_concurrent_jobs' must be at least 1")
	}
	if c.StageRetries < 0 {
		return fmt.Errorf("config error: 'stage_retries' must be non-negative")
	}
	if c.TemplateCatalog != "" {
		if _, err := os.Stat(c.TemplateCatalog); os.IsNotExist(err) {
			return fmt.Errorf("config error: template catalog not found: %s", c.TemplateCatalog)
		}
	}
	if c.MusicCatalog != "" {
		if _, err := os.Stat(c.MusicCatalog); os.IsNotExist(err) {
			return fmt.Errorf("config error: music catalog not found: %s", c.MusicCatalog)
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
