// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the CLI configuration loadable from a JSON file. All fields
// are optional; missing values use defaults or come from CLI flags.
type Config struct {
	// Inputs
	CV     string `json:"cv,omitempty"`      // Path to the CV file
	Job    string `json:"job,omitempty"`     // Path to a job posting text file
	JobURL string `json:"job_url,omitempty"` // URL to fetch the job posting from
	UserID string `json:"user_id,omitempty"` // Profile owner identifier

	// Behavior
	APIKey       string  `json:"api_key,omitempty"`        // Gemini API key
	Model        string  `json:"model,omitempty"`          // Completion model override
	Interactive  bool    `json:"interactive,omitempty"`    // Ask gap questions on the terminal
	RetryBudget  int     `json:"retry_budget,omitempty"`   // Max retries per stage for transient errors
	GapThreshold int     `json:"gap_threshold,omitempty"`  // Minimum gap count that triggers interaction
	MaxGrowth    float64 `json:"max_skill_growth,omitempty"` // Keyword growth ratio accepted from tailoring
	Verbose      bool    `json:"verbose,omitempty"`        // Debug logging
	JSONLogs     bool    `json:"json_logs,omitempty"`      // Structured log output
	FetchTimeout int     `json:"fetch_timeout_seconds,omitempty"`

	// Storage
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	DataDir     string `json:"data_dir,omitempty"`     // Local JSON storage directory
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
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

// Validate checks the configuration values. Required fields are enforced
// by CLI flag validation after merging, not here.
func (c *Config) Validate() error {
	if c.Job != "" && c.JobURL != "" {
		return fmt.Errorf("config error: 'job' and 'job_url' are mutually exclusive")
	}
	if c.RetryBudget < 0 {
		return fmt.Errorf("config error: 'retry_budget' must be non-negative")
	}
	if c.GapThreshold < 0 {
		return fmt.Errorf("config error: 'gap_threshold' must be non-negative")
	}
	if c.MaxGrowth < 0 {
		return fmt.Errorf("config error: 'max_skill_growth' must be non-negative")
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("config error: 'fetch_timeout_seconds' must be non-negative")
	}

	if c.CV != "" {
		if _, err := os.Stat(c.CV); os.IsNotExist(err) {
			return fmt.Errorf("config error: CV file not found: %s", c.CV)
		}
	}
	if c.Job != "" {
		if _, err := os.Stat(c.Job); os.IsNotExist(err) {
			return fmt.Errorf("config error: job file not found: %s", c.Job)
		}
	}
	return nil
}

// MergeWithDefaults fills empty fields from defaults. CLI flags always
// win for bools, so they are not merged.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.CV == "" {
		result.CV = defaults.CV
	}
	if result.Job == "" {
		result.Job = defaults.Job
	}
	if result.JobURL == "" {
		result.JobURL = defaults.JobURL
	}
	if result.UserID == "" {
		result.UserID = defaults.UserID
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.DataDir == "" {
		result.DataDir = defaults.DataDir
	}

	if result.RetryBudget == 0 {
		result.RetryBudget = defaults.RetryBudget
	}
	if result.GapThreshold == 0 {
		result.GapThreshold = defaults.GapThreshold
	}
	if result.FetchTimeout == 0 {
		result.FetchTimeout = defaults.FetchTimeout
	}
	if result.MaxGrowth == 0 {
		if defaults.MaxGrowth > 0 {
			result.MaxGrowth = defaults.MaxGrowth
		} else {
			result.MaxGrowth = 2.0
		}
	}

	return result
}

// FetchTimeoutDuration converts the configured fetch timeout, falling
// back to 30 seconds.
func (c *Config) FetchTimeoutDuration() time.Duration {
	if c.FetchTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.FetchTimeout) * time.Second
}
