// Package config provides configuration loading and validation for the CLI.
// Values come from an optional JSON config file overlaid with environment
// variables (a .env file is honored when present).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the CLI configuration. All fields are optional; missing values
// use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	Source    string `json:"source,omitempty"`    // Path to source markdown/HTML file
	SourceURL string `json:"source_url,omitempty" validate:"omitempty,url"`
	Template  string `json:"template,omitempty"`  // Path to reference presentation JSON
	Induction string `json:"induction,omitempty"` // Path to slide induction JSON
	ImageDir  string `json:"image_dir,omitempty"` // Directory holding referenced images

	// Generation
	NumSlides  int    `json:"num_slides,omitempty" validate:"gte=0"`
	Language   string `json:"language,omitempty"`
	RetryTimes int    `json:"retry_times,omitempty" validate:"gte=0"`
	ForcePages bool   `json:"force_pages,omitempty"`
	ErrorExit  bool   `json:"error_exit,omitempty"`

	// Limits
	MaxAtOnce    int     `json:"max_at_once,omitempty" validate:"gte=0"`
	MaxPerSecond float64 `json:"max_per_second,omitempty" validate:"gte=0"`

	// Behavior
	APIKey      string `json:"api_key,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"`
	Verbose     bool   `json:"verbose,omitempty"`
}

var validate = validator.New()

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

// LoadEnv overlays environment variables onto the config, loading a .env
// file first when one exists in the working directory.
func (c *Config) LoadEnv() {
	_ = godotenv.Load()
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && c.APIKey == "" {
		c.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" && c.DatabaseURL == "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("DECK_AGENT_MAX_AT_ONCE"); v != "" && c.MaxAtOnce == 0 {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxAtOnce = n
		}
	}
}

// Validate checks field ranges and mutually exclusive inputs.
func (c *Config) Validate() error {
	if c.Source != "" && c.SourceURL != "" {
		return fmt.Errorf("config error: 'source' and 'source_url' are mutually exclusive")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	for _, path := range []string{c.Source, c.Template, c.Induction} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("config error: file not found: %s", path)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled
// from defaults. Config file values act as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c
	if result.Source == "" {
		result.Source = defaults.Source
	}
	if result.SourceURL == "" {
		result.SourceURL = defaults.SourceURL
	}
	if result.Template == "" {
		result.Template = defaults.Template
	}
	if result.Induction == "" {
		result.Induction = defaults.Induction
	}
	if result.ImageDir == "" {
		result.ImageDir = defaults.ImageDir
	}
	if result.Language == "" {
		result.Language = defaults.Language
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.NumSlides == 0 {
		result.NumSlides = defaults.NumSlides
	}
	if result.RetryTimes == 0 {
		result.RetryTimes = defaults.RetryTimes
	}
	if result.MaxAtOnce == 0 {
		result.MaxAtOnce = defaults.MaxAtOnce
	}
	if result.MaxPerSecond == 0 {
		result.MaxPerSecond = defaults.MaxPerSecond
	}
	return result
}
