package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "libledger/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Tracing  TracingConfig  `yaml:"tracing" envconfig:"TRACING"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data" validate:"required"`
	LedgerGlob    string `yaml:"ledger_glob" envconfig:"LEDGER_GLOB" default:"*record*.csv" validate:"required"`
	CatalogGlob   string `yaml:"catalog_glob" envconfig:"CATALOG_GLOB" default:"*unique*books*.csv"`
	OutputDir     string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"out" validate:"required"`
	RewriteRules  string `yaml:"rewrite_rules" envconfig:"REWRITE_RULES"`
	ReferenceFile string `yaml:"reference_file" envconfig:"REFERENCE_FILE"`
}

// WindowConfig defines one time window for interaction-graph generation.
// EndYear of 0 means a single-year window equal to StartYear; a zero
// StartYear and EndYear together mean the full dataset span.
type WindowConfig struct {
	Label     string `yaml:"label" validate:"required"`
	StartYear int    `yaml:"start_year" validate:"min=0"`
	EndYear   int    `yaml:"end_year" validate:"min=0"`
}

// PipelineConfig contains reconciliation pipeline options
type PipelineConfig struct {
	YearMin        int            `yaml:"year_min" envconfig:"YEAR_MIN" default:"1800" validate:"min=0"`
	YearMax        int            `yaml:"year_max" envconfig:"YEAR_MAX" default:"2025" validate:"gtefield=YearMin"`
	MaxConcurrency int            `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" default:"4" validate:"min=1"`
	Windows        []WindowConfig `yaml:"windows" validate:"dive"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"text" validate:"oneof=text json"`
}

// TracingConfig controls the stdout trace exporter for pipeline stages.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"ENABLED" default:"false"`
}

// DefaultWindows are the time windows the source corpus is transcribed in:
// four ledger batches plus the full span.
func DefaultWindows() []WindowConfig {
	return []WindowConfig{
		{Label: "all"},
		{Label: "1902", StartYear: 1902, EndYear: 1902},
		{Label: "1903-1904", StartYear: 1903, EndYear: 1904},
		{Label: "1934", StartYear: 1934, EndYear: 1934},
		{Label: "1940", StartYear: 1940, EndYear: 1940},
	}
}

// Load loads configuration from environment variables and an optional config
// file. Environment variables (prefix LIBLEDGER) seed the struct, the file
// overrides where present, and the result is validated before use.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process("LIBLEDGER", &cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			data, err := os.ReadFile(configFile)
			if err != nil {
				return nil, apperrors.NewConfigError("failed to read config file", err).
					WithContext("path", configFile)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, apperrors.NewConfigError("failed to parse config file", err).
					WithContext("path", configFile)
			}
		}
	}

	if len(cfg.Pipeline.Windows) == 0 {
		cfg.Pipeline.Windows = DefaultWindows()
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, apperrors.NewConfigError("failed to resolve paths", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}

	seen := make(map[string]bool, len(c.Pipeline.Windows))
	for _, w := range c.Pipeline.Windows {
		if seen[w.Label] {
			return apperrors.NewConfigError(
				fmt.Sprintf("duplicate window label %q", w.Label), nil)
		}
		seen[w.Label] = true
		if w.EndYear != 0 && w.EndYear < w.StartYear {
			return apperrors.NewConfigError(
				fmt.Sprintf("window %q ends before it starts", w.Label), nil)
		}
	}

	return nil
}

// resolvePaths makes all configured paths absolute relative to the working
// directory so stage logs name unambiguous locations.
func (c *Config) resolvePaths() error {
	for _, p := range []*string{
		&c.Paths.DataDir,
		&c.Paths.OutputDir,
		&c.Paths.RewriteRules,
		&c.Paths.ReferenceFile,
	} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("resolve path %s: %w", *p, err)
		}
		*p = abs
	}
	return nil
}
