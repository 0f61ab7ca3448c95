package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
// It contains settings for the environment, source inputs, fetch behavior,
// output locations and the run-history database.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// Sources contains the locations of registry and list inputs
	Sources struct {
		// Registry is the path of the JSON source registry document
		Registry string `env:"SOURCES_REGISTRY" env-default:"sources/sources.json" yaml:"registry"`
		// Dir is the directory local source paths and the allowlist are resolved against
		Dir string `env:"SOURCES_DIR" env-default:"sources" yaml:"dir"`
		// Allowlist is the newline-delimited file of domains exempt from the disposable bucket,
		// relative to Dir
		Allowlist string `env:"SOURCES_ALLOWLIST" env-default:"allowlist.txt" yaml:"allowlist"`
	} `yaml:"sources"`

	// Fetch contains all source retrieval related configurations
	Fetch struct {
		// Timeout bounds each remote request; expiry counts as a failed fetch
		Timeout time.Duration `env:"FETCH_TIMEOUT" env-default:"30s" yaml:"timeout"`
		// Concurrency limits how many sources are fetched at the same time
		Concurrency int `env:"FETCH_CONCURRENCY" env-default:"4" yaml:"concurrency"`
		// ScratchDir is where fetched remote bodies are cached per run for inspection
		ScratchDir string `env:"FETCH_SCRATCH_DIR" env-default:"temp" yaml:"scratchDir"`
		// KeepScratch leaves the per-run scratch directory in place after the run
		KeepScratch bool `env:"FETCH_KEEP_SCRATCH" env-default:"false" yaml:"keepScratch"`
	} `yaml:"fetch"`

	// Output is the directory the generated dataset files are written to
	Output struct {
		// Dir receives email_domains.json/.csv, the per-category text files,
		// source_stats.json and delta.json
		Dir string `env:"OUTPUT_DIR" env-default:"output" yaml:"dir"`
	} `yaml:"output"`

	// History contains the run-history store configuration
	History struct {
		// Path is the sqlite database file recording past runs; empty disables recording
		Path string `env:"HISTORY_PATH" env-default:"history.db" yaml:"path"`
	} `yaml:"history"`
}

// Load receives the path for yaml config file and returns a filled Config struct.
func Load(configPath string) (*Config, error) {
	var cfg Config
	err := cleanenv.ReadConfig(configPath, &cfg)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}
