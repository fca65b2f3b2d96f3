// Package config loads YAML configuration for the builder and engine CLIs,
// with command-line flags overriding file values. Shaped after the layered
// config-then-flags pattern production Go CLIs in this codebase family use.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BuildConfig configures a builder run.
type BuildConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
	Out      string         `yaml:"out"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	MetaShardDocs   int `yaml:"metaShardDocs"`
	IndexShardCount int `yaml:"indexShardCount"`
}

// EngineConfig configures the demo query engine CLI.
type EngineConfig struct {
	ArtifactDir string        `yaml:"artifactDir"`
	BaseURL     string        `yaml:"baseURL"`
	CachePath   string        `yaml:"cachePath"`
	Logging     LoggingConfig `yaml:"logging"`
	Metrics     MetricsConfig `yaml:"metrics"`
}

// PostgresConfig holds connection parameters for build.PostgresSource.
type PostgresConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// LoggingConfig controls the slog handler installed at startup.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the optional Prometheus debug listener.
type MetricsConfig struct {
	Addr    string `yaml:"addr"`
	Enabled bool   `yaml:"enabled"`
}

// LoadBuildConfig reads a YAML file into a BuildConfig. A missing path is
// not an error — callers fall back to flag defaults.
func LoadBuildConfig(path string) (BuildConfig, error) {
	var cfg BuildConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEngineConfig reads a YAML file into an EngineConfig.
func LoadEngineConfig(path string) (EngineConfig, error) {
	var cfg EngineConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
