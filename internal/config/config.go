// Package config loads and persists hivemind configuration from
// <data-dir>/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all hivemind configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Root directory for durable state (databases, logs)
	DataDir string `yaml:"data_dir"`

	// Hub tuning knobs
	Hub HubConfig `yaml:"hub"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// HubConfig tunes the collective intelligence hub. The defaults mirror the
// fixed thresholds the hub has always used; changing them changes which
// patterns get flagged, not the data the hub records.
type HubConfig struct {
	// Rapid-communication detection: more than RapidThreshold messages in
	// the same (from, to, type) bucket within RapidWindowMinutes trips the
	// warning event.
	RapidWindowMinutes int `yaml:"rapid_window_minutes"`
	RapidThreshold     int `yaml:"rapid_threshold"`

	// Relevance queries fetch limit * CandidateFactor rows before scoring.
	// Deliberately non-exhaustive: an old low-confidence item can fall
	// outside the candidate window.
	CandidateFactor int `yaml:"candidate_factor"`

	// Emergent-behavior heuristics.
	FrequentPairThreshold int `yaml:"frequent_pair_threshold"`
	SpecialistMinItems    int `yaml:"specialist_min_items"`

	// Default retention for cleanup when the caller does not specify one.
	DefaultRetentionDays int `yaml:"default_retention_days"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
}

// DefaultConfig returns the configuration used when no config.yaml exists.
func DefaultConfig(dataDir string) *Config {
	return &Config{
		Name:    "hivemind",
		Version: "0.1.0",
		DataDir: dataDir,
		Hub: HubConfig{
			RapidWindowMinutes:    10,
			RapidThreshold:        5,
			CandidateFactor:       2,
			FrequentPairThreshold: 5,
			SpecialistMinItems:    3,
			DefaultRetentionDays:  30,
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads config.yaml from the data directory, falling back to defaults
// when the file does not exist. Environment variable HIVEMIND_DATA_DIR
// overrides the data directory in either case.
func Load(dataDir string) (*Config, error) {
	if env := os.Getenv("HIVEMIND_DATA_DIR"); env != "" {
		dataDir = env
	}

	cfg := DefaultConfig(dataDir)

	path := filepath.Join(dataDir, "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	cfg.applyDefaults()

	return cfg, nil
}

// applyDefaults backfills zero-valued tunables so a partial config.yaml
// cannot disable detection outright.
func (c *Config) applyDefaults() {
	def := DefaultConfig(c.DataDir)
	if c.Hub.RapidWindowMinutes <= 0 {
		c.Hub.RapidWindowMinutes = def.Hub.RapidWindowMinutes
	}
	if c.Hub.RapidThreshold <= 0 {
		c.Hub.RapidThreshold = def.Hub.RapidThreshold
	}
	if c.Hub.CandidateFactor <= 0 {
		c.Hub.CandidateFactor = def.Hub.CandidateFactor
	}
	if c.Hub.FrequentPairThreshold <= 0 {
		c.Hub.FrequentPairThreshold = def.Hub.FrequentPairThreshold
	}
	if c.Hub.SpecialistMinItems <= 0 {
		c.Hub.SpecialistMinItems = def.Hub.SpecialistMinItems
	}
	if c.Hub.DefaultRetentionDays <= 0 {
		c.Hub.DefaultRetentionDays = def.Hub.DefaultRetentionDays
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
}

// Save writes the configuration to <data-dir>/config.yaml.
func (c *Config) Save() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory not set")
	}
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(c.DataDir, "config.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// CollectiveDir returns the directory holding the hub's durable stores.
func (c *Config) CollectiveDir() string {
	return filepath.Join(c.DataDir, "collective")
}
