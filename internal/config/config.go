// Package config loads the piggyctl YAML configuration. The recognized
// options fold the historical widget variants (auto-scan, filtered scan,
// disconnect button, extended info) into one configurable component.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Scan     ScanConfig `yaml:"scan"`
	UI       UIConfig   `yaml:"ui"`
	LogLevel string     `yaml:"log_level"`
}

// ScanConfig holds device discovery settings.
type ScanConfig struct {
	// AutoScan starts a discovery pass as soon as the UI comes up.
	AutoScan bool `yaml:"auto_scan"`
	// NameFilter is the advertised-name prefix to match. Empty accepts all
	// devices.
	NameFilter     string `yaml:"name_filter"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	ShowDisconnectButton bool `yaml:"show_disconnect_button"`
	CollectExtendedInfo  bool `yaml:"collect_extended_info"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "piggyctl")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			AutoScan:       false,
			NameFilter:     "piggybank",
			TimeoutSeconds: 10,
		},
		UI: UIConfig{
			ShowDisconnectButton: true,
			CollectExtendedInfo:  true,
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled with
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Scan.TimeoutSeconds <= 0 {
		return fmt.Errorf("scan.timeout_seconds must be > 0")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// ScanTimeout returns the scan timeout as a duration.
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.Scan.TimeoutSeconds) * time.Second
}
