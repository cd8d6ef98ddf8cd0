// Package config loads, defaults, and validates HyllaDB configuration from
// files and environment variables, and provides factories that turn a
// validated configuration into a running library.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete HyllaDB configuration.
//
// This structure captures all configurable aspects of an embedded library
// including:
//   - Logging configuration
//   - Library root and initial section layout
//   - Metrics collection
//   - Filesystem watch behavior
//
// Configuration sources (in order of precedence):
//  1. Environment variables (HYLLA_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Library contains the store location and initial layout
	Library LibraryConfig `mapstructure:"library"`

	// Metrics controls Prometheus metrics collection
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Watch controls the filesystem sentinel
	Watch WatchConfig `mapstructure:"watch"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// LibraryConfig contains the store location and initial section layout.
type LibraryConfig struct {
	// Root is the directory the library lives in. Created if absent.
	Root string `mapstructure:"root" validate:"required"`

	// Sections declares sections to create when the library opens.
	// Parents must be listed before children; creation is fail-fast.
	Sections []SectionConfig `mapstructure:"sections" validate:"dive"`
}

// SectionConfig declares one initial section.
type SectionConfig struct {
	// Path is the dotted logical path of the section (e.g. "inventory.books")
	Path string `mapstructure:"path" validate:"required"`

	// Metadata seeds the section's metadata container. May be empty.
	Metadata map[string]any `mapstructure:"metadata"`
}

// MetricsConfig controls Prometheus metrics collection.
type MetricsConfig struct {
	// Enabled turns metrics collection on. When false all recording is no-op.
	Enabled bool `mapstructure:"enabled"`
}

// WatchConfig controls the filesystem sentinel that reports out-of-band
// changes under the library root.
type WatchConfig struct {
	// Enabled starts the sentinel alongside the library.
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (HYLLA_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use HYLLA_ prefix and underscores
	// Example: HYLLA_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("HYLLA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/hylla/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is acceptable - defaults apply. Viper reports
		// the search-path case with its own error type and the explicit-file
		// case with a plain os error, so both are checked.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "hylla")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "hylla")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
