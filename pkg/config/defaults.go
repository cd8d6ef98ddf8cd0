package config

import (
	"strings"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and
// environment variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyLibraryDefaults(&cfg.Library)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "WARN"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

// applyLibraryDefaults sets library defaults.
func applyLibraryDefaults(cfg *LibraryConfig) {
	if cfg.Root == "" {
		cfg.Root = "./hylla-data"
	}

	for i := range cfg.Sections {
		if cfg.Sections[i].Metadata == nil {
			cfg.Sections[i].Metadata = make(map[string]any)
		}
	}
}
