package config

import (
	"context"
	"fmt"
	"os"

	"github.com/hylladb/hylla/internal/logger"
	"github.com/hylladb/hylla/pkg/hylla"
	"github.com/hylladb/hylla/pkg/metrics"
	"github.com/hylladb/hylla/pkg/watch"
)

// NewLibrary creates and initializes a library from validated configuration.
//
// This factory applies the logging configuration, initializes the metrics
// registry when enabled, opens the library at the configured root, and
// creates the declared initial sections in order.
//
// Section creation is fail-fast: the first error aborts and is returned,
// including ErrAlreadyExists when a declared section is already materialized
// on disk. Sections created before the failure are left in place.
//
// Parameters:
//   - ctx: Context for initialization
//   - cfg: Validated configuration
//
// Returns:
//   - *hylla.Library: Opened library with initial sections created
//   - error: Initialization error
func NewLibrary(ctx context.Context, cfg *Config) (*hylla.Library, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := applyLogging(&cfg.Logging); err != nil {
		return nil, err
	}

	var opts []hylla.Option
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		opts = append(opts, hylla.WithMetrics(metrics.NewStoreMetrics()))
	}

	sections := make([]hylla.InitialSection, 0, len(cfg.Library.Sections))
	for _, section := range cfg.Library.Sections {
		sections = append(sections, hylla.InitialSection{
			Path:     section.Path,
			Metadata: section.Metadata,
		})
	}
	opts = append(opts, hylla.WithInitialSections(sections...))

	lib, err := hylla.New(cfg.Library.Root, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open library at %q: %w", cfg.Library.Root, err)
	}

	return lib, nil
}

// NewSentinel starts the filesystem sentinel over lib when the configuration
// enables it. Returns (nil, nil) when watching is disabled; callers must
// Close a non-nil sentinel when done.
//
// The report callback may be nil for log-only behavior.
func NewSentinel(cfg *Config, lib *hylla.Library, report func(watch.Event)) (*watch.Sentinel, error) {
	if !cfg.Watch.Enabled {
		return nil, nil
	}

	sentinel, err := watch.New(lib, report)
	if err != nil {
		return nil, fmt.Errorf("failed to start filesystem sentinel: %w", err)
	}

	return sentinel, nil
}

// applyLogging configures the logger level and output destination.
func applyLogging(cfg *LoggingConfig) error {
	logger.SetLevel(cfg.Level)

	switch cfg.Output {
	case "stderr", "":
		logger.SetOutput(os.Stderr)
	case "stdout":
		logger.SetOutput(os.Stdout)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", cfg.Output, err)
		}
		logger.SetOutput(f)
	}

	return nil
}
