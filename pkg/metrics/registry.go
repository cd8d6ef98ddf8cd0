// Package metrics provides Prometheus metrics collection for HyllaDB.
//
// All metrics are optional - if the registry is not initialized, components
// use no-op implementations with zero overhead. This lets the library run
// with or without metrics collection enabled.
//
// Usage:
//
//	// Initialize global registry (typically at application startup)
//	metrics.InitRegistry()
//
//	// Create a metrics instance for a library
//	lib, err := hylla.New(root, hylla.WithMetrics(metrics.NewStoreMetrics()))
//
//	// Or pass nothing for no-op behavior
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry. Safe to call
// multiple times; subsequent calls are ignored. If never called,
// NewStoreMetrics returns a no-op implementation.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the global Prometheus registry, or nil when metrics
// are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether the global registry has been initialized.
func IsEnabled() bool {
	return registry != nil
}
