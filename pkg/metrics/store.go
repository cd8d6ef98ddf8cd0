package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StoreMetrics provides observability for library store operations.
//
// The interface is optional - a nil or no-op implementation means operations
// proceed without metrics collection.
type StoreMetrics interface {
	// RecordOperation records a completed store operation with its name,
	// duration, and outcome.
	RecordOperation(operation string, duration time.Duration, err error)

	// SetKnownPaths updates the current cardinality of the known-path index.
	SetKnownPaths(count int)

	// SetLocks updates the number of container locks ever created. The lock
	// registry never evicts, so this gauge only grows.
	SetLocks(count int)
}

// storeMetrics is the Prometheus implementation of StoreMetrics.
type storeMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	knownPaths        prometheus.Gauge
	locks             prometheus.Gauge
}

// NewStoreMetrics creates a Prometheus-backed StoreMetrics instance, or a
// no-op implementation when InitRegistry has not been called.
func NewStoreMetrics() StoreMetrics {
	if !IsEnabled() {
		return Noop()
	}

	reg := GetRegistry()

	return &storeMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hylla_store_operations_total",
				Help: "Total number of store operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hylla_store_operation_duration_seconds",
				Help:    "Duration of store operations in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"operation"},
		),
		knownPaths: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "hylla_store_known_paths",
				Help: "Current number of tracked container and section paths",
			},
		),
		locks: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "hylla_store_container_locks",
				Help: "Number of per-container locks created since startup",
			},
		),
	}
}

func (m *storeMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *storeMetrics) SetKnownPaths(count int) {
	m.knownPaths.Set(float64(count))
}

func (m *storeMetrics) SetLocks(count int) {
	m.locks.Set(float64(count))
}

// noopStoreMetrics discards all recordings.
type noopStoreMetrics struct{}

// Noop returns a StoreMetrics implementation that does nothing.
func Noop() StoreMetrics {
	return noopStoreMetrics{}
}

func (noopStoreMetrics) RecordOperation(string, time.Duration, error) {}
func (noopStoreMetrics) SetKnownPaths(int)                            {}
func (noopStoreMetrics) SetLocks(int)                                 {}
