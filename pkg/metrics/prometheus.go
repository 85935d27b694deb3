// Package metrics provides Prometheus metrics for the evaluation pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	// Core pipeline metrics
	modelsTrained prometheus.Counter
	fitFailures   prometheus.Counter
	metricRecords *prometheus.CounterVec
	missingValues *prometheus.CounterVec

	// Timing metrics
	trainDuration    prometheus.Histogram
	evaluateDuration prometheus.Histogram

	// Run shape metrics
	datasetRows  prometheus.Gauge
	droppedRows  prometheus.Gauge
	foldsTotal   prometheus.Gauge
	gridSize     prometheus.Gauge
	activeFits   prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "crforest",
		subsystem:        "evaluation",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.modelsTrained = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "models_trained_total",
		Help:      "Total number of survival forests fitted across folds and grid points",
	})

	m.fitFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fit_failures_total",
		Help:      "Total number of per-fold fit failures skipped and recorded as missing",
	})

	m.metricRecords = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "metric_records_total",
			Help:      "Total number of metric records produced, by metric name",
		},
		[]string{"metric"},
	)

	m.missingValues = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "missing_values_total",
			Help:      "Total number of metric records carrying a missing value, by metric name",
		},
		[]string{"metric"},
	)

	m.trainDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "train_duration_seconds",
		Help:      "Histogram of per-fold model fitting duration in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.evaluateDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluate_duration_seconds",
		Help:      "Histogram of per-fold metric evaluation duration in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.datasetRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_rows",
		Help:      "Number of observations retained after the missing-value filter",
	})

	m.droppedRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_rows_dropped",
		Help:      "Number of rows dropped by the missing-value filter",
	})

	m.foldsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "folds_total",
		Help:      "Total number of folds generated (repeats x k)",
	})

	m.gridSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "grid_size",
		Help:      "Number of hyperparameter combinations in the tuning grid",
	})

	m.activeFits = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_fits",
		Help:      "Number of fits currently in flight (>1 only with parallel tuning)",
	})
}

// Handler returns an HTTP handler serving the manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package-level helpers operating on the global manager.

func RecordModelTrained() { globalManager.modelsTrained.Inc() }

func RecordFitFailure() { globalManager.fitFailures.Inc() }

func RecordMetricRecord(metric string) { globalManager.metricRecords.WithLabelValues(metric).Inc() }

func RecordMissingValue(metric string) { globalManager.missingValues.WithLabelValues(metric).Inc() }

func ObserveTrainDuration(seconds float64) { globalManager.trainDuration.Observe(seconds) }

func ObserveEvaluateDuration(seconds float64) { globalManager.evaluateDuration.Observe(seconds) }

func UpdateDatasetRows(n int) { globalManager.datasetRows.Set(float64(n)) }

func UpdateDroppedRows(n int) { globalManager.droppedRows.Set(float64(n)) }

func UpdateFoldsTotal(n int) { globalManager.foldsTotal.Set(float64(n)) }

func UpdateGridSize(n int) { globalManager.gridSize.Set(float64(n)) }

func IncActiveFits() { globalManager.activeFits.Inc() }

func DecActiveFits() { globalManager.activeFits.Dec() }

// Handler returns the HTTP handler for the global manager's registry.
func Handler() http.Handler { return globalManager.Handler() }
