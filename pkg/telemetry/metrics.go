package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/keyedlist/pkg/keyed"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "keyedlist").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for cycle duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "keyedlist",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records reconciliation cycles. All series are labeled by region
// name.
type Metrics struct {
	cycles   *prometheus.CounterVec
	inserted *prometheus.CounterVec
	moved    *prometheus.CounterVec
	removed  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rows     *prometheus.GaugeVec
}

// NewMetrics registers the reconciliation metrics. Registering twice on
// the same registry panics, so share one Metrics across regions.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}

	return &Metrics{
		cycles:   counter("cycles_total", "Total number of reconciliation cycles", "region", "status"),
		inserted: counter("rows_inserted_total", "Total number of rows inserted", "region"),
		moved:    counter("rows_moved_total", "Total number of row relocations", "region"),
		removed:  counter("rows_removed_total", "Total number of rows removed", "region"),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cycle_duration_seconds",
			Help:        "Reconciliation cycle duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"region"}),

		rows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "rows",
			Help:        "Number of rows after the last successful cycle",
			ConstLabels: config.ConstLabels,
		}, []string{"region"}),
	}
}

// StartCycle implements keyed.Observer.
func (m *Metrics) StartCycle(region string) func(keyed.Stats, error) {
	started := time.Now()
	return func(s keyed.Stats, err error) {
		m.duration.WithLabelValues(region).Observe(time.Since(started).Seconds())
		if err != nil {
			m.cycles.WithLabelValues(region, "error").Inc()
			return
		}
		m.cycles.WithLabelValues(region, "ok").Inc()
		m.inserted.WithLabelValues(region).Add(float64(s.Inserted))
		m.moved.WithLabelValues(region).Add(float64(s.Moved))
		m.removed.WithLabelValues(region).Add(float64(s.Removed))
		m.rows.WithLabelValues(region).Set(float64(s.Rows))
	}
}
