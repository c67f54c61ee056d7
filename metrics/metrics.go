// Package metrics exposes Prometheus instrumentation for workbook builds.
//
// A Collector is optional: pass one through serializer.WithMetrics and every
// build records its outcome, size and duration.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	collector := metrics.NewCollector(reg, "myapp")
//	opts, _ := serializer.NewOptions(serializer.WithMetrics(collector))
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Build results used as the "result" label.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Collector records build statistics. A nil *Collector is valid and records
// nothing.
type Collector struct {
	builds        *prometheus.CounterVec
	rows          prometheus.Counter
	sharedStrings prometheus.Counter
	sheetBytes    prometheus.Counter
	duration      *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers it with reg. A nil reg
// registers with prometheus.DefaultRegisterer. Metrics are named
// <namespace>_xlsx_*; an empty namespace defaults to "fastxlsx".
func NewCollector(reg prometheus.Registerer, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "fastxlsx"
	}

	factory := promauto.With(reg)

	return &Collector{
		builds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "xlsx",
				Name:      "builds_total",
				Help:      "Total number of workbook builds by result",
			},
			[]string{"result"},
		),
		rows: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "xlsx",
				Name:      "rows_written_total",
				Help:      "Total number of data rows written by successful builds",
			},
		),
		sharedStrings: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "xlsx",
				Name:      "shared_strings_total",
				Help:      "Total number of distinct shared strings written by successful builds",
			},
		),
		sheetBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "xlsx",
				Name:      "sheet_bytes_total",
				Help:      "Total number of uncompressed worksheet bytes written by successful builds",
			},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "xlsx",
				Name:      "build_duration_seconds",
				Help:      "Duration of workbook builds in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"result"},
		),
	}
}

// BuildStats summarizes one build.
type BuildStats struct {
	Rows          int
	SharedStrings int
	SheetBytes    int64
	Duration      time.Duration
}

// ObserveSuccess records a successful build.
func (c *Collector) ObserveSuccess(stats BuildStats) {
	if c == nil {
		return
	}

	c.builds.WithLabelValues(ResultSuccess).Inc()
	c.duration.WithLabelValues(ResultSuccess).Observe(stats.Duration.Seconds())
	c.rows.Add(float64(stats.Rows))
	c.sharedStrings.Add(float64(stats.SharedStrings))
	c.sheetBytes.Add(float64(stats.SheetBytes))
}

// ObserveFailure records a failed build.
func (c *Collector) ObserveFailure(d time.Duration) {
	if c == nil {
		return
	}

	c.builds.WithLabelValues(ResultFailure).Inc()
	c.duration.WithLabelValues(ResultFailure).Observe(d.Seconds())
}
