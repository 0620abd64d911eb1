// Package metrics provides Prometheus instrumentation for featurepipe
// pipelines.
//
// # Overview
//
// Every processor pass is timed and counted under the pipeline's name, the
// processor's name and the phase ("fit" or "transform"). After a fit the
// size of each column group is published as a gauge.
//
// # Basic Usage
//
//	collector := metrics.NewCollector("hotels")
//
//	timer := metrics.NewTimer()
//	out, err := proc.Transform(ctx, tbl)
//	if err != nil {
//	    collector.ObserveProcessor("cast", metrics.PhaseTransform, timer.Stop(), 0, "cast")
//	    return err
//	}
//	collector.ObserveProcessor("cast", metrics.PhaseTransform, timer.Stop(), out.NumRows(), "")
//
// Metrics register with the default registry; the CLI can dump them with
// WriteTextfile when there is no scrape endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Phases a processor runs in
const (
	PhaseFit       = "fit"
	PhaseTransform = "transform"
)

// Column groups reported by SetColumnGroups
const (
	GroupNumerical            = "numerical"
	GroupCategorical          = "categorical"
	GroupNumericalCategorical = "numerical_categorical"
)

var (
	// ProcessorDuration tracks how long each processor pass takes in seconds.
	// Labels: pipeline, processor, phase
	ProcessorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "featurepipe_processor_duration_seconds",
			Help: "Processor pass duration in seconds",
			Buckets: []float64{
				1e-5, // 10μs - metadata-only stages
				1e-4, // 100μs
				1e-3, // 1ms - small tables
				1e-2, // 10ms
				1e-1, // 100ms - casts over large tables
				1,    // 1s
				10,   // 10s - distinct counts over wide tables
			},
		},
		[]string{"pipeline", "processor", "phase"},
	)

	// ProcessorErrors counts failed processor passes.
	// Labels: pipeline, processor, phase, type (error category)
	ProcessorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "featurepipe_processor_errors_total",
			Help: "Total number of failed processor passes",
		},
		[]string{"pipeline", "processor", "phase", "type"},
	)

	// RowsProcessed counts rows leaving each processor.
	// Labels: pipeline, processor, phase
	RowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "featurepipe_rows_processed_total",
			Help: "Total number of rows produced by processors",
		},
		[]string{"pipeline", "processor", "phase"},
	)

	// ColumnGroups holds the size of each column group after the last fit.
	// Labels: pipeline, group
	ColumnGroups = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "featurepipe_column_group_size",
			Help: "Number of columns in each classification group after the last fit",
		},
		[]string{"pipeline", "group"},
	)
)

// Collector records metrics for one named pipeline
type Collector struct {
	pipeline string
}

// NewCollector creates a collector labelling every sample with pipeline
func NewCollector(pipeline string) *Collector {
	return &Collector{pipeline: pipeline}
}

// Pipeline returns the pipeline label
func (c *Collector) Pipeline() string {
	return c.pipeline
}

// ObserveProcessor records one processor pass. errType is empty for a
// successful pass, in which case rows is added to RowsProcessed.
func (c *Collector) ObserveProcessor(processor, phase string, d time.Duration, rows int64, errType string) {
	ProcessorDuration.WithLabelValues(c.pipeline, processor, phase).Observe(d.Seconds())
	if errType != "" {
		ProcessorErrors.WithLabelValues(c.pipeline, processor, phase, errType).Inc()
		return
	}
	RowsProcessed.WithLabelValues(c.pipeline, processor, phase).Add(float64(rows))
}

// SetColumnGroups publishes the column group sizes
func (c *Collector) SetColumnGroups(numerical, categorical, numericalCategorical int) {
	ColumnGroups.WithLabelValues(c.pipeline, GroupNumerical).Set(float64(numerical))
	ColumnGroups.WithLabelValues(c.pipeline, GroupCategorical).Set(float64(categorical))
	ColumnGroups.WithLabelValues(c.pipeline, GroupNumericalCategorical).Set(float64(numericalCategorical))
}

// WriteTextfile writes every metric in the default gatherer to path in the
// text exposition format, for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// Timer measures the duration of a single operation
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since creation. It can be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
