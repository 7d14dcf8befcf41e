package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	snapshotsIngested *prometheus.CounterVec
	benchmarksSkipped *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	latency           *prometheus.HistogramVec
}

// New creates a recorder registered with the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		snapshotsIngested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalytics_snapshots_ingested_total",
				Help: "Total number of snapshots written or published by ingestion",
			},
			[]string{"category"},
		),
		benchmarksSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalytics_benchmarks_skipped_total",
				Help: "Benchmark ids skipped because no feed serves them",
			},
			[]string{"benchmark"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalytics_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalytics_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordSnapshotsIngested(category string, n int) {
	r.snapshotsIngested.WithLabelValues(category).Add(float64(n))
}

func (r *Recorder) RecordBenchmarkSkipped(benchmark string) {
	r.benchmarksSkipped.WithLabelValues(benchmark).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
