package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal *prometheus.CounterVec
	mergedPoints *prometheus.CounterVec
	cacheOps     *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	fitDuration  *prometheus.HistogramVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divpulse_fetches_total",
				Help: "Total number of upstream fetch attempts",
			},
			[]string{"dataset", "outcome"},
		),
		mergedPoints: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divpulse_merged_points_total",
				Help: "Total number of points merged into stored datasets",
			},
			[]string{"dataset"},
		),
		cacheOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divpulse_cache_ops_total",
				Help: "Cache operations by outcome",
			},
			[]string{"op", "outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		fitDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "divpulse_regime_fit_duration_seconds",
				Help:    "Duration of regime model fits in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"asset"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "divpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records one upstream fetch attempt and its outcome.
func (r *Recorder) RecordFetch(dataset, outcome string) {
	r.fetchesTotal.WithLabelValues(dataset, outcome).Inc()
}

// RecordMergedPoints records how many points a merge added or replaced.
func (r *Recorder) RecordMergedPoints(dataset string, n int) {
	if n > 0 {
		r.mergedPoints.WithLabelValues(dataset).Add(float64(n))
	}
}

// RecordCache records a cache operation outcome (hit, miss, set, delete).
func (r *Recorder) RecordCache(op, outcome string) {
	r.cacheOps.WithLabelValues(op, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordFitDuration records a regime model fit duration in seconds.
func (r *Recorder) RecordFitDuration(asset string, seconds float64) {
	r.fitDuration.WithLabelValues(asset).Observe(seconds)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
