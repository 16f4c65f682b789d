package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the dataset builder.
type Metrics struct {
	// Per-sequence transform metrics
	SequencesProcessed prometheus.Counter
	FramesProduced     prometheus.Counter
	TransformDuration  prometheus.Histogram

	// Build-level metrics
	BuildsCompleted *prometheus.CounterVec
	BuildDuration   prometheus.Histogram
	ExamplesIndexed prometheus.Gauge
	ShortSequences  prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SequencesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timit_sequences_processed_total",
			Help: "Total number of sequences run through the frame transform",
		}),
		FramesProduced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timit_frames_produced_total",
			Help: "Total number of full frames produced by segmentation",
		}),
		TransformDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "timit_sequence_transform_duration_seconds",
			Help:    "Time spent transforming a single sequence",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~0.4s
		}),
		BuildsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "timit_builds_completed_total",
			Help: "Total number of completed dataset builds",
		}, []string{"which_set"}),
		BuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "timit_build_duration_seconds",
			Help:    "End-to-end duration of a dataset build",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~7 minutes
		}),
		ExamplesIndexed: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "timit_examples_indexed",
			Help: "Number of training windows in the most recent visiting order",
		}),
		ShortSequences: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timit_short_sequences_total",
			Help: "Sequences too short to contribute any training window",
		}),
	}
}

// RecordSequence records one completed per-sequence transform.
func (m *Metrics) RecordSequence(frames int, durationSeconds float64) {
	m.SequencesProcessed.Inc()
	m.FramesProduced.Add(float64(frames))
	m.TransformDuration.Observe(durationSeconds)
}

// RecordBuild records one completed dataset build.
func (m *Metrics) RecordBuild(whichSet string, durationSeconds float64, examples int) {
	m.BuildsCompleted.WithLabelValues(whichSet).Inc()
	m.BuildDuration.Observe(durationSeconds)
	m.ExamplesIndexed.Set(float64(examples))
}

// RecordShortSequences counts sequences excluded from the visiting order.
func (m *Metrics) RecordShortSequences(count int) {
	if count > 0 {
		m.ShortSequences.Add(float64(count))
	}
}
