package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsComputed *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	lastScore       *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
	engineUp        prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsComputed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "squeezewatch_signals_computed_total",
				Help: "Total number of squeeze signals computed",
			},
			[]string{"trend"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "squeezewatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "squeezewatch_last_score",
				Help: "Last computed squeeze score for a ticker",
			},
			[]string{"ticker"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "squeezewatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		engineUp: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "squeezewatch_engine_available",
				Help: "Whether the scoring engine is reachable (1) or not (0)",
			},
		),
	}
}

// RecordSignalComputed records a computed signal by trend.
func (r *Recorder) RecordSignalComputed(trend string) {
	r.signalsComputed.WithLabelValues(trend).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastScore records the last composite score for a ticker.
func (r *Recorder) RecordLastScore(ticker string, score float64) {
	r.lastScore.WithLabelValues(ticker).Set(score)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordEngineUp records engine reachability.
func (r *Recorder) RecordEngineUp(up bool) {
	if up {
		r.engineUp.Set(1)
	} else {
		r.engineUp.Set(0)
	}
}
