package workflow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides Prometheus metrics for pipeline execution, all namespaced
// with "reviewflow_":
//
//   - stage_latency_ms (histogram): stage duration from prompt construction
//     to shaped output. Labels: stage, status (success/error).
//   - stage_retries_total (counter): re-generations after malformed output.
//     Labels: stage.
//   - inflight_reviews (gauge): reviews currently executing.
//   - reviews_total (counter): completed reviews. Labels: status
//     (success or the terminal error code).
//
// A nil *Metrics is valid and records nothing, so wiring is optional.
type Metrics struct {
	stageLatency *prometheus.HistogramVec
	stageRetries *prometheus.CounterVec
	inflight     prometheus.Gauge
	reviews      *prometheus.CounterVec
}

// NewMetrics creates and registers all pipeline metrics with the given
// registry. A nil registry falls back to prometheus.DefaultRegisterer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		stageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reviewflow",
			Name:      "stage_latency_ms",
			Help:      "Stage execution duration in milliseconds",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 30000, 60000},
		}, []string{"stage", "status"}),
		stageRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reviewflow",
			Name:      "stage_retries_total",
			Help:      "Re-generations triggered by malformed stage output",
		}, []string{"stage"}),
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "reviewflow",
			Name:      "inflight_reviews",
			Help:      "Reviews currently executing",
		}),
		reviews: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reviewflow",
			Name:      "reviews_total",
			Help:      "Completed reviews by terminal status",
		}, []string{"status"}),
	}
}

// ObserveStage records a stage's duration and outcome.
func (m *Metrics) ObserveStage(stage string, latency time.Duration, status string) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(stage, status).Observe(float64(latency.Milliseconds()))
}

// IncStageRetry counts a malformed-output re-generation for a stage.
func (m *Metrics) IncStageRetry(stage string) {
	if m == nil {
		return
	}
	m.stageRetries.WithLabelValues(stage).Inc()
}

// ReviewStarted increments the in-flight gauge.
func (m *Metrics) ReviewStarted() {
	if m == nil {
		return
	}
	m.inflight.Inc()
}

// ReviewFinished decrements the in-flight gauge and counts the terminal
// status ("success" or an error code).
func (m *Metrics) ReviewFinished(status string) {
	if m == nil {
		return
	}
	m.inflight.Dec()
	m.reviews.WithLabelValues(status).Inc()
}
