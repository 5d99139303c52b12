package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "creditrisk"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	decisions    *prometheus.CounterVec
	failures     *prometheus.CounterVec
	iterations   *prometheus.HistogramVec
	messagesSent *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
// Call it once per process.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Credit decisions by outcome",
			},
			[]string{"decision"},
		),
		failures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_failures_total",
				Help:      "Per-company analysis failures by stage",
			},
			[]string{"stage"},
		),
		iterations: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "solver_iterations",
				Help:      "Merton solver iterations per solve",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 100},
			},
			[]string{"converged"},
		),
		messagesSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_sent_total",
				Help:      "Assessment records sent to a backend",
			},
			[]string{"backend", "ticker"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordDecision(decision string) {
	r.decisions.WithLabelValues(decision).Inc()
}

func (r *Recorder) RecordFailure(stage string) {
	r.failures.WithLabelValues(stage).Inc()
}

func (r *Recorder) RecordSolverIterations(iterations int, converged bool) {
	r.iterations.WithLabelValues(strconv.FormatBool(converged)).Observe(float64(iterations))
}

// RecordMessageSent records a record sent to a backend.
func (r *Recorder) RecordMessageSent(backend, ticker string) {
	r.messagesSent.WithLabelValues(backend, ticker).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordDecision(string)             {}
func (Nop) RecordFailure(string)              {}
func (Nop) RecordSolverIterations(int, bool)  {}
func (Nop) RecordMessageSent(string, string)  {}
func (Nop) RecordError(string)                {}
func (Nop) RecordLatency(string, float64)     {}
