// Package metrics provides Prometheus metrics for the click counter.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "clickcounter"

// Statement kinds observed by the duration histogram.
const (
	KindHydrate = "hydrate"
	KindInsert  = "insert"
	KindDelete  = "delete"
)

// Recorder holds the click counter's metrics on its own registry.
// Implements engine.Metrics.
type Recorder struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	tapsRecorded      prometheus.Counter
	tapFailures       prometheus.Counter
	resets            prometheus.Counter
	resetFailures     prometheus.Counter
	historySize       prometheus.Gauge
	statementDuration *prometheus.HistogramVec
}

// Option applies a configuration option to the Recorder.
type Option func(*Recorder)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom buckets for the statement duration histogram.
func WithHistogramBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = buckets
		}
	}
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(r *Recorder) {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// New creates a Recorder with a fresh registry.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: defaultNamespace,
		buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		registry:  prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.initializeMetrics()
	return r
}

func (r *Recorder) initializeMetrics() {
	auto := promauto.With(r.registry)

	r.tapsRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "taps_recorded_total",
		Help:      "Total number of taps persisted",
	})

	r.tapFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "tap_failures_total",
		Help:      "Total number of taps dropped because the insert failed",
	})

	r.resets = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "resets_total",
		Help:      "Total number of successful resets",
	})

	r.resetFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "reset_failures_total",
		Help:      "Total number of resets that failed to delete",
	})

	r.historySize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "history_size",
		Help:      "Number of clicks in the in-memory history",
	})

	r.statementDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "statement_duration_seconds",
		Help:      "Duration of click table statements",
		Buckets:   r.buckets,
	}, []string{"kind"})
}

// TapRecorded counts a persisted tap.
func (r *Recorder) TapRecorded() { r.tapsRecorded.Inc() }

// TapFailed counts a dropped tap.
func (r *Recorder) TapFailed() { r.tapFailures.Inc() }

// ResetDone counts a successful reset.
func (r *Recorder) ResetDone() { r.resets.Inc() }

// ResetFailed counts a failed reset.
func (r *Recorder) ResetFailed() { r.resetFailures.Inc() }

// HistorySize sets the history gauge.
func (r *Recorder) HistorySize(n int) { r.historySize.Set(float64(n)) }

// ObserveStatement records how long one statement of kind took.
func (r *Recorder) ObserveStatement(kind string, d time.Duration) {
	r.statementDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// Registry returns the registry the metrics live on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
