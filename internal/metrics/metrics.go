// Package metrics exports reconciliation runs as Prometheus metrics.
//
// A Recorder is fed from client hooks:
//
//	rec := metrics.NewRecorder(prometheus.NewRegistry())
//	rec.Attach(client)
//	http.Handle("/metrics", rec.Handler())
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/storesync"
	"github.com/agentstation/storesync/pkg/constants"
	pkgsync "github.com/agentstation/storesync/pkg/sync"
)

const namespace = "storesync"

// Run status label values.
const (
	StatusOK        = "ok"
	StatusTruncated = "truncated"
	StatusAborted   = "aborted"
)

// Recorder holds the storesync collectors.
type Recorder struct {
	gatherer prometheus.Gatherer

	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	lastSuccess     prometheus.Gauge
	operationsTotal *prometheus.CounterVec
	attempts        prometheus.Histogram
	skippedTotal    *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them with reg. When reg is
// also a Gatherer, Handler serves it; otherwise Handler serves the default
// gatherer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of reconciliation runs by final status.",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Histogram of reconciliation run durations.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last run that finished without a fatal error.",
			},
		),
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of storefront operations by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		attempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_attempts",
				Help:      "Histogram of storefront calls made per operation.",
				Buckets:   prometheus.LinearBuckets(1, 1, constants.MaxAttempts),
			},
		),
		skippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skipped_inputs_total",
				Help:      "Total number of input records skipped by source.",
			},
			[]string{"source"},
		),
	}

	reg.MustRegister(r.runsTotal, r.runDuration, r.lastSuccess, r.operationsTotal, r.attempts, r.skippedTotal)

	r.gatherer = prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		r.gatherer = g
	}
	return r
}

// Attach registers the recorder on a client's hooks.
func (r *Recorder) Attach(h storesync.Hooks) {
	h.OnOperation(r.ObserveOperation)
	h.OnRunComplete(r.ObserveRun)
}

// ObserveOperation records one finished storefront operation.
func (r *Recorder) ObserveOperation(o pkgsync.Outcome) {
	r.operationsTotal.WithLabelValues(string(o.Op), string(o.State)).Inc()
	if o.Attempts > 0 {
		r.attempts.Observe(float64(o.Attempts))
	}
}

// ObserveRun records one finished run.
func (r *Recorder) ObserveRun(result *pkgsync.Result) {
	status := runStatus(result)
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.Observe(result.Duration().Seconds())
	if status != StatusAborted && !result.FinishedAt.IsZero() {
		r.lastSuccess.Set(float64(result.FinishedAt.Unix()))
	}
	for _, skip := range result.Skipped {
		r.skippedTotal.WithLabelValues(skip.Source).Inc()
	}
}

func runStatus(result *pkgsync.Result) string {
	switch {
	case result.Fatal != nil:
		return StatusAborted
	case result.Truncated:
		return StatusTruncated
	}
	return StatusOK
}

// Handler returns an HTTP handler exposing the recorder's gatherer.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
