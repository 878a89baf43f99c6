// Package telemetry adapts the engine's metrics hooks to monitoring systems.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Options configure the Prometheus collector.
type Options struct {
	// Namespace prefixes every metric name.
	Namespace string
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Namespace: "signspace",
	}
}

// PrometheusCollector implements signspace.MetricsCollector on top of
// prometheus/client_golang.
//
// Metrics:
//
//	<ns>_operations_total{op,status}   counter
//	<ns>_operation_seconds{op}         histogram
//	<ns>_query_results                 histogram
//	<ns>_validation_issues             histogram
type PrometheusCollector struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	results    prometheus.Histogram
	issues     prometheus.Histogram
}

// NewPrometheusCollector creates a collector and registers its metrics with
// reg. Pass prometheus.DefaultRegisterer for the process-wide registry.
func NewPrometheusCollector(reg prometheus.Registerer, optFns ...func(o *Options)) *PrometheusCollector {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	factory := promauto.With(reg)
	return &PrometheusCollector{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "operations_total",
			Help:      "Engine operations by kind and outcome.",
		}, []string{"op", "status"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "operation_seconds",
			Help:      "Engine operation latency.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"op"}),
		results: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "query_results",
			Help:      "References returned per proximity query.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		issues: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "validation_issues",
			Help:      "Issues detected per coherence validation run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}
}

func (p *PrometheusCollector) record(op string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.operations.WithLabelValues(op, status).Inc()
	p.durations.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordAddReference implements signspace.MetricsCollector.
func (p *PrometheusCollector) RecordAddReference(duration time.Duration, err error) {
	p.record("add_reference", duration, err)
}

// RecordUpdateReference implements signspace.MetricsCollector.
func (p *PrometheusCollector) RecordUpdateReference(duration time.Duration, err error) {
	p.record("update_reference", duration, err)
}

// RecordRemoveReference implements signspace.MetricsCollector.
func (p *PrometheusCollector) RecordRemoveReference(duration time.Duration, err error) {
	p.record("remove_reference", duration, err)
}

// RecordConnect implements signspace.MetricsCollector.
func (p *PrometheusCollector) RecordConnect(duration time.Duration, err error) {
	p.record("connect", duration, err)
}

// RecordQuery implements signspace.MetricsCollector.
func (p *PrometheusCollector) RecordQuery(results int, duration time.Duration, err error) {
	p.record("query", duration, err)
	if err == nil {
		p.results.Observe(float64(results))
	}
}

// RecordValidate implements signspace.MetricsCollector.
func (p *PrometheusCollector) RecordValidate(issues int, duration time.Duration, err error) {
	p.record("validate", duration, err)
	if err == nil {
		p.issues.Observe(float64(issues))
	}
}
