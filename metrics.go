package signspace

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// telemetry subpackage ships a Prometheus implementation.
type MetricsCollector interface {
	// RecordAddReference is called after each add-reference operation.
	// duration is the total time taken, err is nil if successful.
	RecordAddReference(duration time.Duration, err error)

	// RecordUpdateReference is called after each update-reference operation.
	RecordUpdateReference(duration time.Duration, err error)

	// RecordRemoveReference is called after each remove-reference operation.
	RecordRemoveReference(duration time.Duration, err error)

	// RecordConnect is called after each connect or disconnect operation.
	RecordConnect(duration time.Duration, err error)

	// RecordQuery is called after each proximity query.
	// results is the number of references returned.
	RecordQuery(results int, duration time.Duration, err error)

	// RecordValidate is called after each coherence validation run.
	// issues is the number of issues detected.
	RecordValidate(issues int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAddReference(time.Duration, error)    {}
func (NoopMetricsCollector) RecordUpdateReference(time.Duration, error) {}
func (NoopMetricsCollector) RecordRemoveReference(time.Duration, error) {}
func (NoopMetricsCollector) RecordConnect(time.Duration, error)         {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordValidate(int, time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount        atomic.Int64
	AddErrors       atomic.Int64
	AddTotalNanos   atomic.Int64
	UpdateCount     atomic.Int64
	UpdateErrors    atomic.Int64
	RemoveCount     atomic.Int64
	RemoveErrors    atomic.Int64
	ConnectCount    atomic.Int64
	ConnectErrors   atomic.Int64
	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	QueryResults    atomic.Int64
	QueryTotalNanos atomic.Int64
	ValidateCount   atomic.Int64
	ValidateErrors  atomic.Int64
	ValidateIssues  atomic.Int64
}

// RecordAddReference implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAddReference(duration time.Duration, err error) {
	b.AddCount.Add(1)
	b.AddTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordUpdateReference implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpdateReference(duration time.Duration, err error) {
	b.UpdateCount.Add(1)
	if err != nil {
		b.UpdateErrors.Add(1)
	}
}

// RecordRemoveReference implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemoveReference(duration time.Duration, err error) {
	b.RemoveCount.Add(1)
	if err != nil {
		b.RemoveErrors.Add(1)
	}
}

// RecordConnect implements MetricsCollector.
func (b *BasicMetricsCollector) RecordConnect(duration time.Duration, err error) {
	b.ConnectCount.Add(1)
	if err != nil {
		b.ConnectErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(results int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryResults.Add(int64(results))
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordValidate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordValidate(issues int, duration time.Duration, err error) {
	b.ValidateCount.Add(1)
	b.ValidateIssues.Add(int64(issues))
	if err != nil {
		b.ValidateErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:       b.AddCount.Load(),
		AddErrors:      b.AddErrors.Load(),
		AddAvgNanos:    b.getAvgAddNanos(),
		UpdateCount:    b.UpdateCount.Load(),
		UpdateErrors:   b.UpdateErrors.Load(),
		RemoveCount:    b.RemoveCount.Load(),
		RemoveErrors:   b.RemoveErrors.Load(),
		ConnectCount:   b.ConnectCount.Load(),
		ConnectErrors:  b.ConnectErrors.Load(),
		QueryCount:     b.QueryCount.Load(),
		QueryErrors:    b.QueryErrors.Load(),
		QueryResults:   b.QueryResults.Load(),
		QueryAvgNanos:  b.getAvgQueryNanos(),
		ValidateCount:  b.ValidateCount.Load(),
		ValidateErrors: b.ValidateErrors.Load(),
		ValidateIssues: b.ValidateIssues.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgAddNanos() int64 {
	count := b.AddCount.Load()
	if count == 0 {
		return 0
	}
	return b.AddTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgQueryNanos() int64 {
	count := b.QueryCount.Load()
	if count == 0 {
		return 0
	}
	return b.QueryTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount       int64
	AddErrors      int64
	AddAvgNanos    int64
	UpdateCount    int64
	UpdateErrors   int64
	RemoveCount    int64
	RemoveErrors   int64
	ConnectCount   int64
	ConnectErrors  int64
	QueryCount     int64
	QueryErrors    int64
	QueryResults   int64
	QueryAvgNanos  int64
	ValidateCount  int64
	ValidateErrors int64
	ValidateIssues int64
}
