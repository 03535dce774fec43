package strarena

import (
	"errors"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    getCounter   prometheus.Counter
//	    getHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordGet(bytes int, duration time.Duration, err error) {
//	    p.getCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordGet is called after each Get.
	// bytes is the record footprint requested from the arena (0 if the call
	// failed before sizing), err is nil if successful.
	RecordGet(bytes int, duration time.Duration, err error)

	// RecordReset is called after each Reset.
	RecordReset(duration time.Duration, err error)

	// RecordFree is called when a pool releases its arena.
	RecordFree(duration time.Duration, err error)

	// RecordFork is called after each Fork.
	RecordFork(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordGet(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordReset(time.Duration, error)    {}
func (NoopMetricsCollector) RecordFree(time.Duration, error)     {}
func (NoopMetricsCollector) RecordFork(time.Duration, error)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	GetCount      atomic.Int64
	GetErrors     atomic.Int64
	GetExhausted  atomic.Int64
	GetBytes      atomic.Int64
	GetTotalNanos atomic.Int64
	ResetCount    atomic.Int64
	ResetErrors   atomic.Int64
	FreeCount     atomic.Int64
	FreeErrors    atomic.Int64
	ForkCount     atomic.Int64
	ForkErrors    atomic.Int64
}

// RecordGet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGet(bytes int, duration time.Duration, err error) {
	b.GetCount.Add(1)
	b.GetTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.GetErrors.Add(1)
		if errors.Is(err, ErrExhausted) {
			b.GetExhausted.Add(1)
		}
		return
	}
	b.GetBytes.Add(int64(bytes))
}

// RecordReset implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReset(duration time.Duration, err error) {
	b.ResetCount.Add(1)
	if err != nil {
		b.ResetErrors.Add(1)
	}
}

// RecordFree implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFree(duration time.Duration, err error) {
	b.FreeCount.Add(1)
	if err != nil {
		b.FreeErrors.Add(1)
	}
}

// RecordFork implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFork(duration time.Duration, err error) {
	b.ForkCount.Add(1)
	if err != nil {
		b.ForkErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		GetCount:     b.GetCount.Load(),
		GetErrors:    b.GetErrors.Load(),
		GetExhausted: b.GetExhausted.Load(),
		GetBytes:     b.GetBytes.Load(),
		GetAvgNanos:  b.getAvgGetNanos(),
		ResetCount:   b.ResetCount.Load(),
		ResetErrors:  b.ResetErrors.Load(),
		FreeCount:    b.FreeCount.Load(),
		FreeErrors:   b.FreeErrors.Load(),
		ForkCount:    b.ForkCount.Load(),
		ForkErrors:   b.ForkErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgGetNanos() int64 {
	count := b.GetCount.Load()
	if count == 0 {
		return 0
	}
	return b.GetTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	GetCount     int64
	GetErrors    int64
	GetExhausted int64
	GetBytes     int64
	GetAvgNanos  int64
	ResetCount   int64
	ResetErrors  int64
	FreeCount    int64
	FreeErrors   int64
	ForkCount    int64
	ForkErrors   int64
}
