package flatsplit

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus;
// see package prom for a ready-made implementation.
type MetricsCollector interface {
	// RecordSplit is called once per Split call that did not skip.
	// partitions and bytes describe the output, err is nil if successful.
	RecordSplit(partitions int, bytes int64, duration time.Duration, err error)

	// RecordSkip is called when a split returns the original file.
	RecordSkip(reason SkipReason)

	// RecordRotation is called whenever a partition is closed because a cut
	// was taken. bytes is the uncompressed size of the closed partition.
	RecordRotation(index int, bytes int64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSplit(int, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordSkip(SkipReason)                       {}
func (NoopMetricsCollector) RecordRotation(int, int64)                   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SplitCount      atomic.Int64
	SplitErrors     atomic.Int64
	SplitTotalNanos atomic.Int64
	Partitions      atomic.Int64
	Bytes           atomic.Int64
	Skips           atomic.Int64
	Rotations       atomic.Int64
}

// RecordSplit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSplit(partitions int, bytes int64, duration time.Duration, err error) {
	b.SplitCount.Add(1)
	b.SplitTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SplitErrors.Add(1)
		return
	}
	b.Partitions.Add(int64(partitions))
	b.Bytes.Add(bytes)
}

// RecordSkip implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSkip(SkipReason) {
	b.Skips.Add(1)
}

// RecordRotation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRotation(int, int64) {
	b.Rotations.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SplitCount:    b.SplitCount.Load(),
		SplitErrors:   b.SplitErrors.Load(),
		SplitAvgNanos: b.getAvgSplitNanos(),
		Partitions:    b.Partitions.Load(),
		Bytes:         b.Bytes.Load(),
		Skips:         b.Skips.Load(),
		Rotations:     b.Rotations.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSplitNanos() int64 {
	count := b.SplitCount.Load()
	if count == 0 {
		return 0
	}
	return b.SplitTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SplitCount    int64
	SplitErrors   int64
	SplitAvgNanos int64
	Partitions    int64
	Bytes         int64
	Skips         int64
	Rotations     int64
}
