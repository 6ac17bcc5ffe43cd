// Package prom exports split metrics to Prometheus.
//
// Split runs are usually batch jobs, so besides registering with a
// Registerer the collector can write the node_exporter textfile format.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/flatsplit"
)

const namespace = "flatsplit"

// Collector implements flatsplit.MetricsCollector with Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	splits     *prometheus.CounterVec
	partitions prometheus.Counter
	skips      *prometheus.CounterVec
	rotations  prometheus.Counter
	bytes      prometheus.Histogram
	partBytes  prometheus.Histogram
	duration   prometheus.Histogram
}

var _ flatsplit.MetricsCollector = (*Collector)(nil)

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		splits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "splits_total",
			Help:      "Split runs that streamed the input",
		}, []string{"status"}),
		partitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partitions_total",
			Help:      "Partitions written",
		}),
		skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skips_total",
			Help:      "Split runs that returned the original",
		}, []string{"reason"}),
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rotations_total",
			Help:      "Partition rotations",
		}),
		bytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "split_bytes",
			Help:      "Uncompressed bytes written per split run",
			Buckets:   prometheus.ExponentialBuckets(1<<20, 4, 10),
		}),
		partBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "partition_bytes",
			Help:      "Uncompressed bytes per closed partition",
			Buckets:   prometheus.ExponentialBuckets(1<<20, 4, 10),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "split_duration_seconds",
			Help:      "Duration of split runs",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		}),
	}

	c.registry.MustRegister(
		c.splits,
		c.partitions,
		c.skips,
		c.rotations,
		c.bytes,
		c.partBytes,
		c.duration,
	)
	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// RecordSplit implements flatsplit.MetricsCollector.
func (c *Collector) RecordSplit(partitions int, bytes int64, d time.Duration, err error) {
	c.duration.Observe(d.Seconds())
	if err != nil {
		c.splits.WithLabelValues("error").Inc()
		return
	}
	c.splits.WithLabelValues("success").Inc()
	c.partitions.Add(float64(partitions))
	c.bytes.Observe(float64(bytes))
}

// RecordSkip implements flatsplit.MetricsCollector.
func (c *Collector) RecordSkip(reason flatsplit.SkipReason) {
	c.skips.WithLabelValues(string(reason)).Inc()
}

// RecordRotation implements flatsplit.MetricsCollector.
func (c *Collector) RecordRotation(_ int, bytes int64) {
	c.rotations.Inc()
	c.partBytes.Observe(float64(bytes))
}

// WriteTextfile writes the current values in the text exposition format,
// atomically replacing path.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
