// Package metrics collects Prometheus metrics for encoding runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the collectors of one run. Its methods are safe for
// concurrent use by several sessions.
type Collector struct {
	registry *prometheus.Registry

	chunksEncoded  *prometheus.CounterVec
	samplesEncoded *prometheus.CounterVec
	bytesWritten   prometheus.Counter
	sessions       *prometheus.CounterVec
	encodeSeconds  prometheus.Histogram
}

// New creates a Collector backed by its own registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		chunksEncoded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dfpwm_chunks_encoded_total",
			Help: "Number of chunks encoded and written",
		}, []string{"mode"}),
		samplesEncoded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dfpwm_samples_encoded_total",
			Help: "Number of input samples fed to the encoder",
		}, []string{"mode"}),
		bytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "dfpwm_bytes_written_total",
			Help: "Number of encoded bytes written to chunk files",
		}),
		sessions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dfpwm_sessions_total",
			Help: "Number of assets processed, by result",
		}, []string{"result"}),
		encodeSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dfpwm_chunk_encode_seconds",
			Help:    "Time spent encoding a single chunk",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
}

// Registry returns the registry the collectors are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ChunkEncoded records one encoded and persisted chunk.
func (c *Collector) ChunkEncoded(mode string, samples, written int, took time.Duration) {
	c.chunksEncoded.WithLabelValues(mode).Inc()
	c.samplesEncoded.WithLabelValues(mode).Add(float64(samples))
	c.bytesWritten.Add(float64(written))
	c.encodeSeconds.Observe(took.Seconds())
}

// SessionDone records the outcome of one asset.
func (c *Collector) SessionDone(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}

	c.sessions.WithLabelValues(result).Inc()
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}

	return nil
}
