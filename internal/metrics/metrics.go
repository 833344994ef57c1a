// Package metrics exposes Prometheus metrics and a small status API for a
// running fetch.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mediafetch"

// Metrics holds the collectors of one process. Each instance owns its
// registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	Outcomes        *prometheus.CounterVec
	BytesDownloaded prometheus.Counter
	TransferSeconds prometheus.Histogram
	Evictions       prometheus.Counter
	EvictedBytes    prometheus.Counter
	DirectoryBytes  prometheus.Gauge
	CheckpointSaves *prometheus.CounterVec
	State           *prometheus.GaugeVec
	Runs            *prometheus.CounterVec
}

// New creates and registers the collectors, plus the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "candidates_total",
				Help:      "Candidates processed, by outcome.",
			},
			[]string{"outcome"},
		),
		BytesDownloaded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "downloaded_bytes_total",
				Help:      "Bytes written by completed downloads.",
			},
		),
		TransferSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transfer_duration_seconds",
				Help:      "Duration of completed downloads.",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
			},
		),
		Evictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quota_evicted_files_total",
				Help:      "Files deleted to stay under the disk quota.",
			},
		),
		EvictedBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quota_evicted_bytes_total",
				Help:      "Bytes freed by quota sweeps.",
			},
		),
		DirectoryBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "directory_bytes",
				Help:      "Download directory usage after the last quota sweep.",
			},
		),
		CheckpointSaves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkpoint_saves_total",
				Help:      "Checkpoint writes, by result.",
			},
			[]string{"result"},
		),
		State: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "engine_state",
				Help:      "1 for the state the engine is in, 0 otherwise.",
			},
			[]string{"state"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Finished runs, by result.",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.Outcomes,
		m.BytesDownloaded,
		m.TransferSeconds,
		m.Evictions,
		m.EvictedBytes,
		m.DirectoryBytes,
		m.CheckpointSaves,
		m.State,
		m.Runs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
