// Package metrics holds the Prometheus collectors shared by the scan/load pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FilesScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dupechecker_files_scanned_total",
		Help: "Total number of allow-listed video files found by scans",
	})

	FilesLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dupechecker_files_loaded_total",
		Help: "Total number of files processed by the metadata loader",
	}, []string{"status"})

	DurationProbes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dupechecker_duration_probes_total",
		Help: "Duration extraction attempts by strategy and outcome",
	}, []string{"source", "result"})

	ProbeCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dupechecker_probe_cache_hits_total",
		Help: "Durations served from the probe cache",
	})

	LoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dupechecker_load_duration_seconds",
		Help:    "Duration of scan-and-load runs in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})

	CatalogSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dupechecker_catalog_files",
		Help: "Number of records in the current catalog",
	})

	Deletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dupechecker_deletes_total",
		Help: "File delete requests by outcome",
	}, []string{"status"})
)
