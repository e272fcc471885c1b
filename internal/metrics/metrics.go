package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "grcdesk"
)

var (
	exportDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

	// Export Metrics
	ReportExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "report_exports_total",
		Help:      "Count of report export attempts by outcome.",
	}, []string{"report", "format", "status"})

	ReportExportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "report_export_duration_seconds",
		Help:      "Time taken to assemble and serialize one report.",
		Buckets:   exportDurationBuckets,
	}, []string{"report", "format"})

	BulkExportRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bulk_export_runs_total",
		Help:      "Count of bulk export runs by outcome.",
	}, []string{"status"})

	BulkExportProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bulk_export_progress_percent",
		Help:      "Progress of the current or last bulk export run.",
	})

	// Source Metrics
	SourceFetchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_fetch_failures_total",
		Help:      "Count of collection fetches that degraded to an empty collection.",
	}, []string{"source"})
)
