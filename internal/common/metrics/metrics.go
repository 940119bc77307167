package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Fitment resolution metrics.
var (
	// ResolutionsTotal counts resolution calls by entry point and outcome (matched, no_match, error).
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitment_resolutions_total",
			Help: "Total number of vehicle resolutions by entry point and outcome",
		},
		[]string{"entry", "outcome"},
	)

	ResolutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitment_resolution_duration_seconds",
			Help:    "Duration of vehicle resolution calls in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"entry"},
	)

	MatchConfidence = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitment_match_confidence",
			Help:    "Confidence of returned matches by method",
			Buckets: []float64{0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1},
		},
		[]string{"method"},
	)

	// CatalogLoads counts catalog cache loads by result (hit, refreshed, stale, failed).
	CatalogLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitment_catalog_loads_total",
			Help: "Catalog cache loads by result",
		},
		[]string{"result"},
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitment_catalog_vehicles",
			Help: "Number of vehicles in the current catalog snapshot",
		},
	)

	// MappingLookups counts learned-mapping reads by tier and result (hit, miss, error).
	MappingLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitment_mapping_lookups_total",
			Help: "Learned vendor-tag mapping lookups by tier and result",
		},
		[]string{"tier", "result"},
	)

	MappingWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitment_mapping_write_failures_total",
			Help: "Learned mapping writes that failed and were skipped",
		},
	)
)
