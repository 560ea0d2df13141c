// Package metrics defines the prometheus collectors for ingestion, email sync and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes recorded by SourceFetches.
const (
	OutcomeSuccess   = "success"
	OutcomeHTTPError = "http_error"
	OutcomeTransport = "transport_error"
	OutcomeMalformed = "malformed"
)

var (
	SourceFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_tracker_source_fetches_total",
			Help: "Total number of ATS board fetches by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_tracker_source_fetch_duration_seconds",
			Help:    "Duration of ATS board fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	IngestRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_tracker_ingest_runs_total",
			Help: "Total number of ingestion runs by outcome",
		},
		[]string{"outcome"},
	)

	IngestPostings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "job_tracker_ingest_postings_total",
			Help: "Total number of postings merged into the store",
		},
	)

	IngestNewApplications = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "job_tracker_ingest_new_applications_total",
			Help: "Total number of applications created by ingestion",
		},
	)

	EmailClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_tracker_email_classifications_total",
			Help: "Best email matches per detected status",
		},
		[]string{"status"},
	)

	EmailSyncUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "job_tracker_email_sync_updates_total",
			Help: "Total number of applications updated from email",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_tracker_http_requests_total",
			Help: "Total number of HTTP API requests by route and status code",
		},
		[]string{"route", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_tracker_http_request_duration_seconds",
			Help:    "Duration of HTTP API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)
