/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry exposes Prometheus metrics and OpenTelemetry tracing
// helpers.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// API metrics.
var (
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "courtcycle_api_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtcycle_api_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "endpoint", "status"})

	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "courtcycle_api_active_connections",
		Help: "In-flight HTTP requests.",
	})
)

// Database metrics.
var (
	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "courtcycle_database_query_duration_seconds",
		Help:    "Database operation latency.",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation", "table"})

	DatabaseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtcycle_database_errors_total",
		Help: "Failed database operations.",
	}, []string{"operation", "table"})

	DatabaseConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "courtcycle_database_connections_active",
		Help: "Open database connections.",
	})
)

// Planner metrics.
var (
	PlansGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtcycle_plans_generated_total",
		Help: "Week plans generated by player level.",
	}, []string{"level"})

	PlanBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "courtcycle_plan_build_duration_seconds",
		Help:    "Time spent building and storing a plan.",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})

	BlockFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtcycle_block_fallbacks_total",
		Help: "Blocks that got a generic description because no drill matched.",
	}, []string{"category"})

	ProgressionAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtcycle_progression_adjustments_total",
		Help: "Plans whose load was lowered, by adjustment phase.",
	}, []string{"phase"})

	FeedbackRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courtcycle_feedback_recorded_total",
		Help: "Session feedback entries stored.",
	})

	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtcycle_exports_total",
		Help: "Plan exports by format.",
	}, []string{"format"})
)

// Infrastructure metrics.
var (
	CacheOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtcycle_cache_operations_total",
		Help: "Cache lookups and writes by operation and result.",
	}, []string{"operation", "result"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtcycle_events_published_total",
		Help: "Events published by type and transport.",
	}, []string{"event", "transport"})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
