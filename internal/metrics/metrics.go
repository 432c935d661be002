// Aurora Sensa - Telemetry Gateway for the Aurora Monitoring Backend
// Copyright 2026 TopHat Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tophatsecurity/aurorasensa-sub002

// Package metrics provides Prometheus metrics for the Aurora gateway and
// relay daemon. Collectors are registered with the default registry via
// promauto and exposed through the relay's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Gateway request metrics
	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aurora_gateway_requests_total",
			Help: "Total number of gateway requests by method and outcome",
		},
		[]string{"method", "outcome"}, // outcome: success, auth_error, not_found, degraded, fatal
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aurora_gateway_request_duration_seconds",
			Help:    "Gateway request duration in seconds, including retries",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	GatewayInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aurora_gateway_in_flight_requests",
			Help: "Current number of requests executing against the Aurora backend",
		},
	)

	GatewayRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aurora_gateway_retries_total",
			Help: "Total number of retry attempts after transient failures",
		},
	)

	// Degradations are responses silently replaced by a shape-appropriate
	// empty value. The counter keeps the masking observable.
	GatewayDegradationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aurora_gateway_degradations_total",
			Help: "Total number of responses degraded to an empty fallback value",
		},
		[]string{"shape"}, // array, object, null
	)

	GatewayCoalescedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aurora_gateway_coalesced_requests_total",
			Help: "Total number of duplicate in-flight GETs served by a shared execution",
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aurora_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aurora_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aurora_cache_evictions_total",
			Help: "Total number of cache evictions (expiry and invalidation)",
		},
		[]string{"cache_type"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aurora_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aurora_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aurora_circuit_breaker_requests_total",
			Help: "Total number of requests seen by the circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	// Relay HTTP metrics
	RelayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aurora_relay_requests_total",
			Help: "Total number of relay HTTP requests",
		},
		[]string{"method", "status_code"},
	)

	RelayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aurora_relay_request_duration_seconds",
			Help:    "Relay request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	// Poller metrics
	PollerRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aurora_poller_refreshes_total",
			Help: "Total number of cache-warming refresh cycles by category and result",
		},
		[]string{"category", "result"},
	)

	PollerLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aurora_poller_last_success_timestamp",
			Help: "Unix timestamp of the last successful refresh per category",
		},
		[]string{"category"},
	)
)
