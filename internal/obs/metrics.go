// Copyright (c) 2026 Kaka HQ. All rights reserved.

// Package obs exposes operational metrics for the DealerDesk API.
//
// # Architecture
//
// Metrics live on a per-instance [prometheus.Registry] rather than the
// package-level default registry. The instance is constructed once in main
// and injected where needed, which keeps test instances fully isolated.
package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every counter and histogram the API reports.
type Metrics struct {
	registry *prometheus.Registry

	// HTTPRequestsTotal counts finished requests by method and status class.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration tracks request latencies in seconds.
	HTTPRequestDuration *prometheus.HistogramVec

	// LoginsTotal counts login attempts by result (success, failure).
	LoginsTotal *prometheus.CounterVec

	// TokenRefreshesTotal counts refresh attempts by result
	// (rotated, rejected, reuse_detected).
	TokenRefreshesTotal *prometheus.CounterVec

	// RateLimitRejectionsTotal counts denied requests by route class.
	RateLimitRejectionsTotal *prometheus.CounterVec
}

// NewMetrics constructs and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	metrics := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dealerdesk_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dealerdesk_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dealerdesk_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		TokenRefreshesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dealerdesk_token_refreshes_total",
			Help: "Refresh-token rotations by result.",
		}, []string{"result"}),
		RateLimitRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dealerdesk_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter, per route class.",
		}, []string{"class"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.HTTPRequestsTotal,
		metrics.HTTPRequestDuration,
		metrics.LoginsTotal,
		metrics.TokenRefreshesTotal,
		metrics.RateLimitRejectionsTotal,
	)

	return metrics
}

// Handler returns the /metrics scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
