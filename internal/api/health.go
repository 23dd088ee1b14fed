// Copyright (c) 2026 Kaka HQ. All rights reserved.

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/kaka-hq/dealerdesk/internal/platform/constants"
	"github.com/kaka-hq/dealerdesk/internal/platform/respond"
)

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

// probeTimeout bounds each readiness probe so a hung dependency cannot
// stall the endpoint past the load balancer's own timeout.
const probeTimeout = 2 * time.Second

// healthHandler answers the liveness probe. It only proves the process is
// serving; dependency state is the readiness probe's job.
func healthHandler() http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		respond.JSON(writer, http.StatusOK, map[string]string{
			constants.FieldStatus: "ok",
			"version":             constants.AppVersion,
		})
	}
}

// readyHandler answers the readiness probe by pinging Postgres and Redis.
// Any failing dependency yields 503 so the instance is pulled from rotation.
func readyHandler(checks ...HealthCheck) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		ctx, cancel := context.WithTimeout(request.Context(), probeTimeout)
		defer cancel()

		for _, check := range checks {
			if check == nil {
				continue
			}
			if err := check(ctx); err != nil {
				respond.JSON(writer, http.StatusServiceUnavailable, map[string]string{
					constants.FieldStatus: "degraded",
				})
				return
			}
		}

		respond.JSON(writer, http.StatusOK, map[string]string{
			constants.FieldStatus: "ready",
		})
	}
}
