// Copyright (c) 2026 Kaka HQ. All rights reserved.

/*
Package api assembles the HTTP surface of the DealerDesk API.

# Architecture

The server wires domain handlers onto a chi router behind a fixed middleware
chain. Ordering matters:

 1. RequestID / StructuredLogger: every request gets an ID and a sub-logger
    before anything can fail.
 2. Timeout: a global deadline for the request lifecycle.
 3. CORS: attaches Access-Control headers before any stage that can reject,
    so browser scripts can read even a denial.
 4. RateLimit: sits before authentication so token verification work cannot
    be used to amplify a flood.
 5. PanicRecovery: catches panics from everything below it.
 6. CSRFGuard / Authenticate: the security gates.
*/
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kaka-hq/dealerdesk/internal/obs"
	"github.com/kaka-hq/dealerdesk/internal/orders"
	"github.com/kaka-hq/dealerdesk/internal/platform/config"
	"github.com/kaka-hq/dealerdesk/internal/platform/constants"
	"github.com/kaka-hq/dealerdesk/internal/platform/middleware"
	"github.com/kaka-hq/dealerdesk/internal/platform/ratelimit"
	"github.com/kaka-hq/dealerdesk/internal/platform/sec"
	"github.com/kaka-hq/dealerdesk/internal/users/account"
	"github.com/kaka-hq/dealerdesk/internal/users/auth"
)

// Dependencies carries everything the router needs, constructed in main.
type Dependencies struct {
	Config   *config.Config
	Logger   *slog.Logger
	Verifier middleware.TokenVerifier
	Limiter  *ratelimit.Limiter
	Metrics  *obs.Metrics

	AuthHandler    *auth.Handler
	AccountHandler *account.Handler
	OrdersHandler  *orders.Handler

	// Health probes; nil checks are treated as always-healthy.
	PostgresCheck HealthCheck
	RedisCheck    HealthCheck
}

// NewRouter builds the complete HTTP handler tree.
func NewRouter(deps Dependencies) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(deps.Logger))
	router.Use(chimiddleware.Timeout(constants.GlobalRequestTimeout))
	router.Use(middleware.Instrument(deps.Metrics))
	// CORS runs before the stages that can short-circuit a request, so
	// rejections (429, 403, 401) still carry the Access-Control headers a
	// browser needs to let scripts read the rate-limit metadata.
	router.Use(middleware.CORS(deps.Config))
	router.Use(middleware.RateLimit(deps.Limiter, middleware.RouteClass, deps.Metrics))
	router.Use(middleware.PanicRecovery(deps.Logger))
	router.Use(middleware.CSRFGuard(deps.Config))
	router.Use(middleware.Authenticate(deps.Verifier))

	// Unknown paths answer 401 to unauthenticated callers so the route
	// layout is not probeable without a valid token.
	router.NotFound(middleware.NotFoundHandler())

	// Public operational endpoints.
	router.Get("/health", healthHandler())
	router.Get("/ready", readyHandler(deps.PostgresCheck, deps.RedisCheck))
	router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	// Credential endpoints: the strict rate-limit class, no auth gate.
	router.Mount("/api/auth", deps.AuthHandler.Routes())

	// Protected resources.
	router.Route("/api", func(api chi.Router) {
		api.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireAuth)
			protected.Mount("/orders", deps.OrdersHandler.Routes())
		})

		api.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireRole(sec.RoleAdmin))
			admin.Mount("/admin/users", deps.AccountHandler.Routes())
		})
	})

	return router
}
