// Copyright (c) 2026 Kaka HQ. All rights reserved.

/*
Package middleware provides the cross-cutting HTTP processing chain.

It acts as a series of decorators around the standard http.Handler, injecting
traceability, safety, and security into every request lifecycle.

Standard Stack:

  - Trace: RequestID generation for log correlation.
  - Log: Structured Activity logging (slog).
  - Guard: Rate limiting, CSRF origin checks, and CORS validation.
  - Safe: Panic recovery to prevent server crashes.

Ordering is part of the security design: CORS headers are attached before any
stage that can reject, so even denials are readable by browser scripts; the
rate limiter always runs before any authentication work so abusive traffic is
rejected at minimal cost; and a request failing any stage short-circuits
immediately — later stages never execute.
*/
package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kaka-hq/dealerdesk/internal/obs"
	"github.com/kaka-hq/dealerdesk/internal/platform/apperr"
	"github.com/kaka-hq/dealerdesk/internal/platform/constants"
	"github.com/kaka-hq/dealerdesk/internal/platform/ctxutil"
	"github.com/kaka-hq/dealerdesk/internal/platform/ratelimit"
	requestutil "github.com/kaka-hq/dealerdesk/internal/platform/request"
	"github.com/kaka-hq/dealerdesk/internal/platform/respond"
)

// # Request Tracing

// RequestID attaches a correlation ID to every request for log tracing.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Check if the client already provided an ID
			requestID := request.Header.Get(constants.HeaderXRequestID)

			// 2. Generate a new one if missing (using UUID v7 for time-sortable properties)
			if requestID == "" {
				uuidV7, err := uuid.NewV7()
				if err != nil {
					requestID = uuid.New().String()
				} else {
					requestID = uuidV7.String()
				}
			}

			// 3. Inject into context and response headers
			ctx := ctxutil.WithRequestID(request.Context(), requestID)
			writer.Header().Set(constants.HeaderXRequestID, requestID)

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Activity Logging

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(code int) {
	recorder.status = code
	recorder.ResponseWriter.WriteHeader(code)
}

// StructuredLogger logs every request status and performance metrics.
// It also injects a request-specific logger into the context.
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			startTime := time.Now()
			rid := ctxutil.GetRequestID(request.Context())
			ip := requestutil.ClientIP(request)

			// 1. Create a sub-logger for this specific request
			requestLogger := logger.With(
				slog.String("request_id", rid),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String("ip", ip),
			)

			// 2. Inject this logger into the context for downstream use
			ctx := ctxutil.WithLogger(request.Context(), requestLogger)
			wrappedWriter := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}

			// 3. Proceed to downstream handlers with the enriched context
			next.ServeHTTP(wrappedWriter, request.WithContext(ctx))

			// 4. Final log entry after the request is finished
			latency := time.Since(startTime).Milliseconds()
			logLevel := slog.LevelInfo

			if wrappedWriter.status >= 500 {
				logLevel = slog.LevelError
			} else if wrappedWriter.status >= 400 {
				logLevel = slog.LevelWarn
			}

			// Enlist final response metrics
			logAttrs := []any{
				slog.Int("status", wrappedWriter.status),
				slog.Int64("latency_ms", latency),
				slog.String("user_agent", request.UserAgent()),
			}

			// Add user_id if the request is authenticated
			if claims := ctxutil.GetAuthUser(ctx); claims != nil {
				logAttrs = append(logAttrs, slog.String("user_id", claims.UserID))
			}

			requestLogger.Log(ctx, logLevel, "http_request_finished", logAttrs...)
		})
	}
}

// # Metrics

// Instrument records request totals and latency on the injected metrics set.
func Instrument(metrics *obs.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			startTime := time.Now()
			wrappedWriter := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}

			next.ServeHTTP(wrappedWriter, request)

			status := strconv.Itoa(wrappedWriter.status)
			metrics.HTTPRequestsTotal.WithLabelValues(request.Method, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(request.Method, status).Observe(time.Since(startTime).Seconds())
		})
	}
}

// # Rate Limiting

// RouteClass maps a request path onto its rate-limit class. Credential
// endpoints are strict; everything else is lenient. The match stops at the
// path-segment boundary so sibling routes sharing the prefix stay lenient.
func RouteClass(request *http.Request) ratelimit.Class {
	path := request.URL.Path
	if path == "/api/auth" || strings.HasPrefix(path, "/api/auth/") {
		return ratelimit.ClassAuth
	}
	return ratelimit.ClassAPI
}

// RateLimit enforces per-identity request limits before any authentication
// work is done.
//
// Limit metadata headers are attached to EVERY response — allowed or denied —
// so well-behaved clients can self-throttle before being cut off.
func RateLimit(limiter *ratelimit.Limiter, classify func(*http.Request) ratelimit.Class, metrics *obs.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			class := classify(request)
			result := limiter.Take(requestutil.ClientIP(request), class)

			header := writer.Header()
			header.Set(constants.HeaderRateLimitLimit, strconv.Itoa(result.Limit))
			header.Set(constants.HeaderRateLimitRemaining, strconv.Itoa(result.Remaining))
			header.Set(constants.HeaderRateLimitReset, strconv.Itoa(result.ResetSeconds))

			if !result.Allowed {
				if metrics != nil {
					metrics.RateLimitRejectionsTotal.WithLabelValues(string(class)).Inc()
				}
				respond.Error(writer, request, apperr.RateLimited(result.ResetSeconds))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// # Cross-Site Request Forgery

// stateChangingMethods are the HTTP methods that mutate server state and
// therefore need origin validation when credentials ride in a cookie.
var stateChangingMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// CSRFGuard rejects cross-origin state-changing requests that carry the
// refresh-token cookie.
//
// Bearer-token requests are exempt: an attacker's page cannot attach the
// Authorization header, only ambient cookies. Requests without an Origin or
// Referer header (CLI clients, server-to-server) pass through — they are not
// issued by a browser on a foreign page.
func CSRFGuard(cfg AppConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			if !stateChangingMethods[request.Method] {
				next.ServeHTTP(writer, request)
				return
			}

			if _, err := request.Cookie(constants.RefreshTokenCookieName); err != nil {
				// No cookie-carried credential, nothing to forge.
				next.ServeHTTP(writer, request)
				return
			}

			origin := request.Header.Get(constants.HeaderOrigin)
			if origin == "" {
				if referer := request.Header.Get("Referer"); referer != "" {
					origin = referer
				}
			}

			if origin != "" && !originAllowed(cfg, origin) {
				respond.Error(writer, request, apperr.Forbidden("Cross-origin request rejected"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// # Reliability & Safety

// PanicRecovery recovers from panics, logs stack trace, and returns 500.
func PanicRecovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// Defer a recovery function to catch any runtime exceptions
			defer func() {
				if err := recover(); err != nil {

					// Capture the runtime stack trace for diagnostics
					stackTrace := make([]byte, 2048)
					length := runtime.Stack(stackTrace, false)

					// Retrieve the request-specific logger from context if available
					reqLogger := ctxutil.GetLogger(request.Context())

					// Log the incident to our structured logging system
					reqLogger.ErrorContext(request.Context(), "panic_recovered",
						slog.Any("error", err),
						slog.String("stack", string(stackTrace[:length])),
					)

					// Return a safe, generic error to the client
					writeError(writer, http.StatusInternalServerError, "An unexpected error occurred")
				}
			}()

			next.ServeHTTP(writer, request)
		})
	}
}

// # Cross-Origin Resource Sharing

// AppConfig defines the behavior needed by the CORS and CSRF middleware.
type AppConfig interface {
	IsDevelopment() bool

	// AllowedOrigins lists extra browser origins permitted beyond the
	// built-in company domain.
	AllowedOrigins() []string
}

// CORS handles Cross-Origin Resource Sharing based on application environment.
func CORS(cfg AppConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Check the Origin header
			origin := request.Header.Get(constants.HeaderOrigin)
			if origin == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// 2. Inject standard CORS headers if authorized
			// (strict in PROD, open in DEV)
			if originAllowed(cfg, origin) {
				header := writer.Header()
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				header.Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization, X-Request-ID")
				header.Set("Access-Control-Expose-Headers", "Content-Length, X-Request-ID, ratelimit-limit, ratelimit-remaining, ratelimit-reset")
				header.Set("Access-Control-Allow-Credentials", "true")
				header.Set("Access-Control-Max-Age", "300")
			}

			// 3. Handle pre-flight requests (OPTIONS)
			if request.Method == http.MethodOptions {
				writer.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// # Middleware Helpers

// originAllowed decides whether a browser origin may interact with the API.
func originAllowed(cfg AppConfig, origin string) bool {
	if cfg.IsDevelopment() {
		return true
	}
	if strings.HasSuffix(hostOf(origin), "kaka-hq.com") {
		return true
	}
	for _, allowed := range cfg.AllowedOrigins() {
		if origin == allowed || hostOf(origin) == hostOf(allowed) {
			return true
		}
	}
	return false
}

// hostOf strips the scheme, path, and port from an Origin or Referer value.
func hostOf(origin string) string {
	trimmed := origin
	if idx := strings.Index(trimmed, "://"); idx >= 0 {
		trimmed = trimmed[idx+3:]
	}
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if idx := strings.IndexByte(trimmed, ':'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}

// writeError outputs a simple JSON error payload without going through respond,
// for use inside recovery paths where the request context may be damaged.
func writeError(writer http.ResponseWriter, status int, message string) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(map[string]string{
		constants.FieldError: message,
	})
}
