// Copyright (c) 2026 Kaka HQ. All rights reserved.

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kaka-hq/dealerdesk/internal/platform/constants"
	"github.com/kaka-hq/dealerdesk/internal/platform/middleware"
	"github.com/kaka-hq/dealerdesk/internal/platform/ratelimit"
)

func newAuthLimiter(max int) *ratelimit.Limiter {
	return ratelimit.New(map[ratelimit.Class]ratelimit.Policy{
		ratelimit.ClassAuth: {Max: max, Window: 15 * time.Minute},
		ratelimit.ClassAPI:  {Max: 100, Window: 15 * time.Minute},
	})
}

func TestRouteClassSplitsAuthFromAPI(t *testing.T) {
	authRequest := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	assert.Equal(t, ratelimit.ClassAuth, middleware.RouteClass(authRequest))

	refreshRequest := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	assert.Equal(t, ratelimit.ClassAuth, middleware.RouteClass(refreshRequest))

	apiRequest := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	assert.Equal(t, ratelimit.ClassAPI, middleware.RouteClass(apiRequest))

	// A sibling route sharing the literal prefix is not a credential endpoint.
	siblingRequest := httptest.NewRequest(http.MethodGet, "/api/authors", nil)
	assert.Equal(t, ratelimit.ClassAPI, middleware.RouteClass(siblingRequest))
}

func TestRateLimitAttachesHeadersToAllowedResponses(t *testing.T) {
	handler := middleware.RateLimit(newAuthLimiter(5), middleware.RouteClass, nil)(okHandler())

	request := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	request.Header.Set(constants.HeaderXRealIP, "10.0.0.1")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "5", recorder.Header().Get(constants.HeaderRateLimitLimit))
	assert.Equal(t, "4", recorder.Header().Get(constants.HeaderRateLimitRemaining))
	assert.NotEmpty(t, recorder.Header().Get(constants.HeaderRateLimitReset))
}

func TestRateLimitDeniesWithHeadersAndGenericBody(t *testing.T) {
	handler := middleware.RateLimit(newAuthLimiter(1), middleware.RouteClass, nil)(okHandler())

	allowed := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	allowed.Header.Set(constants.HeaderXRealIP, "10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), allowed)

	denied := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	denied.Header.Set(constants.HeaderXRealIP, "10.0.0.1")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, denied)

	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Equal(t, "0", recorder.Header().Get(constants.HeaderRateLimitRemaining))
	assert.Contains(t, errorBody(t, recorder), "Too many requests")
}

func TestRateLimitUnresolvableClientsShareBucket(t *testing.T) {
	handler := middleware.RateLimit(newAuthLimiter(2), middleware.RouteClass, nil)(okHandler())

	// Requests with no resolvable address all count against one bucket.
	for range [2]struct{}{} {
		request := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		request.RemoteAddr = ""
		handler.ServeHTTP(httptest.NewRecorder(), request)
	}

	request := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	request.RemoteAddr = ""
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
}

// # CSRF

type stubConfig struct {
	development bool
	extra       []string
}

func (s stubConfig) IsDevelopment() bool      { return s.development }
func (s stubConfig) AllowedOrigins() []string { return s.extra }

func TestCSRFGuardRejectsForeignOriginWithCookie(t *testing.T) {
	handler := middleware.CSRFGuard(stubConfig{})(okHandler())

	request := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	request.AddCookie(&http.Cookie{Name: constants.RefreshTokenCookieName, Value: "x"})
	request.Header.Set(constants.HeaderOrigin, "https://evil.example.com")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestCSRFGuardAllowsCompanyOrigin(t *testing.T) {
	handler := middleware.CSRFGuard(stubConfig{})(okHandler())

	request := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	request.AddCookie(&http.Cookie{Name: constants.RefreshTokenCookieName, Value: "x"})
	request.Header.Set(constants.HeaderOrigin, "https://dashboard.kaka-hq.com")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestCSRFGuardIgnoresCookielessRequests(t *testing.T) {
	handler := middleware.CSRFGuard(stubConfig{})(okHandler())

	// Bearer-style clients have no cookie and are exempt regardless of origin.
	request := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	request.Header.Set(constants.HeaderOrigin, "https://evil.example.com")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestCSRFGuardIgnoresReads(t *testing.T) {
	handler := middleware.CSRFGuard(stubConfig{})(okHandler())

	request := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	request.AddCookie(&http.Cookie{Name: constants.RefreshTokenCookieName, Value: "x"})
	request.Header.Set(constants.HeaderOrigin, "https://evil.example.com")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestCSRFGuardHonorsExtraOrigins(t *testing.T) {
	handler := middleware.CSRFGuard(stubConfig{extra: []string{"https://partner.example.net"}})(okHandler())

	request := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	request.AddCookie(&http.Cookie{Name: constants.RefreshTokenCookieName, Value: "x"})
	request.Header.Set(constants.HeaderOrigin, "https://partner.example.net")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
}
