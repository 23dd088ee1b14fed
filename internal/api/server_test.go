// Copyright (c) 2026 Kaka HQ. All rights reserved.

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaka-hq/dealerdesk/internal/api"
	"github.com/kaka-hq/dealerdesk/internal/audit"
	"github.com/kaka-hq/dealerdesk/internal/obs"
	"github.com/kaka-hq/dealerdesk/internal/orders"
	"github.com/kaka-hq/dealerdesk/internal/platform/apperr"
	"github.com/kaka-hq/dealerdesk/internal/platform/config"
	"github.com/kaka-hq/dealerdesk/internal/platform/constants"
	"github.com/kaka-hq/dealerdesk/internal/platform/ratelimit"
	"github.com/kaka-hq/dealerdesk/internal/platform/sec"
	"github.com/kaka-hq/dealerdesk/internal/users/account"
	"github.com/kaka-hq/dealerdesk/internal/users/auth"
	"github.com/kaka-hq/dealerdesk/pkg/pagination"
	"github.com/kaka-hq/dealerdesk/pkg/uuid"
)

// # Fixture

type stubOrderStore struct {
	orders []orders.Order
}

func (s *stubOrderStore) FindByID(ctx context.Context, id string) (*orders.Order, error) {
	for _, order := range s.orders {
		if order.ID == id {
			found := order
			return &found, nil
		}
	}
	return nil, apperr.NotFound("Order")
}

func (s *stubOrderStore) List(ctx context.Context, filter orders.Filter, params pagination.Params) ([]orders.Order, int, error) {
	return s.orders, len(s.orders), nil
}

func (s *stubOrderStore) Create(ctx context.Context, order *orders.Order) error {
	s.orders = append(s.orders, *order)
	return nil
}

type stubAccountStore struct{}

func (stubAccountStore) List(ctx context.Context, params pagination.Params) ([]account.Summary, int, error) {
	return []account.Summary{{ID: "user-1", Email: "admin@kaka-hq.com", Role: sec.RoleAdmin}}, 1, nil
}

type testServer struct {
	server *httptest.Server
	users  *auth.MemoryUserRepository
}

func newTestServer(t *testing.T, authLimit int) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	issuer, err := sec.NewTokenIssuer(sec.IssuerConfig{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	require.NoError(t, err)

	users := auth.NewMemoryUserRepository()
	service := auth.NewService(
		users,
		auth.NewMemoryRefreshTokenRepository(),
		auth.NewMemoryRevocationRepository(),
		issuer,
		audit.NewLogger(audit.NewMemorySink(), logger),
		nil,
		logger,
	)

	limiter := ratelimit.New(map[ratelimit.Class]ratelimit.Policy{
		ratelimit.ClassAuth: {Max: authLimit, Window: 15 * time.Minute},
		ratelimit.ClassAPI:  {Max: 1000, Window: 15 * time.Minute},
	})

	cfg := &config.Config{Environment: "development"}

	router := api.NewRouter(api.Dependencies{
		Config:         cfg,
		Logger:         logger,
		Verifier:       issuer,
		Limiter:        limiter,
		Metrics:        obs.NewMetrics(),
		AuthHandler:    auth.NewHandler(service, false),
		AccountHandler: account.NewHandler(account.NewService(stubAccountStore{})),
		OrdersHandler:  orders.NewHandler(orders.NewService(&stubOrderStore{})),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testServer{server: server, users: users}
}

func (ts *testServer) addUser(t *testing.T, email, password string, role sec.UserRole) {
	t.Helper()

	hash, err := sec.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, ts.users.Create(context.Background(), &auth.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}))
}

func (ts *testServer) postJSON(t *testing.T, path string, payload interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	response, err := http.Post(ts.server.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return response
}

func (ts *testServer) get(t *testing.T, path, accessToken string) *http.Response {
	t.Helper()

	request, err := http.NewRequest(http.MethodGet, ts.server.URL+path, nil)
	require.NoError(t, err)
	if accessToken != "" {
		request.Header.Set("Authorization", "Bearer "+accessToken)
	}

	response, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	return response
}

type sessionPayload struct {
	Data struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"data"`
}

func decodeSession(t *testing.T, response *http.Response) sessionPayload {
	t.Helper()

	defer response.Body.Close()
	var payload sessionPayload
	require.NoError(t, json.NewDecoder(response.Body).Decode(&payload))
	return payload
}

func (ts *testServer) login(t *testing.T, email, password string) sessionPayload {
	t.Helper()

	response := ts.postJSON(t, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, response.StatusCode)
	return decodeSession(t, response)
}

// # Gate Behavior

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t, 100)

	response := ts.get(t, "/api/orders", "")
	defer response.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
}

func TestUnknownRoutesAnswer401BeforeExistence(t *testing.T) {
	ts := newTestServer(t, 100)
	ts.addUser(t, "staff@kaka-hq.com", "hunter2hunter2", sec.RoleStaff)

	// An unauthenticated probe cannot distinguish real from fake routes.
	probe := ts.get(t, "/api/internal-admin-console", "")
	defer probe.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, probe.StatusCode)

	// With a valid token the same path is an honest 404.
	session := ts.login(t, "staff@kaka-hq.com", "hunter2hunter2")
	authed := ts.get(t, "/api/internal-admin-console", session.Data.AccessToken)
	defer authed.Body.Close()
	assert.Equal(t, http.StatusNotFound, authed.StatusCode)
}

func TestHealthIsPublic(t *testing.T) {
	ts := newTestServer(t, 100)

	response := ts.get(t, "/health", "")
	defer response.Body.Close()
	assert.Equal(t, http.StatusOK, response.StatusCode)
}

func TestAdminRoutesRejectStaff(t *testing.T) {
	ts := newTestServer(t, 100)
	ts.addUser(t, "staff@kaka-hq.com", "hunter2hunter2", sec.RoleStaff)
	ts.addUser(t, "admin@kaka-hq.com", "hunter2hunter2", sec.RoleAdmin)

	staffSession := ts.login(t, "staff@kaka-hq.com", "hunter2hunter2")
	forbidden := ts.get(t, "/api/admin/users", staffSession.Data.AccessToken)
	defer forbidden.Body.Close()
	assert.Equal(t, http.StatusForbidden, forbidden.StatusCode)

	adminSession := ts.login(t, "admin@kaka-hq.com", "hunter2hunter2")
	allowed := ts.get(t, "/api/admin/users", adminSession.Data.AccessToken)
	defer allowed.Body.Close()
	assert.Equal(t, http.StatusOK, allowed.StatusCode)
}

func TestSeededAdminCredentialsOpenTheAdminSurface(t *testing.T) {
	ts := newTestServer(t, 100)
	ts.addUser(t, "admin@kaka-hq.com", "admin123", sec.RoleAdmin)

	session := ts.login(t, "admin@kaka-hq.com", "admin123")
	require.NotEmpty(t, session.Data.AccessToken)
	require.NotEmpty(t, session.Data.RefreshToken)

	bare := ts.get(t, "/api/admin/users", "")
	defer bare.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, bare.StatusCode)
	body, err := io.ReadAll(bare.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error": "Access token required"}`, string(body))

	allowed := ts.get(t, "/api/admin/users", session.Data.AccessToken)
	defer allowed.Body.Close()
	assert.Equal(t, http.StatusOK, allowed.StatusCode)
}

// # End-to-End Session Lifecycle

func TestLoginRefreshReuseLifecycle(t *testing.T) {
	ts := newTestServer(t, 100)
	ts.addUser(t, "staff@kaka-hq.com", "hunter2hunter2", sec.RoleStaff)

	session := ts.login(t, "staff@kaka-hq.com", "hunter2hunter2")
	require.NotEmpty(t, session.Data.AccessToken)
	require.NotEmpty(t, session.Data.RefreshToken)

	// Access token opens the protected surface.
	ordersResponse := ts.get(t, "/api/orders", session.Data.AccessToken)
	defer ordersResponse.Body.Close()
	assert.Equal(t, http.StatusOK, ordersResponse.StatusCode)

	// Rotation returns a new pair.
	refreshResponse := ts.postJSON(t, "/api/auth/refresh", map[string]string{
		"refresh_token": session.Data.RefreshToken,
	})
	require.Equal(t, http.StatusOK, refreshResponse.StatusCode)
	rotated := decodeSession(t, refreshResponse)
	assert.NotEqual(t, session.Data.RefreshToken, rotated.Data.RefreshToken)

	// Replaying the consumed token trips the compromise path.
	replay := ts.postJSON(t, "/api/auth/refresh", map[string]string{
		"refresh_token": session.Data.RefreshToken,
	})
	defer replay.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, replay.StatusCode)

	// The whole family died with it.
	dead := ts.postJSON(t, "/api/auth/refresh", map[string]string{
		"refresh_token": rotated.Data.RefreshToken,
	})
	defer dead.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, dead.StatusCode)
}

func TestLoginFailureIsGeneric(t *testing.T) {
	ts := newTestServer(t, 100)
	ts.addUser(t, "staff@kaka-hq.com", "hunter2hunter2", sec.RoleStaff)

	unknown := ts.postJSON(t, "/api/auth/login", map[string]string{
		"email": "ghost@kaka-hq.com", "password": "whatever123",
	})
	defer unknown.Body.Close()
	wrong := ts.postJSON(t, "/api/auth/login", map[string]string{
		"email": "staff@kaka-hq.com", "password": "not-the-password",
	})
	defer wrong.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, unknown.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, wrong.StatusCode)

	unknownBody, err := io.ReadAll(unknown.Body)
	require.NoError(t, err)
	wrongBody, err := io.ReadAll(wrong.Body)
	require.NoError(t, err)
	assert.Equal(t, string(unknownBody), string(wrongBody))
}

// # Rate Limiting Over HTTP

func TestAuthEndpointsAreStrictlyLimited(t *testing.T) {
	ts := newTestServer(t, 5)

	var last *http.Response
	for attempt := 0; attempt < 6; attempt++ {
		if last != nil {
			last.Body.Close()
		}
		last = ts.postJSON(t, "/api/auth/login", map[string]string{
			"email": "ghost@kaka-hq.com", "password": "whatever123",
		})
	}
	defer last.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, last.StatusCode)
	assert.Equal(t, "5", last.Header.Get(constants.HeaderRateLimitLimit))
	assert.Equal(t, "0", last.Header.Get(constants.HeaderRateLimitRemaining))
	assert.NotEmpty(t, last.Header.Get(constants.HeaderRateLimitReset))
}

func TestRejectionsRemainReadableCrossOrigin(t *testing.T) {
	ts := newTestServer(t, 1)

	origin := "https://dashboard.kaka-hq.com"
	var last *http.Response
	for attempt := 0; attempt < 2; attempt++ {
		if last != nil {
			last.Body.Close()
		}
		request, err := http.NewRequest(http.MethodPost, ts.server.URL+"/api/auth/login", bytes.NewReader([]byte(`{}`)))
		require.NoError(t, err)
		request.Header.Set("Content-Type", "application/json")
		request.Header.Set("Origin", origin)
		last, err = http.DefaultClient.Do(request)
		require.NoError(t, err)
	}
	defer last.Body.Close()

	// A browser script on an allowed origin can still read the limit
	// metadata off the denial.
	assert.Equal(t, http.StatusTooManyRequests, last.StatusCode)
	assert.Equal(t, origin, last.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, last.Header.Get("Access-Control-Expose-Headers"), constants.HeaderRateLimitRemaining)
	assert.Equal(t, "0", last.Header.Get(constants.HeaderRateLimitRemaining))
}

func TestEveryResponseCarriesRateLimitHeaders(t *testing.T) {
	ts := newTestServer(t, 100)

	response := ts.get(t, "/health", "")
	defer response.Body.Close()

	assert.NotEmpty(t, response.Header.Get(constants.HeaderRateLimitLimit))
	assert.NotEmpty(t, response.Header.Get(constants.HeaderRateLimitRemaining))
	assert.NotEmpty(t, response.Header.Get(constants.HeaderRateLimitReset))
}
