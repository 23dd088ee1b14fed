// Copyright (c) 2026 Kaka HQ. All rights reserved.

package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaka-hq/dealerdesk/internal/platform/middleware"
	"github.com/kaka-hq/dealerdesk/internal/platform/sec"
)

// stubVerifier maps exact token strings to claims.
type stubVerifier struct {
	tokens map[string]*sec.Claims
}

func (s *stubVerifier) Verify(tokenString string, expectedKind sec.TokenKind) (*sec.Claims, error) {
	if claims, ok := s.tokens[tokenString]; ok {
		return claims, nil
	}
	return nil, sec.ErrInvalidSignature
}

func newVerifier() *stubVerifier {
	return &stubVerifier{tokens: map[string]*sec.Claims{
		"staff-token": {UserID: "user-staff", Role: string(sec.RoleStaff), Kind: string(sec.TokenKindAccess)},
		"admin-token": {UserID: "user-admin", Role: string(sec.RoleAdmin), Kind: string(sec.TokenKindAccess)},
	}}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
}

func errorBody(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body.Error
}

func TestAuthenticateAllowsAnonymousThrough(t *testing.T) {
	handler := middleware.Authenticate(newVerifier())(okHandler())

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestAuthenticateRejectsMalformedHeader(t *testing.T) {
	handler := middleware.Authenticate(newVerifier())(okHandler())

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Token abc")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "Invalid authorization format", errorBody(t, recorder))
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	handler := middleware.Authenticate(newVerifier())(okHandler())

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer forged")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "Invalid or expired token", errorBody(t, recorder))
}

func TestRequireAuthBlocksAnonymous(t *testing.T) {
	handler := middleware.Authenticate(newVerifier())(middleware.RequireAuth(okHandler()))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "Access token required", errorBody(t, recorder))
}

func TestRequireRoleDistinguishes401From403(t *testing.T) {
	chain := middleware.Authenticate(newVerifier())(
		middleware.RequireRole(sec.RoleAdmin)(okHandler()),
	)

	// Anonymous: 401.
	recorder := httptest.NewRecorder()
	chain.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// Authenticated but underprivileged: 403.
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer staff-token")
	recorder = httptest.NewRecorder()
	chain.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Equal(t, "Access denied", errorBody(t, recorder))

	// Sufficient role: 200.
	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer admin-token")
	recorder = httptest.NewRecorder()
	chain.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestNotFoundHandlerHidesRoutesFromAnonymous(t *testing.T) {
	notFound := middleware.NotFoundHandler()

	// Unauthenticated probe: 401, identical to a protected route.
	recorder := httptest.NewRecorder()
	notFound.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/secret-admin-panel", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "Access token required", errorBody(t, recorder))

	// Authenticated caller gets the honest 404.
	chain := middleware.Authenticate(newVerifier())(notFound)
	request := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	request.Header.Set("Authorization", "Bearer staff-token")
	recorder = httptest.NewRecorder()
	chain.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
