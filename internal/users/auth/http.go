// Copyright (c) 2026 Kaka HQ. All rights reserved.

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kaka-hq/dealerdesk/internal/platform/apperr"
	"github.com/kaka-hq/dealerdesk/internal/platform/constants"
	requestutil "github.com/kaka-hq/dealerdesk/internal/platform/request"
	"github.com/kaka-hq/dealerdesk/internal/platform/respond"
	"github.com/kaka-hq/dealerdesk/internal/platform/validate"
)

// # HTTP Handler

// Handler exposes the authentication endpoints.
type Handler struct {
	service *Service

	// secureCookies toggles the Secure attribute on the refresh cookie.
	// Disabled only in development over plain HTTP.
	secureCookies bool
}

func NewHandler(service *Service, secureCookies bool) *Handler {
	return &Handler{service: service, secureCookies: secureCookies}
}

// Routes returns the router for the /api/auth subtree.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)
	return router
}

// # Request / Response Shapes

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         *User  `json:"user"`
}

// # Endpoints

/*
login handles POST /api/auth/login.

Verifies credentials and returns a fresh session. The refresh token is
returned both in the body (for non-browser clients) and as an http-only
cookie scoped to /api/auth.
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var body loginRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.
		Required(FieldEmail, body.Email).
		MaxLen(FieldEmail, body.Email, MaxEmailLength).
		Required(FieldPassword, body.Password).
		MaxLen(FieldPassword, body.Password, MaxPasswordLength)
	if !validator.HasErrors() {
		validator.Email(FieldEmail, body.Email)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.service.Login(request.Context(), LoginInput{
		Email:     body.Email,
		Password:  body.Password,
		IPAddress: requestutil.ClientIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, session)
	respond.OK(writer, handler.sessionBody(session))
}

/*
refresh handles POST /api/auth/refresh.

Accepts the refresh token from the JSON body or, absent that, from the
http-only cookie. On success the presented token is dead and a new pair is
returned.
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	refreshToken, err := handler.extractRefreshToken(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.service.Refresh(request.Context(), refreshToken, requestutil.ClientIP(request))
	if err != nil {
		handler.clearRefreshCookie(writer)
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, session)
	respond.OK(writer, handler.sessionBody(session))
}

/*
logout handles POST /api/auth/logout.

Terminates the session and clears the cookie. Always succeeds: logging out
with a dead token is a no-op, not an error.
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	refreshToken, err := handler.extractRefreshToken(request)
	if err != nil {
		// No token anywhere; the client is already logged out.
		handler.clearRefreshCookie(writer)
		respond.NoContent(writer)
		return
	}

	if err := handler.service.Logout(request.Context(), refreshToken, requestutil.ClientIP(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.clearRefreshCookie(writer)
	respond.NoContent(writer)
}

// # Helpers

func (handler *Handler) sessionBody(session *Session) sessionResponse {
	return sessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(handler.service.issuer.AccessTTL().Seconds()),
		User:         session.User,
	}
}

// extractRefreshToken prefers the JSON body over the cookie so non-browser
// clients keep working without cookie jars.
func (handler *Handler) extractRefreshToken(request *http.Request) (string, error) {
	var body refreshRequest
	// Body is optional here; a missing or malformed body falls through to
	// the cookie.
	_ = requestutil.DecodeJSON(request, &body)
	if body.RefreshToken != "" {
		return body.RefreshToken, nil
	}

	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	return "", apperr.Unauthenticated("Refresh token required")
}

func (handler *Handler) setRefreshCookie(writer http.ResponseWriter, session *Session) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    session.RefreshToken,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  session.RefreshTokenExpiresAt,
		MaxAge:   int(time.Until(session.RefreshTokenExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (handler *Handler) clearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
