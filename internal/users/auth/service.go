// Copyright (c) 2026 Kaka HQ. All rights reserved.

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/kaka-hq/dealerdesk/internal/audit"
	"github.com/kaka-hq/dealerdesk/internal/obs"
	"github.com/kaka-hq/dealerdesk/internal/platform/apperr"
	"github.com/kaka-hq/dealerdesk/internal/platform/sec"
)

// # Token Provider Contract

// TokenProvider issues and verifies the signed credential pair. Satisfied by
// [sec.TokenIssuer]; narrowed to an interface so service tests can substitute
// a fixed-clock issuer.
type TokenProvider interface {
	IssueAccessToken(userID string, role sec.UserRole) (string, error)
	IssueRefreshToken(userID string) (signedToken string, tokenID string, err error)
	Verify(tokenString string, expectedKind sec.TokenKind) (*sec.Claims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// # Service

/*
Service is the session manager: the single owner of login, rotation,
revocation, and authorization decisions.

Every path through this service produces exactly one audit entry per
security event, and every user-visible failure is one of the generic
errors from the apperr taxonomy. Specific causes (unknown email versus
wrong password, absent versus already-consumed token) are distinguishable
only in the audit trail.
*/
type Service struct {
	users   UserRepository
	tokens  RefreshTokenRepository
	revoked RevocationRepository
	issuer  TokenProvider
	trail   *audit.Logger
	metrics *obs.Metrics
	log     *slog.Logger
}

func NewService(
	users UserRepository,
	tokens RefreshTokenRepository,
	revoked RevocationRepository,
	issuer TokenProvider,
	trail *audit.Logger,
	metrics *obs.Metrics,
	log *slog.Logger,
) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		revoked: revoked,
		issuer:  issuer,
		trail:   trail,
		metrics: metrics,
		log:     log,
	}
}

// LoginInput carries the credentials and request metadata for a login attempt.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
}

// # Operations

// Login verifies credentials and opens a new session.
//
// Unknown email, wrong password, and disabled account all return the same
// [apperr.InvalidCredentials]; the audit trail records which one it was.
func (service *Service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	user, err := service.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			// Burn a hash comparison so unknown emails cost the same as
			// wrong passwords.
			sec.CheckPasswordHash(input.Password, sec.DummyPasswordHash)
			return nil, service.failLogin(ctx, input, "unknown_email")
		}
		return nil, service.storeFailure(err)
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, service.failLogin(ctx, input, "wrong_password")
	}

	if user.IsDisabled {
		return nil, service.failLogin(ctx, input, "account_disabled")
	}

	session, err := service.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	service.trail.Record(ctx, audit.Entry{
		UserID:     &user.ID,
		Action:     audit.ActionLogin,
		EntityType: "user",
		EntityID:   user.ID,
		IPAddress:  input.IPAddress,
	})
	service.countLogin("success")

	return session, nil
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// access/refresh pair is issued.
//
// A structurally valid token that is revoked or absent from the active set is
// treated as a theft signal: the user's entire session family is revoked and
// [apperr.SessionCompromised] is returned.
func (service *Service) Refresh(ctx context.Context, refreshToken, ipAddress string) (*Session, error) {
	claims, err := service.issuer.Verify(refreshToken, sec.TokenKindRefresh)
	if err != nil {
		service.countRefresh("rejected")
		return nil, apperr.Unauthenticated("Invalid or expired refresh token")
	}

	userID := claims.UserID
	tokenID := claims.TokenID()

	revoked, err := service.revoked.IsRevoked(ctx, tokenID)
	if err != nil {
		return nil, service.storeFailure(err)
	}
	if revoked {
		return nil, service.handleReuse(ctx, userID, tokenID, ipAddress)
	}

	consumed, err := service.tokens.Remove(ctx, userID, tokenID)
	if err != nil {
		return nil, service.storeFailure(err)
	}
	if !consumed {
		// Either rotated away earlier or evicted by the session bound. Both
		// mean someone is replaying a dead token.
		return nil, service.handleReuse(ctx, userID, tokenID, ipAddress)
	}

	// Deny-list the consumed ID for its remaining lifetime so a replica that
	// has not observed the DELETE still rejects it.
	if err := service.revoked.Revoke(ctx, tokenID, service.remainingLifetime(claims)); err != nil {
		return nil, service.storeFailure(err)
	}

	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			service.countRefresh("rejected")
			return nil, apperr.Unauthenticated("Invalid or expired refresh token")
		}
		return nil, service.storeFailure(err)
	}
	if user.IsDisabled {
		service.countRefresh("rejected")
		return nil, apperr.Unauthenticated("Invalid or expired refresh token")
	}

	session, err := service.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	service.trail.Record(ctx, audit.Entry{
		UserID:     &user.ID,
		Action:     audit.ActionRefresh,
		EntityType: "user",
		EntityID:   user.ID,
		IPAddress:  ipAddress,
		Details:    map[string]string{"rotated_token_id": tokenID},
	})
	service.countRefresh("rotated")

	return session, nil
}

// Logout terminates the session holding the given refresh token.
//
// It is idempotent: an invalid, expired, or already-consumed token still
// results in success, since the desired end state (token unusable) holds.
func (service *Service) Logout(ctx context.Context, refreshToken, ipAddress string) error {
	claims, err := service.issuer.Verify(refreshToken, sec.TokenKindRefresh)
	if err != nil {
		return nil
	}

	userID := claims.UserID
	tokenID := claims.TokenID()

	if _, err := service.tokens.Remove(ctx, userID, tokenID); err != nil {
		return service.storeFailure(err)
	}
	if err := service.revoked.Revoke(ctx, tokenID, service.remainingLifetime(claims)); err != nil {
		return service.storeFailure(err)
	}

	service.trail.Record(ctx, audit.Entry{
		UserID:     &userID,
		Action:     audit.ActionLogout,
		EntityType: "user",
		EntityID:   userID,
		IPAddress:  ipAddress,
	})

	return nil
}

// Authorize validates an access token and enforces a minimum role. It is
// purely computational and never touches a store.
func (service *Service) Authorize(accessToken string, minimumRole sec.UserRole) (*sec.Claims, error) {
	claims, err := service.issuer.Verify(accessToken, sec.TokenKindAccess)
	if err != nil {
		return nil, apperr.Unauthenticated("Invalid or expired token")
	}

	if !sec.UserRole(claims.Role).AtLeast(minimumRole) {
		return nil, apperr.Forbidden("Access denied")
	}

	return claims, nil
}

// # Internals

// openSession issues a fresh credential pair and registers the refresh half.
func (service *Service) openSession(ctx context.Context, user *User) (*Session, error) {
	accessToken, err := service.issuer.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	refreshToken, tokenID, err := service.issuer.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	expiresAt := time.Now().Add(service.issuer.RefreshTTL())
	if err := service.tokens.Add(ctx, user.ID, tokenID, expiresAt); err != nil {
		return nil, service.storeFailure(err)
	}

	return &Session{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: expiresAt,
		User:                  user,
	}, nil
}

// handleReuse revokes the user's entire session family after a dead refresh
// token was replayed.
func (service *Service) handleReuse(ctx context.Context, userID, tokenID, ipAddress string) error {
	activeIDs, err := service.tokens.ActiveIDs(ctx, userID)
	if err != nil {
		return service.storeFailure(err)
	}

	// Deny-list every sibling for the maximum lifetime they could still have.
	for _, activeID := range activeIDs {
		if err := service.revoked.Revoke(ctx, activeID, service.issuer.RefreshTTL()); err != nil {
			return service.storeFailure(err)
		}
	}
	if err := service.tokens.RemoveAll(ctx, userID); err != nil {
		return service.storeFailure(err)
	}

	service.trail.Record(ctx, audit.Entry{
		UserID:     &userID,
		Action:     audit.ActionReuseDetected,
		EntityType: "user",
		EntityID:   userID,
		IPAddress:  ipAddress,
		Severity:   audit.SeverityAlert,
		Details: map[string]string{
			"replayed_token_id": tokenID,
			"revoked_sessions":  strconv.Itoa(len(activeIDs)),
		},
	})
	service.countRefresh("reuse_detected")

	service.log.Warn("refresh_token_reuse_detected",
		slog.String("user_id", userID),
		slog.Int("revoked_sessions", len(activeIDs)),
	)

	return apperr.SessionCompromised()
}

// failLogin records a failed attempt. UserID is left null even when the
// account exists, so the trail itself cannot be mined to confirm accounts.
func (service *Service) failLogin(ctx context.Context, input LoginInput, reason string) error {
	service.trail.Record(ctx, audit.Entry{
		UserID:     nil,
		Action:     audit.ActionLoginFailed,
		EntityType: "user",
		IPAddress:  input.IPAddress,
		Details: map[string]string{
			"email":  input.Email,
			"reason": reason,
		},
	})
	service.countLogin("failure")

	return apperr.InvalidCredentials()
}

// storeFailure maps infrastructure errors to the generic 503, passing through
// errors that are already part of the taxonomy.
func (service *Service) storeFailure(err error) error {
	var appError *apperr.AppError
	if errors.As(err, &appError) {
		return appError
	}

	service.log.Error("credential_store_failure", slog.Any("error", err))
	return apperr.StoreUnavailable(err)
}

func (service *Service) remainingLifetime(claims *sec.Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return service.issuer.RefreshTTL()
	}
	return time.Until(claims.ExpiresAt.Time)
}

func (service *Service) countLogin(result string) {
	if service.metrics != nil {
		service.metrics.LoginsTotal.WithLabelValues(result).Inc()
	}
}

func (service *Service) countRefresh(result string) {
	if service.metrics != nil {
		service.metrics.TokenRefreshesTotal.WithLabelValues(result).Inc()
	}
}
