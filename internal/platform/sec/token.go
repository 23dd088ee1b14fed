// Copyright (c) 2026 Kaka HQ. All rights reserved.

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via narrow interfaces.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kaka-hq/dealerdesk/internal/platform/constants"
	"github.com/kaka-hq/dealerdesk/pkg/uuid"
)

// TokenKind distinguishes the two token families issued by the platform.
type TokenKind string

const (
	// TokenKindAccess marks short-lived, stateless request credentials.
	TokenKindAccess TokenKind = "access"

	// TokenKindRefresh marks longer-lived, server-tracked rotation credentials.
	TokenKindRefresh TokenKind = "refresh"
)

// Verification failure taxonomy. Callers branch on these with [errors.Is];
// user-visible messages stay generic regardless of which one fired.
var (
	// ErrExpired indicates a structurally valid token past its expiry.
	ErrExpired = errors.New("sec: token expired")

	// ErrInvalidSignature indicates a malformed token or a signature that does
	// not verify against the expected secret.
	ErrInvalidSignature = errors.New("sec: invalid token signature")

	// ErrWrongKind indicates a valid token presented for the wrong purpose
	// (e.g. a refresh token sent as an access token).
	ErrWrongKind = errors.New("sec: wrong token kind")
)

// Claims represents the payload embedded inside a signed token.
//
// # Why custom claims?
//
// By embedding the UserID and Role directly inside the access token, the
// request gate can reconstruct the active user context WITHOUT querying the
// database on every single API request. The refresh token additionally
// carries its rotation identifier as the registered `jti` claim.
type Claims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID string `json:"uid"`
	Role   string `json:"rol,omitempty"`
	Kind   string `json:"knd"`
}

// TokenID returns the rotation identifier of a refresh token (the `jti` claim).
func (c *Claims) TokenID() string { return c.ID }

// IssuerConfig carries the process-wide signing configuration, loaded once at
// startup. Rotating a secret invalidates all outstanding tokens signed with
// the old one; that is an accepted operational event, not handled here.
type IssuerConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenIssuer creates and verifies signed access and refresh tokens using
// HS256 with distinct secrets per kind.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string

	// now is injectable for expiry tests.
	now func() time.Time
}

// NewTokenIssuer validates the signing configuration and constructs a
// [TokenIssuer].
func NewTokenIssuer(cfg IssuerConfig) (*TokenIssuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("sec: both token secrets are required")
	}

	// Sharing one secret collapses the two token families into one: a stolen
	// refresh token could then be replayed as an access token.
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("sec: access and refresh secrets must be distinct")
	}

	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("sec: token TTLs must be positive")
	}

	return &TokenIssuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        constants.AuthIssuer,
		now:           time.Now,
	}, nil
}

// IssueAccessToken creates a short-lived, stateless access token.
func (issuer *TokenIssuer) IssueAccessToken(userID string, role UserRole) (string, error) {
	return issuer.sign(TokenKindAccess, userID, string(role), uuid.New(), issuer.accessTTL)
}

// IssueRefreshToken creates a refresh token and returns it together with its
// rotation identifier. The identifier is a random, unguessable UUIDv7 embedded
// in the signed payload; the caller records it in the user's active set.
func (issuer *TokenIssuer) IssueRefreshToken(userID string) (signedToken string, tokenID string, err error) {
	tokenID = uuid.New()
	signedToken, err = issuer.sign(TokenKindRefresh, userID, "", tokenID, issuer.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return signedToken, tokenID, nil
}

// Verify checks the signature, expiry, and kind of a signed token.
//
// It returns [ErrInvalidSignature] for malformed tokens or signature
// mismatches, [ErrExpired] for structurally valid but stale tokens, and
// [ErrWrongKind] when a token signed for the other purpose is presented.
func (issuer *TokenIssuer) Verify(tokenString string, expectedKind TokenKind) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return issuer.secretFor(expectedKind), nil
	},
		jwt.WithIssuer(issuer.issuer),
		jwt.WithTimeFunc(func() time.Time { return issuer.now() }),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalidSignature
	}

	if !parsed.Valid {
		return nil, ErrInvalidSignature
	}

	// Distinct secrets already reject cross-kind tokens at the signature
	// stage; the claim check keeps the failure explicit if secrets are ever
	// misconfigured to the same value.
	if claims.Kind != string(expectedKind) {
		return nil, ErrWrongKind
	}

	return claims, nil
}

// AccessTTL returns the configured access-token lifetime.
func (issuer *TokenIssuer) AccessTTL() time.Duration { return issuer.accessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (issuer *TokenIssuer) RefreshTTL() time.Duration { return issuer.refreshTTL }

// sign builds and signs a token of the given kind.
func (issuer *TokenIssuer) sign(kind TokenKind, userID, role, tokenID string, timeToLive time.Duration) (string, error) {
	currentTime := issuer.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   userID,
			Issuer:    issuer.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID: userID,
		Role:   role,
		Kind:   string(kind),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(issuer.secretFor(kind))
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign %s token: %w", kind, err)
	}

	return signedToken, nil
}

// secretFor selects the signing secret for the token kind.
func (issuer *TokenIssuer) secretFor(kind TokenKind) []byte {
	if kind == TokenKindRefresh {
		return issuer.refreshSecret
	}
	return issuer.accessSecret
}
