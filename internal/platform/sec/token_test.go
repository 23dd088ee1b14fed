// Copyright (c) 2026 Kaka HQ. All rights reserved.

package sec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()

	issuer, err := NewTokenIssuer(IssuerConfig{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	return issuer
}

func TestNewTokenIssuerRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  IssuerConfig
	}{
		{
			name: "missing secrets",
			cfg:  IssuerConfig{AccessTTL: time.Minute, RefreshTTL: time.Minute},
		},
		{
			name: "shared secret",
			cfg: IssuerConfig{
				AccessSecret: "same", RefreshSecret: "same",
				AccessTTL: time.Minute, RefreshTTL: time.Minute,
			},
		},
		{
			name: "zero ttl",
			cfg: IssuerConfig{
				AccessSecret: "a", RefreshSecret: "b",
			},
		},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := NewTokenIssuer(testCase.cfg)
			assert.Error(t, err)
		})
	}
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	issuer := newTestIssuer(t)

	signed, err := issuer.IssueAccessToken("user-1", RoleStaff)
	require.NoError(t, err)

	claims, err := issuer.Verify(signed, TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, string(RoleStaff), claims.Role)
	assert.Equal(t, string(TokenKindAccess), claims.Kind)
}

func TestIssueRefreshTokenCarriesRotationID(t *testing.T) {
	issuer := newTestIssuer(t)

	signed, tokenID, err := issuer.IssueRefreshToken("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, tokenID)

	claims, err := issuer.Verify(signed, TokenKindRefresh)
	require.NoError(t, err)
	assert.Equal(t, tokenID, claims.TokenID())
	assert.Empty(t, claims.Role, "refresh tokens carry no role")
}

func TestVerifyRejectsWrongKind(t *testing.T) {
	issuer := newTestIssuer(t)

	refresh, _, err := issuer.IssueRefreshToken("user-1")
	require.NoError(t, err)

	// Distinct secrets make the cross-kind failure a signature failure.
	_, err = issuer.Verify(refresh, TokenKindAccess)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issuer := newTestIssuer(t)

	other, err := NewTokenIssuer(IssuerConfig{
		AccessSecret:  "some-other-access-secret",
		RefreshSecret: "some-other-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)

	signed, err := other.IssueAccessToken("user-1", RoleAdmin)
	require.NoError(t, err)

	_, err = issuer.Verify(signed, TokenKindAccess)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := newTestIssuer(t)

	_, err := issuer.Verify("not-a-token", TokenKindAccess)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := newTestIssuer(t)

	issuedAt := time.Now()
	issuer.now = func() time.Time { return issuedAt }

	signed, err := issuer.IssueAccessToken("user-1", RoleStaff)
	require.NoError(t, err)

	// Still valid one minute before expiry.
	issuer.now = func() time.Time { return issuedAt.Add(14 * time.Minute) }
	_, err = issuer.Verify(signed, TokenKindAccess)
	require.NoError(t, err)

	// Dead one minute after.
	issuer.now = func() time.Time { return issuedAt.Add(16 * time.Minute) }
	_, err = issuer.Verify(signed, TokenKindAccess)
	assert.ErrorIs(t, err, ErrExpired)
}
