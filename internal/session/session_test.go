package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mauv0809/rivalry/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	issuer := session.NewIssuer("secret", time.Hour)

	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	userID, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestParse_Rejects(t *testing.T) {
	issuer := session.NewIssuer("secret", time.Hour)
	other := session.NewIssuer("other-secret", time.Hour)
	expired := session.NewIssuer("secret", -time.Minute)

	foreign, err := other.Issue("user-1")
	require.NoError(t, err)
	stale, err := expired.Issue("user-1")
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty", "", session.ErrNoSession},
		{"garbage", "not-a-token", session.ErrInvalidToken},
		{"wrong secret", foreign, session.ErrInvalidToken},
		{"expired", stale, session.ErrExpiredToken},
		{"unsigned", none, session.ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Parse(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = issuer.Issue("")
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestContext(t *testing.T) {
	ctx := context.Background()

	_, ok := session.CurrentUserID(ctx)
	assert.False(t, ok)
	_, err := session.RequireUser(ctx)
	assert.ErrorIs(t, err, session.ErrNoSession)

	ctx = session.WithUserID(ctx, "user-7")
	userID, err := session.RequireUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-7", userID)
}
