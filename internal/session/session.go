// Package session issues bearer tokens and carries the acting user through
// request contexts.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mauv0809/rivalry/internal/failure"
)

const issuer = "rivalry"

var (
	ErrNoSession    = failure.Precondition("no active session")
	ErrInvalidToken = failure.Precondition("session token is invalid")
	ErrExpiredToken = failure.Precondition("session token has expired")
)

// Claims defines the JWT claims used by the service. The subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer signs and verifies HMAC session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed token for userID.
func (i *Issuer) Issue(userID string) (string, error) {
	if userID == "" {
		return "", ErrNoSession
	}
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns the user id it was issued for.
func (i *Issuer) Parse(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrNoSession
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

type contextKey struct{}

// WithUserID returns a context carrying the acting user.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// CurrentUserID returns the acting user, if any.
func CurrentUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(contextKey{}).(string)
	return userID, ok && userID != ""
}

// RequireUser is CurrentUserID with a precondition error when absent.
func RequireUser(ctx context.Context) (string, error) {
	userID, ok := CurrentUserID(ctx)
	if !ok {
		return "", ErrNoSession
	}
	return userID, nil
}
