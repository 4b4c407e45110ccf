package shared

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo holds the claims the client reads from a session token.
//
// The signature is never checked: the server is the only party that can verify it.
type TokenInfo struct {
	Subject   string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that is before now.
func (ti TokenInfo) Expired(now time.Time) bool {
	return !ti.ExpiresAt.IsZero() && now.After(ti.ExpiresAt)
}

// Remaining returns the time until expiry, or zero when the token has none or has expired.
func (ti TokenInfo) Remaining(now time.Time) time.Duration {
	if ti.ExpiresAt.IsZero() || now.After(ti.ExpiresAt) {
		return 0
	}
	return ti.ExpiresAt.Sub(now)
}

// InspectToken decodes a bearer token's claims without verifying its signature.
//
// The username comes from the "Username" claim (what the myFlix API signs) and falls back to "sub".
func InspectToken(token string) (*TokenInfo, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	info := &TokenInfo{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}

	info.Username = info.Subject
	if name, ok := claims["Username"].(string); ok && name != "" {
		info.Username = name
	}

	return info, nil
}
