package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaqueToken is returned by InspectToken for tokens that are not JWTs
var ErrOpaqueToken = errors.New("token is not a JWT")

// TokenInfo is the display-only view of a JWT bearer token. The signature is
// never verified here; the backend remains the authority.
type TokenInfo struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry before now
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// InspectToken decodes the claims of a JWT without verifying it
func InspectToken(token string) (*TokenInfo, error) {
	if token == "" {
		return nil, ErrOpaqueToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}

	info := &TokenInfo{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if iss, err := claims.GetIssuer(); err == nil {
		info.Issuer = iss
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}
