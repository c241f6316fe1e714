package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the fields this client reads out of an access token.
type TokenClaims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// ParseClaims extracts claims from an access token without verifying its
// signature. Verification is the server's job; the client only needs the
// identity the token describes.
func ParseClaims(token string) (TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenClaims{}, fmt.Errorf("parse access token: %w", err)
	}

	out := TokenClaims{}
	for _, key := range []string{"sub", "user_id", "id"} {
		if value, ok := claims[key].(string); ok && value != "" {
			out.Subject = value
			break
		}
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}

	return out, nil
}
