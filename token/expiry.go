package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenExpiry reads the exp claim of a JWT access token without
// verifying it. It is for display only; the server decides validity.
func AccessTokenExpiry(raw string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, fmt.Errorf("[AccessTokenExpiry] %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("[AccessTokenExpiry] token has no exp claim")
	}
	return claims.ExpiresAt.Time, nil
}
