package auth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState        = errors.New("invalid state")
	ErrMissingPKCEContext  = fmt.Errorf("missing PKCE context: %w", ErrInvalidState)
	ErrTokenExchangeFailed = errors.New("token exchange failed")
	ErrNoRefreshToken      = errors.New("no refresh token")
	ErrRefreshFailed       = errors.New("token refresh failed")
	ErrUserInfoFetchFailed = errors.New("user info fetch failed")
	ErrUnauthorized        = errors.New("unauthorized")
)
