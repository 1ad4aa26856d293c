// Package token persists the session's access and refresh tokens.
package token

import (
	"context"
)

// Pair is a token endpoint response.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
}

// Stored is what a Store holds. Either field may be empty.
type Stored struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Store is the durable token storage for one session.
//
// Save always writes the access token and writes the refresh token only when
// p carries one, so a refresh response without a new refresh token keeps the
// old one. Clear is idempotent.
type Store interface {
	Save(ctx context.Context, p Pair) error
	Load(ctx context.Context) (Stored, error)
	Clear(ctx context.Context) error
	HasAccessToken(ctx context.Context) bool
}

// Merge applies p on top of s using the Save rules.
func (s Stored) Merge(p Pair) Stored {
	s.AccessToken = p.AccessToken
	if p.RefreshToken != "" {
		s.RefreshToken = p.RefreshToken
	}
	return s
}
