// Package pkce generates the one-shot secrets for an authorization code flow
// with Proof Key for Code Exchange (RFC 7636).
package pkce

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/oauth2"
)

const (
	// MethodS256 is the only challenge method issued.
	MethodS256 = "S256"

	verifierBytes = 32
	stateBytes    = 16
)

var ErrRandomSourceUnavailable = errors.New("secure random source unavailable")

// Challenge is a fresh verifier/challenge pair plus the anti-CSRF state.
type Challenge struct {
	Verifier  string
	Challenge string
	Method    string
	State     string
}

// Generator draws secrets from a random source. The zero value uses crypto/rand.
type Generator struct {
	random io.Reader
}

// New returns a Generator reading from r, or crypto/rand when r is nil.
func New(r io.Reader) *Generator {
	return &Generator{random: r}
}

// GenerateVerifier returns 32 random bytes as unpadded base64url (43 chars).
func (g *Generator) GenerateVerifier() (string, error) {
	return g.randomString(verifierBytes)
}

// GenerateState returns 16 random bytes as unpadded base64url (22 chars).
func (g *Generator) GenerateState() (string, error) {
	return g.randomString(stateBytes)
}

// NewChallenge generates a verifier, its S256 challenge and a state value.
func (g *Generator) NewChallenge() (Challenge, error) {
	verifier, err := g.GenerateVerifier()
	if err != nil {
		return Challenge{}, err
	}
	state, err := g.GenerateState()
	if err != nil {
		return Challenge{}, err
	}
	return Challenge{
		Verifier:  verifier,
		Challenge: DeriveChallenge(verifier),
		Method:    MethodS256,
		State:     state,
	}, nil
}

func (g *Generator) randomString(n int) (string, error) {
	r := io.Reader(rand.Reader)
	if g != nil && g.random != nil {
		r = g.random
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("[pkce] reading %d random bytes: %w: %v", n, ErrRandomSourceUnavailable, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DeriveChallenge is BASE64URL(SHA256(ASCII(verifier))) without padding.
func DeriveChallenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}
