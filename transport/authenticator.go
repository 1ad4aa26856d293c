// Package transport holds the outbound HTTP middleware that attaches the
// session's bearer token and ends the session on a 401.
package transport

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/loghealer-client/token"
	"github.com/rs/zerolog/log"
)

const TraceHeader = "X-Trace-Id"

// DefaultAuthEndpointPatterns mark requests that talk to the identity
// provider. They never carry the bearer token and their 401s do not end
// the session.
var DefaultAuthEndpointPatterns = []string{"/oauth2/", "/auth/"}

// Invalidator ends the session. *auth.SessionManager implements it.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Authenticator is an http.RoundTripper for API calls made on behalf of
// the signed-in user.
type Authenticator struct {
	base        http.RoundTripper
	tokens      token.Store
	invalidator Invalidator
	patterns    []string
}

var _ http.RoundTripper = (*Authenticator)(nil)

type AuthenticatorOption func(*Authenticator)

// WithBase sets the wrapped transport (http.DefaultTransport otherwise).
func WithBase(rt http.RoundTripper) AuthenticatorOption {
	return func(a *Authenticator) {
		a.base = rt
	}
}

// WithAuthEndpointPatterns replaces the path fragments that identify auth
// endpoints.
func WithAuthEndpointPatterns(patterns ...string) AuthenticatorOption {
	return func(a *Authenticator) {
		a.patterns = patterns
	}
}

func NewAuthenticator(tokens token.Store, invalidator Invalidator, options ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		tokens:      tokens,
		invalidator: invalidator,
		patterns:    DefaultAuthEndpointPatterns,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Client wraps the authenticator in an http.Client.
func (a *Authenticator) Client() *http.Client {
	return &http.Client{Transport: a}
}

// IsAuthEndpoint reports whether req targets the identity provider.
func (a *Authenticator) IsAuthEndpoint(req *http.Request) bool {
	for _, p := range a.patterns {
		if strings.Contains(req.URL.Path, p) {
			return true
		}
	}
	return false
}

func (a *Authenticator) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	authEndpoint := a.IsAuthEndpoint(req)

	// RoundTrippers must not modify the caller's request.
	out := req.Clone(ctx)
	if out.Header.Get(TraceHeader) == "" {
		out.Header.Set(TraceHeader, uuid.NewString())
	}
	if !authEndpoint && out.Header.Get("Authorization") == "" {
		if stored, err := a.tokens.Load(ctx); err == nil && stored.AccessToken != "" {
			out.Header.Set("Authorization", "Bearer "+stored.AccessToken)
		}
	}

	resp, err := a.transport().RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !authEndpoint {
		log.Warn().Str("method", req.Method).Str("path", req.URL.Path).
			Str("trace_id", out.Header.Get(TraceHeader)).Msg("API rejected the session")
		a.invalidator.Invalidate(context.WithoutCancel(ctx))
	}
	return resp, nil
}

func (a *Authenticator) transport() http.RoundTripper {
	if a.base != nil {
		return a.base
	}
	return http.DefaultTransport
}
