package config

import (
	"strings"
	"time"
)

type OAuthConfig interface {
	GetAuthServer() string
	GetLoginURL() string
	GetClientID() string
	GetRedirectURI() string
	GetScopes() []string
	GetOIDCIssuer() string
	GetAuthCodeTimeout() time.Duration
	GetRequestTimeout() time.Duration
}

type OAuth struct{ source }

var _ OAuthConfig = OAuth{}

// GetAuthServer is the identity provider host serving the token, user-info and
// revocation endpoints.
func (o OAuth) GetAuthServer() string {
	return strings.TrimRight(o.get("AUTH_SERVER", "https://auth.reddia-x.com"), "/")
}

// GetLoginURL is the host serving the interactive authorization endpoint.
func (o OAuth) GetLoginURL() string {
	return strings.TrimRight(o.get("LOGIN_URL", "https://login.reddia-x.com"), "/")
}

func (o OAuth) GetClientID() string {
	return o.get("CLIENT_ID", "rdx-loghealer")
}

func (o OAuth) GetRedirectURI() string {
	return o.get("REDIRECT_URI", "http://localhost:4206/auth/callback")
}

func (o OAuth) GetScopes() []string {
	return strings.Fields(o.get("SCOPES", "openid profile email"))
}

// GetOIDCIssuer enables ID token verification when set.
func (o OAuth) GetOIDCIssuer() string {
	return o.get("OIDC_ISSUER", "")
}

func (o OAuth) GetAuthCodeTimeout() time.Duration {
	return o.duration("AUTH_CODE_TIMEOUT", 10*time.Minute)
}

func (o OAuth) GetRequestTimeout() time.Duration {
	return o.duration("REQUEST_TIMEOUT", 15*time.Second)
}
