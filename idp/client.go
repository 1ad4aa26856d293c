// Package idp talks to the OAuth2 identity provider: authorization URL,
// token endpoint, user-info, revocation and ID token verification.
package idp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/loghealer-client/token"
	"github.com/jrsteele09/loghealer-client/users"
	"golang.org/x/oauth2"
)

// Config describes the public client registration.
type Config struct {
	AuthServer  string // token, user-info and revocation host
	LoginURL    string // authorization endpoint host
	ClientID    string
	RedirectURI string
	Scopes      []string
	OIDCIssuer  string // ID tokens are verified only when set
}

// Client is a public OAuth2 client (no secret) using PKCE.
type Client struct {
	cfg        Config
	oauth      *oauth2.Config
	httpClient *http.Client

	verifierLock sync.Mutex
	verifier     *oidc.IDTokenVerifier
}

type Option func(*Client)

// WithHTTPClient sets the client used for every call to the provider.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithIDTokenVerifier replaces discovery of the issuer's keys.
func WithIDTokenVerifier(v *oidc.IDTokenVerifier) Option {
	return func(cl *Client) {
		cl.verifier = v
	}
}

func New(cfg Config, options ...Option) (*Client, error) {
	if cfg.AuthServer == "" {
		return nil, errors.New("[idp New] auth server is required")
	}
	if cfg.LoginURL == "" {
		return nil, errors.New("[idp New] login URL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("[idp New] client id is required")
	}
	if cfg.RedirectURI == "" {
		return nil, errors.New("[idp New] redirect URI is required")
	}
	cfg.AuthServer = strings.TrimRight(cfg.AuthServer, "/")
	cfg.LoginURL = strings.TrimRight(cfg.LoginURL, "/")

	c := &Client{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		oauth: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.LoginURL + RouteAuthorize,
				TokenURL:  cfg.AuthServer + RouteToken,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// AuthCodeURL builds the authorization request for a PKCE login.
func (c *Client) AuthCodeURL(state, challenge string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", string(CodeMethodTypeS256)),
	)
}

// Exchange redeems an authorization code with its PKCE verifier.
func (c *Client) Exchange(ctx context.Context, code, verifier string) (token.Pair, error) {
	tok, err := c.oauth.Exchange(c.withHTTPClient(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return token.Pair{}, fmt.Errorf("[idp Exchange] %w", fromRetrieveError(err))
	}
	return toPair(tok), nil
}

// Refresh runs the refresh_token grant.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (token.Pair, error) {
	if refreshToken == "" {
		return token.Pair{}, errors.New("[idp Refresh] refresh token is required")
	}
	tok, err := c.oauth.TokenSource(c.withHTTPClient(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return token.Pair{}, fmt.Errorf("[idp Refresh] %w", fromRetrieveError(err))
	}
	return toPair(tok), nil
}

// UserInfo fetches the signed-in user for an access token.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (*users.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.AuthServer+RouteUserInfo, nil)
	if err != nil {
		return nil, fmt.Errorf("[idp UserInfo] %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[idp UserInfo] %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("[idp UserInfo] %w", readError(resp))
	}

	var claims map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("[idp UserInfo] decoding: %w", err)
	}
	return users.FromClaims(claims), nil
}

// Revoke asks the provider to invalidate tok.
func (c *Client) Revoke(ctx context.Context, tok string, hint TokenTypeHint) error {
	form := url.Values{
		"token":           {tok},
		"token_type_hint": {string(hint)},
		"client_id":       {c.cfg.ClientID},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthServer+RouteRevoke, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("[idp Revoke] %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("[idp Revoke] %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("[idp Revoke] %w", &Error{StatusCode: resp.StatusCode})
	}
	return nil
}

// VerifyIDToken checks the signature and audience of an ID token. Without
// a configured issuer or injected verifier it accepts any token.
func (c *Client) VerifyIDToken(ctx context.Context, raw string) error {
	v, err := c.idTokenVerifier(ctx)
	if err != nil {
		return fmt.Errorf("[idp VerifyIDToken] %w", err)
	}
	if v == nil {
		return nil
	}
	if _, err := v.Verify(ctx, raw); err != nil {
		return fmt.Errorf("[idp VerifyIDToken] %w", err)
	}
	return nil
}

func (c *Client) idTokenVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	c.verifierLock.Lock()
	defer c.verifierLock.Unlock()

	if c.verifier != nil || c.cfg.OIDCIssuer == "" {
		return c.verifier, nil
	}
	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, c.httpClient), c.cfg.OIDCIssuer)
	if err != nil {
		return nil, fmt.Errorf("discovering %s: %w", c.cfg.OIDCIssuer, err)
	}
	c.verifier = provider.Verifier(&oidc.Config{ClientID: c.cfg.ClientID})
	return c.verifier, nil
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func toPair(tok *oauth2.Token) token.Pair {
	p := token.Pair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    tok.ExpiresIn,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		p.IDToken = idToken
	}
	return p
}

func readError(resp *http.Response) error {
	e := &Error{StatusCode: resp.StatusCode}
	var body struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil {
		e.Code = body.Error
		e.Description = body.ErrorDescription
	}
	return e
}
