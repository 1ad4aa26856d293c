package idp_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/loghealer-client/idp"
	"github.com/stretchr/testify/require"
)

const (
	testClientID    = "rdx-loghealer"
	testRedirectURI = "http://localhost:4206/auth/callback"
)

type providerFixture struct {
	server *httptest.Server
	client *idp.Client

	mu           sync.Mutex
	tokenForms   []url.Values
	tokenCTypes  []string
	revokeForms  []url.Values
	tokenStatus  int
	tokenBody    string
	meStatus     int
	meBody       string
	meAuthHeader string
}

func (f *providerFixture) setToken(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenStatus, f.tokenBody = status, body
}

func (f *providerFixture) setMe(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meStatus, f.meBody = status, body
}

func (f *providerFixture) tokenRequests() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.tokenForms...)
}

func (f *providerFixture) tokenContentTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokenCTypes...)
}

func (f *providerFixture) userInfoAuthorization() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meAuthHeader
}

func (f *providerFixture) revokeRequests() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.revokeForms...)
}

func setupProvider(t *testing.T, options ...idp.Option) *providerFixture {
	t.Helper()
	f := &providerFixture{
		tokenStatus: http.StatusOK,
		tokenBody:   `{"access_token":"A1","refresh_token":"R1","token_type":"Bearer","expires_in":3600}`,
		meStatus:    http.StatusOK,
		meBody:      `{"sub":"u-1","email":"ada@example.com","given_name":"Ada","family_name":"Lovelace","roles":["SUPER_ADMIN"]}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+idp.RouteToken, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		f.tokenForms = append(f.tokenForms, r.PostForm)
		f.tokenCTypes = append(f.tokenCTypes, r.Header.Get("Content-Type"))
		status, body := f.tokenStatus, f.tokenBody
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("GET "+idp.RouteUserInfo, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.meAuthHeader = r.Header.Get("Authorization")
		status, body := f.meStatus, f.meBody
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("POST "+idp.RouteRevoke, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		f.revokeForms = append(f.revokeForms, r.PostForm)
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	client, err := idp.New(idp.Config{
		AuthServer:  f.server.URL,
		LoginURL:    "https://login.example.com/",
		ClientID:    testClientID,
		RedirectURI: testRedirectURI,
		Scopes:      []string{"openid", "profile", "email"},
	}, append([]idp.Option{idp.WithHTTPClient(f.server.Client())}, options...)...)
	require.NoError(t, err)
	f.client = client
	return f
}

func TestNew_RequiresFields(t *testing.T) {
	_, err := idp.New(idp.Config{LoginURL: "x", ClientID: "c", RedirectURI: "r"})
	require.Error(t, err)
	_, err = idp.New(idp.Config{AuthServer: "x", ClientID: "c", RedirectURI: "r"})
	require.Error(t, err)
	_, err = idp.New(idp.Config{AuthServer: "x", LoginURL: "y", RedirectURI: "r"})
	require.Error(t, err)
	_, err = idp.New(idp.Config{AuthServer: "x", LoginURL: "y", ClientID: "c"})
	require.Error(t, err)
}

func TestAuthCodeURL(t *testing.T) {
	f := setupProvider(t)

	raw := f.client.AuthCodeURL("state-1", "challenge-1")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "login.example.com", u.Host)
	require.Equal(t, idp.RouteAuthorize, u.Path)

	q := u.Query()
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, testClientID, q.Get("client_id"))
	require.Equal(t, testRedirectURI, q.Get("redirect_uri"))
	require.Equal(t, "openid profile email", q.Get("scope"))
	require.Equal(t, "state-1", q.Get("state"))
	require.Equal(t, "challenge-1", q.Get("code_challenge"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
}

func TestExchange(t *testing.T) {
	f := setupProvider(t)

	pair, err := f.client.Exchange(context.Background(), "code-1", "verifier-1")
	require.NoError(t, err)
	require.Equal(t, "A1", pair.AccessToken)
	require.Equal(t, "R1", pair.RefreshToken)
	require.Equal(t, int64(3600), pair.ExpiresIn)

	forms := f.tokenRequests()
	require.Len(t, forms, 1)
	require.Equal(t, "application/x-www-form-urlencoded", f.tokenContentTypes()[0])
	form := forms[0]
	require.Equal(t, "authorization_code", form.Get("grant_type"))
	require.Equal(t, "code-1", form.Get("code"))
	require.Equal(t, testRedirectURI, form.Get("redirect_uri"))
	require.Equal(t, testClientID, form.Get("client_id"))
	require.Equal(t, "verifier-1", form.Get("code_verifier"))
	require.Empty(t, form.Get("client_secret"))
}

func TestExchange_ErrorBody(t *testing.T) {
	f := setupProvider(t)
	f.setToken(http.StatusBadRequest, `{"error":"invalid_grant","error_description":"code expired"}`)

	_, err := f.client.Exchange(context.Background(), "code-1", "verifier-1")
	require.Error(t, err)

	var idpErr *idp.Error
	require.ErrorAs(t, err, &idpErr)
	require.Equal(t, http.StatusBadRequest, idpErr.StatusCode)
	require.Equal(t, "invalid_grant", idpErr.Code)
	require.Equal(t, "code expired", idpErr.Description)
}

func TestRefresh(t *testing.T) {
	f := setupProvider(t)
	f.setToken(http.StatusOK, `{"access_token":"A2","token_type":"Bearer","expires_in":3600}`)

	pair, err := f.client.Refresh(context.Background(), "R1")
	require.NoError(t, err)
	require.Equal(t, "A2", pair.AccessToken)

	forms := f.tokenRequests()
	require.Len(t, forms, 1)
	form := forms[0]
	require.Equal(t, "refresh_token", form.Get("grant_type"))
	require.Equal(t, "R1", form.Get("refresh_token"))
	require.Equal(t, testClientID, form.Get("client_id"))

	_, err = f.client.Refresh(context.Background(), "")
	require.Error(t, err)
	require.Len(t, f.tokenRequests(), 1)
}

func TestUserInfo(t *testing.T) {
	f := setupProvider(t)

	u, err := f.client.UserInfo(context.Background(), "A1")
	require.NoError(t, err)
	require.Equal(t, "Bearer A1", f.userInfoAuthorization())
	require.Equal(t, "u-1", u.ID)
	require.Equal(t, "Ada", u.FirstName)
	require.True(t, u.IsPrivileged())
}

func TestUserInfo_Unauthorized(t *testing.T) {
	f := setupProvider(t)
	f.setMe(http.StatusUnauthorized, `{"error":"invalid_token"}`)

	_, err := f.client.UserInfo(context.Background(), "stale")
	require.True(t, idp.IsUnauthorized(err))

	var idpErr *idp.Error
	require.ErrorAs(t, err, &idpErr)
	require.Equal(t, "invalid_token", idpErr.Code)
}

func TestRevoke(t *testing.T) {
	f := setupProvider(t)

	require.NoError(t, f.client.Revoke(context.Background(), "R1", idp.RefreshTokenHint))
	forms := f.revokeRequests()
	require.Len(t, forms, 1)
	require.Equal(t, "R1", forms[0].Get("token"))
	require.Equal(t, "refresh_token", forms[0].Get("token_type_hint"))
	require.Equal(t, testClientID, forms[0].Get("client_id"))
}

func TestVerifyIDToken(t *testing.T) {
	const issuer = "https://auth.example.com"
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	verifier := oidc.NewVerifier(issuer, &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{key.Public()}}, &oidc.Config{ClientID: testClientID})
	f := setupProvider(t, idp.WithIDTokenVerifier(verifier))

	sign := func(claims jwt.MapClaims) string {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
		require.NoError(t, err)
		return raw
	}
	now := time.Now()

	good := sign(jwt.MapClaims{"iss": issuer, "aud": testClientID, "sub": "u-1", "iat": now.Unix(), "exp": now.Add(time.Hour).Unix()})
	require.NoError(t, f.client.VerifyIDToken(context.Background(), good))

	wrongAudience := sign(jwt.MapClaims{"iss": issuer, "aud": "someone-else", "sub": "u-1", "iat": now.Unix(), "exp": now.Add(time.Hour).Unix()})
	require.Error(t, f.client.VerifyIDToken(context.Background(), wrongAudience))

	expired := sign(jwt.MapClaims{"iss": issuer, "aud": testClientID, "sub": "u-1", "iat": now.Add(-2 * time.Hour).Unix(), "exp": now.Add(-time.Hour).Unix()})
	require.Error(t, f.client.VerifyIDToken(context.Background(), expired))
}

func TestVerifyIDToken_NoIssuerAcceptsAnything(t *testing.T) {
	f := setupProvider(t)
	require.NoError(t, f.client.VerifyIDToken(context.Background(), "not-even-a-jwt"))
}

func TestExchange_IDTokenExtra(t *testing.T) {
	f := setupProvider(t)
	body, err := json.Marshal(map[string]any{"access_token": "A1", "token_type": "Bearer", "id_token": "id-1"})
	require.NoError(t, err)
	f.setToken(http.StatusOK, string(body))

	pair, err := f.client.Exchange(context.Background(), "c", "v")
	require.NoError(t, err)
	require.Equal(t, "id-1", pair.IDToken)
	require.Empty(t, pair.RefreshToken)
}
