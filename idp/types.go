package idp

// Endpoint paths on the authorization server and the login host.
const (
	// RouteAuthorize is served by the login host.
	// The browser is sent here to authenticate and consent.
	// Example: https://login.example.com/oauth2/authorize?response_type=code&client_id=...
	RouteAuthorize = "/oauth2/authorize"

	// RouteToken exchanges an authorization code or a refresh token for tokens.
	// Request body is application/x-www-form-urlencoded.
	RouteToken = "/oauth2/token"

	// RouteRevoke invalidates a refresh or access token (RFC 7009).
	// Used on logout; failures do not block the local logout.
	RouteRevoke = "/oauth2/revoke"

	// RouteUserInfo returns the signed-in user's profile for a bearer token.
	RouteUserInfo = "/auth/me"
)

// ResponseType represents the OAuth 2.0 response type.
type ResponseType string

const (
	// CodeResponseType asks the authorization endpoint for an authorization code.
	// The only flow this client runs; the code is exchanged at RouteToken.
	CodeResponseType ResponseType = "code"
)

// CodeMethodType represents the PKCE challenge method.
type CodeMethodType string

const (
	// CodeMethodTypeS256 sends code_challenge = BASE64URL(SHA256(code_verifier)).
	// "plain" is never offered.
	CodeMethodTypeS256 CodeMethodType = "S256"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, redirect_uri, client_id, code_verifier
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for a new access token.
	// Token request includes: refresh_token, client_id
	// The response may omit refresh_token, in which case the old one stays valid.
	RefreshTokenGrant GrantType = "refresh_token"
)

// TokenTypeHint tells the revocation endpoint which kind of token it receives.
type TokenTypeHint string

const (
	RefreshTokenHint TokenTypeHint = "refresh_token"
	AccessTokenHint  TokenTypeHint = "access_token"
)
