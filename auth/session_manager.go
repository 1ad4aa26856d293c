// Package auth owns the dashboard session lifecycle: bootstrap from stored
// tokens, PKCE login, refresh, logout and invalidation after a 401.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/loghealer-client/authflow"
	"github.com/jrsteele09/loghealer-client/idp"
	apperrors "github.com/jrsteele09/loghealer-client/internal/errors"
	"github.com/jrsteele09/loghealer-client/internal/metrics"
	"github.com/jrsteele09/loghealer-client/pkce"
	"github.com/jrsteele09/loghealer-client/token"
	"github.com/jrsteele09/loghealer-client/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	defaultLoginEntry     = "/login"
	defaultRequestTimeout = 15 * time.Second
	refreshKey            = "refresh"

	anyGeneration = ^uint64(0)
)

// IdentityProvider is the part of the OAuth2 server the session needs.
// *idp.Client implements it.
type IdentityProvider interface {
	AuthCodeURL(state, challenge string) string
	Exchange(ctx context.Context, code, verifier string) (token.Pair, error)
	Refresh(ctx context.Context, refreshToken string) (token.Pair, error)
	UserInfo(ctx context.Context, accessToken string) (*users.User, error)
	Revoke(ctx context.Context, tok string, hint idp.TokenTypeHint) error
	VerifyIDToken(ctx context.Context, raw string) error
}

var errSessionChanged = errors.New("session changed during refresh")

// Repos holds the storage the session manager depends on.
type Repos struct {
	Tokens token.Store   // Durable access and refresh tokens
	Flows  authflow.Repo // Pending PKCE context between login and callback
}

// SessionManager is the single owner of session state. Construct one per
// process and share it with the guard, the transport and the server.
type SessionManager struct {
	repos          Repos
	provider       IdentityProvider
	pkce           *pkce.Generator
	navigator      Navigator
	metrics        *metrics.Auth
	requestTimeout time.Duration
	loginEntry     string
	nowTime        func() time.Time

	gate          *ReadyGate
	bootstrapOnce sync.Once
	refreshGroup  singleflight.Group

	// tokenLock orders token writes with generation bumps so a bootstrap
	// that started before a login or logout cannot overwrite its result.
	tokenLock sync.Mutex

	lock       sync.RWMutex
	state      State
	user       *users.User
	generation uint64
	observers  []func(Transition)
}

// SessionManagerOption defines a function type to modify the SessionManager.
type SessionManagerOption func(*SessionManager)

func WithNavigator(n Navigator) SessionManagerOption {
	return func(m *SessionManager) {
		m.navigator = n
	}
}

func WithPKCEGenerator(g *pkce.Generator) SessionManagerOption {
	return func(m *SessionManager) {
		m.pkce = g
	}
}

func WithMetrics(a *metrics.Auth) SessionManagerOption {
	return func(m *SessionManager) {
		m.metrics = a
	}
}

// WithRequestTimeout bounds every call to the identity provider.
func WithRequestTimeout(d time.Duration) SessionManagerOption {
	return func(m *SessionManager) {
		m.requestTimeout = d
	}
}

// WithLoginEntry sets where the user is sent when the session ends.
func WithLoginEntry(target string) SessionManagerOption {
	return func(m *SessionManager) {
		m.loginEntry = target
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SessionManagerOption {
	return func(m *SessionManager) {
		m.nowTime = nowFunc
	}
}

func NewSessionManager(repos Repos, provider IdentityProvider, options ...SessionManagerOption) (*SessionManager, error) {
	if repos.Tokens == nil {
		return nil, errors.New("[NewSessionManager] Tokens repo is required")
	}
	if repos.Flows == nil {
		return nil, errors.New("[NewSessionManager] Flows repo is required")
	}
	if provider == nil {
		return nil, errors.New("[NewSessionManager] identity provider is required")
	}

	m := &SessionManager{
		repos:          repos,
		provider:       provider,
		pkce:           pkce.New(nil),
		navigator:      NopNavigator{},
		requestTimeout: defaultRequestTimeout,
		loginEntry:     defaultLoginEntry,
		nowTime:        time.Now,
		gate:           NewReadyGate(),
		state:          StateUnresolved,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Bootstrap resolves the session from stored tokens. It runs once; later
// calls wait for that run and return the gate value.
//
// With an access token it fetches the user. If that fails and a refresh
// token exists it refreshes and retries the user fetch once. Anything else
// clears the tokens and leaves the session unauthenticated. A store that
// cannot be read (wrong passphrase, I/O error) is left in place.
func (m *SessionManager) Bootstrap(ctx context.Context) bool {
	m.bootstrapOnce.Do(func() {
		ok := m.bootstrap(ctx)
		m.metrics.Bootstrap(ok)
		if !m.gate.Resolve(ok) {
			log.Debug().Bool("authenticated", ok).Msg("session already resolved by callback")
		}
	})
	value, _ := m.gate.Value()
	return value
}

func (m *SessionManager) bootstrap(ctx context.Context) bool {
	gen := m.currentGeneration()

	stored, err := m.repos.Tokens.Load(ctx)
	if err != nil {
		// Only a store that can never be read again is removed. A wrong
		// passphrase or a read error leaves the file for the next run.
		corrupt := errors.Is(err, apperrors.ErrCorruptStore)
		log.Warn().Err(err).Bool("discarded", corrupt).Msg("unable to read stored tokens, starting signed out")
		return m.settleBootstrap(ctx, gen, nil, corrupt)
	}
	if stored.AccessToken == "" {
		return m.settleBootstrap(ctx, gen, nil, false)
	}

	user, err := m.fetchUser(ctx, stored.AccessToken)
	if err == nil {
		return m.settleBootstrap(ctx, gen, user, false)
	}
	log.Info().Err(err).Msg("stored access token rejected")

	if stored.RefreshToken != "" {
		pair, err := m.Refresh(ctx)
		if err == nil {
			if user, err = m.fetchUser(ctx, pair.AccessToken); err == nil {
				return m.settleBootstrap(ctx, gen, user, false)
			}
		}
		log.Info().Err(err).Msg("session recovery failed")
	}

	return m.settleBootstrap(ctx, gen, nil, true)
}

// settleBootstrap applies the bootstrap outcome unless a login, logout or
// invalidation happened since gen, in which case that result stands.
func (m *SessionManager) settleBootstrap(ctx context.Context, gen uint64, user *users.User, clearTokens bool) bool {
	m.tokenLock.Lock()
	if m.currentGeneration() != gen {
		m.tokenLock.Unlock()
		log.Debug().Msg("session changed while bootstrapping, keeping it")
		return m.IsAuthenticated()
	}
	if clearTokens {
		if err := m.repos.Tokens.Clear(ctx); err != nil {
			log.Err(err).Msg("unable to clear stored tokens")
		}
	}
	m.tokenLock.Unlock()

	to := StateUnauthenticated
	if user != nil {
		to = StateAuthenticated
	}
	if _, applied := m.setStateAt(gen, to, user); !applied {
		return m.IsAuthenticated()
	}
	return user != nil
}

// InitiateLogin starts a PKCE login: it stores a fresh exchange context,
// replacing any pending one, and navigates to the authorization URL.
func (m *SessionManager) InitiateLogin(ctx context.Context) (string, error) {
	challenge, err := m.pkce.NewChallenge()
	if err != nil {
		return "", fmt.Errorf("[SessionManager InitiateLogin] %w", err)
	}

	err = m.repos.Flows.Put(authflow.Context{
		CodeVerifier: challenge.Verifier,
		State:        challenge.State,
		CreatedAt:    m.nowTime(),
	})
	if err != nil {
		return "", fmt.Errorf("[SessionManager InitiateLogin] storing login context: %w", err)
	}

	authURL := m.provider.AuthCodeURL(challenge.State, challenge.Challenge)
	log.Info().Msg("redirecting to authorization endpoint")
	m.navigator.Navigate(authURL)
	return authURL, nil
}

// HandleCallback completes a login with the code and state from the
// authorization redirect. The pending context is consumed whatever the
// outcome. A missing context or a state mismatch returns false without
// calling the token endpoint and leaves the session untouched. A failed
// exchange or user fetch clears the session. The error explains a false
// result and never needs handling beyond that.
func (m *SessionManager) HandleCallback(ctx context.Context, code, state string) (bool, error) {
	pending, err := m.repos.Flows.Take()
	if err != nil {
		m.metrics.Login(metrics.ResultInvalidState)
		log.Warn().Err(err).Msg("callback without a pending login")
		return false, fmt.Errorf("[SessionManager HandleCallback] %w", ErrMissingPKCEContext)
	}
	if subtle.ConstantTimeCompare([]byte(pending.State), []byte(state)) != 1 {
		m.metrics.Login(metrics.ResultInvalidState)
		log.Warn().Msg("callback state does not match pending login")
		return false, fmt.Errorf("[SessionManager HandleCallback] %w", ErrInvalidState)
	}
	if code == "" {
		return m.loginFailed(ctx, fmt.Errorf("%w: empty authorization code", ErrTokenExchangeFailed))
	}

	callCtx, cancel := m.callContext(ctx)
	defer cancel()

	pair, err := m.provider.Exchange(callCtx, code, pending.CodeVerifier)
	if err != nil {
		return m.loginFailed(ctx, fmt.Errorf("%w: %w", ErrTokenExchangeFailed, err))
	}
	if pair.IDToken != "" {
		if err := m.provider.VerifyIDToken(callCtx, pair.IDToken); err != nil {
			return m.loginFailed(ctx, fmt.Errorf("%w: %w", ErrTokenExchangeFailed, err))
		}
	}
	if err := m.saveLogin(ctx, pair); err != nil {
		return m.loginFailed(ctx, fmt.Errorf("%w: saving tokens: %w", ErrTokenExchangeFailed, err))
	}

	user, err := m.fetchUser(ctx, pair.AccessToken)
	if err != nil {
		return m.loginFailed(ctx, err)
	}

	m.setState(StateAuthenticated, user)
	m.gate.Resolve(true)
	m.metrics.Login(metrics.ResultSuccess)
	log.Info().Str("user", user.ID).Msg("login complete")
	return true, nil
}

func (m *SessionManager) saveLogin(ctx context.Context, pair token.Pair) error {
	m.tokenLock.Lock()
	defer m.tokenLock.Unlock()
	if err := m.repos.Tokens.Save(ctx, pair); err != nil {
		return err
	}
	m.bumpGeneration()
	return nil
}

func (m *SessionManager) loginFailed(ctx context.Context, err error) (bool, error) {
	m.metrics.Login(metrics.ResultFailed)
	log.Err(err).Msg("login failed")
	m.clearSession(ctx)
	m.gate.Resolve(false)
	return false, fmt.Errorf("[SessionManager HandleCallback] %w", err)
}

// Refresh trades the stored refresh token for a new access token and saves
// it. Concurrent calls share one request.
func (m *SessionManager) Refresh(ctx context.Context) (token.Pair, error) {
	v, err, shared := m.refreshGroup.Do(refreshKey, func() (any, error) {
		return m.refresh(ctx)
	})
	if shared {
		log.Debug().Msg("joined in-flight token refresh")
	}
	if err != nil {
		return token.Pair{}, err
	}
	return v.(token.Pair), nil
}

func (m *SessionManager) refresh(ctx context.Context) (token.Pair, error) {
	gen := m.currentGeneration()
	stored, err := m.repos.Tokens.Load(ctx)
	if err != nil {
		m.metrics.Refresh(metrics.ResultFailed)
		return token.Pair{}, fmt.Errorf("[SessionManager Refresh] %w: reading tokens: %w", ErrRefreshFailed, err)
	}
	if stored.RefreshToken == "" {
		m.metrics.Refresh(metrics.ResultNoRefresh)
		return token.Pair{}, fmt.Errorf("[SessionManager Refresh] %w", ErrNoRefreshToken)
	}

	callCtx, cancel := m.callContext(ctx)
	defer cancel()

	pair, err := m.provider.Refresh(callCtx, stored.RefreshToken)
	if err != nil {
		m.metrics.Refresh(metrics.ResultFailed)
		return token.Pair{}, fmt.Errorf("[SessionManager Refresh] %w: %w", ErrRefreshFailed, err)
	}
	if err := m.saveRefreshed(ctx, gen, pair); err != nil {
		m.metrics.Refresh(metrics.ResultFailed)
		return token.Pair{}, fmt.Errorf("[SessionManager Refresh] %w: saving tokens: %w", ErrRefreshFailed, err)
	}

	m.metrics.Refresh(metrics.ResultSuccess)
	return pair, nil
}

// saveRefreshed stores a refreshed pair unless the session was replaced or
// ended while the refresh was in flight.
func (m *SessionManager) saveRefreshed(ctx context.Context, gen uint64, pair token.Pair) error {
	m.tokenLock.Lock()
	defer m.tokenLock.Unlock()
	if m.currentGeneration() != gen {
		return errSessionChanged
	}
	return m.repos.Tokens.Save(ctx, pair)
}

// Logout ends the session locally, revokes the refresh token on a best
// effort basis and navigates to the login entry point. It cannot fail.
func (m *SessionManager) Logout(ctx context.Context) {
	stored, err := m.repos.Tokens.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("unable to read tokens for revocation")
	}
	m.clearSession(ctx)
	m.metrics.Logout()

	if tok, hint := revocable(stored); tok != "" {
		callCtx, cancel := m.callContext(ctx)
		if err := m.provider.Revoke(callCtx, tok, hint); err != nil {
			log.Warn().Err(err).Msg("token revocation failed")
		}
		cancel()
	}

	log.Info().Msg("logged out")
	m.navigator.Navigate(m.loginEntry)
}

func revocable(s token.Stored) (string, idp.TokenTypeHint) {
	if s.RefreshToken != "" {
		return s.RefreshToken, idp.RefreshTokenHint
	}
	return s.AccessToken, idp.AccessTokenHint
}

// Invalidate ends the session after the API rejected the access token. It
// makes no network call and navigates only when the session actually ended,
// so concurrent 401s navigate once.
func (m *SessionManager) Invalidate(ctx context.Context) {
	if !m.clearSession(ctx) {
		return
	}
	m.metrics.Invalidation()
	log.Warn().Msg("session invalidated by 401 response")
	m.navigator.Navigate(m.loginEntry)
}

// Guard waits for the first resolution, bounded by ctx, then reports
// whether the session is authenticated now.
func (m *SessionManager) Guard(ctx context.Context) (bool, error) {
	if _, err := m.gate.Wait(ctx); err != nil {
		return false, err
	}
	return m.IsAuthenticated() && m.repos.Tokens.HasAccessToken(ctx), nil
}

func (m *SessionManager) IsAuthenticated() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.state == StateAuthenticated
}

func (m *SessionManager) CurrentUser() *users.User {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.user
}

func (m *SessionManager) State() State {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.state
}

// AccessToken returns the stored access token, or "" when there is none.
func (m *SessionManager) AccessToken(ctx context.Context) string {
	stored, err := m.repos.Tokens.Load(ctx)
	if err != nil {
		return ""
	}
	return stored.AccessToken
}

// Gate is the auth-ready gate.
func (m *SessionManager) Gate() *ReadyGate {
	return m.gate
}

// LoginEntry is where the user is sent when the session ends.
func (m *SessionManager) LoginEntry() string {
	return m.loginEntry
}

// OnChange registers fn for every state transition. Observers run on the
// goroutine that caused the transition, outside the session lock.
func (m *SessionManager) OnChange(fn func(Transition)) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.observers = append(m.observers, fn)
}

// clearSession drops the tokens and the user. It reports whether the
// session state changed.
func (m *SessionManager) clearSession(ctx context.Context) bool {
	m.tokenLock.Lock()
	if err := m.repos.Tokens.Clear(ctx); err != nil {
		log.Err(err).Msg("unable to clear stored tokens")
	}
	m.bumpGeneration()
	m.tokenLock.Unlock()
	return m.setState(StateUnauthenticated, nil)
}

func (m *SessionManager) currentGeneration() uint64 {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.generation
}

func (m *SessionManager) bumpGeneration() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.generation++
}

// setState applies a transition and notifies observers. Self transitions
// only replace the user.
func (m *SessionManager) setState(to State, user *users.User) bool {
	changed, _ := m.setStateAt(anyGeneration, to, user)
	return changed
}

// setStateAt is setState restricted to generation gen. applied is false
// when the generation has moved on.
func (m *SessionManager) setStateAt(gen uint64, to State, user *users.User) (changed, applied bool) {
	m.lock.Lock()
	if gen != anyGeneration && gen != m.generation {
		m.lock.Unlock()
		return false, false
	}
	from := m.state
	if from == to {
		m.user = user
		m.lock.Unlock()
		return false, true
	}
	if !allowed(from, to) {
		m.lock.Unlock()
		log.Error().Stringer("from", from).Stringer("to", to).Msg("illegal session transition")
		return false, true
	}
	m.state = to
	m.user = user
	observers := append([]func(Transition){}, m.observers...)
	m.lock.Unlock()

	log.Debug().Stringer("from", from).Stringer("to", to).Msg("session transition")
	t := Transition{From: from, To: to, User: user}
	for _, fn := range observers {
		fn(t)
	}
	return true, true
}

func (m *SessionManager) fetchUser(ctx context.Context, accessToken string) (*users.User, error) {
	callCtx, cancel := m.callContext(ctx)
	defer cancel()

	user, err := m.provider.UserInfo(callCtx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserInfoFetchFailed, err)
	}
	return user, nil
}

func (m *SessionManager) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.requestTimeout)
}
