// Package idpfake is an in-memory identity provider for session tests.
package idpfake

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/jrsteele09/loghealer-client/idp"
	"github.com/jrsteele09/loghealer-client/token"
	"github.com/jrsteele09/loghealer-client/users"
)

var ErrNotConfigured = errors.New("fake provider: no behaviour configured")

// FakeProvider answers with the configured functions and counts calls.
// Unset functions fail with ErrNotConfigured.
type FakeProvider struct {
	ExchangeFunc func(ctx context.Context, code, verifier string) (token.Pair, error)
	RefreshFunc  func(ctx context.Context, refreshToken string) (token.Pair, error)
	UserInfoFunc func(ctx context.Context, accessToken string) (*users.User, error)
	RevokeFunc   func(ctx context.Context, tok string, hint idp.TokenTypeHint) error
	VerifyFunc   func(ctx context.Context, raw string) error

	mu        sync.Mutex
	exchanges int
	refreshes int
	userInfos int
	revokes   int
}

func New() *FakeProvider {
	return &FakeProvider{}
}

func (p *FakeProvider) AuthCodeURL(state, challenge string) string {
	q := url.Values{
		"response_type":         {string(idp.CodeResponseType)},
		"state":                 {state},
		"code_challenge":        {challenge},
		"code_challenge_method": {string(idp.CodeMethodTypeS256)},
	}
	return fmt.Sprintf("https://login.example.test%s?%s", idp.RouteAuthorize, q.Encode())
}

func (p *FakeProvider) Exchange(ctx context.Context, code, verifier string) (token.Pair, error) {
	p.mu.Lock()
	p.exchanges++
	fn := p.ExchangeFunc
	p.mu.Unlock()
	if fn == nil {
		return token.Pair{}, ErrNotConfigured
	}
	return fn(ctx, code, verifier)
}

func (p *FakeProvider) Refresh(ctx context.Context, refreshToken string) (token.Pair, error) {
	p.mu.Lock()
	p.refreshes++
	fn := p.RefreshFunc
	p.mu.Unlock()
	if fn == nil {
		return token.Pair{}, ErrNotConfigured
	}
	return fn(ctx, refreshToken)
}

func (p *FakeProvider) UserInfo(ctx context.Context, accessToken string) (*users.User, error) {
	p.mu.Lock()
	p.userInfos++
	fn := p.UserInfoFunc
	p.mu.Unlock()
	if fn == nil {
		return nil, ErrNotConfigured
	}
	return fn(ctx, accessToken)
}

func (p *FakeProvider) Revoke(ctx context.Context, tok string, hint idp.TokenTypeHint) error {
	p.mu.Lock()
	p.revokes++
	fn := p.RevokeFunc
	p.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, tok, hint)
}

func (p *FakeProvider) VerifyIDToken(ctx context.Context, raw string) error {
	if p.VerifyFunc == nil {
		return nil
	}
	return p.VerifyFunc(ctx, raw)
}

// Calls returns the number of exchange, refresh, user-info and revoke calls.
func (p *FakeProvider) Calls() (exchanges, refreshes, userInfos, revokes int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exchanges, p.refreshes, p.userInfos, p.revokes
}

func (p *FakeProvider) Exchanges() int {
	e, _, _, _ := p.Calls()
	return e
}

func (p *FakeProvider) Refreshes() int {
	_, r, _, _ := p.Calls()
	return r
}

func (p *FakeProvider) UserInfos() int {
	_, _, u, _ := p.Calls()
	return u
}

func (p *FakeProvider) Revokes() int {
	_, _, _, r := p.Calls()
	return r
}

// UserFor returns a UserInfoFunc that accepts only the given access tokens.
func UserFor(user *users.User, validTokens ...string) func(context.Context, string) (*users.User, error) {
	return func(_ context.Context, accessToken string) (*users.User, error) {
		for _, t := range validTokens {
			if t == accessToken {
				return user, nil
			}
		}
		return nil, &idp.Error{StatusCode: 401, Code: "invalid_token"}
	}
}
