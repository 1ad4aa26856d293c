package tokenfakerepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/loghealer-client/token"
)

var _ token.Store = (*FakeTokenStore)(nil)

// FakeTokenStore is an in-memory token.Store. It also backs TOKEN_STORE=memory.
type FakeTokenStore struct {
	stored   token.Stored
	lock     sync.RWMutex
	saves    int
	clears   int
	LoadErr  error
	SaveErr  error
	ClearErr error
}

func NewFakeTokenStore() *FakeTokenStore {
	return &FakeTokenStore{}
}

// WithTokens seeds the store.
func (ts *FakeTokenStore) WithTokens(access, refresh string) *FakeTokenStore {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	ts.stored = token.Stored{AccessToken: access, RefreshToken: refresh}
	return ts
}

func (ts *FakeTokenStore) Save(_ context.Context, p token.Pair) error {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	if ts.SaveErr != nil {
		return ts.SaveErr
	}
	ts.saves++
	ts.stored = ts.stored.Merge(p)
	return nil
}

func (ts *FakeTokenStore) Load(_ context.Context) (token.Stored, error) {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	if ts.LoadErr != nil {
		return token.Stored{}, ts.LoadErr
	}
	return ts.stored, nil
}

func (ts *FakeTokenStore) Clear(_ context.Context) error {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	if ts.ClearErr != nil {
		return ts.ClearErr
	}
	ts.clears++
	ts.stored = token.Stored{}
	return nil
}

func (ts *FakeTokenStore) HasAccessToken(_ context.Context) bool {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.stored.AccessToken != ""
}

// Snapshot returns the stored tokens without a context.
func (ts *FakeTokenStore) Snapshot() token.Stored {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.stored
}

func (ts *FakeTokenStore) Saves() int {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.saves
}

func (ts *FakeTokenStore) Clears() int {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.clears
}
