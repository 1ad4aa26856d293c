package authflow

import (
	"errors"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const pendingKey = "pending"

var _ Repo = (*CacheRepo)(nil)

// CacheRepo is a process-scoped Repo whose entry expires after ttl.
type CacheRepo struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewCacheRepo creates a repo whose pending context expires after ttl.
func NewCacheRepo(ttl time.Duration) *CacheRepo {
	cleanup := ttl
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &CacheRepo{cache: cache.New(ttl, cleanup)}
}

func (r *CacheRepo) Put(c Context) error {
	if c.State == "" || c.CodeVerifier == "" {
		return errors.New("[CacheRepo Put] state and code verifier are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.SetDefault(pendingKey, c)
	return nil
}

func (r *CacheRepo) Take() (Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.cache.Get(pendingKey)
	if !ok {
		return Context{}, ErrNoPendingContext
	}
	r.cache.Delete(pendingKey)
	return v.(Context), nil
}
