package authflow_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/loghealer-client/authflow"
	apperrors "github.com/jrsteele09/loghealer-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func pending(state string) authflow.Context {
	return authflow.Context{CodeVerifier: "verifier-" + state, State: state, CreatedAt: time.Now()}
}

func TestCacheRepo_SingleUse(t *testing.T) {
	repo := authflow.NewCacheRepo(time.Minute)
	require.NoError(t, repo.Put(pending("s1")))

	got, err := repo.Take()
	require.NoError(t, err)
	require.Equal(t, "s1", got.State)
	require.Equal(t, "verifier-s1", got.CodeVerifier)

	_, err = repo.Take()
	require.ErrorIs(t, err, authflow.ErrNoPendingContext)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCacheRepo_PutReplaces(t *testing.T) {
	repo := authflow.NewCacheRepo(time.Minute)
	require.NoError(t, repo.Put(pending("first")))
	require.NoError(t, repo.Put(pending("second")))

	got, err := repo.Take()
	require.NoError(t, err)
	require.Equal(t, "second", got.State)
}

func TestCacheRepo_Expiry(t *testing.T) {
	repo := authflow.NewCacheRepo(20 * time.Millisecond)
	require.NoError(t, repo.Put(pending("s1")))

	time.Sleep(60 * time.Millisecond)
	_, err := repo.Take()
	require.ErrorIs(t, err, authflow.ErrNoPendingContext)
}

func TestCacheRepo_RejectsIncomplete(t *testing.T) {
	repo := authflow.NewCacheRepo(time.Minute)
	require.Error(t, repo.Put(authflow.Context{State: "s"}))
	require.Error(t, repo.Put(authflow.Context{CodeVerifier: "v"}))
}

func TestCacheRepo_ConcurrentTake(t *testing.T) {
	repo := authflow.NewCacheRepo(time.Minute)
	require.NoError(t, repo.Put(pending("s1")))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Take(); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins.Load())
}
