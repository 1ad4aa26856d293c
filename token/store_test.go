package token_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/loghealer-client/token"
	tokenfakerepo "github.com/jrsteele09/loghealer-client/token/repofake"
	"github.com/stretchr/testify/require"
)

func TestStored_Merge(t *testing.T) {
	s := token.Stored{AccessToken: "A1", RefreshToken: "R1"}

	require.Equal(t, token.Stored{AccessToken: "A2", RefreshToken: "R1"}, s.Merge(token.Pair{AccessToken: "A2"}))
	require.Equal(t, token.Stored{AccessToken: "A3", RefreshToken: "R3"}, s.Merge(token.Pair{AccessToken: "A3", RefreshToken: "R3"}))
}

func TestFakeTokenStore(t *testing.T) {
	ctx := context.Background()
	ts := tokenfakerepo.NewFakeTokenStore().WithTokens("A1", "R1")

	require.True(t, ts.HasAccessToken(ctx))
	require.NoError(t, ts.Save(ctx, token.Pair{AccessToken: "A2"}))
	require.Equal(t, token.Stored{AccessToken: "A2", RefreshToken: "R1"}, ts.Snapshot())

	require.NoError(t, ts.Clear(ctx))
	require.False(t, ts.HasAccessToken(ctx))
	require.Equal(t, 1, ts.Saves())
	require.Equal(t, 1, ts.Clears())
}

// testStoreContract checks the behaviour every token.Store shares. The store
// must start empty.
func testStoreContract(t *testing.T, store token.Store) {
	t.Helper()
	ctx := context.Background()

	s, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, token.Stored{}, s)
	require.False(t, store.HasAccessToken(ctx))

	require.NoError(t, store.Save(ctx, token.Pair{AccessToken: "A1", RefreshToken: "R1"}))
	require.True(t, store.HasAccessToken(ctx))

	require.NoError(t, store.Save(ctx, token.Pair{AccessToken: "A2"}))
	s, err = store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, token.Stored{AccessToken: "A2", RefreshToken: "R1"}, s, "an omitted refresh token keeps the stored one")

	require.NoError(t, store.Save(ctx, token.Pair{AccessToken: "A3", RefreshToken: "R3"}))
	s, err = store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, token.Stored{AccessToken: "A3", RefreshToken: "R3"}, s)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx), "clear is idempotent")
	require.False(t, store.HasAccessToken(ctx))
}

func TestStoreContract(t *testing.T) {
	dir := t.TempDir()

	stores := map[string]token.Store{
		"file":           token.NewFileStore(filepath.Join(dir, "plain.json")),
		"encrypted file": token.NewFileStore(filepath.Join(dir, "sealed.json"), token.WithPassphrase("secret")),
		"memory":         tokenfakerepo.NewFakeTokenStore(),
		"redis":          token.NewRedisStore(newFakeRedis(), "loghealer:tokens"),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			testStoreContract(t, store)
		})
	}
}
