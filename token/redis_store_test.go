package token_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jrsteele09/loghealer-client/token"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// Runs against a real server when REDIS_ADDR is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	key := "loghealer:test:" + uuid.NewString()
	rs := token.NewRedisStore(client, key)
	t.Cleanup(func() { _ = rs.Clear(ctx) })

	require.False(t, rs.HasAccessToken(ctx))

	require.NoError(t, rs.Save(ctx, token.Pair{AccessToken: "A1", RefreshToken: "R1"}))
	require.NoError(t, rs.Save(ctx, token.Pair{AccessToken: "A2"}))

	s, err := rs.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, token.Stored{AccessToken: "A2", RefreshToken: "R1"}, s)

	require.NoError(t, rs.Clear(ctx))
	require.False(t, rs.HasAccessToken(ctx))
}

// fakeRedis implements the part of redis.Cmdable the store uses. Calls
// outside that set panic on the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable

	mu      sync.Mutex
	hashes  map[string]map[string]string
	loadErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{hashes: map[string]map[string]string{}}
}

type hsetCall struct {
	key    string
	values []interface{}
}

type fakePipeliner struct {
	redis.Pipeliner
	queued []hsetCall
}

func (p *fakePipeliner) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	p.queued = append(p.queued, hsetCall{key: key, values: values})
	return redis.NewIntCmd(ctx)
}

func (f *fakeRedis) TxPipelined(_ context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	pipe := &fakePipeliner{}
	if err := fn(pipe); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, call := range pipe.queued {
		h, ok := f.hashes[call.key]
		if !ok {
			h = map[string]string{}
			f.hashes[call.key] = h
		}
		for i := 0; i+1 < len(call.values); i += 2 {
			h[call.values[i].(string)] = call.values[i+1].(string)
		}
	}
	return nil, nil
}

func (f *fakeRedis) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	cmd := redis.NewMapStringStringCmd(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		cmd.SetErr(f.loadErr)
		return cmd
	}
	fields := map[string]string{}
	for k, v := range f.hashes[key] {
		fields[k] = v
	}
	cmd.SetVal(fields)
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.hashes[k]; ok {
			delete(f.hashes, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestRedisStore_FakeClient(t *testing.T) {
	client := newFakeRedis()
	testStoreContract(t, token.NewRedisStore(client, "loghealer:tokens"))

	require.NoError(t, token.NewRedisStore(client, "loghealer:tokens").Save(context.Background(), token.Pair{AccessToken: "A1"}))
	require.Equal(t, map[string]string{"access_token": "A1"}, client.hashes["loghealer:tokens"])
}

func TestRedisStore_LoadError(t *testing.T) {
	client := newFakeRedis()
	client.loadErr = errors.New("connection refused")
	rs := token.NewRedisStore(client, "loghealer:tokens")

	_, err := rs.Load(context.Background())
	require.ErrorContains(t, err, "connection refused")
	require.False(t, rs.HasAccessToken(context.Background()))
}
