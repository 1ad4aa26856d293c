package token

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	fieldAccessToken  = "access_token"
	fieldRefreshToken = "refresh_token"
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps the tokens in a single Redis hash so several processes on
// different hosts can share one session.
type RedisStore struct {
	client redis.Cmdable
	key    string
}

func NewRedisStore(client redis.Cmdable, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (rs *RedisStore) Save(ctx context.Context, p Pair) error {
	values := []any{fieldAccessToken, p.AccessToken}
	if p.RefreshToken != "" {
		values = append(values, fieldRefreshToken, p.RefreshToken)
	}
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, rs.key, values...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("[RedisStore Save] %s: %w", rs.key, err)
	}
	return nil
}

func (rs *RedisStore) Load(ctx context.Context) (Stored, error) {
	fields, err := rs.client.HGetAll(ctx, rs.key).Result()
	if err != nil {
		return Stored{}, fmt.Errorf("[RedisStore Load] %s: %w", rs.key, err)
	}
	return Stored{
		AccessToken:  fields[fieldAccessToken],
		RefreshToken: fields[fieldRefreshToken],
	}, nil
}

func (rs *RedisStore) Clear(ctx context.Context) error {
	if err := rs.client.Del(ctx, rs.key).Err(); err != nil {
		return fmt.Errorf("[RedisStore Clear] %s: %w", rs.key, err)
	}
	return nil
}

func (rs *RedisStore) HasAccessToken(ctx context.Context) bool {
	s, err := rs.Load(ctx)
	return err == nil && s.AccessToken != ""
}
