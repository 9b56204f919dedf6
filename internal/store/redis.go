package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "clinic:booking_store"

// RedisStore keeps the state as a single JSON string value.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

func NewRedisStore(client redis.UniversalClient, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (r *RedisStore) Load(ctx context.Context) (*State, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load booking store: %w", err)
	}
	return Decode(data), nil
}

func (r *RedisStore) Save(ctx context.Context, st *State) error {
	data, err := Encode(st)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save booking store: %w", err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
