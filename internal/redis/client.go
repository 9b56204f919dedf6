package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Options selects the Redis server shared by the redis store backend and
// the store locker. Zero values fall back to the defaults below.
type Options struct {
	Addr        string
	Username    string
	Password    string
	PoolSize    int
	DialTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.PoolSize <= 0 {
		o.PoolSize = 10
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	return o
}

// Connect dials Redis and fails unless the server answers a ping within
// the dial timeout.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	opts = opts.withDefaults()

	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.Username,
		Password:     opts.Password,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     opts.PoolSize,
		MinIdleConns: 1,
	})

	if err := Ping(ctx, rdb, opts.DialTimeout); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	log.Debug().Str("addr", opts.Addr).Int("pool_size", opts.PoolSize).Msg("redis connected")
	return rdb, nil
}

// Ping checks the server within timeout. Readiness probes use it too.
func Ping(ctx context.Context, client redis.UniversalClient, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("ping redis %v: %w", client, err)
	}
	return nil
}
