// Package app assembles the booking store, locker and event log selected by
// configuration. The API server, the CLI and the seeder share it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/config"
	"github.com/hackgods/clinic-booking/internal/db"
	"github.com/hackgods/clinic-booking/internal/lock"
	redisclient "github.com/hackgods/clinic-booking/internal/redis"
	"github.com/hackgods/clinic-booking/internal/store"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Backend is everything a booking.Service needs, plus the readiness checks
// for the dependencies behind it.
type Backend struct {
	Store  store.Store
	Locker lock.Locker
	Events booking.EventRecorder
	Checks map[string]Pinger

	cfg     config.Config
	closers []func()
}

func Open(ctx context.Context, cfg config.Config) (*Backend, error) {
	b := &Backend{
		Checks: make(map[string]Pinger),
		cfg:    cfg,
	}

	var rdb *redis.Client
	if cfg.NeedsRedis() {
		client, err := redisclient.Connect(ctx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, err
		}
		rdb = client
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.Checks["redis"] = PingFunc(func(ctx context.Context) error {
			return redisclient.Ping(ctx, client, 2*time.Second)
		})
	}

	switch cfg.StoreBackend {
	case config.BackendFile:
		fs := store.NewFileStore(cfg.StorePath)
		b.Store = fs
		b.Checks["store"] = fs
	case config.BackendMemory:
		ms := store.NewMemoryStore()
		b.Store = ms
		b.Checks["store"] = ms
	case config.BackendRedis:
		b.Store = store.NewRedisStore(rdb, cfg.RedisStoreKey)
	case config.BackendPostgres:
		pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)

		if err := db.Migrate(ctx, pool); err != nil {
			b.Close()
			return nil, err
		}

		b.Store = store.NewPgStore(pool, store.DefaultDocument)
		b.Events = booking.NewPgEventLog(pool)
		b.Checks["postgres"] = pool
	default:
		b.Close()
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	switch cfg.LockMode {
	case config.LockLocal:
		b.Locker = lock.NewLocal()
	case config.LockRedis:
		b.Locker = redisclient.NewRedisLocker(rdb, cfg.LockTTL)
	default:
		b.Locker = lock.Noop{}
	}

	log.Info().
		Str("store", cfg.StoreBackend).
		Str("lock", cfg.LockMode).
		Msg("booking backend ready")

	return b, nil
}

// NewService builds a booking service over the backend with the configured
// daily slots. opts are applied after the defaults.
func (b *Backend) NewService(opts ...booking.Option) *booking.Service {
	var base []booking.Option
	if len(b.cfg.DailySlots) > 0 {
		base = append(base, booking.WithDailySlots(b.cfg.DailySlots))
	}
	if b.Events != nil {
		base = append(base, booking.WithEvents(b.Events))
	}
	return booking.NewService(b.Store, b.Locker, append(base, opts...)...)
}

// Close releases connections in reverse order of opening.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
