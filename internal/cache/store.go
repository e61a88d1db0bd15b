// Package cache holds decoded geometry files between layer requests.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/esareynor/ffws-jatim-sub001/internal/config"
)

type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by cfg.Driver: memory (default), redis or none.
func New(cfg config.CacheConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory":
		return NewMemoryStore(clockwork.NewRealClock()), nil
	case "none":
		return NopStore{}, nil
	case "redis":
		store := NewRedisStore(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Driver)
	}
}

// NopStore never holds anything.
type NopStore struct{}

func (NopStore) Get(ctx context.Context, key string) ([]byte, bool, error) { return nil, false, nil }

func (NopStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (NopStore) Delete(ctx context.Context, key string) error { return nil }
