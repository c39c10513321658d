// Package cache provides the key/value stores behind the OCR page cache.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// Client defines the cache interface.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Close() error
}

// Options selects and configures a driver.
type Options struct {
	Driver     string // none, memory or redis
	MaxEntries int
	Redis      RedisConfig
}

// New builds the client for opts.Driver. "none" and "" return a NoopClient.
func New(opts Options) (Client, error) {
	switch opts.Driver {
	case "memory":
		return NewMemoryClient(opts.MaxEntries), nil
	case "redis":
		return NewRedisClient(opts.Redis)
	default:
		return NoopClient{}, nil
	}
}

// NoopClient never stores anything.
type NoopClient struct{}

func (NoopClient) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }

func (NoopClient) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopClient) Delete(context.Context, string) error { return nil }

func (NoopClient) DeleteByPrefix(context.Context, string) error { return nil }

func (NoopClient) Close() error { return nil }

// CacheKey generates a cache key from components.
func CacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}
