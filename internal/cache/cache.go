// Package cache stores raw open-data response bodies so repeated map loads
// do not hit the upstream source every time.
package cache

import (
	"context"
	"fmt"
	"time"
)

// RowCache is a byte cache keyed by request URL.
type RowCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
}

// Backend names accepted by New.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Options configures New.
type Options struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// New returns the configured cache, or nil when caching is disabled.
func New(opts Options) (RowCache, error) {
	if opts.TTL <= 0 {
		return nil, nil
	}
	switch opts.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewMemory(opts.TTL), nil
	case BackendRedis:
		rc := OpenRedis(opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
		if rc == nil {
			return nil, fmt.Errorf("redis cache: empty address")
		}
		return NewRedis(rc, opts.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
