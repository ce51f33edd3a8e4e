package cache

import (
	"context"
	"time"

	"github.com/EmpoweredVote/EV-CityMap/internal/logger"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "citymap:rows:"

// Redis shares cached rows across processes. Errors degrade to a miss.
type Redis struct {
	rc  *redis.Client
	ttl time.Duration
}

// OpenRedis opens a client for addr. It returns nil when addr is empty.
func OpenRedis(addr, pass string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	if db < 0 {
		db = 0
	}
	logger.L().Debug().Str("addr", addr).Int("db", db).Msg("redis_open")
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}

func NewRedis(rc *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rc: rc, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.rc.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.L().Warn().Err(err).Msg("redis_get_error")
		}
		return nil, false
	}
	return b, true
}

func (r *Redis) Set(ctx context.Context, key string, val []byte) {
	if err := r.rc.Set(ctx, redisKeyPrefix+key, val, r.ttl).Err(); err != nil {
		logger.L().Warn().Err(err).Msg("redis_set_error")
	}
}
