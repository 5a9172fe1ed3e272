package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache is the pluggable cache port the core consumes. The core assumes
// nothing about storage; misses and backend failures both read as "absent".
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

// RedisCache backs the cache port with a shared redis client.
type RedisCache struct {
	Client *redis.Client
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.Client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// Backend trouble degrades to a miss; availability math stays correct.
			return "", false
		}
		return "", false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	c.Client.Set(ctx, key, value, ttl)
}

// NoopCache disables caching; every lookup misses.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (string, bool)          { return "", false }
func (NoopCache) Set(context.Context, string, string, time.Duration) {}
