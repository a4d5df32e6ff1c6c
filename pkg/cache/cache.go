package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ICache define cache interface (abstract)
type ICache interface {
	// Get fetch a cached value
	Get(ctx context.Context, key string) *redis.StringCmd
	// Set store a value with expiration
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	// Del remove keys
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	// Expire reset a key expiration
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	// Pipeline create a command pipeline
	Pipeline() redis.Pipeliner
}
