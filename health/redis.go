package health

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisChecker pings the Redis instance used for release broadcasts.
// A failing Redis does not stop local serving, so failures are Degraded.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a checker over client.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Name returns "redis".
func (c *RedisChecker) Name() string { return "redis" }

// Check implements Checker.
func (c *RedisChecker) Check(ctx context.Context) Result {
	if err := c.client.Ping(ctx).Err(); err != nil {
		r := Degraded("redis unreachable")
		r.Error = err
		return r
	}
	return Healthy("redis reachable")
}

var _ Checker = (*RedisChecker)(nil)
