package cache

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/redis/go-redis/v9"
)

// DefaultInvalidationChannel is the Redis channel used for cross-instance evictions.
const DefaultInvalidationChannel = "navkit:sitemap:invalidate"

// InvalidateAll is the payload that invalidates every subscribed entry.
const InvalidateAll = "*"

// RedisDependency invalidates an entry when its key (or InvalidateAll) is
// published on a Redis channel. It lets several processes holding the same
// sitemap evict together.
type RedisDependency struct {
	client  redis.UniversalClient
	channel string
	key     string
}

// NewRedisDependency creates a dependency on key published to channel.
// An empty channel selects DefaultInvalidationChannel.
func NewRedisDependency(client redis.UniversalClient, channel, key string) *RedisDependency {
	if channel == "" {
		channel = DefaultInvalidationChannel
	}
	return &RedisDependency{client: client, channel: channel, key: key}
}

// Watch implements Dependency. The subscription is confirmed before it returns.
func (d *RedisDependency) Watch(ctx context.Context, invalidate func()) (io.Closer, error) {
	sub := d.client.Subscribe(context.WithoutCancel(ctx), d.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", d.channel, err)
	}

	var once sync.Once
	ch := sub.Channel()
	go func() {
		for msg := range ch {
			if msg.Payload == d.key || msg.Payload == InvalidateAll {
				once.Do(invalidate)
			}
		}
	}()

	return sub, nil
}

// PublishInvalidation announces that key must be evicted by every subscriber.
func PublishInvalidation(ctx context.Context, client redis.UniversalClient, channel, key string) error {
	if channel == "" {
		channel = DefaultInvalidationChannel
	}
	if err := client.Publish(ctx, channel, key).Err(); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

// Ensure RedisDependency implements Dependency
var _ Dependency = (*RedisDependency)(nil)

// Ensure *redis.PubSub satisfies io.Closer
var _ io.Closer = (*redis.PubSub)(nil)
