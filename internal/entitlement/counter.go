// internal/entitlement/counter.go
package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClientCounter trusts the count the client reports. It keeps no state: the client
// stores the count itself and sends it back with each request.
type ClientCounter struct{}

func (ClientCounter) Increment(_ context.Context, caller Caller, _ Feature) (int, error) {
	return max(caller.ReportedUses, 0), nil
}

// DefaultKeyPrefix namespaces the trial counters in Redis.
const DefaultKeyPrefix = "oracle:trial"

// RedisCounter counts anonymous uses per guest token in Redis. Keys expire after TTL
// so abandoned guest tokens do not accumulate. Callers without a guest token fall back
// to the count they report.
type RedisCounter struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCounter(rdb *redis.Client, ttl time.Duration) *RedisCounter {
	return &RedisCounter{rdb: rdb, ttl: ttl, prefix: DefaultKeyPrefix}
}

func (c *RedisCounter) key(feature Feature, guestToken string) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, feature, guestToken)
}

func (c *RedisCounter) Increment(ctx context.Context, caller Caller, feature Feature) (int, error) {
	if caller.GuestToken == "" {
		return max(caller.ReportedUses, 0), nil
	}

	key := c.key(feature, caller.GuestToken)
	var incr *redis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment trial counter '%s': %w", key, err)
	}

	n := int(incr.Val())
	// The client may have used the feature before this server started counting it.
	return max(n-1, caller.ReportedUses, 0), nil
}

