// Package revocation tracks revoked token IDs until their natural expiry.
// Entries are keyed by jti and expire with the token, so the list stays
// bounded without a sweeper.
package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var checkDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "realmgate_token_revocation_check_duration_ms",
	Help:    "Latency of token revocation checks in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const revokedKeyPrefix = "trl:jti:"

// Redis is the shared revocation list for multi-instance deployments. Key
// expiry mirrors token expiry; Redis SET with TTL is atomic.
type Redis struct {
	client *redis.Client
	clock  func() time.Time
}

// RedisOption configures a Redis revocation list.
type RedisOption func(*Redis)

// WithClock sets the time source, for deterministic TTLs in tests.
func WithClock(clock func() time.Time) RedisOption {
	return func(r *Redis) { r.clock = clock }
}

// NewRedis constructs a Redis-backed revocation list. The client lifecycle
// is managed by the caller.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{client: client, clock: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Revoke marks the token ID revoked until the given expiry. A token that is
// already past its expiry needs no entry.
func (r *Redis) Revoke(ctx context.Context, jti string, until time.Time) error {
	if jti == "" {
		return nil
	}
	ttl := until.Sub(r.clock())
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether the token ID is on the list. A missing key means
// not revoked or already expired.
func (r *Redis) IsRevoked(ctx context.Context, jti string) (bool, error) {
	start := time.Now()
	defer func() {
		checkDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if jti == "" {
		return false, nil
	}
	_, err := r.client.Get(ctx, revokedKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
