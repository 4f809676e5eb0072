package auth

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttle counts failed password attempts per identifier in Redis and
// blocks further attempts once the limit is reached. A blocked identifier
// surfaces as the same generic authentication failure as a wrong password.
type Throttle struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewThrottle constructs a Throttle.
func NewThrottle(client *redis.Client, limit int64, window time.Duration) *Throttle {
	return &Throttle{client: client, limit: limit, window: window}
}

func (t *Throttle) key(identifier string) string {
	return "gatehouse:login_fail:" + strings.ToLower(identifier)
}

// Blocked reports whether the identifier has exhausted its attempts. Redis
// errors fail open: an unavailable cache must not lock everyone out.
func (t *Throttle) Blocked(ctx context.Context, identifier string) bool {
	count, err := t.client.Get(ctx, t.key(identifier)).Int64()
	if err != nil {
		return false
	}
	return count >= t.limit
}

// RecordFailure increments the failure counter and refreshes the window.
func (t *Throttle) RecordFailure(ctx context.Context, identifier string) {
	key := t.key(identifier)
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.window)
	_, _ = pipe.Exec(ctx)
}

// Reset clears the failure counter after a successful login.
func (t *Throttle) Reset(ctx context.Context, identifier string) {
	_ = t.client.Del(ctx, t.key(identifier)).Err()
}
