// Package ratelimit provides a fail-open fixed-window request limiter backed
// by the shared key/value store
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"greenhouse/internal/platform/logger"
	"greenhouse/internal/platform/store"
)

// Decision is the outcome of one admission check, with enough detail for
// informational response headers
type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts requests per identity in fixed windows.
// Fixed windows admit up to 2x limit across a window boundary; that is an
// accepted trade-off for O(1) store operations and no per-identity state
// beyond a single counter.
//
// Failure semantics: any store error allows the request. A down limiter
// store must degrade to "allow all", never "reject all"
type Limiter struct {
	kv       store.KV
	log      logger.Logger
	disabled bool

	now func() time.Time // seam for tests
}

// Config configures the limiter
type Config struct {
	// Disabled short-circuits every check to allowed without touching the
	// store; meant for automated-test environments
	Disabled bool
}

// New builds a Limiter; kv may be nil, which behaves like Disabled
func New(kv store.KV, cfg Config, log logger.Logger) *Limiter {
	return &Limiter{kv: kv, log: log, disabled: cfg.Disabled, now: time.Now}
}

// Allow reports whether one more request from identity fits within limit per
// window. It never blocks beyond the store's bounded op timeout and never
// returns an error: failures resolve to allowed=true
func (l *Limiter) Allow(ctx context.Context, identity string, limit int, window time.Duration) Decision {
	if l == nil || l.disabled || l.kv == nil {
		return Decision{Allowed: true, Limit: limit}
	}
	if identity == "" || limit <= 0 || window <= 0 {
		// misconfiguration is not a reason to reject live traffic
		l.log.Warn().
			Str("identity", identity).
			Int("limit", limit).
			Dur("window", window).
			Msg("rate limiter called with invalid parameters; allowing")
		return Decision{Allowed: true, Limit: limit}
	}

	now := l.now()
	windowStart := now.Truncate(window)
	key := fmt.Sprintf("rl:%s:%d", identity, windowStart.Unix())

	count, err := l.kv.Increment(ctx, key, window)
	if err != nil {
		l.log.Warn().Err(err).Str("identity", identity).Msg("rate limit store failed; failing open")
		return Decision{Allowed: true, Limit: limit}
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    count <= int64(limit),
		Count:      count,
		Limit:      limit,
		Remaining:  remaining,
		RetryAfter: windowStart.Add(window).Sub(now),
	}
}
