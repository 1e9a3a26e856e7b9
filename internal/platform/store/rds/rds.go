// Package rds provides a redis client used as the shared key/value store
package rds

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures redis connectivity
type Config struct {
	Addr     string
	DB       int
	Password string

	// OpTimeout bounds every single command; callers treat an expired
	// deadline as a store failure and fall through their fail-open path
	OpTimeout time.Duration
}

// DefaultOpTimeout keeps cache and rate-limit calls in the low tens of milliseconds
const DefaultOpTimeout = 50 * time.Millisecond

// RDS is a redis client with per-call deadlines
type RDS struct {
	Client    *redis.Client
	OpTimeout time.Duration
}

// Open creates the client; connectivity is not verified here since a down
// redis must not prevent process startup
func Open(cfg Config) (*RDS, error) {
	if cfg.Addr == "" {
		return nil, errors.New("rds: empty addr")
	}
	to := cfg.OpTimeout
	if to <= 0 {
		to = DefaultOpTimeout
	}
	c := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		DB:           cfg.DB,
		Password:     cfg.Password,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  to,
		WriteTimeout: to,
	})
	return &RDS{Client: c, OpTimeout: to}, nil
}

// IsMiss reports whether err is a redis key miss
func IsMiss(err error) bool { return errors.Is(err, redis.Nil) }

// Ping checks connectivity within the op timeout
func (r *RDS) Ping(ctx context.Context) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	return r.Client.Ping(ctx).Err()
}

// Close closes the underlying client
func (r *RDS) Close() error { return r.Client.Close() }

// bound derives a per-call context honoring OpTimeout
func (r *RDS) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.OpTimeout)
}

// Get returns the raw value; a miss surfaces as redis.Nil (see IsMiss)
func (r *RDS) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	return r.Client.Get(ctx, key).Bytes()
}

// Set writes value with a TTL
func (r *RDS) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	return r.Client.Set(ctx, key, value, ttl).Err()
}

// Delete removes the key; deleting a missing key is not an error
func (r *RDS) Delete(ctx context.Context, key string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	return r.Client.Del(ctx, key).Err()
}

// Increment atomically bumps the counter and sets the TTL on first use.
// INCR and EXPIRE NX travel in one pipeline so the counter can never be
// created without an expiry
func (r *RDS) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	pipe := r.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	if ttl > 0 {
		pipe.ExpireNX(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
