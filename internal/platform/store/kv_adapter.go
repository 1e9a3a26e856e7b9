package store

import (
	"context"
	"time"

	"greenhouse/internal/platform/store/rds"
)

// kvAdapter wraps rds.RDS and implements KV
// it translates a redis miss into ErrKVMiss so callers never import go-redis
type kvAdapter struct {
	r *rds.RDS
}

func newKVAdapter(r *rds.RDS) *kvAdapter { return &kvAdapter{r: r} }

func (a *kvAdapter) Ping(ctx context.Context) error { return a.r.Ping(ctx) }

func (a *kvAdapter) Close() error { return a.r.Close() }

func (a *kvAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := a.r.Get(ctx, key)
	if err != nil {
		if rds.IsMiss(err) {
			return nil, ErrKVMiss
		}
		return nil, err
	}
	return b, nil
}

func (a *kvAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return a.r.Set(ctx, key, value, ttl)
}

func (a *kvAdapter) Delete(ctx context.Context, key string) error {
	return a.r.Delete(ctx, key)
}

func (a *kvAdapter) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return a.r.Increment(ctx, key, ttl)
}
