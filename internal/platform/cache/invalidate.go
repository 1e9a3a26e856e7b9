package cache

import (
	"context"
	"strconv"
	"time"

	"greenhouse/internal/platform/logger"
	"greenhouse/internal/platform/store"
)

// Invalidator clears cache entries made stale by an entity mutation.
// Every operation is best-effort: the triggering write has already committed,
// so a cache failure is logged and absorbed, never propagated.
//
// Callers MUST invoke OnEntitySaved after the transaction commits, not inside
// it; invalidating before commit visibility lets a concurrent reader
// repopulate the cache with pre-mutation data
type Invalidator struct {
	kv   store.KV
	keys *Keys
	log  logger.Logger
}

// NewInvalidator builds an Invalidator; kv may be nil (caching disabled)
func NewInvalidator(kv store.KV, keys *Keys, log logger.Logger) *Invalidator {
	return &Invalidator{kv: kv, keys: keys, log: log}
}

// OnEntitySaved clears the detail key for (entityType, id) and bumps the
// per-type listing epoch so every listing key for the type goes stale at once
func (i *Invalidator) OnEntitySaved(ctx context.Context, entityType, id string) {
	if i == nil || i.kv == nil {
		return
	}

	if dk, err := i.keys.Detail(i.Generation(ctx), entityType, id); err != nil {
		i.log.Warn().Err(err).Str("type", entityType).Str("id", id).Msg("bad detail key; skipping invalidation")
	} else if err := i.kv.Delete(ctx, dk); err != nil {
		i.log.Warn().Err(err).Str("key", dk).Msg("detail invalidation failed; entry expires by ttl")
	}

	ek := i.keys.epochKey(entityType)
	// epoch counters never expire; a lost counter just looks like epoch 0
	if _, err := i.kv.Increment(ctx, ek, 0); err != nil {
		i.log.Warn().Err(err).Str("key", ek).Msg("listing epoch bump failed; listings expire by ttl")
	}
}

// Epoch returns the current listing epoch for entityType.
// Unknown or unreachable counters read as 0 so listing keys still render and
// reads fall through to storage
func (i *Invalidator) Epoch(ctx context.Context, entityType string) int64 {
	if i == nil || i.kv == nil {
		return 0
	}
	b, err := i.kv.Get(ctx, i.keys.epochKey(entityType))
	if err != nil {
		if err != store.ErrKVMiss {
			i.log.Warn().Err(err).Str("type", entityType).Msg("epoch read failed; using 0")
		}
		return 0
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		i.log.Warn().Err(err).Str("type", entityType).Msg("epoch counter corrupt; using 0")
		return 0
	}
	return n
}

// Generation returns the shared key generation every process instance renders
// against. Unknown or unreachable counters read as 0 so keys still render and
// reads fall through to storage
func (i *Invalidator) Generation(ctx context.Context) int64 {
	if i == nil || i.kv == nil {
		return 0
	}
	b, err := i.kv.Get(ctx, i.keys.genKey())
	if err != nil {
		if err != store.ErrKVMiss {
			i.log.Warn().Err(err).Msg("generation read failed; using 0")
		}
		return 0
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		i.log.Warn().Err(err).Msg("generation counter corrupt; using 0")
		return 0
	}
	return n
}

// ClearAll orphans every key rendered under the current generation in O(1)
// by bumping the shared generation counter; nothing is iterated or deleted,
// the old entries simply become unreachable and expire by ttl. The counter
// lives in the kv store, so the bump is observed by every process instance,
// not just the caller
func (i *Invalidator) ClearAll(ctx context.Context) int64 {
	if i == nil || i.kv == nil {
		return 0
	}
	// the entries live in the same store; if it cannot bump the counter there
	// is nothing reachable to orphan either
	gen, err := i.kv.Increment(ctx, i.keys.genKey(), 0)
	if err != nil {
		i.log.Warn().Err(err).Msg("generation bump failed; cache not cleared")
		return i.Generation(ctx)
	}
	i.log.Info().Int64("generation", gen).Msg("cache generation bumped; all prior keys orphaned")
	return gen
}

// ListingTTL is the default listing cache lifetime; short because orphaned
// listing entries linger until expiry after an epoch bump
const ListingTTL = 5 * time.Minute

// DetailTTL is the default detail cache lifetime
const DetailTTL = 15 * time.Minute
