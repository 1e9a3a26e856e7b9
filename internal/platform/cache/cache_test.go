package cache

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"greenhouse/internal/platform/store"

	"github.com/rs/zerolog"
)

var testLog = zerolog.New(io.Discard)

// brokenKV fails every operation; used to prove fail-open behavior
type brokenKV struct{}

func (brokenKV) Get(context.Context, string) ([]byte, error) { return nil, errors.New("kv down") }
func (brokenKV) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("kv down")
}
func (brokenKV) Delete(context.Context, string) error { return errors.New("kv down") }
func (brokenKV) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("kv down")
}

func TestGetOrFill_MissFillsAndCaches(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory(ctx)
	c := New(kv, testLog)

	fills := 0
	fill := func(ctx context.Context) ([]byte, error) {
		fills++
		return []byte(`{"slug":"edital-2026"}`), nil
	}

	for i := 0; i < 3; i++ {
		b, err := c.GetOrFill(ctx, "k", time.Minute, fill)
		if err != nil {
			t.Fatalf("GetOrFill: %v", err)
		}
		if string(b) != `{"slug":"edital-2026"}` {
			t.Fatalf("unexpected value %q", b)
		}
	}
	if fills != 1 {
		t.Fatalf("fill ran %d times, want 1", fills)
	}
}

func TestGetOrFill_StoreFailureFallsThroughToFill(t *testing.T) {
	ctx := context.Background()
	c := New(brokenKV{}, testLog)

	fills := 0
	b, err := c.GetOrFill(ctx, "k", time.Minute, func(ctx context.Context) ([]byte, error) {
		fills++
		return []byte("v"), nil
	})
	if err != nil {
		t.Fatalf("store failure must not surface: %v", err)
	}
	if string(b) != "v" || fills != 1 {
		t.Fatalf("expected fill result, got %q fills=%d", b, fills)
	}
}

func TestGetOrFill_NilKVAlwaysFills(t *testing.T) {
	ctx := context.Background()
	c := New(nil, testLog)

	fills := 0
	for i := 0; i < 2; i++ {
		if _, err := c.GetOrFill(ctx, "k", time.Minute, func(ctx context.Context) ([]byte, error) {
			fills++
			return []byte("v"), nil
		}); err != nil {
			t.Fatalf("GetOrFill: %v", err)
		}
	}
	if fills != 2 {
		t.Fatalf("nil kv must fill every call, fills=%d", fills)
	}
}

func TestGetOrFill_FillErrorPropagatesAndIsNotCached(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory(ctx)
	c := New(kv, testLog)

	boom := errors.New("storage down")
	if _, err := c.GetOrFill(ctx, "k", time.Minute, func(ctx context.Context) ([]byte, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected fill error, got %v", err)
	}

	if _, err := kv.Get(ctx, "k"); err != store.ErrKVMiss {
		t.Fatalf("failed fill must not cache, got err=%v", err)
	}
}

func TestDelete_BestEffort(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory(ctx)
	c := New(kv, testLog)

	_ = kv.Set(ctx, "k", []byte("v"), 0)
	c.Delete(ctx, "k")
	if _, err := kv.Get(ctx, "k"); err != store.ErrKVMiss {
		t.Fatalf("expected miss after delete, got %v", err)
	}

	// broken and nil stores must not panic
	New(brokenKV{}, testLog).Delete(ctx, "k")
	New(nil, testLog).Delete(ctx, "k")
}
