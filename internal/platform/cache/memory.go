package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"greenhouse/internal/platform/store"
)

// Memory is an in-process store.KV used when redis is disabled (single-node
// deploys and tests). Entries expire lazily on access plus a periodic sweep
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memEntry

	now func() time.Time // seam for tests
}

type memEntry struct {
	value     []byte
	counter   int64
	isCounter bool
	expiresAt time.Time // zero means no expiry
}

// NewMemory builds an empty in-process kv and starts a sweep goroutine
// bound to ctx
func NewMemory(ctx context.Context) *Memory {
	m := &Memory{entries: make(map[string]memEntry), now: time.Now}
	go m.sweep(ctx)
	return m
}

func (m *Memory) sweep(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			now := m.now()
			m.mu.Lock()
			for k, e := range m.entries {
				if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
					delete(m.entries, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

func (m *Memory) live(e memEntry) bool {
	return e.expiresAt.IsZero() || m.now().Before(e.expiresAt)
}

// Get implements store.KV
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || !m.live(e) {
		return nil, store.ErrKVMiss
	}
	if e.isCounter {
		return []byte(strconv.FormatInt(e.counter, 10)), nil
	}
	return e.value, nil
}

// Set implements store.KV
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Delete implements store.KV
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Increment implements store.KV with the same TTL-on-first-use contract as redis
func (m *Memory) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || !m.live(e) {
		e = memEntry{isCounter: true}
		if ttl > 0 {
			e.expiresAt = m.now().Add(ttl)
		}
	}
	e.counter++
	e.isCounter = true
	m.entries[key] = e
	return e.counter, nil
}
