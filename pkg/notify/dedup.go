package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper answers whether a notification key is being seen for the first
// time within its TTL. Implementations must be safe for concurrent use.
type Deduper interface {
	// Once reports true the first time key is seen within ttl, and false
	// while an earlier sighting is still fresh.
	Once(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisDeduper tracks delivered notifications in Redis, so suppression
// holds across processes and restarts.
type RedisDeduper struct {
	client *redis.Client
}

// NewRedisDeduper creates a Redis-backed deduper.
// Panics when the client is nil.
func NewRedisDeduper(client *redis.Client) *RedisDeduper {
	if client == nil {
		panic("notify: redis client is required")
	}
	return &RedisDeduper{client: client}
}

// Once claims the key with SETNX; the TTL lets the same key fire again for
// the next billing term.
func (d *RedisDeduper) Once(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	first, err := d.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, errors.Join(ErrDedupUnavailable, err)
	}
	return first, nil
}

// MemoryDeduper is an in-process Deduper for tests and single-node setups.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewMemoryDeduper creates an empty in-memory deduper.
func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{
		seen: make(map[string]time.Time),
	}
}

func (d *MemoryDeduper) Once(_ context.Context, key string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if expiry, ok := d.seen[key]; ok && now.Before(expiry) {
		return false, nil
	}
	d.seen[key] = now.Add(ttl)
	return true, nil
}
