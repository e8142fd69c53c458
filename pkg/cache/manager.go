package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss is returned for absent and expired keys.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry wraps a stored value that no longer decodes.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// scanBatch is the COUNT hint used when scanning keys for invalidation.
const scanBatch = 100

// Manager stores list pages in Redis, keyed per admin scope.
type Manager struct {
	redis *redis.Client
}

// NewManager panics on a nil client; callers without Redis run uncached.
func NewManager(rdb *redis.Client) *Manager {
	if rdb == nil {
		panic("cache: nil redis client")
	}
	return &Manager{redis: rdb}
}

// fail counts err against op and wraps it with the operation name.
func fail(op string, err error) error {
	CacheErrors.WithLabelValues(op).Inc()
	return fmt.Errorf("cache %s: %w", op, err)
}

// Get loads the entry for key. Missing and expired entries both yield
// ErrCacheMiss; expired ones are removed on the way.
func (m *Manager) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	raw, err := m.redis.Get(ctx, key.String()).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	case err != nil:
		return nil, fail("get", err)
	}

	entry := new(CacheEntry)
	if err := json.Unmarshal(raw, entry); err != nil {
		return nil, fail("get", fmt.Errorf("%w: %v", ErrInvalidEntry, err))
	}
	if entry.IsExpired() {
		_ = m.Delete(ctx, key)
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("redis").Inc()
	return entry, nil
}

// Set writes entry with a Redis expiry matching entry.Expires. Entries
// that are already stale are dropped silently.
func (m *Manager) Set(ctx context.Context, key CacheKey, entry *CacheEntry) error {
	if entry == nil {
		return errors.New("cache set: nil entry")
	}
	ttl := entry.TTL()
	if ttl == 0 {
		return nil
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fail("set", err)
	}
	if err := m.redis.Set(ctx, key.String(), raw, ttl).Err(); err != nil {
		return fail("set", err)
	}

	CacheSize.WithLabelValues("redis").Add(float64(len(raw)))
	return nil
}

// Delete removes key; deleting an absent key is not an error.
func (m *Manager) Delete(ctx context.Context, key CacheKey) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		return fail("delete", err)
	}
	return nil
}

// UpdateTTL moves the expiry of a stored entry, as after a 304 carrying
// fresh caching headers.
func (m *Manager) UpdateTTL(ctx context.Context, key CacheKey, expires time.Time) error {
	entry, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	entry.Expires = expires
	return m.Set(ctx, key, entry)
}

// InvalidateScope deletes every entry cached for scope and reports how
// many keys went away.
func (m *Manager) InvalidateScope(ctx context.Context, scope string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	pattern := ScopePattern(scope)

	for {
		keys, next, err := m.redis.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return deleted, fail("invalidate", err)
		}
		if len(keys) > 0 {
			n, err := m.redis.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fail("invalidate", err)
			}
			deleted += int(n)
			Invalidations.Add(float64(n))
		}
		if cursor = next; cursor == 0 {
			return deleted, nil
		}
	}
}
