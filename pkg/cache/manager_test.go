package cache

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis uses DB 15 of a local Redis and skips when none answers.
// The integration-tagged tests bring their own container.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func pageEntry(body string, ttl time.Duration) *CacheEntry {
	return &CacheEntry{
		Data:       []byte(body),
		ETag:       `"page-1"`,
		Expires:    time.Now().Add(ttl),
		StatusCode: http.StatusOK,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		CachedAt:   time.Now(),
	}
}

func pageQuery(offset int) url.Values {
	return url.Values{"limit": {"10"}, "offset": {strconv.Itoa(offset)}}
}

func TestNewManager_NilClient(t *testing.T) {
	assert.Panics(t, func() { NewManager(nil) })
}

func TestManager_PageLifecycle(t *testing.T) {
	m := NewManager(setupTestRedis(t))
	ctx := context.Background()

	key := CacheKey{
		Scope:       ScopeForToken("admin-token"),
		Endpoint:    "/companies/admin-include",
		QueryParams: pageQuery(0),
	}

	_, err := m.Get(ctx, key)
	require.ErrorIs(t, err, ErrCacheMiss, "cold cache")

	stored := pageEntry(companyPage, time.Minute)
	require.NoError(t, m.Set(ctx, key, stored))

	got, err := m.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, companyPage, string(got.Data))
	assert.Equal(t, stored.ETag, got.ETag)
	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, "application/json", got.Headers.Get("Content-Type"))

	// A 304 revalidation pushes the expiry out without touching the body.
	later := time.Now().Add(10 * time.Minute)
	require.NoError(t, m.UpdateTTL(ctx, key, later))
	got, err = m.Get(ctx, key)
	require.NoError(t, err)
	assert.WithinDuration(t, later, got.Expires, time.Second)
	assert.Equal(t, companyPage, string(got.Data))

	require.NoError(t, m.Delete(ctx, key))
	_, err = m.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.ErrorIs(t, m.UpdateTTL(ctx, key, later), ErrCacheMiss, "nothing left to refresh")
}

func TestManager_SetSkipsUnusableEntries(t *testing.T) {
	m := NewManager(setupTestRedis(t))
	ctx := context.Background()
	key := CacheKey{Endpoint: "/employees/admin-exclude/c1"}

	assert.Error(t, m.Set(ctx, key, nil))

	// Already stale: accepted but never stored.
	require.NoError(t, m.Set(ctx, key, pageEntry(`{"data":[],"total":0}`, -time.Hour)))
	_, err := m.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestManager_GetCorruptEntry(t *testing.T) {
	client := setupTestRedis(t)
	m := NewManager(client)
	ctx := context.Background()
	key := CacheKey{Endpoint: "/companies/admin-include"}

	require.NoError(t, client.Set(ctx, key.String(), "not json", time.Minute).Err())

	_, err := m.Get(ctx, key)
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

func TestManager_InvalidateScope(t *testing.T) {
	m := NewManager(setupTestRedis(t))
	ctx := context.Background()

	mine := ScopeForToken("token-a")
	theirs := ScopeForToken("token-b")

	keys := []CacheKey{
		{Scope: mine, Endpoint: "/companies/admin-include", QueryParams: pageQuery(0)},
		{Scope: mine, Endpoint: "/companies/admin-include", QueryParams: pageQuery(10)},
		{Scope: mine, Endpoint: "/employees/admin-include/c1"},
		{Scope: theirs, Endpoint: "/companies/admin-include", QueryParams: pageQuery(0)},
	}
	for _, key := range keys {
		require.NoError(t, m.Set(ctx, key, pageEntry(companyPage, time.Minute)))
	}

	deleted, err := m.InvalidateScope(ctx, mine)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	for _, key := range keys[:3] {
		_, err := m.Get(ctx, key)
		assert.ErrorIs(t, err, ErrCacheMiss, key.String())
	}
	_, err = m.Get(ctx, keys[3])
	assert.NoError(t, err, "another session's pages must survive")

	deleted, err = m.InvalidateScope(ctx, mine)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
