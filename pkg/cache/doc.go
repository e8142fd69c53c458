// Package cache provides a Redis-backed response cache for list endpoints of
// the dashboard REST API.
//
// The cache never short-circuits a request. Every cached GET is revalidated
// upstream with If-None-Match / If-Modified-Since, and a 304 answer is served
// from the stored body. Writes (POST, PATCH, DELETE) invalidate every entry of
// the calling admin's scope, so a list re-fetched after a mutation always
// reflects the server's state.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Scope:       cache.ScopeForToken(token),
//		Endpoint:    "/companies/admin-include",
//		QueryParams: url.Values{"limit": {"10"}, "offset": {"0"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// plain request
//	}
//
// # Conditional Requests
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//	}
//
// # Invalidation
//
//	// after a successful write
//	manager.InvalidateScope(ctx, cache.ScopeForToken(token))
//
// # Metrics
//
//   - dashboard_cache_hits_total{layer="redis"}
//   - dashboard_cache_misses_total
//   - dashboard_cache_size_bytes{layer="redis"}
//   - dashboard_cache_304_responses_total
//   - dashboard_cache_conditional_requests_total
//   - dashboard_cache_invalidations_total
//   - dashboard_cache_errors_total{operation}
package cache
