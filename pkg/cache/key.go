package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// keyPrefix namespaces every cache key in Redis.
const keyPrefix = "dashboard:cache"

// anonymousScope is used for requests sent without a bearer token.
const anonymousScope = "anon"

// CacheKey represents a unique identifier for a cached API response.
type CacheKey struct {
	// Scope separates entries of different admins (see ScopeForToken).
	Scope string

	// Endpoint is the request path (e.g., "/employees/42")
	Endpoint string

	// QueryParams are the query parameters (e.g., {"limit": "10", "offset": "0"})
	QueryParams url.Values
}

// ScopeForToken derives a stable, non-reversible scope from a bearer token.
// Tokens themselves are never written to Redis.
func ScopeForToken(token string) string {
	if token == "" {
		return anonymousScope
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// ScopePattern returns the Redis MATCH pattern covering every key of a scope.
func ScopePattern(scope string) string {
	if scope == "" {
		scope = anonymousScope
	}
	return fmt.Sprintf("%s:%s:*", keyPrefix, scope)
}

// String generates a deterministic cache key string.
// Format: dashboard:cache:scope:endpoint:query1=val1:query2=val2
//
// Example:
//
//	dashboard:cache:1f2e3d4c5b6a7988:employees/42:limit=10:offset=0:search=ann
func (k CacheKey) String() string {
	scope := k.Scope
	if scope == "" {
		scope = anonymousScope
	}
	parts := []string{keyPrefix, scope}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
